package domain

// WebSocket message types from client.
const (
	MsgTypeJoin   = "join"
	MsgTypeCursor = "cursor"
	MsgTypeLeave  = "leave"
	MsgTypePing   = "ping"
)

// WebSocket message types to client.
const (
	MsgTypeJoined = "joined"
	MsgTypeSync   = "sync"
	MsgTypeError  = "error"
	MsgTypePong   = "pong"
)

// Cursor is one participant's published state on the presence channel:
// identity, display name, normalized pointer position and session color.
// x and y are percentages of the viewport in [0,100].
type Cursor struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Color    string  `json:"color"`
}

// Client -> Server messages

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// JoinMessage subscribes the connection to the presence channel.
type JoinMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// CursorMessage publishes a fresh pointer position. Seq is a per-publisher
// monotonically increasing counter; the server discards anything at or below
// the last applied value, so late delivery cannot regress a position.
type CursorMessage struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Seq  uint64  `json:"seq"`
}

// Server -> Client messages

// JoinedMessage confirms subscription and carries the assigned self record.
type JoinedMessage struct {
	Type string `json:"type"`
	Self Cursor `json:"self"`
}

// SyncMessage is the full membership snapshot, keyed by participant identity.
// Receivers replace their whole rendered mapping with it.
type SyncMessage struct {
	Type         string            `json:"type"`
	Participants map[string]Cursor `json:"participants"`
}

// PresenceEventMessage announces a single join or leave. These are
// diagnostic only; rendered state is driven solely by sync snapshots.
type PresenceEventMessage struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
}

// ErrorMessage is sent when an error occurs.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewErrorMessage creates a new error message.
func NewErrorMessage(message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Message: message,
	}
}

// CursorUpdatePayload crosses the Redis Pub/Sub channel between instances.
type CursorUpdatePayload struct {
	Event            string `json:"event"` // "join", "update" or "leave"
	Cursor           Cursor `json:"cursor"`
	Seq              uint64 `json:"seq"`
	OriginInstanceID string `json:"origin_instance_id,omitempty"`
}
