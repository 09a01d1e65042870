package presence

import (
	"context"

	"github.com/tzkusman/live-storefront/internal/domain"
	"github.com/tzkusman/live-storefront/internal/hub"
)

// Service handles presence channel operations.
type Service interface {
	// HandleJoin subscribes an authenticated connection to the channel and
	// publishes its initial self record.
	HandleJoin(ctx context.Context, c *hub.Client, token string) error
	// HandleCursor publishes a fresh pointer position for the connection.
	HandleCursor(ctx context.Context, c *hub.Client, msg *domain.CursorMessage) error
	// HandleHeartbeat refreshes liveness and answers with a pong.
	HandleHeartbeat(ctx context.Context, c *hub.Client) error
	// HandleLeave withdraws the connection's participant from the channel.
	HandleLeave(ctx context.Context, c *hub.Client) error
	// HandleDisconnect is invoked when a connection drops without leaving.
	HandleDisconnect(ctx context.Context, c *hub.Client) error
	// ApplyRemote folds an update published by a peer instance into local state.
	ApplyRemote(ctx context.Context, payload *domain.CursorUpdatePayload)
	// Snapshot returns the current membership state.
	Snapshot() map[string]domain.Cursor

	Start(ctx context.Context) error
	Stop()
}

// Broadcaster fans a message out to every connected client, optionally
// excluding one. *hub.Hub satisfies this.
type Broadcaster interface {
	Broadcast(message interface{}, exclude string) error
}

// TokenValidator checks a bearer token and reports the session identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (userID, email, username string, err error)
}
