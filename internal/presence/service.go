package presence

import (
	"context"
	"math/rand"
	"time"

	"github.com/tzkusman/live-storefront/internal/domain"
	"github.com/tzkusman/live-storefront/internal/hub"
	"github.com/tzkusman/live-storefront/internal/log"
	"github.com/tzkusman/live-storefront/internal/store"
)

// Palette is the fixed set of cursor colors. One is picked uniformly at
// random when a participant joins and stays stable for the session.
var Palette = []string{
	"#3ecf8e", "#3b82f6", "#ef4444", "#f59e0b",
	"#8b5cf6", "#ec4899", "#06b6d4", "#10b981",
}

const fallbackUsername = "Anonymous"

// Events crossing the instance fan-out channel.
const (
	eventJoin   = "join"
	eventUpdate = "update"
	eventLeave  = "leave"
)

// Config holds presence service configuration.
type Config struct {
	HeartbeatTimeout time.Duration
	SweepInterval    time.Duration
	InstanceID       string
}

type presenceService struct {
	registry  *Registry
	hub       Broadcaster
	store     store.PresenceStore
	validator TokenValidator
	config    Config

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a presence Service.
func NewService(b Broadcaster, s store.PresenceStore, v TokenValidator, cfg Config) Service {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 10 * time.Second
	}
	if cfg.HeartbeatTimeout <= 0 {
		cfg.HeartbeatTimeout = 90 * time.Second
	}
	return &presenceService{
		registry:  NewRegistry(),
		hub:       b,
		store:     s,
		validator: v,
		config:    cfg,
		done:      make(chan struct{}),
	}
}

func (s *presenceService) HandleJoin(ctx context.Context, c *hub.Client, tokenStr string) error {
	if tokenStr == "" {
		return c.SendMessage(domain.NewErrorMessage("token required"))
	}

	userID, _, username, err := s.validator.ValidateToken(tokenStr)
	if err != nil {
		return c.SendMessage(domain.NewErrorMessage("invalid token"))
	}
	if username == "" {
		username = fallbackUsername
	}

	c.UserID = userID
	c.Username = username
	c.Color = Palette[rand.Intn(len(Palette))]

	// Initial self record at the origin, sequence zero.
	self := domain.Cursor{
		UserID:   userID,
		Username: username,
		X:        0,
		Y:        0,
		Color:    c.Color,
	}

	// A new session always restarts its publish sequence, so the guard left
	// by a previous session of the same identity must not outlive it.
	s.registry.Rejoin(userID)
	_, joined := s.registry.Apply(self, 0, time.Now())

	// Share whatever record won, so a rejoin keeps its last known position
	// while still resetting the shared watermark.
	record, _ := s.registry.Get(userID)
	s.share(ctx, eventJoin, record, 0)

	if err := c.SendMessage(&domain.JoinedMessage{Type: domain.MsgTypeJoined, Self: self}); err != nil {
		l := log.Ctx(ctx)
		l.Debug().Err(err).Str(log.FieldUserID, userID).Msg("failed to send joined message")
	}

	if joined {
		s.hub.Broadcast(&domain.PresenceEventMessage{Type: domain.MsgTypeJoin, UserID: userID}, c.ID)
	}
	s.broadcastSync()

	l := log.Ctx(ctx)
	l.Info().Str(log.FieldUserID, userID).Str(log.FieldUsername, username).Msg("participant joined presence channel")
	return nil
}

func (s *presenceService) HandleCursor(ctx context.Context, c *hub.Client, msg *domain.CursorMessage) error {
	if c.UserID == "" {
		return c.SendMessage(domain.NewErrorMessage("join before publishing cursor state"))
	}

	// Identity, name and color never change after join; only the position
	// moves with each publish.
	cursor := domain.Cursor{
		UserID:   c.UserID,
		Username: c.Username,
		X:        msg.X,
		Y:        msg.Y,
		Color:    c.Color,
	}

	applied, _ := s.registry.Apply(cursor, msg.Seq, time.Now())
	if !applied {
		// Out-of-order publish; the newer position already won.
		return nil
	}

	s.share(ctx, eventUpdate, cursor, msg.Seq)
	s.broadcastSync()
	return nil
}

func (s *presenceService) HandleHeartbeat(ctx context.Context, c *hub.Client) error {
	if c.UserID != "" {
		s.registry.Touch(c.UserID, time.Now())
	}
	return c.SendMessage(&domain.BaseMessage{Type: domain.MsgTypePong})
}

func (s *presenceService) HandleLeave(ctx context.Context, c *hub.Client) error {
	if c.UserID == "" {
		return nil
	}
	userID := c.UserID
	c.UserID = ""

	if !s.registry.Remove(userID) {
		return nil
	}

	s.withdraw(ctx, userID)
	s.hub.Broadcast(&domain.PresenceEventMessage{Type: domain.MsgTypeLeave, UserID: userID}, c.ID)
	s.broadcastSync()

	l := log.Ctx(ctx)
	l.Info().Str(log.FieldUserID, userID).Msg("participant left presence channel")
	return nil
}

func (s *presenceService) HandleDisconnect(ctx context.Context, c *hub.Client) error {
	return s.HandleLeave(ctx, c)
}

func (s *presenceService) ApplyRemote(ctx context.Context, payload *domain.CursorUpdatePayload) {
	if payload.OriginInstanceID != "" && payload.OriginInstanceID == s.config.InstanceID {
		return
	}

	switch payload.Event {
	case eventLeave:
		if s.registry.Remove(payload.Cursor.UserID) {
			s.hub.Broadcast(&domain.PresenceEventMessage{Type: domain.MsgTypeLeave, UserID: payload.Cursor.UserID}, "")
			s.broadcastSync()
		}
	case eventJoin:
		// A peer instance accepted a fresh session; reset the local guard
		// too, or its publishes would be stale here forever.
		s.registry.Rejoin(payload.Cursor.UserID)
		fallthrough
	default:
		applied, joined := s.registry.Apply(payload.Cursor, payload.Seq, time.Now())
		if joined {
			s.hub.Broadcast(&domain.PresenceEventMessage{Type: domain.MsgTypeJoin, UserID: payload.Cursor.UserID}, "")
		}
		if applied {
			s.broadcastSync()
		}
	}
}

func (s *presenceService) Snapshot() map[string]domain.Cursor {
	return s.registry.Snapshot()
}

// Start warm-loads the shared snapshot and begins the heartbeat-expiry sweep.
func (s *presenceService) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if s.store != nil {
		if cursors, err := s.store.LoadCursors(ctx); err != nil {
			l := log.L()
			l.Warn().Err(err).Msg("failed to warm-load presence snapshot")
		} else {
			now := time.Now()
			for _, stored := range cursors {
				s.registry.Apply(stored.Cursor, stored.Seq, now)
			}
		}
	}

	go s.sweepLoop(ctx)
	return nil
}

func (s *presenceService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *presenceService) sweepLoop(ctx context.Context) {
	defer close(s.done)

	l := log.Component("sweep")
	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			expired := s.registry.Sweep(s.config.HeartbeatTimeout, now)
			if len(expired) == 0 {
				continue
			}
			for _, userID := range expired {
				s.withdraw(ctx, userID)
				s.hub.Broadcast(&domain.PresenceEventMessage{Type: domain.MsgTypeLeave, UserID: userID}, "")
				l.Info().Str(log.FieldUserID, userID).Msg("participant expired from presence channel")
			}
			s.broadcastSync()
		}
	}
}

// share persists an accepted update and fans it out to peer instances.
// Failures are logged and dropped; cursor state is cosmetic and the next
// publish supersedes whatever was lost.
func (s *presenceService) share(ctx context.Context, event string, c domain.Cursor, seq uint64) {
	if s.store == nil {
		return
	}
	if err := s.store.SetCursor(ctx, c, seq); err != nil {
		l := log.Ctx(ctx)
		l.Debug().Err(err).Str(log.FieldUserID, c.UserID).Msg("failed to store cursor")
	}
	if err := s.store.PublishUpdate(ctx, domain.CursorUpdatePayload{Event: event, Cursor: c, Seq: seq}); err != nil {
		l := log.Ctx(ctx)
		l.Debug().Err(err).Str(log.FieldUserID, c.UserID).Msg("failed to publish cursor update")
	}
}

func (s *presenceService) withdraw(ctx context.Context, userID string) {
	if s.store == nil {
		return
	}
	if err := s.store.RemoveCursor(ctx, userID); err != nil {
		l := log.Ctx(ctx)
		l.Debug().Err(err).Str(log.FieldUserID, userID).Msg("failed to remove cursor")
	}
	payload := domain.CursorUpdatePayload{Event: eventLeave, Cursor: domain.Cursor{UserID: userID}}
	if err := s.store.PublishUpdate(ctx, payload); err != nil {
		l := log.Ctx(ctx)
		l.Debug().Err(err).Str(log.FieldUserID, userID).Msg("failed to publish leave")
	}
}

func (s *presenceService) broadcastSync() {
	s.hub.Broadcast(&domain.SyncMessage{
		Type:         domain.MsgTypeSync,
		Participants: s.registry.Snapshot(),
	}, "")
}
