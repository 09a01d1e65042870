package service

import (
	"context"

	"github.com/tzkusman/live-storefront/internal/domain"
)

// SessionEvent describes a session change: sign-in, sign-up or sign-out.
type SessionEvent struct {
	UserID   string
	SignedIn bool
}

// AuthService manages accounts and session tokens.
type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	Refresh(ctx context.Context, req *domain.RefreshTokenRequest) (*domain.AuthResponse, error)
	Logout(ctx context.Context, userID string) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	// ValidateToken checks an access token and reports the session identity.
	ValidateToken(tokenString string) (userID, email, username string, err error)
	// SubscribeSessionChanges registers a callback observed on every
	// sign-in, sign-up and sign-out.
	SubscribeSessionChanges(fn func(SessionEvent))
}

// CatalogService serves the product catalog projection.
type CatalogService interface {
	// List fetches the wholesale projection: all products newest-first
	// plus all categories.
	List(ctx context.Context) (*domain.Catalog, error)
	// Create validates a draft by type coercion, inserts it, and returns
	// the re-fetched projection rather than merging the new record.
	Create(ctx context.Context, draft *domain.ProductDraft) (*domain.Catalog, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// CartService holds each session's ephemeral cart.
type CartService interface {
	Get(userID string) domain.CartResponse
	Add(userID string, product domain.Product) domain.CartResponse
	Remove(userID, productID string) domain.CartResponse
	// Clear drops a session's cart entirely, e.g. when the session ends.
	Clear(userID string)
}

// StoreState is the readiness state of the storefront's backing storage.
type StoreState string

const (
	StateUnauthenticated StoreState = "unauthenticated"
	StateChecking        StoreState = "checking"
	StateReady           StoreState = "ready"
	StateSchemaMissing   StoreState = "schema_missing"
	StateUnreachable     StoreState = "unreachable"
)

// Status is the gateway's current view of the storage backend.
type Status struct {
	State  StoreState `json:"state"`
	Detail string     `json:"detail,omitempty"`
}

// StatusService drives the readiness state machine.
type StatusService interface {
	// Current returns the last probed status without re-probing.
	Current() Status
	// Refresh runs the readiness probe and returns the resulting status.
	Refresh(ctx context.Context) Status
	// OnSessionChange re-drives the probe for sign-ins and falls back to
	// the unauthenticated entry state for sign-outs.
	OnSessionChange(ev SessionEvent)
}
