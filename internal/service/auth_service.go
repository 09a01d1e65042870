package service

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/tzkusman/live-storefront/internal/domain"
	"github.com/tzkusman/live-storefront/internal/log"
	"github.com/tzkusman/live-storefront/internal/repository"
	"github.com/tzkusman/live-storefront/internal/token"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

type authService struct {
	repo     repository.UserRepository
	tokens   *token.Manager
	mu       sync.RWMutex
	watchers []func(SessionEvent)
}

// NewAuthService creates a new auth service.
func NewAuthService(repo repository.UserRepository, tokens *token.Manager) AuthService {
	return &authService{
		repo:   repo,
		tokens: tokens,
	}
}

// Register creates an account and opens a session. The account is confirmed
// immediately, the way the local-auth bootstrap trigger does it.
func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	user := &domain.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		l.Error().Err(err).Msg("failed to create user")
		return nil, err
	}

	resp, err := s.issueTokens(user)
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to generate tokens after register")
		return nil, err
	}

	s.notify(SessionEvent{UserID: user.ID, SignedIn: true})
	return resp, nil
}

// Login authenticates a user.
func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		l.Error().Err(err).Msg("failed to get user by email")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	resp, err := s.issueTokens(user)
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to generate tokens after login")
		return nil, err
	}

	s.notify(SessionEvent{UserID: user.ID, SignedIn: true})
	return resp, nil
}

// Refresh exchanges a refresh token for a fresh pair.
func (s *authService) Refresh(ctx context.Context, req *domain.RefreshTokenRequest) (*domain.AuthResponse, error) {
	claims, err := s.tokens.ValidateToken(req.RefreshToken)
	if err != nil || claims.Type != "refresh" {
		return nil, token.ErrInvalidToken
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	resp, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.notify(SessionEvent{UserID: user.ID, SignedIn: true})
	return resp, nil
}

// Logout revokes the user's tokens unconditionally.
func (s *authService) Logout(ctx context.Context, userID string) error {
	s.tokens.RevokeUserTokens(userID)
	s.notify(SessionEvent{UserID: userID, SignedIn: false})
	return nil
}

// GetUser returns the current user's profile.
func (s *authService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ValidateToken checks an access token and reports the session identity.
func (s *authService) ValidateToken(tokenString string) (userID, email, username string, err error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return "", "", "", err
	}
	if claims.Type != "access" {
		return "", "", "", token.ErrInvalidToken
	}
	return claims.UserID, claims.Email, claims.Username, nil
}

func (s *authService) SubscribeSessionChanges(fn func(SessionEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

func (s *authService) notify(ev SessionEvent) {
	s.mu.RLock()
	watchers := make([]func(SessionEvent), len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.RUnlock()

	for _, fn := range watchers {
		fn(ev)
	}
}

func (s *authService) issueTokens(user *domain.User) (*domain.AuthResponse, error) {
	accessToken, refreshToken, accessExp, err := s.tokens.GenerateTokenPair(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, err
	}

	return &domain.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
	}, nil
}
