package token

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrRevokedToken = errors.New("token has been revoked")
)

// Claims represents JWT claims for a storefront session.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Type     string `json:"type"` // "access" or "refresh"
}

// Manager signs and validates session tokens. Keys are generated at startup,
// so tokens only survive as long as the process.
type Manager struct {
	privateKey      *rsa.PrivateKey
	publicKey       *rsa.PublicKey
	accessDuration  time.Duration
	refreshDuration time.Duration
	issuer          string

	// In-memory revocation store, keyed by user ID. Sign-out revokes
	// every token the user holds.
	revokedTokens map[string]time.Time
	mu            sync.RWMutex
}

// NewManager creates a new token manager.
func NewManager(accessDuration, refreshDuration time.Duration, issuer string) (*Manager, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	return &Manager{
		privateKey:      privateKey,
		publicKey:       &privateKey.PublicKey,
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
		issuer:          issuer,
		revokedTokens:   make(map[string]time.Time),
	}, nil
}

// GenerateTokenPair creates access and refresh tokens for a user. Generating
// a fresh pair clears any previous revocation, so a user can sign back in.
func (m *Manager) GenerateTokenPair(userID, email, username string) (accessToken, refreshToken string, accessExp int64, err error) {
	now := time.Now()

	m.mu.Lock()
	delete(m.revokedTokens, userID)
	m.mu.Unlock()

	accessExp = now.Add(m.accessDuration).Unix()
	accessClaims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessDuration)),
		},
		UserID:   userID,
		Email:    email,
		Username: username,
		Type:     "access",
	}

	accessToken, err = m.signToken(accessClaims)
	if err != nil {
		return "", "", 0, err
	}

	refreshClaims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshDuration)),
		},
		UserID: userID,
		Type:   "refresh",
	}

	refreshToken, err = m.signToken(refreshClaims)
	if err != nil {
		return "", "", 0, err
	}

	return accessToken, refreshToken, accessExp, nil
}

// ValidateToken validates a token and returns its claims.
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrInvalidToken
		}
		return m.publicKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	m.mu.RLock()
	until, revoked := m.revokedTokens[claims.UserID]
	m.mu.RUnlock()
	if revoked {
		if time.Now().Before(until) {
			return nil, ErrRevokedToken
		}
		// Every token signed before the revocation has expired by now, so
		// the entry no longer blocks anything. Drop it.
		m.mu.Lock()
		delete(m.revokedTokens, claims.UserID)
		m.mu.Unlock()
	}

	return claims, nil
}

// RevokeUserTokens revokes all tokens a user currently holds. The entry
// lapses once the longest-lived token signed before it has expired.
func (m *Manager) RevokeUserTokens(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revokedTokens[userID] = time.Now().Add(m.refreshDuration)
}

func (m *Manager) signToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(m.privateKey)
}
