package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultSessionTTL is used when no TTL is configured.
	DefaultSessionTTL = 12 * time.Hour
	// CookieName carries the session token for browser clients.
	CookieName = "readmehub_session"

	issuer = "readmehub"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired session")
	ErrRevoked            = errors.New("session has been revoked")
)

type claims struct {
	jwt.RegisteredClaims
}

// Manager issues and checks admin sessions as HS256 JWTs.
type Manager struct {
	creds   Credentials
	secret  []byte
	ttl     time.Duration
	revoker Revoker
	now     func() time.Time
}

// NewManager creates a session manager. secret signs every token and must be
// at least 32 bytes.
func NewManager(creds Credentials, secret string, ttl time.Duration, revoker Revoker) (*Manager, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("session secret must be at least 32 bytes, got %d", len(secret))
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if revoker == nil {
		revoker = NewMemoryRevoker()
	}
	return &Manager{
		creds:   creds,
		secret:  []byte(secret),
		ttl:     ttl,
		revoker: revoker,
		now:     time.Now,
	}, nil
}

// TTL is the lifetime of new sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Login checks the credentials and issues a signed session token.
func (m *Manager) Login(username, password string) (string, *Session, error) {
	if !m.creds.Check(username, password) {
		return "", nil, ErrInvalidCredentials
	}

	now := m.now().Truncate(time.Second)
	s := &Session{
		ID:        uuid.NewString(),
		Subject:   m.creds.Username,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{jwt.RegisteredClaims{
		ID:        s.ID,
		Subject:   s.Subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, s, nil
}

// Verify parses token, checks signature, expiry and revocation, and returns
// the session it carries.
func (m *Manager) Verify(ctx context.Context, token string) (*Session, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if c.ID == "" || c.Subject != m.creds.Username {
		return nil, ErrInvalidToken
	}

	revoked, err := m.revoker.IsRevoked(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return nil, ErrRevoked
	}

	s := &Session{ID: c.ID, Subject: c.Subject, ExpiresAt: c.ExpiresAt.Time}
	if c.IssuedAt != nil {
		s.IssuedAt = c.IssuedAt.Time
	}
	return s, nil
}

// Logout revokes s for the rest of its lifetime.
func (m *Manager) Logout(ctx context.Context, s *Session) error {
	return m.revoker.Revoke(ctx, s.ID, s.Remaining(m.now()))
}
