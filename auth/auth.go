// Package auth issues and verifies signed access tokens for deployments
// that put recordmap behind an authentication boundary. The manager itself
// is stateless: credential storage is supplied by the caller, and rejected
// credentials surface on auth's own error channel, never the mapper's.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials covers unknown users and wrong passwords alike.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenInvalid is returned for malformed or tampered tokens.
	ErrTokenInvalid = errors.New("auth: token invalid")
)

// User is the verified principal handed to callers after authentication.
type User struct {
	ID       int64  `db:"id"`
	Username string `db:"username"`
	Email    string `db:"email"`
	Role     string `db:"role"`
}

// Credentials is the stored credential record for one user.
type Credentials struct {
	User
	PasswordHash string `db:"password_hash"`
}

// CredentialStore looks up stored credentials by username. Implementations
// return (nil, nil) for unknown users.
type CredentialStore interface {
	FindByUsername(username string) (*Credentials, error)
}

// Result carries the outcome of a successful authentication.
type Result struct {
	User      User
	Token     string
	ExpiresAt time.Time
}

// Manager issues and verifies HS256 tokens against a credential store.
type Manager struct {
	secret []byte
	expiry time.Duration
	store  CredentialStore
	now    func() time.Time
}

// NewManager builds a token manager. Expiry defaults to 24 hours when not
// positive.
func NewManager(secret []byte, expiry time.Duration, store CredentialStore) *Manager {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Manager{secret: secret, expiry: expiry, store: store, now: time.Now}
}

// Authenticate checks the password against the stored hash and issues a
// token for the principal.
func (m *Manager) Authenticate(username, password string) (*Result, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	creds, err := m.store.FindByUsername(username)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := m.GenerateToken(creds.User)
	if err != nil {
		return nil, err
	}
	return &Result{User: creds.User, Token: token, ExpiresAt: expiresAt}, nil
}

type claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for the user and returns it with its expiry.
func (m *Manager) GenerateToken(u User) (string, time.Time, error) {
	now := m.now().UTC()
	expiresAt := now.Add(m.expiry)

	c := claims{
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyToken validates a token and reconstructs the principal it names.
func (m *Manager) VerifyToken(token string) (*User, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return &User{ID: id, Username: c.Username, Role: c.Role}, nil
}

// HashPassword produces a bcrypt hash suitable for a CredentialStore.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
