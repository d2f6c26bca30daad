// Package users persists user accounts, their provider connections, and
// local credentials. It is the durable collaborator behind the auth
// flows; the session cache stays authoritative for "is this request
// authenticated".
package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUserExists reports a uniqueness conflict on user creation.
	ErrUserExists = errors.New("a user with that email already exists")

	// ErrNotFound reports a missing row where the caller asked for
	// exactly one.
	ErrNotFound = errors.New("not found")
)

// User is the account row.
type User struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"email_verified"`
	PhoneNumber   *string    `json:"phone_number"`
	FName         string     `json:"fname"`
	LName         string     `json:"lname"`
	Bio           *string    `json:"bio"`
	ProfileImage  *string    `json:"profile_image"`
	JoinedOn      time.Time  `json:"joined_on"`
	LastLogin     *time.Time `json:"last_login"`
}

// NewUser carries the mandatory claims extracted at sign-up.
type NewUser struct {
	Email         string
	EmailVerified bool
	PhoneNumber   *string
	FName         string
	LName         string
}

// Connection is one persisted provider link for a user. Subject is the
// OIDC subject; plain OAuth2 connections leave it empty and are keyed by
// associated email instead.
type Connection struct {
	UserID             uuid.UUID
	Provider           string
	Provides           string
	Subject            string
	AssociatedEmail    string
	AccessToken        string
	AccessTokenExpires *time.Time
	RefreshToken       string
}

// Store is the persistence contract. The Postgres implementation is
// canonical; tests use the in-memory one.
type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)

	// CreateUser inserts a user and returns its id; a uniqueness
	// conflict on email maps to ErrUserExists.
	CreateUser(ctx context.Context, nu NewUser) (uuid.UUID, error)

	// FindConnection looks up a provider link by (provider, subject).
	// Missing rows are (nil, nil), not an error.
	FindConnection(ctx context.Context, provider, subject string) (*Connection, error)
	CreateConnection(ctx context.Context, conn Connection) error

	// GetLocalCredential returns the user id and password hash for a
	// local login; ErrNotFound when the user has none.
	GetLocalCredential(ctx context.Context, email string) (uuid.UUID, string, error)
	CreateLocalCredential(ctx context.Context, userID uuid.UUID, hash, version string) error
}
