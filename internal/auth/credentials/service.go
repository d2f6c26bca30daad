// Package credentials implements local email+password login on top of
// the users store. Hashing is bcrypt; no other component touches
// password material.
package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jsimonrichard/sceideal/internal/users"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyRegistered  = errors.New("credentials already exist")
)

type Service struct {
	store users.Store
}

func NewService(store users.Store) *Service {
	return &Service{store: store}
}

// Register creates a user (or reuses the one with that email) and
// attaches local credentials. Fails if the user already has them.
func (s *Service) Register(ctx context.Context, nu users.NewUser, password string) (uuid.UUID, error) {
	hash, version, err := HashPassword(password)
	if err != nil {
		return uuid.Nil, err
	}

	user, err := s.store.FindUserByEmail(ctx, nu.Email)
	if err != nil {
		return uuid.Nil, fmt.Errorf("credentials: lookup user: %w", err)
	}

	var userID uuid.UUID
	if user != nil {
		userID = user.ID
	} else {
		userID, err = s.store.CreateUser(ctx, nu)
		if err != nil {
			return uuid.Nil, err
		}
	}

	if err := s.store.CreateLocalCredential(ctx, userID, hash, version); err != nil {
		if errors.Is(err, users.ErrUserExists) {
			return uuid.Nil, ErrAlreadyRegistered
		}
		return uuid.Nil, err
	}
	return userID, nil
}

// Authenticate verifies email+password and returns the user id. It does
// not reveal whether the email exists.
func (s *Service) Authenticate(ctx context.Context, email, password string) (uuid.UUID, error) {
	userID, hash, err := s.store.GetLocalCredential(ctx, email)
	if err != nil {
		return uuid.Nil, ErrInvalidCredentials
	}
	if err := VerifyPassword(hash, password); err != nil {
		return uuid.Nil, ErrInvalidCredentials
	}
	return userID, nil
}
