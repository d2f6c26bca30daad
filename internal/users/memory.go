package users

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]User
	connections []Connection
	credentials map[uuid.UUID]string // user id -> password hash
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[uuid.UUID]User),
		credentials: make(map[uuid.UUID]string),
	}
}

func (s *MemoryStore) GetUser(_ context.Context, id uuid.UUID) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, nu NewUser) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, nu.Email) {
			return uuid.Nil, ErrUserExists
		}
	}

	id := uuid.New()
	s.users[id] = User{
		ID:            id,
		Email:         nu.Email,
		EmailVerified: nu.EmailVerified,
		PhoneNumber:   nu.PhoneNumber,
		FName:         nu.FName,
		LName:         nu.LName,
	}
	return id, nil
}

func (s *MemoryStore) FindConnection(_ context.Context, provider, subject string) (*Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.connections {
		if c.Provider == provider && c.Subject == subject {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) CreateConnection(_ context.Context, conn Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.connections {
		if conn.Subject != "" {
			if c.Provider == conn.Provider && c.Subject == conn.Subject {
				s.connections[i] = conn
				return nil
			}
			continue
		}
		// Plain links have no subject; one row per (user, provider,
		// provision), as in the Postgres partial index.
		if c.Subject == "" && c.UserID == conn.UserID &&
			c.Provider == conn.Provider && c.Provides == conn.Provides {
			s.connections[i] = conn
			return nil
		}
	}
	s.connections = append(s.connections, conn)
	return nil
}

func (s *MemoryStore) GetLocalCredential(_ context.Context, email string) (uuid.UUID, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			if hash, ok := s.credentials[id]; ok {
				return id, hash, nil
			}
			break
		}
	}
	return uuid.Nil, "", ErrNotFound
}

func (s *MemoryStore) CreateLocalCredential(_ context.Context, userID uuid.UUID, hash, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.credentials[userID]; exists {
		return ErrUserExists
	}
	s.credentials[userID] = hash
	return nil
}

// Connections returns a snapshot of all persisted connections; used by
// tests to assert side effects.
func (s *MemoryStore) Connections() []Connection {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Connection, len(s.connections))
	copy(out, s.connections)
	return out
}

// UserCount reports the number of users; used by tests.
func (s *MemoryStore) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}
