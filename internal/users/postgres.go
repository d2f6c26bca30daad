package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jsimonrichard/sceideal/internal/db"
)

// uniqueViolation is the Postgres error code for unique-constraint
// conflicts.
const uniqueViolation = "23505"

// PostgresStore is the canonical Store implementation.
type PostgresStore struct {
	db *db.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.EmailVerified, &u.PhoneNumber,
		&u.FName, &u.LName, &u.Bio, &u.ProfileImage,
		&u.JoinedOn, &u.LastLogin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userColumns = `id, email, email_verified, phone_number,
		fname, lname, bio, profile_image, joined_on, last_login`

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id))
}

func (s *PostgresStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email))
}

func (s *PostgresStore) CreateUser(ctx context.Context, nu NewUser) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, email_verified, phone_number, fname, lname)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		nu.Email, nu.EmailVerified, nu.PhoneNumber, nu.FName, nu.LName,
	).Scan(&id)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return uuid.Nil, ErrUserExists
	}
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *PostgresStore) FindConnection(ctx context.Context, provider, subject string) (*Connection, error) {
	var c Connection
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, provider, provides, COALESCE(subject, ''),
		       COALESCE(associated_email, ''), COALESCE(access_token, ''),
		       access_token_expires, COALESCE(refresh_token, '')
		FROM oauth_connections
		WHERE provider = $1 AND subject = $2
	`, provider, subject).Scan(
		&c.UserID, &c.Provider, &c.Provides, &c.Subject,
		&c.AssociatedEmail, &c.AccessToken,
		&c.AccessTokenExpires, &c.RefreshToken,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) CreateConnection(ctx context.Context, conn Connection) error {
	// OIDC connections are keyed by (provider, subject); plain OAuth
	// links have a NULL subject, which never conflicts there, so they
	// upsert on the per-user partial index instead.
	query := `
		INSERT INTO oauth_connections
			(user_id, provider, provides, subject, associated_email,
			 access_token, access_token_expires, refresh_token)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, NULLIF($8, ''))
		ON CONFLICT (provider, subject) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			access_token_expires = EXCLUDED.access_token_expires,
			refresh_token = EXCLUDED.refresh_token,
			updated_at = NOW()
	`
	if conn.Subject == "" {
		query = `
		INSERT INTO oauth_connections
			(user_id, provider, provides, subject, associated_email,
			 access_token, access_token_expires, refresh_token)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, NULLIF($8, ''))
		ON CONFLICT (user_id, provider, provides) WHERE subject IS NULL DO UPDATE SET
			access_token = EXCLUDED.access_token,
			access_token_expires = EXCLUDED.access_token_expires,
			refresh_token = EXCLUDED.refresh_token,
			updated_at = NOW()
	`
	}

	_, err := s.db.ExecContext(ctx, query,
		conn.UserID, conn.Provider, conn.Provides, conn.Subject,
		conn.AssociatedEmail, conn.AccessToken, conn.AccessTokenExpires,
		conn.RefreshToken,
	)
	return err
}

func (s *PostgresStore) GetLocalCredential(ctx context.Context, email string) (uuid.UUID, string, error) {
	var (
		userID uuid.UUID
		hash   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, l.password_hash
		FROM users u
		JOIN local_logins l ON l.user_id = u.id
		WHERE LOWER(u.email) = LOWER($1)
	`, email).Scan(&userID, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, "", ErrNotFound
	}
	if err != nil {
		return uuid.Nil, "", err
	}
	return userID, hash, nil
}

func (s *PostgresStore) CreateLocalCredential(ctx context.Context, userID uuid.UUID, hash, version string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO local_logins (user_id, password_hash, hash_version)
		VALUES ($1, $2, $3)
	`, userID, hash, version)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrUserExists
	}
	return err
}
