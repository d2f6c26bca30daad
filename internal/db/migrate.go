package db

import (
	"context"
	"database/sql"
)

const bootstrapSchema = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS users (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    email text NOT NULL,
    email_verified boolean NOT NULL DEFAULT false,
    phone_number text,
    fname text NOT NULL,
    lname text NOT NULL,
    bio text,
    profile_image text,
    joined_on timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW(),
    last_login timestamptz
);

CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_unique
ON users (LOWER(email));

CREATE TABLE IF NOT EXISTS oauth_connections (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    provider text NOT NULL,
    provides text NOT NULL DEFAULT 'auth',
    subject text,
    associated_email text,
    access_token text,
    access_token_expires timestamptz,
    refresh_token text,
    created_on timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT oauth_connections_provider_subject_unique
        UNIQUE (provider, subject)
);

-- Plain OAuth links carry no subject; NULL subjects never collide in the
-- (provider, subject) constraint, so they get their own uniqueness rule.
CREATE UNIQUE INDEX IF NOT EXISTS oauth_connections_plain_link_unique
ON oauth_connections (user_id, provider, provides)
WHERE subject IS NULL;

CREATE INDEX IF NOT EXISTS oauth_connections_user_id_idx
ON oauth_connections (user_id);

CREATE TABLE IF NOT EXISTS local_logins (
    user_id uuid PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    password_hash text NOT NULL,
    hash_version text NOT NULL,
    updated_at timestamptz NOT NULL DEFAULT NOW()
);
`

// Migrate applies the bootstrap schema. Statements are idempotent so it
// runs unconditionally at startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, bootstrapSchema)
	return err
}
