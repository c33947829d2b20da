package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all job board migrations in order
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create institutions table",
			SQL: `
				CREATE TABLE IF NOT EXISTS institutions (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL UNIQUE,
					kind VARCHAR(20) NOT NULL CHECK (kind IN ('university', 'company')),
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					logo_url TEXT NOT NULL DEFAULT '',
					primary_color VARCHAR(20) NOT NULL DEFAULT '',
					website TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);
			`,
		},
		{
			Version:     2,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					email VARCHAR(255) NOT NULL UNIQUE,
					password_hash TEXT NOT NULL,
					full_name VARCHAR(255) NOT NULL DEFAULT '',
					active_institution_id BIGINT REFERENCES institutions(id) ON DELETE SET NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);
			`,
		},
		{
			Version:     3,
			Description: "Create memberships table",
			SQL: `
				CREATE TABLE IF NOT EXISTS memberships (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					institution_id BIGINT NOT NULL REFERENCES institutions(id) ON DELETE CASCADE,
					role VARCHAR(20) NOT NULL,
					granted_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					UNIQUE(user_id, institution_id)
				);

				CREATE INDEX IF NOT EXISTS idx_memberships_institution_id ON memberships(institution_id);
			`,
		},
		{
			Version:     4,
			Description: "Create jobs table",
			SQL: `
				CREATE TABLE IF NOT EXISTS jobs (
					id BIGSERIAL PRIMARY KEY,
					institution_id BIGINT NOT NULL REFERENCES institutions(id),
					author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					title VARCHAR(255) NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					location VARCHAR(255) NOT NULL DEFAULT '',
					status VARCHAR(20) NOT NULL DEFAULT 'rascunho',
					is_public BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_jobs_institution_status ON jobs(institution_id, status) WHERE deleted_at IS NULL;
				CREATE INDEX IF NOT EXISTS idx_jobs_public ON jobs(status) WHERE is_public AND deleted_at IS NULL;
			`,
		},
		{
			Version:     5,
			Description: "Create applications and saved_jobs tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS applications (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					job_id BIGINT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
					status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					UNIQUE(user_id, job_id)
				);

				CREATE TABLE IF NOT EXISTS saved_jobs (
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					job_id BIGINT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					PRIMARY KEY (user_id, job_id)
				);
			`,
		},
		{
			Version:     6,
			Description: "Create audit_events table",
			SQL: `
				CREATE TABLE IF NOT EXISTS audit_events (
					id BIGSERIAL PRIMARY KEY,
					occurred_at TIMESTAMP NOT NULL DEFAULT NOW(),
					event_type VARCHAR(64) NOT NULL,
					status VARCHAR(16) NOT NULL,
					user_id BIGINT,
					institution_id BIGINT,
					resource_type VARCHAR(32) NOT NULL DEFAULT '',
					resource_id VARCHAR(64) NOT NULL DEFAULT '',
					reason VARCHAR(64) NOT NULL DEFAULT '',
					request_id VARCHAR(64) NOT NULL DEFAULT '',
					message TEXT NOT NULL DEFAULT '',
					metadata JSONB
				);

				CREATE INDEX IF NOT EXISTS idx_audit_events_resource ON audit_events(resource_type, resource_id);
			`,
		},
	}
}

// RunMigrations applies all pending migrations, each in its own transaction
func RunMigrations(ctx context.Context, db *sql.DB, logger logrus.FieldLogger) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	for _, migration := range GetMigrations() {
		if applied[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		logger.WithField("version", migration.Version).Infof("Applied migration: %s", migration.Description)
	}

	return nil
}
