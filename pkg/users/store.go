package users

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/platinummonkey/jobboard/pkg/apperr"
	"github.com/platinummonkey/jobboard/pkg/database"
)

const userColumns = `id, email, password_hash, full_name, active_institution_id, created_at, updated_at`

// Store handles user persistence
type Store struct {
	db *sql.DB
}

// NewStore creates a new user store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a user; a taken email is a Conflict
func (s *Store) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (email, password_hash, full_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	now := time.Now().UTC()
	user.Email = NormalizeEmail(user.Email)
	err := s.db.QueryRowContext(ctx, query, user.Email, user.PasswordHash, user.FullName, now, now).Scan(&user.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Wrap(apperr.KindConflict, "email already registered", err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// Get retrieves a user by ID
func (s *Store) Get(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.getOne(ctx, query, id)
}

// GetByEmail retrieves a user by email
func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return s.getOne(ctx, query, NormalizeEmail(email))
}

// SetActiveInstitution stores the tenant lens of a user; nil clears it
func (s *Store) SetActiveInstitution(ctx context.Context, userID int64, institutionID *int64) error {
	query := `UPDATE users SET active_institution_id = $1, updated_at = $2 WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, institutionID, time.Now().UTC(), userID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.Wrap(apperr.KindNotFound, "institution not found", err)
		}
		return fmt.Errorf("failed to set active institution: %w", err)
	}
	return expectOneRow(result)
}

// Delete removes a user; memberships, authored jobs, applications and
// saved jobs go with it through foreign key cascades
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return expectOneRow(result)
}

func (s *Store) getOne(ctx context.Context, query string, arg interface{}) (*User, error) {
	var user User
	var active sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if active.Valid {
		id := active.Int64
		user.ActiveInstitutionID = &id
	}
	return &user, nil
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperr.NotFound("user")
	}
	return nil
}
