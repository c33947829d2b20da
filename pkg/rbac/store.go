package rbac

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/platinummonkey/jobboard/pkg/apperr"
	"github.com/platinummonkey/jobboard/pkg/database"
)

// MembershipRepository is the membership persistence boundary
type MembershipRepository interface {
	// MembershipsOf returns every membership of a user
	MembershipsOf(ctx context.Context, userID int64) (MembershipSet, error)

	// Get returns the membership of a user at an institution
	Get(ctx context.Context, userID, institutionID int64) (*Membership, error)

	// Upsert creates the membership or replaces the role of the existing one
	Upsert(ctx context.Context, m *Membership) error

	// Remove deletes the membership of a user at an institution
	Remove(ctx context.Context, userID, institutionID int64) error

	// ListMembers returns the roster of an institution
	ListMembers(ctx context.Context, institutionID int64) ([]Membership, error)
}

const membershipColumns = `id, user_id, institution_id, role, granted_by, created_at, updated_at`

// Store handles membership persistence
type Store struct {
	db *sql.DB
}

// NewStore creates a new membership store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// MembershipsOf returns every membership of a user
func (s *Store) MembershipsOf(ctx context.Context, userID int64) (MembershipSet, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE user_id = $1 ORDER BY institution_id`
	return s.queryMemberships(ctx, query, userID)
}

// ListMembers returns the roster of an institution
func (s *Store) ListMembers(ctx context.Context, institutionID int64) ([]Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE institution_id = $1 ORDER BY user_id`
	return s.queryMemberships(ctx, query, institutionID)
}

// Get returns the membership of a user at an institution
func (s *Store) Get(ctx context.Context, userID, institutionID int64) (*Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE user_id = $1 AND institution_id = $2`

	m, err := scanMembership(s.db.QueryRowContext(ctx, query, userID, institutionID))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("membership")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// Upsert creates the membership or replaces the role of the existing one.
// It is a single statement so concurrent grants for the same pair never
// produce two rows.
func (s *Store) Upsert(ctx context.Context, m *Membership) error {
	if !m.Role.Valid() {
		return apperr.Validation("invalid role", map[string]string{"role": string(m.Role)})
	}

	query := `
		INSERT INTO memberships (user_id, institution_id, role, granted_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, institution_id)
		DO UPDATE SET role = excluded.role, granted_by = excluded.granted_by, updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx, query,
		m.UserID,
		m.InstitutionID,
		string(m.Role),
		m.GrantedBy,
		now,
		now,
	).Scan(&m.ID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.Wrap(apperr.KindNotFound, "user or institution not found", err)
		}
		return fmt.Errorf("failed to upsert membership: %w", err)
	}

	stored, err := s.Get(ctx, m.UserID, m.InstitutionID)
	if err != nil {
		return err
	}
	*m = *stored
	return nil
}

// Remove deletes the membership of a user at an institution
func (s *Store) Remove(ctx context.Context, userID, institutionID int64) error {
	query := `DELETE FROM memberships WHERE user_id = $1 AND institution_id = $2`
	result, err := s.db.ExecContext(ctx, query, userID, institutionID)
	if err != nil {
		return fmt.Errorf("failed to remove membership: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperr.NotFound("membership")
	}
	return nil
}

func (s *Store) queryMemberships(ctx context.Context, query string, arg int64) (MembershipSet, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	set := make(MembershipSet, 0)
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		set = append(set, *m)
	}
	return set, rows.Err()
}

func scanMembership(scanner interface {
	Scan(dest ...interface{}) error
}) (*Membership, error) {
	var m Membership
	var role string
	var grantedBy sql.NullInt64
	err := scanner.Scan(
		&m.ID,
		&m.UserID,
		&m.InstitutionID,
		&role,
		&grantedBy,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Role = Role(role)
	if grantedBy.Valid {
		id := grantedBy.Int64
		m.GrantedBy = &id
	}
	return &m, nil
}
