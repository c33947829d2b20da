package institutions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/platinummonkey/jobboard/pkg/apperr"
	"github.com/platinummonkey/jobboard/pkg/database"
)

const institutionColumns = `id, name, kind, is_active, logo_url, primary_color, website, created_at, updated_at`

// Store handles institution persistence
type Store struct {
	db *sql.DB
}

// NewStore creates a new institution store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts an institution; a taken name is a Conflict
func (s *Store) Create(ctx context.Context, inst *Institution) error {
	query := `
		INSERT INTO institutions (name, kind, is_active, logo_url, primary_color, website, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx, query,
		inst.Name,
		string(inst.Kind),
		inst.IsActive,
		inst.LogoURL,
		inst.PrimaryColor,
		inst.Website,
		now,
		now,
	).Scan(&inst.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Wrap(apperr.KindConflict, "institution name already taken", err)
		}
		return fmt.Errorf("failed to create institution: %w", err)
	}
	inst.CreatedAt = now
	inst.UpdatedAt = now
	return nil
}

// Get retrieves an institution by ID, active or not
func (s *Store) Get(ctx context.Context, id int64) (*Institution, error) {
	query := `SELECT ` + institutionColumns + ` FROM institutions WHERE id = $1`

	inst, err := scanInstitution(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("institution")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get institution: %w", err)
	}
	return inst, nil
}

// List returns institutions by name
func (s *Store) List(ctx context.Context, includeInactive bool) ([]*Institution, error) {
	query := `SELECT ` + institutionColumns + ` FROM institutions`
	if !includeInactive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list institutions: %w", err)
	}
	defer rows.Close()

	list := make([]*Institution, 0)
	for rows.Next() {
		inst, err := scanInstitution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan institution: %w", err)
		}
		list = append(list, inst)
	}
	return list, rows.Err()
}

// Update persists the name, activity flag and branding of an institution
func (s *Store) Update(ctx context.Context, inst *Institution) error {
	query := `
		UPDATE institutions
		SET name = $1, is_active = $2, logo_url = $3, primary_color = $4, website = $5, updated_at = $6
		WHERE id = $7
	`
	inst.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query,
		inst.Name,
		inst.IsActive,
		inst.LogoURL,
		inst.PrimaryColor,
		inst.Website,
		inst.UpdatedAt,
		inst.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Wrap(apperr.KindConflict, "institution name already taken", err)
		}
		return fmt.Errorf("failed to update institution: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperr.NotFound("institution")
	}
	return nil
}

func scanInstitution(scanner interface {
	Scan(dest ...interface{}) error
}) (*Institution, error) {
	var inst Institution
	var kind string
	err := scanner.Scan(
		&inst.ID,
		&inst.Name,
		&kind,
		&inst.IsActive,
		&inst.LogoURL,
		&inst.PrimaryColor,
		&inst.Website,
		&inst.CreatedAt,
		&inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inst.Kind = Kind(kind)
	return &inst, nil
}
