package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/jobboard/pkg/apperr"
	"github.com/platinummonkey/jobboard/pkg/database"
)

const jobColumns = `id, institution_id, author_id, title, description, location, status, is_public, created_at, updated_at, deleted_at`

// PostgresStore implements Repository on PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new job store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a job and fills in its ID and timestamps
func (s *PostgresStore) Create(ctx context.Context, job *Job) error {
	query := `
		INSERT INTO jobs (institution_id, author_id, title, description, location, status, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx, query,
		job.InstitutionID,
		job.AuthorID,
		job.Title,
		job.Description,
		job.Location,
		job.Status,
		job.IsPublic,
		now,
		now,
	).Scan(&job.ID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.Wrap(apperr.KindNotFound, "institution not found", err)
		}
		return fmt.Errorf("failed to create job: %w", err)
	}

	job.CreatedAt = now
	job.UpdatedAt = now
	return nil
}

// Get retrieves a live job by ID
func (s *PostgresStore) Get(ctx context.Context, id int64) (*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1 AND deleted_at IS NULL`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("job")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// Update persists the mutable fields of a live job
func (s *PostgresStore) Update(ctx context.Context, job *Job) error {
	query := `
		UPDATE jobs
		SET institution_id = $1, title = $2, description = $3, location = $4, status = $5, is_public = $6, updated_at = $7
		WHERE id = $8 AND deleted_at IS NULL
	`
	job.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query,
		job.InstitutionID,
		job.Title,
		job.Description,
		job.Location,
		job.Status,
		job.IsPublic,
		job.UpdatedAt,
		job.ID,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.Wrap(apperr.KindNotFound, "institution not found", err)
		}
		return fmt.Errorf("failed to update job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperr.NotFound("job")
	}
	return nil
}

// SoftDelete tombstones a live job
func (s *PostgresStore) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE jobs SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`
	result, err := s.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperr.NotFound("job")
	}
	return nil
}

// List returns the live jobs matching pred and the query filters, newest first
func (s *PostgresStore) List(ctx context.Context, pred Predicate, q Query) ([]*Job, error) {
	query, args := buildListQuery(pred, q)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func buildListQuery(pred Predicate, q Query) (string, []interface{}) {
	q = q.Normalize()

	where, args := pred.SQL(0)
	clauses := []string{where}

	if search := strings.TrimSpace(q.Search); search != "" {
		args = append(args, "%"+search+"%")
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if q.Status != nil {
		args = append(args, *q.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if q.InstitutionID != nil {
		args = append(args, *q.InstitutionID)
		clauses = append(clauses, fmt.Sprintf("institution_id = $%d", len(args)))
	}

	args = append(args, q.Limit, q.Offset)
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		jobColumns, strings.Join(clauses, " AND "), len(args)-1, len(args))
	return query, args
}

func scanJob(scanner interface {
	Scan(dest ...interface{}) error
}) (*Job, error) {
	var job Job
	var deletedAt sql.NullTime
	err := scanner.Scan(
		&job.ID,
		&job.InstitutionID,
		&job.AuthorID,
		&job.Title,
		&job.Description,
		&job.Location,
		&job.Status,
		&job.IsPublic,
		&job.CreatedAt,
		&job.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		at := deletedAt.Time
		job.DeletedAt = &at
	}
	return &job, nil
}
