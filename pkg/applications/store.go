package applications

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/platinummonkey/jobboard/pkg/apperr"
	"github.com/platinummonkey/jobboard/pkg/database"
)

const applicationColumns = `id, user_id, job_id, status, created_at, updated_at`

// Store handles application and saved job persistence
type Store struct {
	db *sql.DB
}

// NewStore creates a new application store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create stores a new application
func (s *Store) Create(ctx context.Context, app *Application) error {
	query := `
		INSERT INTO applications (user_id, job_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	if app.Status == "" {
		app.Status = StatusPending
	}
	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx, query, app.UserID, app.JobID, string(app.Status), now, now).Scan(&app.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Wrap(apperr.KindConflict, "already applied to this job", err)
		}
		if database.IsForeignKeyViolation(err) {
			return apperr.Wrap(apperr.KindNotFound, "job not found", err)
		}
		return fmt.Errorf("failed to create application: %w", err)
	}
	app.CreatedAt = now
	app.UpdatedAt = now
	return nil
}

// Get retrieves an application by ID
func (s *Store) Get(ctx context.Context, id int64) (*Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`

	app, err := scanApplication(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("application")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// ListByJob returns the candidates of a job, oldest first
func (s *Store) ListByJob(ctx context.Context, jobID int64) ([]*Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE job_id = $1 ORDER BY created_at, id`
	return s.list(ctx, query, jobID)
}

// ListByUser returns the applications of a user on live jobs, newest first
func (s *Store) ListByUser(ctx context.Context, userID int64) ([]*Application, error) {
	query := `
		SELECT a.id, a.user_id, a.job_id, a.status, a.created_at, a.updated_at
		FROM applications a
		JOIN jobs j ON j.id = a.job_id
		WHERE a.user_id = $1 AND j.deleted_at IS NULL
		ORDER BY a.created_at DESC, a.id DESC
	`
	return s.list(ctx, query, userID)
}

// UpdateStatus moves an application to status
func (s *Store) UpdateStatus(ctx context.Context, id int64, status Status) error {
	query := `UPDATE applications SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	return expectRows(result, "application")
}

// Delete removes an application
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return expectRows(result, "application")
}

// ApplicantIDs lists the users who applied to a job
func (s *Store) ApplicantIDs(ctx context.Context, jobID int64) ([]int64, error) {
	return s.queryIDs(ctx, `SELECT user_id FROM applications WHERE job_id = $1 ORDER BY user_id`, jobID)
}

// Save bookmarks a job for a user
func (s *Store) Save(ctx context.Context, userID, jobID int64) error {
	query := `
		INSERT INTO saved_jobs (user_id, job_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, job_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, userID, jobID, time.Now().UTC())
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.Wrap(apperr.KindNotFound, "job not found", err)
		}
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// Unsave removes a bookmark
func (s *Store) Unsave(ctx context.Context, userID, jobID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM saved_jobs WHERE user_id = $1 AND job_id = $2`, userID, jobID)
	if err != nil {
		return fmt.Errorf("failed to unsave job: %w", err)
	}
	return expectRows(result, "saved job")
}

// ListSaved returns the saved live jobs of a user, most recent first
func (s *Store) ListSaved(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT s.job_id
		FROM saved_jobs s
		JOIN jobs j ON j.id = s.job_id
		WHERE s.user_id = $1 AND j.deleted_at IS NULL
		ORDER BY s.created_at DESC, s.job_id DESC
	`
	return s.queryIDs(ctx, query, userID)
}

func (s *Store) list(ctx context.Context, query string, arg int64) ([]*Application, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	list := make([]*Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		list = append(list, app)
	}
	return list, rows.Err()
}

func (s *Store) queryIDs(ctx context.Context, query string, arg int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanApplication(scanner interface {
	Scan(dest ...interface{}) error
}) (*Application, error) {
	var app Application
	var status string
	err := scanner.Scan(&app.ID, &app.UserID, &app.JobID, &status, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return nil, err
	}
	app.Status = Status(status)
	return &app, nil
}

func expectRows(result sql.Result, entity string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperr.NotFound(entity)
	}
	return nil
}
