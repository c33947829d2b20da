// Package applications persists job applications and saved jobs.
package applications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/jobboard/pkg/apperr"
)

// Status is the review state of an application
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusReviewing Status = "REVIEWING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
)

// ParseStatus parses an application status, case-insensitively
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case StatusPending, StatusReviewing, StatusAccepted, StatusRejected:
		return status, nil
	}
	return "", apperr.Validation(fmt.Sprintf("unknown application status %q", s), map[string]string{
		"status": "must be one of PENDING, REVIEWING, ACCEPTED, REJECTED",
	})
}

// Application is one user's candidacy for one job
type Application struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	JobID     int64     `json:"job_id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository is the application persistence boundary
type Repository interface {
	// Create stores a new application; a second one for the same pair is a Conflict
	Create(ctx context.Context, app *Application) error
	Get(ctx context.Context, id int64) (*Application, error)
	ListByJob(ctx context.Context, jobID int64) ([]*Application, error)
	ListByUser(ctx context.Context, userID int64) ([]*Application, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
	// ApplicantIDs lists the users who applied to a job
	ApplicantIDs(ctx context.Context, jobID int64) ([]int64, error)
}

// SavedRepository persists bookmarked jobs
type SavedRepository interface {
	// Save bookmarks a job; saving twice is a no-op
	Save(ctx context.Context, userID, jobID int64) error
	Unsave(ctx context.Context, userID, jobID int64) error
	// ListSaved returns the saved live jobs of a user, most recent first
	ListSaved(ctx context.Context, userID int64) ([]int64, error)
}
