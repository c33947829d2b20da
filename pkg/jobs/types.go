package jobs

import (
	"context"
	"time"
)

// Job is a posting owned by an institution
type Job struct {
	ID            int64      `json:"id"`
	InstitutionID int64      `json:"institution_id"`
	AuthorID      int64      `json:"author_id"` // never changes after creation
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Location      string     `json:"location,omitempty"`
	Status        Status     `json:"status"`
	IsPublic      bool       `json:"is_public"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// IsTombstoned reports whether the job was soft-deleted
func (j *Job) IsTombstoned() bool {
	return j.DeletedAt != nil
}

// Clone returns a copy safe to mutate
func (j *Job) Clone() *Job {
	c := *j
	if j.DeletedAt != nil {
		at := *j.DeletedAt
		c.DeletedAt = &at
	}
	return &c
}

// Query holds the explicit listing filters a caller may pass
type Query struct {
	Search        string
	Status        *Status
	InstitutionID *int64
	Limit         int
	Offset        int
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Normalize clamps paging values
func (q Query) Normalize() Query {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// Repository persists jobs. Every read path excludes tombstoned jobs.
type Repository interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id int64) (*Job, error)
	Update(ctx context.Context, job *Job) error
	SoftDelete(ctx context.Context, id int64, at time.Time) error
	List(ctx context.Context, pred Predicate, q Query) ([]*Job, error)
}
