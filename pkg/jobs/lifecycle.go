// Package jobs holds the job model, its lifecycle and its persistence.
//
// Status graph:
//
//	rascunho ──► published / open ──► closed
//
// The graph documents the usual flow only: an edit with sufficient rights may
// move a job from any status to any other. Tombstoning (deleted_at) is an
// orthogonal axis reachable from every status and is terminal.
package jobs

import (
	"strings"
	"time"

	"github.com/platinummonkey/jobboard/pkg/apperr"
)

// Status is the publication status of a job
type Status string

const (
	StatusDraft     Status = "rascunho"
	StatusPublished Status = "published"
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
)

// ParseStatus converts a raw string to a Status
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusDraft, StatusPublished, StatusOpen, StatusClosed:
		return st, nil
	}
	return "", apperr.Validation("invalid job status", map[string]string{
		"status": "status must be rascunho, published, open, or closed",
	})
}

// IsListed reports whether the status makes a job visible to non-members
func (s Status) IsListed() bool {
	return s == StatusPublished || s == StatusOpen
}

// Trigger is the kind of notification a lifecycle change emits
type Trigger string

const (
	TriggerNew      Trigger = "new"
	TriggerModified Trigger = "modified"
	TriggerClosed   Trigger = "closed"
)

// Transition moves a live job to status to
func Transition(job *Job, to Status) error {
	if job.IsTombstoned() {
		return apperr.NotFound("job")
	}
	if _, err := ParseStatus(string(to)); err != nil {
		return err
	}
	job.Status = to
	return nil
}

// Tombstone soft-deletes a job. There is no inverse operation.
func Tombstone(job *Job, at time.Time) error {
	if job.IsTombstoned() {
		return apperr.NotFound("job")
	}
	job.DeletedAt = &at
	return nil
}

// CreationTrigger returns the trigger fired when job is created. Drafts are
// silent.
func CreationTrigger(job *Job) (Trigger, bool) {
	if job.Status.IsListed() {
		return TriggerNew, true
	}
	return "", false
}

// DetectTrigger compares a job before and after an edit
func DetectTrigger(before, after *Job) (Trigger, bool) {
	if after.Status == StatusClosed && before.Status != StatusClosed {
		return TriggerClosed, true
	}
	if before.Status != after.Status || before.Description != after.Description {
		return TriggerModified, true
	}
	return "", false
}
