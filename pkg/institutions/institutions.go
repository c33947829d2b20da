// Package institutions persists the tenants of the job board: universities
// and companies.
package institutions

import (
	"context"
	"strings"
	"time"

	"github.com/platinummonkey/jobboard/pkg/apperr"
)

// Kind distinguishes universities from companies
type Kind string

const (
	KindUniversity Kind = "university"
	KindCompany    Kind = "company"
)

// Institution is a tenant owning jobs and members
type Institution struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Kind         Kind      `json:"kind"`
	IsActive     bool      `json:"is_active"`
	LogoURL      string    `json:"logo_url,omitempty"`
	PrimaryColor string    `json:"primary_color,omitempty"`
	Website      string    `json:"website,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Branding is the mutable presentation of an institution
type Branding struct {
	LogoURL      *string `json:"logo_url,omitempty"`
	PrimaryColor *string `json:"primary_color,omitempty"`
	Website      *string `json:"website,omitempty"`
}

// Apply copies the set fields of b onto inst
func (b Branding) Apply(inst *Institution) {
	if b.LogoURL != nil {
		inst.LogoURL = *b.LogoURL
	}
	if b.PrimaryColor != nil {
		inst.PrimaryColor = *b.PrimaryColor
	}
	if b.Website != nil {
		inst.Website = *b.Website
	}
}

// Validate checks the fields required at creation
func (i *Institution) Validate() error {
	fields := map[string]string{}
	i.Name = strings.TrimSpace(i.Name)
	if i.Name == "" {
		fields["name"] = "required"
	}
	if i.Kind != KindUniversity && i.Kind != KindCompany {
		fields["kind"] = "must be university or company"
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid institution", fields)
	}
	return nil
}

// Repository is the institution persistence boundary
type Repository interface {
	Create(ctx context.Context, inst *Institution) error
	Get(ctx context.Context, id int64) (*Institution, error)
	List(ctx context.Context, includeInactive bool) ([]*Institution, error)
	Update(ctx context.Context, inst *Institution) error
}
