package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/jobboard/pkg/audit"
	"github.com/platinummonkey/jobboard/pkg/board"
	"github.com/platinummonkey/jobboard/pkg/httputil"
	"github.com/platinummonkey/jobboard/pkg/institutions"
	"github.com/platinummonkey/jobboard/pkg/middleware"
)

type activeRequest struct {
	IsActive *bool `json:"is_active"`
}

type assignRoleRequest struct {
	Role string `json:"role"`
}

func (s *Server) listInstitutions(w http.ResponseWriter, r *http.Request) {
	includeInactive := httputil.ParseQueryString(r, "include_inactive", "") == "true"

	list, err := s.services.Institutions.List(r.Context(), middleware.CallerFrom(r.Context()), includeInactive)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{"institutions": list})
}

func (s *Server) createInstitution(w http.ResponseWriter, r *http.Request) {
	var in board.CreateInstitutionInput
	if err := httputil.ParseJSON(r, &in); err != nil {
		fail(w, r, err)
		return
	}

	inst, err := s.services.Institutions.Create(r.Context(), middleware.CallerFrom(r.Context()), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteCreated(w, inst)
}

func (s *Server) getInstitution(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}

	inst, err := s.services.Institutions.Get(r.Context(), middleware.CallerFrom(r.Context()), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteSuccess(w, inst)
}

func (s *Server) updateBranding(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var branding institutions.Branding
	if err := httputil.ParseJSON(r, &branding); err != nil {
		fail(w, r, err)
		return
	}

	inst, err := s.services.Institutions.UpdateBranding(r.Context(), middleware.CallerFrom(r.Context()), id, branding)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteSuccess(w, inst)
}

func (s *Server) setInstitutionActive(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req activeRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if req.IsActive == nil {
		httputil.WriteBadRequest(w, "is_active is required")
		return
	}

	inst, err := s.services.Institutions.SetActive(r.Context(), middleware.CallerFrom(r.Context()), id, *req.IsActive)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteSuccess(w, inst)
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}

	members, err := s.services.Memberships.ListMembers(r.Context(), middleware.CallerFrom(r.Context()), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{"members": members})
}

func (s *Server) assignRole(w http.ResponseWriter, r *http.Request) {
	institutionID, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	userID, err := httputil.ParsePathInt64(r, "user_id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req assignRoleRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}

	m, err := s.services.Memberships.AssignRole(r.Context(), middleware.CallerFrom(r.Context()), institutionID, userID, req.Role)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteSuccess(w, m)
}

func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	institutionID, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	userID, err := httputil.ParsePathInt64(r, "user_id")
	if err != nil {
		fail(w, r, err)
		return
	}

	if err := s.services.Memberships.RemoveMember(r.Context(), middleware.CallerFrom(r.Context()), institutionID, userID); err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) auditTrail(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	resourceType := audit.ResourceType(mux.Vars(r)["resource_type"])

	events, err := s.services.Audit.Trail(r.Context(), middleware.CallerFrom(r.Context()), resourceType, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{"events": events})
}
