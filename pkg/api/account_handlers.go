package api

import (
	"net/http"

	"github.com/platinummonkey/jobboard/pkg/board"
	"github.com/platinummonkey/jobboard/pkg/httputil"
	"github.com/platinummonkey/jobboard/pkg/middleware"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tenantRequest switches the lens; a null institution_id clears it
type tenantRequest struct {
	InstitutionID *int64 `json:"institution_id"`
}

type tenantResponse struct {
	InstitutionID *int64 `json:"institution_id"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in board.RegisterInput
	if err := httputil.ParseJSON(r, &in); err != nil {
		fail(w, r, err)
		return
	}

	user, err := s.services.Accounts.Register(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteCreated(w, user)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}

	res, err := s.services.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteSuccess(w, res)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, err := s.services.Accounts.Me(r.Context(), middleware.CallerFrom(r.Context()))
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

func (s *Server) myMemberships(w http.ResponseWriter, r *http.Request) {
	set, err := s.services.Memberships.MembershipsOf(r.Context(), middleware.CallerFrom(r.Context()))
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{"memberships": set})
}

func (s *Server) getTenant(w http.ResponseWriter, r *http.Request) {
	active, err := s.services.Tenants.Active(r.Context(), middleware.CallerFrom(r.Context()))
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteSuccess(w, tenantResponse{InstitutionID: active})
}

func (s *Server) switchTenant(w http.ResponseWriter, r *http.Request) {
	var req tenantRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}

	if err := s.services.Tenants.Switch(r.Context(), middleware.CallerFrom(r.Context()), req.InstitutionID); err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteSuccess(w, tenantResponse{InstitutionID: req.InstitutionID})
}
