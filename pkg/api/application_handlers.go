package api

import (
	"net/http"

	"github.com/platinummonkey/jobboard/pkg/httputil"
	"github.com/platinummonkey/jobboard/pkg/middleware"
)

type applicationStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request) {
	jobID, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}

	app, err := s.services.Applications.Apply(r.Context(), middleware.CallerFrom(r.Context()), jobID)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteCreated(w, app)
}

func (s *Server) listCandidates(w http.ResponseWriter, r *http.Request) {
	jobID, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}

	list, err := s.services.Applications.ListCandidates(r.Context(), middleware.CallerFrom(r.Context()), jobID)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{"applications": list})
}

func (s *Server) updateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req applicationStatusRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}

	app, err := s.services.Applications.UpdateStatus(r.Context(), middleware.CallerFrom(r.Context()), id, req.Status)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteSuccess(w, app)
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}

	if err := s.services.Applications.Withdraw(r.Context(), middleware.CallerFrom(r.Context()), id); err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) myApplications(w http.ResponseWriter, r *http.Request) {
	list, err := s.services.Applications.ListMine(r.Context(), middleware.CallerFrom(r.Context()))
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{"applications": list})
}

func (s *Server) listSaved(w http.ResponseWriter, r *http.Request) {
	list, err := s.services.Applications.ListSaved(r.Context(), middleware.CallerFrom(r.Context()))
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{"jobs": list})
}

func (s *Server) saveJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}

	if err := s.services.Applications.Save(r.Context(), middleware.CallerFrom(r.Context()), jobID); err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) unsaveJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}

	if err := s.services.Applications.Unsave(r.Context(), middleware.CallerFrom(r.Context()), jobID); err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
