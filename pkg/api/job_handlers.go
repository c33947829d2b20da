package api

import (
	"net/http"

	"github.com/platinummonkey/jobboard/pkg/board"
	"github.com/platinummonkey/jobboard/pkg/httputil"
	"github.com/platinummonkey/jobboard/pkg/jobs"
	"github.com/platinummonkey/jobboard/pkg/middleware"
)

// listJobs handles GET /api/v1/jobs?q=&status=&institution_id=&limit=&offset=
func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	q, err := parseJobQuery(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	list, err := s.services.Jobs.List(r.Context(), middleware.CallerFrom(r.Context()), q)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{
		"jobs":   list,
		"limit":  q.Limit,
		"offset": q.Offset,
	})
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	var in board.CreateJobInput
	if err := httputil.ParseJSON(r, &in); err != nil {
		fail(w, r, err)
		return
	}

	job, err := s.services.Jobs.Create(r.Context(), middleware.CallerFrom(r.Context()), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteCreated(w, job)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}

	job, err := s.services.Jobs.Get(r.Context(), middleware.CallerFrom(r.Context()), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteSuccess(w, job)
}

func (s *Server) updateJob(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var in board.UpdateJobInput
	if err := httputil.ParseJSON(r, &in); err != nil {
		fail(w, r, err)
		return
	}

	job, err := s.services.Jobs.Update(r.Context(), middleware.CallerFrom(r.Context()), id, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteSuccess(w, job)
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}

	if err := s.services.Jobs.Delete(r.Context(), middleware.CallerFrom(r.Context()), id); err != nil {
		fail(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func parseJobQuery(r *http.Request) (jobs.Query, error) {
	q := jobs.Query{Search: httputil.ParseQueryString(r, "q", "")}

	if raw := httputil.ParseQueryString(r, "status", ""); raw != "" {
		status, err := jobs.ParseStatus(raw)
		if err != nil {
			return q, err
		}
		q.Status = &status
	}

	var err error
	if q.InstitutionID, err = httputil.ParseQueryInt64Ptr(r, "institution_id"); err != nil {
		return q, err
	}
	if q.Limit, err = httputil.ParseQueryInt(r, "limit", jobs.DefaultLimit); err != nil {
		return q, err
	}
	if q.Offset, err = httputil.ParseQueryInt(r, "offset", 0); err != nil {
		return q, err
	}
	return q.Normalize(), nil
}
