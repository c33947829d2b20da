package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/jobboard/pkg/apperr"
	"github.com/platinummonkey/jobboard/pkg/contextkeys"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	err := WriteJSON(w, http.StatusOK, map[string]string{"message": "success"})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "success")
}

func TestWriteAppError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{"unauthenticated", apperr.New(apperr.KindUnauthenticated, "login required"), http.StatusUnauthorized, ""},
		{"forbidden", apperr.New(apperr.KindForbidden, "insufficient permissions").WithReason("insufficient_role"), http.StatusForbidden, "insufficient_role"},
		{"not found", apperr.NotFound("job"), http.StatusNotFound, ""},
		{"conflict", apperr.New(apperr.KindConflict, "already applied"), http.StatusConflict, ""},
		{"validation", apperr.Validation("bad", map[string]string{"title": "required"}), http.StatusBadRequest, ""},
		{"no active tenant", apperr.New(apperr.KindNoActiveTenant, "select an institution"), http.StatusPreconditionRequired, ""},
		{"internal", errors.New("db down"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			w := httptest.NewRecorder()
			WriteAppError(w, logger, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.reason, resp.Reason)
		})
	}
}

func TestWriteAppError_HidesInternalDetails(t *testing.T) {
	logger, hook := test.NewNullLogger()
	w := httptest.NewRecorder()
	WriteAppError(w, logger, errors.New("pq: password authentication failed"))

	assert.NotContains(t, w.Body.String(), "password")
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "Request failed", hook.LastEntry().Message)
}

func TestWriteAppError_ValidationDetails(t *testing.T) {
	logger, _ := test.NewNullLogger()
	w := httptest.NewRecorder()
	WriteAppError(w, logger, apperr.Validation("invalid job", map[string]string{"title": "is required"}))

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "validation", resp.Error)
	assert.Equal(t, "invalid job", resp.Message)
	assert.Equal(t, "is required", resp.Details["title"])
}

func TestParsePathInt64(t *testing.T) {
	r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/jobs/12", nil), map[string]string{"id": "12"})
	id, err := ParsePathInt64(r, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	r = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/jobs/x", nil), map[string]string{"id": "x"})
	_, err = ParsePathInt64(r, "id")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	r = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/jobs/-1", nil), map[string]string{"id": "-1"})
	_, err = ParsePathInt64(r, "id")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = ParsePathInt64(httptest.NewRequest(http.MethodGet, "/jobs", nil), "id")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestParseQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/jobs?limit=5&institution_id=3&q=ta", nil)

	limit, err := ParseQueryInt(r, "limit", 20)
	require.NoError(t, err)
	assert.Equal(t, 5, limit)

	offset, err := ParseQueryInt(r, "offset", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, offset)

	inst, err := ParseQueryInt64Ptr(r, "institution_id")
	require.NoError(t, err)
	require.NotNil(t, inst)
	assert.Equal(t, int64(3), *inst)

	missing, err := ParseQueryInt64Ptr(r, "other")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Equal(t, "ta", ParseQueryString(r, "q", ""))

	_, err = ParseQueryInt(httptest.NewRequest(http.MethodGet, "/jobs?limit=abc", nil), "limit", 20)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestParseJSON(t *testing.T) {
	var dest struct{ Title string }
	require.NoError(t, ParseJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"TA"}`)), &dest))
	assert.Equal(t, "TA", dest.Title)

	err := ParseJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`)), &dest)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRequestIDMiddleware(t *testing.T) {
	logger, hook := test.NewNullLogger()
	var seen string
	handler := Chain(RequestIDMiddleware(logger), LoggingMiddleware)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = contextkeys.GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, seen, entry.Data["request_id"])
	assert.Equal(t, http.StatusTeapot, entry.Data["status"])

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	req.Header.Set(RequestIDHeader, "given")
	handler.ServeHTTP(w, req)
	assert.Equal(t, "given", seen)
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, hook := test.NewNullLogger()
	handler := Chain(RequestIDMiddleware(logger), RecoveryMiddleware)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "PANIC recovered", hook.LastEntry().Message)
}

func TestCORSMiddleware(t *testing.T) {
	handler := CORSMiddleware([]string{"https://board.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/jobs", nil)
	req.Header.Set("Origin", "https://board.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, "https://board.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/jobs", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
