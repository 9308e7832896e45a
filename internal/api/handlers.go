package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/forest-carbon/internal/carbon"
	"github.com/sells-group/forest-carbon/internal/credentials"
	"github.com/sells-group/forest-carbon/internal/estimator"
	"github.com/sells-group/forest-carbon/internal/model"
	"github.com/sells-group/forest-carbon/internal/store"
)

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status            string `json:"status"`
	CredentialsFound  bool   `json:"credentialsFound"`
	CredentialsSource string `json:"credentialsSource,omitempty"`
	Store             string `json:"store"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Store: "ok"}
	if s.creds != nil && s.creds.Key() != nil {
		resp.CredentialsFound = true
		resp.CredentialsSource = string(s.creds.Source())
	}
	if err := s.store.Ping(r.Context()); err != nil {
		zap.L().Warn("api: store ping failed", zap.Error(err))
		resp.Store = "unavailable"
	}
	writeJSON(w, http.StatusOK, resp)
}

// estimateCarbon runs an estimation synchronously and returns the result.
// An empty body runs the default boundary with default options.
func (s *Server) estimateCarbon(w http.ResponseWriter, r *http.Request) {
	var req estimator.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if s.creds == nil || s.creds.Key() == nil {
		err := eris.Wrap(credentials.ErrNotFound, "api: no service-account key loaded")
		status, msg := statusFor(err)
		writeError(w, status, msg, err)
		return
	}

	run, err := s.runner.Execute(r.Context(), req, model.SourceAPI)
	if err != nil {
		status, msg := statusFor(err)
		body := ErrorResponse{Error: msg, Details: err.Error()}
		if run != nil {
			body.RunID = run.ID
		}
		zap.L().Error("api: estimation failed", zap.Int("status", status), zap.Error(err))
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, run.Result)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RunFilter{
		Status: model.RunStatus(q.Get("status")),
		Tier:   carbon.Tier(q.Get("tier")),
		Source: q.Get("source"),
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid "+name, err)
			return
		}
		*dst = n
	}
	if v := q.Get("created_after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid created_after", err)
			return
		}
		filter.CreatedAfter = t
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list runs failed", err)
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "get run failed", err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
