package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/reconlayout/pkg/buildinfo"
	"github.com/matzehuels/reconlayout/pkg/errors"
	rio "github.com/matzehuels/reconlayout/pkg/io"
	"github.com/matzehuels/reconlayout/pkg/pipeline"
)

type createRequest struct {
	Scenario json.RawMessage  `json:"scenario"`
	Options  pipeline.Options `json:"options"`
}

// createResponse is a stored record plus links to its artifacts.
type createResponse struct {
	*Record
	Artifacts map[string]string `json:"artifacts"`
}

var contentTypes = map[string]string{
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatJSON: "application/json",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var req createRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request"))
		return
	}
	if len(req.Scenario) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "request has no scenario"))
		return
	}
	scenario, err := rio.Parse(req.Scenario, rio.FormatJSON)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := req.Options
	opts.Logger = loggerFrom(r.Context(), s.logger)
	res, err := s.runner.Execute(r.Context(), scenario, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rec := &Record{
		ID:           uuid.NewString(),
		CreatedAt:    s.now().UTC(),
		ScenarioHash: res.ScenarioHash,
		RotateOnTie:  opts.RotateOnTie,
		Summary:      res.Summary,
		Artifacts:    res.Artifacts,
		Stats: Stats{
			HostNodes:  res.Stats.HostNodes,
			GuestNodes: res.Stats.GuestNodes,
			Levels:     res.Stats.Levels,
			Rotated:    res.Stats.Rotated,
			LayoutHit:  res.CacheInfo.LayoutHit,
			RenderHit:  res.CacheInfo.RenderHit,
			LayoutMS:   res.Stats.LayoutTime.Milliseconds(),
			RenderMS:   res.Stats.RenderTime.Milliseconds(),
		},
	}
	for _, f := range []string{pipeline.FormatDOT, pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatJSON} {
		if _, ok := res.Artifacts[f]; ok {
			rec.Formats = append(rec.Formats, f)
		}
	}
	if err := s.store.Put(r.Context(), rec); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/layouts/"+rec.ID)
	writeJSON(w, http.StatusCreated, s.response(rec))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	recs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]createResponse, len(recs))
	for i, rec := range recs {
		out[i] = s.response(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.response(rec))
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	id, format := chi.URLParam(r, "id"), chi.URLParam(r, "format")
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, ok := rec.Artifacts[format]
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "layout %s has no %s artifact", id, format))
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) response(rec *Record) createResponse {
	links := make(map[string]string, len(rec.Formats))
	for _, f := range rec.Formats {
		links[f] = "/v1/layouts/" + rec.ID + "/artifacts/" + f
	}
	return createResponse{Record: rec, Artifacts: links}
}

// statusOf maps an error to its HTTP status.
func statusOf(err error) int {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch {
	case errors.IsCallerError(err):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeLayoutInconsistency):
		return http.StatusUnprocessableEntity
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		code = errors.ErrCodeInternal
		msg = "internal error"
	}
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= 500 {
		loggerFrom(r.Context(), s.logger).Error("request failed", "err", err)
	}
	setError(r, err)
	writeJSON(w, status, struct {
		Error   errors.Code `json:"error"`
		Message string      `json:"message"`
	}{code, msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
