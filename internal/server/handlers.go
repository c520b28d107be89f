package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/matzehuels/strata/pkg/buildinfo"
	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/io"
	"github.com/matzehuels/strata/pkg/pipeline"
)

// =============================================================================
// Request and Response Types
// =============================================================================

// LayoutRequest is the body of POST /v1/layout.
type LayoutRequest struct {
	Graph   *io.Document     `json:"graph"`
	Options pipeline.Options `json:"options"`
}

// LayoutResponse is the body returned by POST /v1/layout.
type LayoutResponse struct {
	Layout    io.Result `json:"layout"`
	Cached    bool      `json:"cached"`
	RequestID string    `json:"request_id"`
}

// RenderRequest is the body of POST /v1/render. Exactly one of Graph and
// Layout must be set; a graph is laid out first.
type RenderRequest struct {
	Graph   *io.Document     `json:"graph,omitempty"`
	Layout  *io.Result       `json:"layout,omitempty"`
	Options pipeline.Options `json:"options"`
	Format  string           `json:"format"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     errors.Code `json:"error"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Graph == nil {
		s.respondError(w, r, errors.New(errors.ErrCodeInvalidInput, "request has no graph"))
		return
	}

	res, cached, err := s.cfg.Runner.LayoutWithCacheInfo(r.Context(), req.Graph, s.options(r, req.Options))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("X-Cache", cacheStatus(cached))
	s.respondJSON(w, http.StatusOK, LayoutResponse{
		Layout:    res,
		Cached:    cached,
		RequestID: RequestID(r.Context()),
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Format == "" {
		req.Format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(req.Format); err != nil {
		s.respondError(w, r, err)
		return
	}

	var res io.Result
	switch {
	case (req.Graph == nil) == (req.Layout == nil):
		s.respondError(w, r, errors.New(errors.ErrCodeInvalidInput, "request needs exactly one of graph and layout"))
		return
	case req.Layout != nil:
		res = *req.Layout
	default:
		var err error
		res, _, err = s.cfg.Runner.LayoutWithCacheInfo(r.Context(), req.Graph, s.options(r, req.Options))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	out, cached, err := s.cfg.Runner.RenderWithCacheInfo(r.Context(), res, req.Format)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentType(req.Format))
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.Header().Set("X-Cache", cacheStatus(cached))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		s.logger.Warn("write response", "id", RequestID(r.Context()), "error", err)
	}
}

// options merges the request's options over the server defaults.
func (s *Server) options(r *http.Request, req pipeline.Options) pipeline.Options {
	opts := s.cfg.Defaults.Override(req)
	if req.Timeout == 0 && s.cfg.Timeout > 0 {
		opts.Timeout = s.cfg.Timeout
	}
	opts.Logger = s.logger.With("id", RequestID(r.Context()))
	return opts
}

// =============================================================================
// Helpers
// =============================================================================

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

func cacheStatus(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

// statusCode maps an error code to an HTTP status.
func statusCode(err error) int {
	switch {
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func errNotFound(r *http.Request) error {
	return errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusCode(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	id := RequestID(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", id, "error", err)
	} else {
		s.logger.Debug("request rejected", "id", id, "error", err)
	}
	s.respondJSON(w, status, ErrorResponse{
		Error:     code,
		Message:   errors.UserMessage(err),
		RequestID: id,
	})
}
