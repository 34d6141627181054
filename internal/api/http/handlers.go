package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	gerr "github.com/jekabolt/farmgoods-reports/internal/errors"
	"github.com/jekabolt/farmgoods-reports/internal/form"
)

// maxBodySize bounds a report request body.
const maxBodySize = 1 << 16

// ErrResponse is the body of every failed call.
type ErrResponse struct {
	StatusText string   `json:"status"`
	ErrorText  string   `json:"error,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

// UploadResponse is returned by an export with upload=true.
type UploadResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (s *Server) generateReport(w http.ResponseWriter, r *http.Request) {
	var f form.ReportRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: can't decode body: %s", gerr.ErrInvalidRequest, err.Error()))
		return
	}
	if err := f.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := f.ToEntity(s.reports.Location())
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %s", gerr.ErrInvalidRequest, err.Error()))
		return
	}

	rep, err := s.reports.Generate(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) currentReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Current()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) drilldown(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	key := chi.URLParam(r, "key")
	// keys are display names and may arrive escaped
	if k, err := url.PathUnescape(key); err == nil {
		key = k
	}

	d, err := s.reports.Drilldown(r.Context(), kind, key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) exportReport(w http.ResponseWriter, r *http.Request) {
	upload := false
	if v := r.URL.Query().Get("upload"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: upload must be a boolean", gerr.ErrInvalidRequest))
			return
		}
		upload = b
	}
	if upload && s.files == nil {
		s.writeError(w, r, gerr.ErrUploadDisabled)
		return
	}

	f, err := s.reports.Export(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if upload {
		u, err := s.files.UploadReport(r.Context(), f)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, UploadResponse{Name: f.Name, URL: u})
		return
	}

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Data)
}

// statusOf maps domain errors onto http statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, gerr.ErrInvalidDateRange),
		errors.Is(err, gerr.ErrInvalidReportType),
		errors.Is(err, gerr.ErrInvalidRequest),
		errors.Is(err, gerr.ErrUnknownDrilldown):
		return http.StatusBadRequest
	case errors.Is(err, gerr.ErrNoReport),
		errors.Is(err, gerr.ErrBucketNotFound):
		return http.StatusNotFound
	case errors.Is(err, gerr.ErrStaleGeneration):
		return http.StatusConflict
	case errors.Is(err, gerr.ErrUploadDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	resp := ErrResponse{StatusText: http.StatusText(status)}

	if status == http.StatusInternalServerError {
		slog.Default().ErrorContext(r.Context(), "can't serve report request",
			slog.String("err", err.Error()),
			slog.String("path", r.URL.Path),
		)
	} else {
		resp.ErrorText = err.Error()
	}

	var ve *form.ValidationError
	if errors.As(err, &ve) {
		resp.ErrorText = "validation failed"
		resp.Violations = ve.Violations
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("can't encode response",
			slog.String("err", err.Error()),
		)
	}
}
