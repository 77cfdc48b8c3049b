package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/jarscope/pkg/errors"
	"github.com/matzehuels/jarscope/pkg/pipeline"
	"github.com/matzehuels/jarscope/pkg/render"
	"github.com/matzehuels/jarscope/pkg/render/jsonreport"
)

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no route for %s", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/v1/reload", s.handleReload)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.withReport)

		r.Get("/", s.handleIndex)
		r.Get("/graph.svg", s.handleGraph(render.FormatSVG))
		r.Get("/graph.dot", s.handleGraph(render.FormatDOT))

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/report", s.handleReport)
			r.Get("/archives", s.handleArchives)
			r.Get("/archives/{name}", s.handleArchive)
			r.Get("/archives/{name}/depends-on", s.handleDependsOn)
			r.Get("/archives/{name}/dependants", s.handleDependants)
			r.Get("/conflicts", s.handleConflicts)
		})
	})
	return r
}

type healthResponse struct {
	Status   string `json:"status"`
	RunID    string `json:"run_id,omitempty"`
	Severity string `json:"severity,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "starting"}
	if result := s.current.Load(); result != nil {
		resp = healthResponse{Status: "ok", RunID: result.RunID, Severity: result.Report.Severity.String()}
	}
	writeJSON(w, http.StatusOK, resp)
}

type reloadResponse struct {
	RunID    string         `json:"run_id"`
	Severity string         `json:"severity"`
	Stats    pipeline.Stats `json:"stats"`
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	result := s.current.Load()
	writeJSON(w, http.StatusOK, reloadResponse{
		RunID:    result.RunID,
		Severity: result.Report.Severity.String(),
		Stats:    result.Stats,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	result := resultFrom(r.Context())
	view, err := render.ParseView(r.URL.Query().Get("view"))
	if err != nil {
		writeError(w, err)
		return
	}
	if notModified(w, r, result, "html", string(view)) {
		return
	}
	page, err := s.runner.Render(r.Context(), result, pipeline.RenderOptions{
		Format:   render.FormatHTML,
		View:     view,
		Title:    s.title,
		GraphURL: "/graph.svg",
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	result := resultFrom(r.Context())
	view, err := render.ParseView(r.URL.Query().Get("view"))
	if err != nil {
		writeError(w, err)
		return
	}
	if notModified(w, r, result, "json", string(view)) {
		return
	}
	data, err := s.runner.Render(r.Context(), result, pipeline.RenderOptions{Format: render.FormatJSON, View: view})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Run-ID", result.RunID)
	_, _ = w.Write(data)
}

func (s *Server) handleArchives(w http.ResponseWriter, r *http.Request) {
	report := resultFrom(r.Context()).Report
	archives := make([]jsonreport.Archive, len(report.Universe))
	for i, a := range report.Universe {
		archives[i] = jsonreport.ArchiveOf(a)
	}
	writeJSON(w, http.StatusOK, map[string]any{"archives": archives})
}

type archiveResponse struct {
	Archive    jsonreport.Archive   `json:"archive"`
	DependsOn  []jsonreport.Outcome `json:"depends_on"`
	Dependants []string             `json:"dependants"`
	Conflict   *jsonreport.Conflict `json:"conflict,omitempty"`
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	report := resultFrom(r.Context()).Report
	name := chi.URLParam(r, "name")
	a, ok := report.Archive(name)
	if !ok {
		writeError(w, archiveNotFound(name))
		return
	}
	outcomes, _ := report.DependsOn.Lookup(name)
	consumers, _ := report.Dependants.Lookup(name)
	resp := archiveResponse{
		Archive:    jsonreport.ArchiveOf(a),
		DependsOn:  jsonreport.Outcomes(outcomes),
		Dependants: jsonreport.Names(consumers),
	}
	for _, c := range jsonreport.Conflicts(report.Conflicts) {
		if c.Archive == name {
			resp.Conflict = &c
			break
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDependsOn(w http.ResponseWriter, r *http.Request) {
	report := resultFrom(r.Context()).Report
	name := chi.URLParam(r, "name")
	outcomes, ok := report.DependsOn.Lookup(name)
	if !ok {
		writeError(w, archiveNotFound(name))
		return
	}
	writeJSON(w, http.StatusOK, jsonreport.DependsOnEntry{Archive: name, Outcomes: jsonreport.Outcomes(outcomes)})
}

func (s *Server) handleDependants(w http.ResponseWriter, r *http.Request) {
	report := resultFrom(r.Context()).Report
	name := chi.URLParam(r, "name")
	consumers, ok := report.Dependants.Lookup(name)
	if !ok {
		writeError(w, archiveNotFound(name))
		return
	}
	writeJSON(w, http.StatusOK, jsonreport.DependantsEntry{Archive: name, Dependants: jsonreport.Names(consumers)})
}

func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	report := resultFrom(r.Context()).Report
	writeJSON(w, http.StatusOK, map[string]any{
		"severity":  report.Conflicts.Severity,
		"conflicts": jsonreport.Conflicts(report.Conflicts),
	})
}

func (s *Server) handleGraph(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := resultFrom(r.Context())
		opts := pipeline.GraphOptions{Format: format}
		for name, dst := range map[string]*bool{
			"detailed":   &opts.Detailed,
			"unresolved": &opts.Unresolved,
			"nesting":    &opts.Nesting,
		} {
			v := r.URL.Query().Get(name)
			if v == "" {
				continue
			}
			b, err := strconv.ParseBool(v)
			if err != nil {
				writeError(w, errors.New(errors.ErrCodeInvalidInput, "query parameter %s: %q is not a boolean", name, v))
				return
			}
			*dst = b
		}

		data, err := s.runner.RenderGraph(r.Context(), result, opts)
		if err != nil {
			writeError(w, err)
			return
		}
		if format == render.FormatSVG {
			w.Header().Set("Content-Type", "image/svg+xml")
		} else {
			w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		}
		_, _ = w.Write(data)
	}
}

func archiveNotFound(name string) error {
	return errors.New(errors.ErrCodeNotFound, "archive %s not found", name)
}

// notModified sets the ETag of a rendering and answers conditional requests.
func notModified(w http.ResponseWriter, r *http.Request, result *pipeline.Result, parts ...string) bool {
	if result.Key == "" {
		return false
	}
	key := result.Key
	if i := strings.IndexByte(key, ':'); i >= 0 {
		key = key[i+1:]
	}
	if len(key) > 32 {
		key = key[:32]
	}
	etag := `"` + key + "-" + strings.Join(parts, "-") + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusOf(code), errorResponse{Error: errorBody{Code: code, Message: errors.UserMessage(err)}})
}

func statusOf(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case errors.ErrCodeSignatureInvalid:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
