// Package httpapi is the synchronous request-router front-end: an info
// endpoint, a tool listing, and one call endpoint per registered tool.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/guillaumegay13/fieldflow/internal/app"
	"github.com/guillaumegay13/fieldflow/internal/proxy"
	"github.com/guillaumegay13/fieldflow/internal/selector"
	"github.com/guillaumegay13/fieldflow/internal/tooling"
)

// Server adapts the registered tool set to plain HTTP.
type Server struct {
	app    *app.App
	mux    *http.ServeMux
	logger *zap.Logger
}

// New builds the router over a compiled app.
func New(a *app.App) *Server {
	s := &Server{app: a, mux: http.NewServeMux(), logger: a.Logger}
	s.mux.HandleFunc("GET /{$}", s.handleInfo)
	s.mux.HandleFunc("GET /tools", s.handleListTools)
	s.mux.HandleFunc("POST /tools/{name}", s.handleCallTool)
	return s
}

// Handler returns the http.Handler serving the API.
func (s *Server) Handler() http.Handler { return s.mux }

type toolInfo struct {
	Name        string         `json:"name"`
	Method      string         `json:"method"`
	Path        string         `json:"path"`
	Summary     string         `json:"summary,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"tool_count": len(s.app.Tools),
		"spec_path":  s.app.Settings.SpecPath,
		"base_url":   s.app.BaseURL,
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	infos := make([]toolInfo, 0, len(s.app.Tools))
	for _, tool := range s.app.Tools {
		op := tool.Operation
		infos = append(infos, toolInfo{
			Name:        op.Name,
			Method:      strings.ToUpper(op.Method),
			Path:        op.Path,
			Summary:     op.Summary,
			InputSchema: tool.InputSchema(),
		})
	}
	s.writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	tool, ok := s.app.Tool(r.PathValue("name"))
	if !ok {
		s.writeFault(w, http.StatusNotFound, "unknown tool")
		return
	}

	var args map[string]any
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		s.writeFault(w, http.StatusBadRequest, "request payload must be a JSON object")
		return
	}

	call, err := tool.BindArguments(args)
	if err != nil {
		s.writeError(w, tool, err)
		return
	}

	result, err := s.app.Executor.Execute(r.Context(), tool.Operation, call)
	if err != nil {
		s.writeError(w, tool, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// writeError maps pipeline errors onto HTTP statuses: client-input faults
// to 400/422, upstream faults to the upstream status, everything else to
// 502. Per-call errors never take the server down.
func (s *Server) writeError(w http.ResponseWriter, tool *tooling.Tool, err error) {
	var selErr *selector.Error
	var valErr *tooling.ValidationError
	var fault *proxy.Fault
	switch {
	case errors.As(err, &selErr):
		s.writeFault(w, http.StatusBadRequest, selErr.Error())
	case errors.As(err, &valErr):
		s.writeFault(w, http.StatusUnprocessableEntity, valErr.Error())
	case errors.As(err, &fault):
		s.writeFault(w, fault.StatusCode, fault.Detail)
	default:
		s.logger.Error("proxy call failed",
			zap.String("tool", tool.Operation.Name), zap.Error(err))
		s.writeFault(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) writeFault(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]any{"detail": detail})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("writing response", zap.Error(err))
	}
}
