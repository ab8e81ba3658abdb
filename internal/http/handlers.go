package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"expensetracker/internal/log"
	"expensetracker/internal/tools"
)

const (
	readyTimeout = 5 * time.Second

	// Store and read failures are logged in full; callers get these.
	msgToolFailed       = "internal error while running tool"
	msgCategoriesFailed = "failed to read categories"
	msgStoreUnreachable = "store unreachable"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks that the store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if s.store == nil {
		ServiceUnavailableError("store not configured").Write(w)
		return
	}
	if err := s.store.Ping(ctx); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentStorage).WarnContext(ctx, "Readiness check failed",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeDatabase)
		ServiceUnavailableError(msgStoreUnreachable).Write(w)
		return
	}

	NewJSONResponse().Body(map[string]any{
		"status":    "ready",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    map[string]string{"store": "ok"},
	}).Write(w)
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{"tools": s.tools.Descriptors()}).Write(w)
}

// handleCallTool dispatches POST /tools/{name} with the body as arguments.
func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("name")

	args, err := parseToolArgs(w, r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	result, err := s.tools.Call(ctx, name, args)
	if err != nil {
		var argErr *tools.ArgumentError
		switch {
		case errors.Is(err, tools.ErrUnknownTool):
			NotFoundError(err.Error()).Write(w)
		case errors.As(err, &argErr):
			UnprocessableEntityError(argErr.Error()).Write(w)
		default:
			// Registry.Call has already logged the failure with its detail.
			InternalServerError(msgToolFailed).Write(w)
		}
		return
	}

	NewJSONResponse().Body(result).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	body, err := s.categories.Read()
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to read categories",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeInternal)
		InternalServerError(msgCategoriesFailed).Write(w)
		return
	}

	NewJSONResponse().RawBody([]byte(body)).Write(w)
}
