// Package handlers exposes the discussion service over HTTP.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/discussion-platform/internal/platform/api"
	"github.com/example/discussion-platform/internal/platform/auth"
	"github.com/example/discussion-platform/internal/platform/httpserver"
	"github.com/example/discussion-platform/services/discussion/internal/domain"
	"github.com/example/discussion-platform/services/discussion/internal/lifecycle"
	"github.com/example/discussion-platform/services/discussion/internal/service"
)

type createThreadRequest struct {
	ParentType string `json:"parent_type"`
	ParentID   string `json:"parent_id"`
}

type bodyRequest struct {
	Body string `json:"body"`
}

type probeResponse struct {
	Allowed bool `json:"allowed"`
}

// Handlers serves the /v1 discussion routes.
type Handlers struct {
	svc *service.Service
	log *zap.Logger
}

func New(svc *service.Service, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{svc: svc, log: log}
}

// Register mounts the routes on r. Every route accepts anonymous callers;
// thread administration needs an admin token.
func (h *Handlers) Register(r chi.Router, verifier auth.JWTVerifier) {
	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalUser(verifier))

		r.Get("/v1/threads/{thread_id}", h.GetThread)
		r.Get("/v1/threads/{thread_id}/comments/new", h.NewComment)
		r.Post("/v1/threads/{thread_id}/comments", h.CreateComment)

		r.Get("/v1/comments/{comment_id}/edit", h.EditComment)
		r.Put("/v1/comments/{comment_id}", h.UpdateComment)
		r.Put("/v1/comments/{comment_id}/delete", h.commentAction(h.svc.Delete))
		r.Put("/v1/comments/{comment_id}/undelete", h.commentAction(h.svc.Undelete))
		r.Put("/v1/comments/{comment_id}/upvote", h.commentAction(h.svc.Upvote))
		r.Put("/v1/comments/{comment_id}/downvote", h.commentAction(h.svc.Downvote))
		r.Put("/v1/comments/{comment_id}/unvote", h.commentAction(h.svc.Unvote))
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Use(auth.RequireAdmin)

		r.Post("/v1/threads", h.CreateThread)
		r.Put("/v1/threads/{thread_id}/close", h.CloseThread)
		r.Put("/v1/threads/{thread_id}/reopen", h.ReopenThread)
	})
}

// ActorFromContext builds the acting identity from the authenticated claims.
// A token without a caps claim grants read only; role=admin adds admin.
func ActorFromContext(ctx context.Context) *domain.Actor {
	uid, ok := auth.UserIDFromContext(ctx)
	if !ok || strings.TrimSpace(uid) == "" {
		return nil
	}
	caps := auth.CapsFromContext(ctx)
	set := domain.NewCapabilitySet(domain.CapabilityRead)
	if len(caps) > 0 {
		set = domain.ParseCapabilities(caps)
	}
	if role, _ := auth.RoleFromContext(ctx); strings.EqualFold(strings.TrimSpace(role), "admin") {
		set = set.With(domain.CapabilityAdmin)
	}
	return &domain.Actor{ID: uid, Caps: set}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, name))
	if id == "" {
		api.BadRequest(w, "MISSING_ID", name+" is required", httpserver.RequestIDFromContext(r.Context()), nil)
		return "", false
	}
	return id, true
}

// writeError maps service errors onto the JSON error envelope.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	rid := httpserver.RequestIDFromContext(r.Context())
	var invalid *lifecycle.ValidationError
	switch {
	case errors.Is(err, service.ErrForbidden):
		api.Forbidden(w, "FORBIDDEN", "not authorized", rid)
	case errors.Is(err, service.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", "not found", rid)
	case errors.As(err, &invalid):
		details := make(map[string]any, len(invalid.Fields))
		for k, v := range invalid.Fields {
			details[k] = v
		}
		api.Unprocessable(w, "VALIDATION_FAILED", "validation failed", rid, details)
	case errors.Is(err, service.ErrConflict):
		api.Conflict(w, "CONFLICT", "comment was modified concurrently, retry", rid, nil)
	default:
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.String("request_id", rid), zap.Error(err))
		api.Internal(w, rid)
	}
}

// CreateThread handles POST /v1/threads
func (h *Handlers) CreateThread(w http.ResponseWriter, r *http.Request) {
	var req createThreadRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		api.BadRequest(w, "INVALID_JSON", "invalid JSON", httpserver.RequestIDFromContext(r.Context()), nil)
		return
	}
	req.ParentType, req.ParentID = strings.TrimSpace(req.ParentType), strings.TrimSpace(req.ParentID)
	if req.ParentType == "" || req.ParentID == "" {
		api.BadRequest(w, "MISSING_PARENT", "parent_type and parent_id are required",
			httpserver.RequestIDFromContext(r.Context()), nil)
		return
	}
	th, err := h.svc.CreateThread(r.Context(), req.ParentType, req.ParentID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, th)
}

// GetThread handles GET /v1/threads/{thread_id}
func (h *Handlers) GetThread(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "thread_id")
	if !ok {
		return
	}
	view, err := h.svc.Thread(r.Context(), ActorFromContext(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, view)
}

// CloseThread handles PUT /v1/threads/{thread_id}/close
func (h *Handlers) CloseThread(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "thread_id")
	if !ok {
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	th, err := h.svc.CloseThread(r.Context(), id, uid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, th)
}

// ReopenThread handles PUT /v1/threads/{thread_id}/reopen
func (h *Handlers) ReopenThread(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "thread_id")
	if !ok {
		return
	}
	th, err := h.svc.ReopenThread(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, th)
}

// NewComment handles GET /v1/threads/{thread_id}/comments/new
func (h *Handlers) NewComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "thread_id")
	if !ok {
		return
	}
	if err := h.svc.CanCreate(r.Context(), ActorFromContext(r.Context()), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, probeResponse{Allowed: true})
}

// CreateComment handles POST /v1/threads/{thread_id}/comments
func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "thread_id")
	if !ok {
		return
	}
	var req bodyRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		api.BadRequest(w, "INVALID_JSON", "invalid JSON", httpserver.RequestIDFromContext(r.Context()), nil)
		return
	}
	view, err := h.svc.Create(r.Context(), ActorFromContext(r.Context()), id, req.Body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, view)
}

// EditComment handles GET /v1/comments/{comment_id}/edit
func (h *Handlers) EditComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "comment_id")
	if !ok {
		return
	}
	if err := h.svc.CanEdit(r.Context(), ActorFromContext(r.Context()), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, probeResponse{Allowed: true})
}

// UpdateComment handles PUT /v1/comments/{comment_id}
func (h *Handlers) UpdateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "comment_id")
	if !ok {
		return
	}
	var req bodyRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		api.BadRequest(w, "INVALID_JSON", "invalid JSON", httpserver.RequestIDFromContext(r.Context()), nil)
		return
	}
	view, err := h.svc.Edit(r.Context(), ActorFromContext(r.Context()), id, req.Body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, view)
}

type commentOp func(ctx context.Context, actor *domain.Actor, commentID string) (service.CommentView, error)

// commentAction handles the body-less PUT /v1/comments/{comment_id}/<action> routes.
func (h *Handlers) commentAction(op commentOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "comment_id")
		if !ok {
			return
		}
		view, err := op(r.Context(), ActorFromContext(r.Context()), id)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, view)
	}
}
