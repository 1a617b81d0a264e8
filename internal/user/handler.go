package user

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/httpx"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/user/entity"
)

// Service is what the handler needs from UserService.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (RegistrationResult, error)
	Login(ctx context.Context, req LoginRequest) (LoginResult, error)
	ListUsers(ctx context.Context) ([]*entity.PublicView, error)
	GetUser(ctx context.Context, id string) (*entity.PublicView, error)
}

// Handler exposes HTTP endpoints for user operations.
type Handler struct {
	svc    Service
	logger *zap.SugaredLogger
}

func NewHandler(svc Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.logger.Debugw("invalid register payload", "err", err)
		httpx.WriteFailure(w, http.StatusBadRequest, "invalid payload")
		return
	}
	res, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.logger.Errorw("register failed", "err", err)
		httpx.WriteFailure(w, http.StatusInternalServerError, "registration failed")
		return
	}
	if !res.Succeeded() {
		httpx.WriteFailure(w, http.StatusBadRequest, res.Errors...)
		return
	}
	httpx.WriteOK(w, res.User)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		httpx.WriteFailure(w, http.StatusBadRequest, "invalid payload")
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		h.logger.Errorw("login failed", "err", err)
		httpx.WriteFailure(w, http.StatusInternalServerError, "login failed")
		return
	}
	if !res.Succeeded() {
		httpx.WriteFailure(w, http.StatusBadRequest, MsgBadCredentials)
		return
	}
	httpx.WriteOK(w, res)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		h.logger.Errorw("list users failed", "err", err)
		httpx.WriteFailure(w, http.StatusInternalServerError, "could not list users")
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=30")
	httpx.WriteOK(w, users)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetUser(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, ErrUserNotFound):
		httpx.WriteFailure(w, http.StatusNotFound, "user not found")
	case err != nil:
		h.logger.Errorw("get user failed", "err", err)
		httpx.WriteFailure(w, http.StatusInternalServerError, "could not load user")
	default:
		w.Header().Set("Cache-Control", "public, max-age=30")
		httpx.WriteOK(w, u)
	}
}
