package authhandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"unifiedpro/internal/domain/audit"
	"unifiedpro/internal/domain/auth"
	"unifiedpro/internal/platform/validation"
	"unifiedpro/internal/transport/http/api"
	"unifiedpro/internal/transport/http/middleware"
	"unifiedpro/internal/transport/http/shared"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
}

type Handler struct {
	Service Authenticator
	Audit   audit.Recorder
}

func NewHandler(service Authenticator, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type meResponse struct {
	auth.UserContext
	Permissions []string `json:"permissions"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.With(middleware.RequireUser).Get("/me", h.HandleMe)
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if shared.RejectInvalid(w, reqID, validation.Struct(payload)) {
		return
	}

	res, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
		return
	}
	if err != nil {
		zap.L().Error("login failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "auth_login_failed", "failed to sign in", reqID)
		return
	}

	shared.Audit(r, h.Audit, res.User, audit.ActionLogin, "user", res.User.UserID, nil, nil)
	api.Success(w, res, reqID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, reqID, ok := shared.Caller(w, r)
	if !ok {
		return
	}
	api.Success(w, meResponse{UserContext: user, Permissions: auth.Permissions(user.RoleName)}, reqID)
}
