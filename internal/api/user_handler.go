package api

import (
	"net/http"

	"libraryapi/internal/api/middleware"
	"libraryapi/internal/api/response"
	"libraryapi/internal/domain"
	"libraryapi/pkg/logger"
)

type UserHandler struct {
	service domain.UserService
	auth    *middleware.Auth
	logger  logger.Logger
}

func NewUserHandler(service domain.UserService, auth *middleware.Auth, logger logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		auth:    auth,
		logger:  logger,
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusCreated, user)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	tokens, err := h.service.Authenticate(r.Context(), req)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, tokens)
}

// Refresh exchanges the refresh token in the Authorization header for a
// new access token.
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	access, err := h.service.Refresh(r.Context(), middleware.BearerToken(r))
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"access_token": access})
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.BearerToken(r)); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.CallerID(r)

	user, err := h.service.GetProfile(r.Context(), callerID)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.CallerID(r)

	var patch domain.ProfilePatch
	if err := decodeJSON(r, &patch); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), callerID, patch)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.CallerID(r)

	if err := h.service.DeleteProfile(r.Context(), callerID); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("POST /token/refresh", h.Refresh)
	mux.HandleFunc("POST /logout", h.Logout)

	mux.Handle("GET /users/profile", h.auth.Authenticate(http.HandlerFunc(h.GetProfile)))
	mux.Handle("PUT /users/profile", h.auth.Authenticate(http.HandlerFunc(h.UpdateProfile)))
	mux.Handle("DELETE /users/profile", h.auth.Authenticate(http.HandlerFunc(h.DeleteProfile)))
}
