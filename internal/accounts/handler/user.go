package handler

import (
	"encoding/json"
	"net/http"

	"wayfarer/internal/accounts/service"
	httputil "wayfarer/pkg/http"
	"wayfarer/pkg/logger"
	"wayfarer/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type UserHandler struct {
	service service.UserService
	log     *logger.Logger
}

func NewUserHandler(service service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log,
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var reg model.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Register", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	profile, err := h.service.Register(r.Context(), &reg)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Register", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, profile); err != nil {
		h.log.Error("failed to write created response", "handler", "Register", "operation", "WriteCreated", "error", err)
	}
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Login", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	signed, err := h.service.AttemptLogin(r.Context(), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Login", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, loginResponse{Token: signed}); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tokenString, err := httputil.BearerToken(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Profile", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	claims, err := h.service.VerifyToken(tokenString)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Profile", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	profile, err := h.service.Profile(r.Context(), claims.UserID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Profile", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, profile); err != nil {
		h.log.Error("failed to write success response", "handler", "Profile", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tokenString, err := httputil.BearerToken(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "UpdateProfile", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	claims, err := h.service.VerifyToken(tokenString)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "UpdateProfile", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	var upd model.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "UpdateProfile", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), claims.UserID, &upd)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "UpdateProfile", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, profile); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateProfile", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tokenString, err := httputil.BearerToken(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ChangePassword", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	claims, err := h.service.VerifyToken(tokenString)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ChangePassword", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	var req model.PasswordChange
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "ChangePassword", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.ChangePassword(r.Context(), claims.UserID, &req); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ChangePassword", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/accounts/register", h.Register)
	router.POST("/api/v1/accounts/login", h.Login)
	router.GET("/api/v1/accounts/profile", h.Profile)
	router.PUT("/api/v1/accounts/profile", h.UpdateProfile)
	router.PUT("/api/v1/accounts/password", h.ChangePassword)
}
