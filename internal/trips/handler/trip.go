package handler

import (
	"encoding/json"
	"net/http"

	"wayfarer/internal/accounts/token"
	"wayfarer/internal/trips/service"
	apperrors "wayfarer/pkg/errors"
	httputil "wayfarer/pkg/http"
	"wayfarer/pkg/logger"
	"wayfarer/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type TripHandler struct {
	service service.TripService
	issuer  *token.Issuer
	log     *logger.Logger
}

func NewTripHandler(service service.TripService, issuer *token.Issuer, log *logger.Logger) *TripHandler {
	return &TripHandler{
		service: service,
		issuer:  issuer,
		log:     log,
	}
}

func (h *TripHandler) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	tokenString, err := httputil.BearerToken(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "authenticate", "operation", "WriteError", "error", writeErr)
		}
		return "", false
	}

	claims, err := h.issuer.Verify(tokenString)
	if err != nil {
		if writeErr := httputil.WriteError(w, apperrors.Unauthorized("Invalid or expired token")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "authenticate", "operation", "WriteError", "error", writeErr)
		}
		return "", false
	}

	return claims.UserID, true
}

func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var trip model.Trip
	if err := json.NewDecoder(r.Body).Decode(&trip); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "CreateTrip", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	created, err := h.service.CreateTrip(r.Context(), userID, &trip)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CreateTrip", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateTrip", "operation", "WriteCreated", "error", err)
	}
}

func (h *TripHandler) ListTrips(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListTrips", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	trips, total, err := h.service.ListTrips(r.Context(), userID, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListTrips", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, trips, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListTrips", "operation", "WritePaginated", "error", err)
	}
}

func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	trip, err := h.service.GetTrip(r.Context(), userID, ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetTrip", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, trip); err != nil {
		h.log.Error("failed to write success response", "handler", "GetTrip", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TripHandler) DeleteTrip(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTrip(r.Context(), userID, ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "DeleteTrip", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *TripHandler) AddExpense(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var expense model.Expense
	if err := json.NewDecoder(r.Body).Decode(&expense); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "AddExpense", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	created, err := h.service.AddExpense(r.Context(), userID, ps.ByName("id"), &expense)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "AddExpense", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "AddExpense", "operation", "WriteCreated", "error", err)
	}
}

func (h *TripHandler) ListExpenses(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	expenses, err := h.service.ListExpenses(r.Context(), userID, ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListExpenses", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, expenses); err != nil {
		h.log.Error("failed to write success response", "handler", "ListExpenses", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TripHandler) DeleteExpense(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteExpense(r.Context(), userID, ps.ByName("expenseId")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "DeleteExpense", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *TripHandler) Summary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Summary(r.Context(), userID, ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Summary", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, summary); err != nil {
		h.log.Error("failed to write success response", "handler", "Summary", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TripHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/trips", h.CreateTrip)
	router.GET("/api/v1/trips", h.ListTrips)
	router.GET("/api/v1/trips/:id", h.GetTrip)
	router.DELETE("/api/v1/trips/:id", h.DeleteTrip)
	router.POST("/api/v1/trips/:id/expenses", h.AddExpense)
	router.GET("/api/v1/trips/:id/expenses", h.ListExpenses)
	router.DELETE("/api/v1/trips/:id/expenses/:expenseId", h.DeleteExpense)
	router.GET("/api/v1/trips/:id/summary", h.Summary)
}
