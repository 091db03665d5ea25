package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"wayfarer/internal/accounts/token"
	"wayfarer/internal/flights/service"
	apperrors "wayfarer/pkg/errors"
	httputil "wayfarer/pkg/http"
	"wayfarer/pkg/logger"
	"wayfarer/pkg/model"
	"wayfarer/pkg/provider"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	issuer  *token.Issuer
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, issuer *token.Issuer, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		issuer:  issuer,
		log:     log,
	}
}

// authenticate resolves the bearer token to a user ID, writing the
// error response itself on failure.
func (h *BookingHandler) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
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

func (h *BookingHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if _, ok := h.authenticate(w, r); !ok {
		return
	}

	query := r.URL.Query()
	req := provider.FlightSearchRequest{
		Origin:        query.Get("origin"),
		Destination:   query.Get("destination"),
		DepartureDate: query.Get("departure_date"),
		ReturnDate:    query.Get("return_date"),
		CabinClass:    query.Get("cabin_class"),
	}
	if passengersStr := query.Get("passengers"); passengersStr != "" {
		passengers, err := strconv.Atoi(passengersStr)
		if err != nil {
			if writeErr := httputil.WriteError(w, apperrors.InvalidInput("invalid passengers parameter")); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "Search", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		req.Passengers = passengers
	}

	offers, err := h.service.Search(r.Context(), req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Search", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, offers); err != nil {
		h.log.Error("failed to write success response", "handler", "Search", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Book", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	booking, err := h.service.Book(r.Context(), userID, &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Book", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Book", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) ListUpcoming(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListUpcoming", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	bookings, total, err := h.service.ListUpcoming(r.Context(), userID, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListUpcoming", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListUpcoming", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	bookingID := ps.ByName("id")
	if err := h.service.Cancel(r.Context(), userID, bookingID); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Cancel", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

// ListReconciliation exposes the outbox for operators working off
// partial failures.
func (h *BookingHandler) ListReconciliation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if _, ok := h.authenticate(w, r); !ok {
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListReconciliation", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	records, total, err := h.service.ListReconciliation(r.Context(), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListReconciliation", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, records, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListReconciliation", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/flights/search", h.Search)
	router.POST("/api/v1/flights/bookings", h.Book)
	router.GET("/api/v1/flights/bookings/upcoming", h.ListUpcoming)
	router.POST("/api/v1/flights/bookings/:id/cancel", h.Cancel)
	router.GET("/api/v1/flights/reconciliation", h.ListReconciliation)
}
