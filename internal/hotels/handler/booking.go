package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"wayfarer/internal/accounts/token"
	"wayfarer/internal/hotels/service"
	apperrors "wayfarer/pkg/errors"
	httputil "wayfarer/pkg/http"
	"wayfarer/pkg/logger"
	"wayfarer/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type HotelHandler struct {
	service service.HotelService
	issuer  *token.Issuer
	log     *logger.Logger
}

func NewHotelHandler(service service.HotelService, issuer *token.Issuer, log *logger.Logger) *HotelHandler {
	return &HotelHandler{
		service: service,
		issuer:  issuer,
		log:     log,
	}
}

func (h *HotelHandler) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
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

func (h *HotelHandler) SearchOffers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if _, ok := h.authenticate(w, r); !ok {
		return
	}

	query := r.URL.Query()
	adults := 1
	if adultsStr := query.Get("adults"); adultsStr != "" {
		parsed, err := strconv.Atoi(adultsStr)
		if err != nil {
			if writeErr := httputil.WriteError(w, apperrors.InvalidInput("invalid adults parameter")); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "SearchOffers", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		adults = parsed
	}

	offers, err := h.service.SearchOffers(r.Context(),
		query.Get("city_code"),
		query.Get("check_in_date"),
		query.Get("check_out_date"),
		adults,
	)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SearchOffers", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, offers); err != nil {
		h.log.Error("failed to write success response", "handler", "SearchOffers", "operation", "WriteSuccess", "error", err)
	}
}

func (h *HotelHandler) Book(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req model.HotelBookingRequest
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

func (h *HotelHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	bookings, total, err := h.service.List(r.Context(), userID, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *HotelHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	booking, err := h.service.Get(r.Context(), userID, ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Get", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *HotelHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/hotels/offers", h.SearchOffers)
	router.POST("/api/v1/hotels/bookings", h.Book)
	router.GET("/api/v1/hotels/bookings", h.List)
	router.GET("/api/v1/hotels/bookings/:id", h.Get)
}
