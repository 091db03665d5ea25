package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	flightserrors "wayfarer/internal/flights/errors"
	"wayfarer/internal/flights/repository"
	"wayfarer/internal/flights/validator"
	"wayfarer/internal/reconciliation"
	"wayfarer/pkg/clock"
	"wayfarer/pkg/config"
	apperrors "wayfarer/pkg/errors"
	"wayfarer/pkg/model"
	"wayfarer/pkg/provider"
	"wayfarer/pkg/sanitizer"

	"github.com/google/uuid"
)

// FlightProvider is the slice of the gateway the booking flow needs.
type FlightProvider interface {
	SearchFlightOffers(ctx context.Context, req provider.FlightSearchRequest) (json.RawMessage, error)
	ConfirmPricing(ctx context.Context, offer json.RawMessage) (*provider.PricedOffer, error)
	CreateOrder(ctx context.Context, priced *provider.PricedOffer, travelers []model.Traveler) (*provider.FlightOrder, error)
}

type BookingService interface {
	Search(ctx context.Context, req provider.FlightSearchRequest) (json.RawMessage, error)
	Book(ctx context.Context, userID string, req *model.BookingRequest) (*model.Booking, error)
	ListUpcoming(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error)
	Cancel(ctx context.Context, userID, bookingID string) error
	ListReconciliation(ctx context.Context, limit int, offset int64) ([]*model.ReconciliationRecord, int64, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	reconRepo reconciliation.Repository
	gateway   FlightProvider
	validator *validator.BookingValidator
	clock     clock.Clock
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	reconRepo reconciliation.Repository,
	gateway FlightProvider,
	validator *validator.BookingValidator,
	clk clock.Clock,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		reconRepo: reconRepo,
		gateway:   gateway,
		validator: validator,
		clock:     clk,
		cfg:       cfg,
	}
}

func (s *bookingService) Search(ctx context.Context, req provider.FlightSearchRequest) (json.RawMessage, error) {
	req.Origin = sanitizer.NormalizeLocationCode(req.Origin)
	req.Destination = sanitizer.NormalizeLocationCode(req.Destination)

	if err := s.validator.ValidateSearch(req.Origin, req.Destination, req.DepartureDate); err != nil {
		return nil, apperrors.Validation("Invalid search input", map[string]any{"error": err.Error()})
	}

	offers, err := s.gateway.SearchFlightOffers(ctx, req)
	if err != nil {
		return nil, s.providerError("Flight search failed", err)
	}
	return offers, nil
}

// Book runs the two-phase flow: confirm the offer's price, then create
// the order, then persist. A failure in either provider phase aborts
// with nothing recorded locally. A persist failure after the order
// exists cannot be rolled back remotely, so it lands in the
// reconciliation outbox instead of being retried.
func (s *bookingService) Book(ctx context.Context, userID string, req *model.BookingRequest) (*model.Booking, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	s.sanitizeTravelers(req.Travelers)
	if err := s.validator.ValidateBookingRequest(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "user_id", userID, "error", err)
		return nil, apperrors.Validation("Invalid booking input", map[string]any{"error": err.Error()})
	}

	priced, err := s.gateway.ConfirmPricing(ctx, req.Offer)
	if err != nil {
		s.cfg.Log.Warn("Price confirmation failed", "user_id", userID, "error", err)
		if pe, ok := provider.AsError(err); ok {
			return nil, apperrors.PricingFailed(pe.StatusCode, string(pe.Body), err)
		}
		return nil, apperrors.PricingFailed(0, "", err)
	}

	order, err := s.gateway.CreateOrder(ctx, priced, req.Travelers)
	if err != nil {
		// The order may or may not exist upstream; creating it again
		// risks a duplicate, so this is never retried here.
		s.cfg.Log.Error("Order creation failed", "user_id", userID, "error", err)
		if pe, ok := provider.AsError(err); ok {
			return nil, apperrors.OrderFailed(pe.StatusCode, string(pe.Body), err)
		}
		return nil, apperrors.OrderFailed(0, "", err)
	}

	booking := &model.Booking{
		BookingID:              uuid.New().String(),
		UserID:                 userID,
		ProviderConfirmationID: order.ConfirmationID,
		Departure:              order.Summary.Departure,
		Arrival:                order.Summary.Arrival,
		DepartureDate:          order.Summary.DepartureAt,
		ArrivalDate:            order.Summary.ArrivalAt,
		CarrierCode:            order.Summary.CarrierCode,
		FlightNumber:           order.Summary.FlightNumber,
		PriceTotal:             order.Summary.PriceTotal,
		Currency:               order.Summary.PriceCurrency,
		Travelers:              req.Travelers,
		Status:                 model.StatusConfirmed,
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, s.escalatePartialFailure(ctx, booking, err)
	}

	s.cfg.Log.Info("Flight booked",
		"booking_id", booking.BookingID,
		"user_id", userID,
		"confirmation_id", order.ConfirmationID,
		"departure", booking.Departure,
		"arrival", booking.Arrival,
	)
	return booking, nil
}

// escalatePartialFailure handles the worst case: the provider holds a
// confirmed order that we failed to record. The outbox write preserves
// everything an operator needs; the caller gets an explicit partial
// failure rather than a silent success or a double-booking retry.
func (s *bookingService) escalatePartialFailure(ctx context.Context, booking *model.Booking, persistErr error) error {
	s.cfg.Log.Error("ESCALATION: provider order created but local persist failed",
		"user_id", booking.UserID,
		"confirmation_id", booking.ProviderConfirmationID,
		"error", persistErr,
	)

	payload, marshalErr := json.Marshal(booking)
	if marshalErr != nil {
		payload = nil
	}

	record := &model.ReconciliationRecord{
		Domain:                 "flight",
		UserID:                 booking.UserID,
		ProviderConfirmationID: booking.ProviderConfirmationID,
		Payload:                payload,
		Reason:                 persistErr.Error(),
	}
	if reconErr := s.reconRepo.Create(ctx, record); reconErr != nil {
		s.cfg.Log.Error("ESCALATION: reconciliation outbox write also failed",
			"user_id", booking.UserID,
			"confirmation_id", booking.ProviderConfirmationID,
			"error", reconErr,
		)
	}

	return apperrors.PartialFailure(
		"Booking was created with the provider but could not be recorded; support has been notified",
		persistErr,
	)
}

func (s *bookingService) ListUpcoming(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if userID == "" {
		return nil, 0, apperrors.InvalidInput("User ID cannot be empty")
	}

	from := startOfDay(s.clock.Now().UTC())

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountUpcoming(ctx, userID, from)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count upcoming bookings", "user_id", userID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindUpcoming(ctx, userID, from, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list upcoming bookings", "user_id", userID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// Cancel is a local status transition. The trip record flips to
// cancelled so it drops out of upcoming lists; no provider call is made.
func (s *bookingService) Cancel(ctx context.Context, userID, bookingID string) error {
	if userID == "" || bookingID == "" {
		return apperrors.InvalidInput("User ID and booking ID are required")
	}

	booking, err := s.repo.FindByBookingID(ctx, userID, bookingID)
	if err != nil {
		if errors.Is(err, flightserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", bookingID)
		}
		return apperrors.Internal("Failed to retrieve booking", err)
	}

	if booking.Status != model.StatusConfirmed {
		return apperrors.Conflict("Only confirmed bookings can be cancelled")
	}

	if err := s.repo.UpdateStatus(ctx, userID, bookingID, model.StatusCancelled); err != nil {
		if errors.Is(err, flightserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", bookingID)
		}
		return apperrors.Internal("Failed to cancel booking", err)
	}

	s.cfg.Log.Info("Booking cancelled", "booking_id", bookingID, "user_id", userID)
	return nil
}

func (s *bookingService) ListReconciliation(ctx context.Context, limit int, offset int64) ([]*model.ReconciliationRecord, int64, error) {
	var count int64
	var records []*model.ReconciliationRecord
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.reconRepo.CountUnresolved(ctx)
		if errCount != nil {
			errCount = apperrors.Internal("Failed to count reconciliation records", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		records, errFind = s.reconRepo.FindUnresolved(ctx, limit, offset)
		if errFind != nil {
			errFind = apperrors.Internal("Failed to retrieve reconciliation records", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return records, count, nil
}

func (s *bookingService) sanitizeTravelers(travelers []model.Traveler) {
	for i := range travelers {
		travelers[i].FirstName = sanitizer.NormalizeName(travelers[i].FirstName)
		travelers[i].LastName = sanitizer.NormalizeName(travelers[i].LastName)
		travelers[i].Email = sanitizer.NormalizeEmail(travelers[i].Email)
		travelers[i].Phone = sanitizer.NormalizePhone(travelers[i].Phone)
	}
}

func (s *bookingService) providerError(message string, err error) error {
	if pe, ok := provider.AsError(err); ok {
		return apperrors.Provider(message, pe.StatusCode, string(pe.Body), err)
	}
	return apperrors.Provider(message, 0, "", err)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
