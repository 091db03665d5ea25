package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	hotelserrors "wayfarer/internal/hotels/errors"
	"wayfarer/internal/hotels/repository"
	"wayfarer/internal/hotels/validator"
	"wayfarer/internal/reconciliation"
	"wayfarer/pkg/config"
	apperrors "wayfarer/pkg/errors"
	"wayfarer/pkg/model"
	"wayfarer/pkg/provider"
	"wayfarer/pkg/sanitizer"

	"github.com/google/uuid"
)

// HotelProvider is the slice of the gateway the hotel flow needs.
type HotelProvider interface {
	ListHotelsByCity(ctx context.Context, cityCode string) ([]provider.Hotel, error)
	SearchHotelOffers(ctx context.Context, req provider.HotelOffersRequest) (json.RawMessage, error)
	BookHotel(ctx context.Context, offerID string, guests []model.Guest) (*provider.HotelOrder, error)
}

type HotelService interface {
	SearchOffers(ctx context.Context, cityCode, checkInDate, checkOutDate string, adults int) (json.RawMessage, error)
	Book(ctx context.Context, userID string, req *model.HotelBookingRequest) (*model.HotelBooking, error)
	List(ctx context.Context, userID string, limit int, offset int64) ([]*model.HotelBooking, int64, error)
	Get(ctx context.Context, userID, bookingID string) (*model.HotelBooking, error)
}

type hotelService struct {
	repo      repository.HotelBookingRepository
	reconRepo reconciliation.Repository
	gateway   HotelProvider
	validator *validator.HotelValidator
	cfg       *config.Config
}

func NewHotelService(
	repo repository.HotelBookingRepository,
	reconRepo reconciliation.Repository,
	gateway HotelProvider,
	validator *validator.HotelValidator,
	cfg *config.Config,
) HotelService {
	return &hotelService{
		repo:      repo,
		reconRepo: reconRepo,
		gateway:   gateway,
		validator: validator,
		cfg:       cfg,
	}
}

// SearchOffers resolves the city to its hotels, then fetches offers for
// them. Both calls go through the gateway; the offer payload is passed
// through untouched so clients can pick an offer ID for booking.
func (s *hotelService) SearchOffers(ctx context.Context, cityCode, checkInDate, checkOutDate string, adults int) (json.RawMessage, error) {
	cityCode = sanitizer.NormalizeLocationCode(cityCode)
	if err := s.validator.ValidateOfferSearch(cityCode, checkInDate, checkOutDate); err != nil {
		return nil, apperrors.Validation("Invalid hotel search input", map[string]any{"error": err.Error()})
	}
	if adults < 1 {
		adults = 1
	}

	hotels, err := s.gateway.ListHotelsByCity(ctx, cityCode)
	if err != nil {
		return nil, s.providerError("Hotel lookup failed", err)
	}
	if len(hotels) == 0 {
		return json.RawMessage(`[]`), nil
	}

	hotelIDs := make([]string, 0, len(hotels))
	for _, h := range hotels {
		hotelIDs = append(hotelIDs, h.HotelID)
	}

	offers, err := s.gateway.SearchHotelOffers(ctx, provider.HotelOffersRequest{
		HotelIDs:     hotelIDs,
		CheckInDate:  checkInDate,
		CheckOutDate: checkOutDate,
		Adults:       adults,
	})
	if err != nil {
		return nil, s.providerError("Hotel offer search failed", err)
	}
	return offers, nil
}

// Book creates the order with the provider, then persists the booking.
// The first guest in the request is the lead guest; the flag is set
// here rather than trusted from the client. A persist failure after the
// provider order exists goes to the reconciliation outbox, never to a
// retry.
func (s *hotelService) Book(ctx context.Context, userID string, req *model.HotelBookingRequest) (*model.HotelBooking, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	s.sanitizeGuests(req.Guests)
	if err := s.validator.ValidateBookingRequest(req); err != nil {
		s.cfg.Log.Warn("Hotel booking validation failed", "user_id", userID, "error", err)
		return nil, apperrors.Validation("Invalid hotel booking input", map[string]any{"error": err.Error()})
	}

	for i := range req.Guests {
		req.Guests[i].IsLeadGuest = i == 0
	}

	order, err := s.gateway.BookHotel(ctx, req.OfferID, req.Guests)
	if err != nil {
		// The order may or may not exist upstream; booking again risks
		// a duplicate, so this is never retried here.
		s.cfg.Log.Error("Hotel order creation failed", "user_id", userID, "error", err)
		if pe, ok := provider.AsError(err); ok {
			return nil, apperrors.OrderFailed(pe.StatusCode, string(pe.Body), err)
		}
		return nil, apperrors.OrderFailed(0, "", err)
	}

	booking := &model.HotelBooking{
		BookingID:              uuid.New().String(),
		UserID:                 userID,
		ProviderConfirmationID: order.ConfirmationID,
		HotelID:                order.HotelID,
		HotelName:              order.HotelName,
		CheckInDate:            order.CheckInDate,
		CheckOutDate:           order.CheckOutDate,
		RoomType:               order.RoomType,
		TotalPrice:             order.PriceTotal,
		Currency:               order.PriceCurrency,
		Guests:                 req.Guests,
		Status:                 model.StatusConfirmed,
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, s.escalatePartialFailure(ctx, booking, err)
	}

	s.cfg.Log.Info("Hotel booked",
		"booking_id", booking.BookingID,
		"user_id", userID,
		"confirmation_id", order.ConfirmationID,
		"hotel_id", order.HotelID,
	)
	return booking, nil
}

func (s *hotelService) List(ctx context.Context, userID string, limit int, offset int64) ([]*model.HotelBooking, int64, error) {
	var (
		wg       sync.WaitGroup
		bookings []*model.HotelBooking
		count    int64
		findErr  error
		countErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		bookings, findErr = s.repo.FindByUser(ctx, userID, limit, offset)
	}()
	go func() {
		defer wg.Done()
		count, countErr = s.repo.CountByUser(ctx, userID)
	}()
	wg.Wait()

	if findErr != nil {
		return nil, 0, apperrors.Internal("Failed to list hotel bookings", findErr)
	}
	if countErr != nil {
		return nil, 0, apperrors.Internal("Failed to count hotel bookings", countErr)
	}
	return bookings, count, nil
}

func (s *hotelService) Get(ctx context.Context, userID, bookingID string) (*model.HotelBooking, error) {
	booking, err := s.repo.FindByBookingID(ctx, userID, bookingID)
	if err != nil {
		if errors.Is(err, hotelserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Hotel booking", bookingID)
		}
		return nil, apperrors.Internal("Failed to retrieve hotel booking", err)
	}
	return booking, nil
}

func (s *hotelService) escalatePartialFailure(ctx context.Context, booking *model.HotelBooking, persistErr error) error {
	s.cfg.Log.Error("ESCALATION: provider hotel order created but local persist failed",
		"user_id", booking.UserID,
		"confirmation_id", booking.ProviderConfirmationID,
		"error", persistErr,
	)

	payload, marshalErr := json.Marshal(booking)
	if marshalErr != nil {
		payload = nil
	}

	record := &model.ReconciliationRecord{
		Domain:                 "hotel",
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

func (s *hotelService) providerError(message string, err error) error {
	if pe, ok := provider.AsError(err); ok {
		return apperrors.Provider(message, pe.StatusCode, string(pe.Body), err)
	}
	return apperrors.Provider(message, 0, "", err)
}

func (s *hotelService) sanitizeGuests(guests []model.Guest) {
	for i := range guests {
		guests[i].Title = sanitizer.TrimAndNormalize(guests[i].Title)
		guests[i].FirstName = sanitizer.NormalizeName(guests[i].FirstName)
		guests[i].LastName = sanitizer.NormalizeName(guests[i].LastName)
		guests[i].Email = sanitizer.NormalizeEmail(guests[i].Email)
		guests[i].Phone = sanitizer.NormalizePhone(guests[i].Phone)
	}
}
