package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	flightserrors "wayfarer/internal/flights/errors"
	"wayfarer/internal/flights/validator"
	"wayfarer/pkg/clock"
	"wayfarer/pkg/config"
	mongotx "wayfarer/pkg/db/mongo"
	apperrors "wayfarer/pkg/errors"
	"wayfarer/pkg/logger"
	"wayfarer/pkg/model"
	"wayfarer/pkg/provider"
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockBookingRepository struct {
	created    []*model.Booking
	createErr  error
	bookings   map[string]*model.Booking
	statusSets map[string]string
}

func newMockBookingRepository() *mockBookingRepository {
	return &mockBookingRepository{
		bookings:   make(map[string]*model.Booking),
		statusSets: make(map[string]string),
	}
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, booking)
	m.bookings[booking.BookingID] = booking
	return nil
}

func (m *mockBookingRepository) FindByBookingID(ctx context.Context, userID, bookingID string) (*model.Booking, error) {
	booking, ok := m.bookings[bookingID]
	if !ok || booking.UserID != userID {
		return nil, flightserrors.ErrNotFound
	}
	copied := *booking
	return &copied, nil
}

func (m *mockBookingRepository) FindUpcoming(ctx context.Context, userID string, from time.Time, limit int, offset int64) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.UserID == userID && b.Status == model.StatusConfirmed && !b.DepartureDate.Before(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBookingRepository) CountUpcoming(ctx context.Context, userID string, from time.Time) (int64, error) {
	bookings, _ := m.FindUpcoming(ctx, userID, from, 0, 0)
	return int64(len(bookings)), nil
}

func (m *mockBookingRepository) FindConfirmedDepartingBetween(ctx context.Context, from, to time.Time) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, userID, bookingID, status string) error {
	booking, ok := m.bookings[bookingID]
	if !ok || booking.UserID != userID {
		return flightserrors.ErrNotFound
	}
	booking.Status = status
	m.statusSets[bookingID] = status
	return nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockReconciliationRepository struct {
	records   []*model.ReconciliationRecord
	createErr error
}

func (m *mockReconciliationRepository) Create(ctx context.Context, record *model.ReconciliationRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.records = append(m.records, record)
	return nil
}

func (m *mockReconciliationRepository) FindUnresolved(ctx context.Context, limit int, offset int64) ([]*model.ReconciliationRecord, error) {
	return m.records, nil
}

func (m *mockReconciliationRepository) CountUnresolved(ctx context.Context) (int64, error) {
	return int64(len(m.records)), nil
}

func (m *mockReconciliationRepository) MarkResolved(ctx context.Context, id string) error {
	return nil
}

type mockProvider struct {
	confirmPricingFunc func(ctx context.Context, offer json.RawMessage) (*provider.PricedOffer, error)
	createOrderFunc    func(ctx context.Context, priced *provider.PricedOffer, travelers []model.Traveler) (*provider.FlightOrder, error)

	pricingCalls int
	orderCalls   int
}

func (m *mockProvider) SearchFlightOffers(ctx context.Context, req provider.FlightSearchRequest) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

func (m *mockProvider) ConfirmPricing(ctx context.Context, offer json.RawMessage) (*provider.PricedOffer, error) {
	m.pricingCalls++
	if m.confirmPricingFunc != nil {
		return m.confirmPricingFunc(ctx, offer)
	}
	return testPricedOffer(), nil
}

func (m *mockProvider) CreateOrder(ctx context.Context, priced *provider.PricedOffer, travelers []model.Traveler) (*provider.FlightOrder, error) {
	m.orderCalls++
	if m.createOrderFunc != nil {
		return m.createOrderFunc(ctx, priced, travelers)
	}
	return &provider.FlightOrder{
		ConfirmationID: "PROV-123",
		Summary:        testPricedOffer().Summary,
	}, nil
}

func testPricedOffer() *provider.PricedOffer {
	return &provider.PricedOffer{
		Raw: json.RawMessage(`{"id":"offer-1"}`),
		Summary: provider.OfferSummary{
			Departure:     "JFK",
			Arrival:       "LHR",
			DepartureAt:   time.Date(2026, 9, 15, 18, 30, 0, 0, time.UTC),
			CarrierCode:   "BA",
			FlightNumber:  "178",
			PriceTotal:    "645.80",
			PriceCurrency: "USD",
		},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   logger.ERROR,
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

func newTestService(repo *mockBookingRepository, reconRepo *mockReconciliationRepository, gw *mockProvider, clk clock.Clock) BookingService {
	cfg := testConfig()
	return NewBookingService(repo, reconRepo, gw, validator.NewBookingValidator(cfg.Log), clk, cfg)
}

func bookingRequest() *model.BookingRequest {
	return &model.BookingRequest{
		Offer: json.RawMessage(`{"id":"offer-1"}`),
		Travelers: []model.Traveler{
			{
				FirstName:   "Marie",
				LastName:    "Curie",
				DateOfBirth: "1990-04-11",
				Email:       "marie@example.com",
			},
		},
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Fatalf("error code = %s, want %s (err: %v)", appErr.Code, code, err)
	}
}

// ────────────────────────────────────────────────
// Tests for Book()
// ────────────────────────────────────────────────

func TestBook_Success_PersistsExactlyOnce(t *testing.T) {
	repo := newMockBookingRepository()
	reconRepo := &mockReconciliationRepository{}
	gw := &mockProvider{}
	svc := newTestService(repo, reconRepo, gw, clock.NewSystem())

	booking, err := svc.Book(context.Background(), "user-1", bookingRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("persisted %d bookings, want exactly 1", len(repo.created))
	}
	if booking.BookingID == "" {
		t.Error("expected a generated booking ID")
	}
	if booking.ProviderConfirmationID != "PROV-123" {
		t.Errorf("confirmation ID = %q, want PROV-123", booking.ProviderConfirmationID)
	}
	if booking.Status != model.StatusConfirmed {
		t.Errorf("status = %q, want confirmed", booking.Status)
	}
	if gw.pricingCalls != 1 || gw.orderCalls != 1 {
		t.Errorf("provider calls = %d pricing / %d order, want 1/1", gw.pricingCalls, gw.orderCalls)
	}
	if len(reconRepo.records) != 0 {
		t.Errorf("reconciliation records = %d, want 0", len(reconRepo.records))
	}
}

func TestBook_PricingFailureAbortsBeforeOrder(t *testing.T) {
	repo := newMockBookingRepository()
	reconRepo := &mockReconciliationRepository{}
	gw := &mockProvider{
		confirmPricingFunc: func(ctx context.Context, offer json.RawMessage) (*provider.PricedOffer, error) {
			return nil, &provider.Error{Op: "flight-offers-pricing", StatusCode: 400, Body: []byte(`{"errors":[]}`)}
		},
	}
	svc := newTestService(repo, reconRepo, gw, clock.NewSystem())

	_, err := svc.Book(context.Background(), "user-1", bookingRequest())
	assertCode(t, err, apperrors.CodePricingFailed)

	if gw.orderCalls != 0 {
		t.Errorf("order creation ran %d times after pricing failure, want 0", gw.orderCalls)
	}
	if len(repo.created) != 0 {
		t.Errorf("persisted %d bookings after pricing failure, want 0", len(repo.created))
	}
}

func TestBook_OrderFailureLeavesNoRecordAndNoRetry(t *testing.T) {
	repo := newMockBookingRepository()
	reconRepo := &mockReconciliationRepository{}
	gw := &mockProvider{
		createOrderFunc: func(ctx context.Context, priced *provider.PricedOffer, travelers []model.Traveler) (*provider.FlightOrder, error) {
			return nil, &provider.Error{Op: "flight-order-create", StatusCode: 500, Body: []byte(`{"errors":[]}`)}
		},
	}
	svc := newTestService(repo, reconRepo, gw, clock.NewSystem())

	_, err := svc.Book(context.Background(), "user-1", bookingRequest())
	assertCode(t, err, apperrors.CodeOrderFailed)

	if gw.orderCalls != 1 {
		t.Errorf("order creation ran %d times, want exactly 1 (no auto-retry)", gw.orderCalls)
	}
	if len(repo.created) != 0 {
		t.Errorf("persisted %d bookings after order failure, want 0", len(repo.created))
	}
	if len(reconRepo.records) != 0 {
		t.Errorf("reconciliation records = %d, want 0 (order never succeeded)", len(reconRepo.records))
	}
}

func TestBook_PersistFailureWritesReconciliationOutbox(t *testing.T) {
	repo := newMockBookingRepository()
	repo.createErr = errors.New("write concern failure")
	reconRepo := &mockReconciliationRepository{}
	gw := &mockProvider{}
	svc := newTestService(repo, reconRepo, gw, clock.NewSystem())

	_, err := svc.Book(context.Background(), "user-1", bookingRequest())
	assertCode(t, err, apperrors.CodePartialFailure)

	if gw.orderCalls != 1 {
		t.Errorf("order creation ran %d times, want exactly 1 (no auto-retry)", gw.orderCalls)
	}
	if len(reconRepo.records) != 1 {
		t.Fatalf("reconciliation records = %d, want 1", len(reconRepo.records))
	}

	record := reconRepo.records[0]
	if record.Domain != "flight" {
		t.Errorf("record domain = %q, want flight", record.Domain)
	}
	if record.ProviderConfirmationID != "PROV-123" {
		t.Errorf("record confirmation ID = %q, want PROV-123", record.ProviderConfirmationID)
	}
	if record.UserID != "user-1" {
		t.Errorf("record user ID = %q, want user-1", record.UserID)
	}
	if len(record.Payload) == 0 {
		t.Error("record payload is empty, operator cannot reconstruct the booking")
	}
}

func TestBook_ValidationFailureSkipsProvider(t *testing.T) {
	repo := newMockBookingRepository()
	reconRepo := &mockReconciliationRepository{}
	gw := &mockProvider{}
	svc := newTestService(repo, reconRepo, gw, clock.NewSystem())

	req := bookingRequest()
	req.Travelers = nil

	_, err := svc.Book(context.Background(), "user-1", req)
	assertCode(t, err, apperrors.CodeValidation)

	if gw.pricingCalls != 0 {
		t.Errorf("pricing ran %d times on invalid input, want 0", gw.pricingCalls)
	}
}

// ────────────────────────────────────────────────
// Tests for ListUpcoming() and Cancel()
// ────────────────────────────────────────────────

func TestListUpcoming_FiltersPastAndCancelled(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	repo := newMockBookingRepository()
	repo.bookings["past"] = &model.Booking{
		BookingID: "past", UserID: "user-1",
		Status: model.StatusConfirmed, DepartureDate: now.AddDate(0, 0, -2),
	}
	repo.bookings["cancelled"] = &model.Booking{
		BookingID: "cancelled", UserID: "user-1",
		Status: model.StatusCancelled, DepartureDate: now.AddDate(0, 0, 3),
	}
	repo.bookings["upcoming"] = &model.Booking{
		BookingID: "upcoming", UserID: "user-1",
		Status: model.StatusConfirmed, DepartureDate: now.AddDate(0, 0, 3),
	}
	repo.bookings["other-user"] = &model.Booking{
		BookingID: "other-user", UserID: "user-2",
		Status: model.StatusConfirmed, DepartureDate: now.AddDate(0, 0, 3),
	}

	svc := newTestService(repo, &mockReconciliationRepository{}, &mockProvider{}, clock.NewFixed(now))

	bookings, count, err := svc.ListUpcoming(context.Background(), "user-1", 100, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 || len(bookings) != 1 {
		t.Fatalf("got %d bookings (count %d), want 1", len(bookings), count)
	}
	if bookings[0].BookingID != "upcoming" {
		t.Errorf("got booking %q, want upcoming", bookings[0].BookingID)
	}
}

func TestCancel_ConfirmedBecomesCancelled(t *testing.T) {
	repo := newMockBookingRepository()
	repo.bookings["b-1"] = &model.Booking{
		BookingID: "b-1", UserID: "user-1", Status: model.StatusConfirmed,
	}

	svc := newTestService(repo, &mockReconciliationRepository{}, &mockProvider{}, clock.NewSystem())

	if err := svc.Cancel(context.Background(), "user-1", "b-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.statusSets["b-1"] != model.StatusCancelled {
		t.Errorf("status = %q, want cancelled", repo.statusSets["b-1"])
	}
}

func TestCancel_AlreadyCancelledConflicts(t *testing.T) {
	repo := newMockBookingRepository()
	repo.bookings["b-1"] = &model.Booking{
		BookingID: "b-1", UserID: "user-1", Status: model.StatusCancelled,
	}

	svc := newTestService(repo, &mockReconciliationRepository{}, &mockProvider{}, clock.NewSystem())

	err := svc.Cancel(context.Background(), "user-1", "b-1")
	assertCode(t, err, apperrors.CodeConflict)
}

func TestCancel_OtherUsersBookingNotFound(t *testing.T) {
	repo := newMockBookingRepository()
	repo.bookings["b-1"] = &model.Booking{
		BookingID: "b-1", UserID: "user-2", Status: model.StatusConfirmed,
	}

	svc := newTestService(repo, &mockReconciliationRepository{}, &mockProvider{}, clock.NewSystem())

	err := svc.Cancel(context.Background(), "user-1", "b-1")
	assertCode(t, err, apperrors.CodeNotFound)
}
