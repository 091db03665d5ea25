package service

import (
	"context"
	"errors"
	"testing"
	"time"

	tripserrors "wayfarer/internal/trips/errors"
	"wayfarer/internal/trips/validator"
	"wayfarer/pkg/config"
	mongotx "wayfarer/pkg/db/mongo"
	apperrors "wayfarer/pkg/errors"
	"wayfarer/pkg/logger"
	"wayfarer/pkg/model"
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockTripRepository struct {
	trips    map[string]*model.Trip
	expenses []*model.Expense
	nextID   int
}

func newMockTripRepository() *mockTripRepository {
	return &mockTripRepository{trips: make(map[string]*model.Trip)}
}

func (m *mockTripRepository) CreateTrip(ctx context.Context, trip *model.Trip) error {
	m.nextID++
	trip.ID = string(rune('a' + m.nextID - 1))
	m.trips[trip.ID] = trip
	return nil
}

func (m *mockTripRepository) FindTripByID(ctx context.Context, userID, tripID string) (*model.Trip, error) {
	trip, ok := m.trips[tripID]
	if !ok || trip.UserID != userID {
		return nil, tripserrors.ErrTripNotFound
	}
	return trip, nil
}

func (m *mockTripRepository) FindTrips(ctx context.Context, userID string, limit int, offset int64) ([]*model.Trip, error) {
	var out []*model.Trip
	for _, trip := range m.trips {
		if trip.UserID == userID {
			out = append(out, trip)
		}
	}
	return out, nil
}

func (m *mockTripRepository) CountTrips(ctx context.Context, userID string) (int64, error) {
	trips, _ := m.FindTrips(ctx, userID, 0, 0)
	return int64(len(trips)), nil
}

func (m *mockTripRepository) DeleteTrip(ctx context.Context, userID, tripID string) error {
	trip, ok := m.trips[tripID]
	if !ok || trip.UserID != userID {
		return tripserrors.ErrTripNotFound
	}
	delete(m.trips, tripID)
	return nil
}

func (m *mockTripRepository) CreateExpense(ctx context.Context, expense *model.Expense) error {
	m.expenses = append(m.expenses, expense)
	return nil
}

func (m *mockTripRepository) FindExpensesByTrip(ctx context.Context, userID, tripID string) ([]*model.Expense, error) {
	var out []*model.Expense
	for _, expense := range m.expenses {
		if expense.UserID == userID && expense.TripID == tripID {
			out = append(out, expense)
		}
	}
	return out, nil
}

func (m *mockTripRepository) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	return tripserrors.ErrExpenseNotFound
}

func (m *mockTripRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
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

func newTestService(repo *mockTripRepository) TripService {
	cfg := testConfig()
	return NewTripService(repo, validator.NewTripValidator(cfg.Log), cfg)
}

func baseTrip(userID string) *model.Trip {
	return &model.Trip{
		Name:        "Lisbon long weekend",
		Destination: "Lisbon",
		StartDate:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC),
		Budget:      1500,
		UserID:      userID,
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
// Tests
// ────────────────────────────────────────────────

func TestCreateTrip_RejectsEndBeforeStart(t *testing.T) {
	svc := newTestService(newMockTripRepository())

	trip := baseTrip("user-1")
	trip.EndDate = trip.StartDate.AddDate(0, 0, -1)

	_, err := svc.CreateTrip(context.Background(), "user-1", trip)
	assertCode(t, err, apperrors.CodeValidation)
}

func TestAddExpense_RejectsUnknownCategory(t *testing.T) {
	repo := newMockTripRepository()
	svc := newTestService(repo)

	trip, err := svc.CreateTrip(context.Background(), "user-1", baseTrip("user-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.AddExpense(context.Background(), "user-1", trip.ID, &model.Expense{
		Title:    "Scuba lesson",
		Amount:   120,
		Currency: "EUR",
		Category: "Diving",
		Date:     time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
	})
	assertCode(t, err, apperrors.CodeValidation)
}

func TestAddExpense_OtherUsersTripNotFound(t *testing.T) {
	repo := newMockTripRepository()
	svc := newTestService(repo)

	trip, err := svc.CreateTrip(context.Background(), "user-1", baseTrip("user-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.AddExpense(context.Background(), "user-2", trip.ID, &model.Expense{
		Title:    "Dinner",
		Amount:   60,
		Currency: "EUR",
		Category: "Food",
		Date:     time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
	})
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestSummary_Arithmetic(t *testing.T) {
	repo := newMockTripRepository()
	svc := newTestService(repo)

	trip, err := svc.CreateTrip(context.Background(), "user-1", baseTrip("user-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expenses := []struct {
		title    string
		amount   float64
		category string
	}{
		{"Outbound flight", 220.10, "Flights"},
		{"Return flight", 199.90, "Flights"},
		{"Hotel", 480.00, "Hotels"},
		{"Pasteis", 12.35, "Food"},
	}
	for _, e := range expenses {
		_, err := svc.AddExpense(context.Background(), "user-1", trip.ID, &model.Expense{
			Title:    e.title,
			Amount:   e.amount,
			Currency: "EUR",
			Category: e.category,
			Date:     time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("unexpected error adding %s: %v", e.title, err)
		}
	}

	summary, err := svc.Summary(context.Background(), "user-1", trip.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.TotalSpent != 912.35 {
		t.Errorf("total spent = %v, want 912.35", summary.TotalSpent)
	}
	if summary.Remaining != 587.65 {
		t.Errorf("remaining = %v, want 587.65", summary.Remaining)
	}
	if summary.CategoryBreakdown["Flights"] != 420.00 {
		t.Errorf("flights breakdown = %v, want 420.00", summary.CategoryBreakdown["Flights"])
	}
	if summary.CategoryBreakdown["Transport"] != 0 {
		t.Errorf("transport breakdown = %v, want 0", summary.CategoryBreakdown["Transport"])
	}
	if summary.Budget != 1500 {
		t.Errorf("budget = %v, want 1500", summary.Budget)
	}
}

func TestSummary_EmptyTrip(t *testing.T) {
	repo := newMockTripRepository()
	svc := newTestService(repo)

	trip, err := svc.CreateTrip(context.Background(), "user-1", baseTrip("user-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary, err := svc.Summary(context.Background(), "user-1", trip.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalSpent != 0 {
		t.Errorf("total spent = %v, want 0", summary.TotalSpent)
	}
	if summary.Remaining != 1500 {
		t.Errorf("remaining = %v, want 1500", summary.Remaining)
	}
	if len(summary.CategoryBreakdown) != len(model.ExpenseCategories) {
		t.Errorf("breakdown has %d categories, want %d", len(summary.CategoryBreakdown), len(model.ExpenseCategories))
	}
}
