package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"

	tripserrors "wayfarer/internal/trips/errors"
	"wayfarer/internal/trips/repository"
	"wayfarer/internal/trips/validator"
	"wayfarer/pkg/config"
	apperrors "wayfarer/pkg/errors"
	"wayfarer/pkg/model"
	"wayfarer/pkg/sanitizer"
)

type TripService interface {
	CreateTrip(ctx context.Context, userID string, trip *model.Trip) (*model.Trip, error)
	ListTrips(ctx context.Context, userID string, limit int, offset int64) ([]*model.Trip, int64, error)
	GetTrip(ctx context.Context, userID, tripID string) (*model.Trip, error)
	DeleteTrip(ctx context.Context, userID, tripID string) error
	AddExpense(ctx context.Context, userID, tripID string, expense *model.Expense) (*model.Expense, error)
	ListExpenses(ctx context.Context, userID, tripID string) ([]*model.Expense, error)
	DeleteExpense(ctx context.Context, userID, expenseID string) error
	Summary(ctx context.Context, userID, tripID string) (*model.TripSummary, error)
}

type tripService struct {
	repo      repository.TripRepository
	validator *validator.TripValidator
	cfg       *config.Config
}

func NewTripService(repo repository.TripRepository, validator *validator.TripValidator, cfg *config.Config) TripService {
	return &tripService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *tripService) CreateTrip(ctx context.Context, userID string, trip *model.Trip) (*model.Trip, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	trip.UserID = userID
	trip.Name = sanitizer.TrimAndNormalize(trip.Name)
	trip.Destination = sanitizer.TrimAndNormalize(trip.Destination)
	trip.Notes = sanitizer.TrimAndNormalize(trip.Notes)

	if err := s.validator.ValidateTrip(trip); err != nil {
		return nil, apperrors.Validation("Invalid trip input", map[string]any{"error": err.Error()})
	}

	if err := s.repo.CreateTrip(ctx, trip); err != nil {
		return nil, apperrors.Internal("Failed to create trip", err)
	}

	s.cfg.Log.Info("Trip created", "trip_id", trip.ID, "user_id", userID, "destination", trip.Destination)
	return trip, nil
}

func (s *tripService) ListTrips(ctx context.Context, userID string, limit int, offset int64) ([]*model.Trip, int64, error) {
	var (
		wg       sync.WaitGroup
		trips    []*model.Trip
		count    int64
		findErr  error
		countErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		trips, findErr = s.repo.FindTrips(ctx, userID, limit, offset)
	}()
	go func() {
		defer wg.Done()
		count, countErr = s.repo.CountTrips(ctx, userID)
	}()
	wg.Wait()

	if findErr != nil {
		return nil, 0, apperrors.Internal("Failed to list trips", findErr)
	}
	if countErr != nil {
		return nil, 0, apperrors.Internal("Failed to count trips", countErr)
	}
	return trips, count, nil
}

func (s *tripService) GetTrip(ctx context.Context, userID, tripID string) (*model.Trip, error) {
	trip, err := s.repo.FindTripByID(ctx, userID, tripID)
	if err != nil {
		return nil, s.tripError(tripID, err)
	}
	return trip, nil
}

func (s *tripService) DeleteTrip(ctx context.Context, userID, tripID string) error {
	if err := s.repo.DeleteTrip(ctx, userID, tripID); err != nil {
		return s.tripError(tripID, err)
	}
	s.cfg.Log.Info("Trip deleted", "trip_id", tripID, "user_id", userID)
	return nil
}

func (s *tripService) AddExpense(ctx context.Context, userID, tripID string, expense *model.Expense) (*model.Expense, error) {
	// The trip must exist and belong to the caller before anything is
	// written against it.
	if _, err := s.repo.FindTripByID(ctx, userID, tripID); err != nil {
		return nil, s.tripError(tripID, err)
	}

	expense.UserID = userID
	expense.TripID = tripID
	expense.Title = sanitizer.TrimAndNormalize(expense.Title)
	expense.Note = sanitizer.TrimAndNormalize(expense.Note)
	expense.Currency = strings.ToUpper(sanitizer.TrimAndNormalize(expense.Currency))

	if err := s.validator.ValidateExpense(expense); err != nil {
		return nil, apperrors.Validation("Invalid expense input", map[string]any{"error": err.Error()})
	}

	if err := s.repo.CreateExpense(ctx, expense); err != nil {
		return nil, apperrors.Internal("Failed to create expense", err)
	}

	s.cfg.Log.Info("Expense added", "expense_id", expense.ID, "trip_id", tripID, "user_id", userID, "amount", expense.Amount)
	return expense, nil
}

func (s *tripService) ListExpenses(ctx context.Context, userID, tripID string) ([]*model.Expense, error) {
	if _, err := s.repo.FindTripByID(ctx, userID, tripID); err != nil {
		return nil, s.tripError(tripID, err)
	}

	expenses, err := s.repo.FindExpensesByTrip(ctx, userID, tripID)
	if err != nil {
		return nil, apperrors.Internal("Failed to list expenses", err)
	}
	return expenses, nil
}

func (s *tripService) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	if err := s.repo.DeleteExpense(ctx, userID, expenseID); err != nil {
		if errors.Is(err, tripserrors.ErrExpenseNotFound) || errors.Is(err, tripserrors.ErrInvalidID) {
			return apperrors.NotFoundWithID("Expense", expenseID)
		}
		return apperrors.Internal("Failed to delete expense", err)
	}
	return nil
}

// Summary totals a trip's expenses against its budget. Amounts are
// rounded to cents after summation so float drift never shows up in
// the response.
func (s *tripService) Summary(ctx context.Context, userID, tripID string) (*model.TripSummary, error) {
	trip, err := s.repo.FindTripByID(ctx, userID, tripID)
	if err != nil {
		return nil, s.tripError(tripID, err)
	}

	expenses, err := s.repo.FindExpensesByTrip(ctx, userID, tripID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load expenses", err)
	}

	breakdown := make(map[string]float64, len(model.ExpenseCategories))
	for _, category := range model.ExpenseCategories {
		breakdown[category] = 0
	}

	var total float64
	for _, expense := range expenses {
		total += expense.Amount
		breakdown[expense.Category] += expense.Amount
	}

	for category, amount := range breakdown {
		breakdown[category] = roundCents(amount)
	}
	total = roundCents(total)

	return &model.TripSummary{
		Trip:              trip.Name,
		Budget:            trip.Budget,
		TotalSpent:        total,
		Remaining:         roundCents(trip.Budget - total),
		CategoryBreakdown: breakdown,
	}, nil
}

func (s *tripService) tripError(tripID string, err error) error {
	if errors.Is(err, tripserrors.ErrTripNotFound) || errors.Is(err, tripserrors.ErrInvalidID) {
		return apperrors.NotFoundWithID("Trip", tripID)
	}
	return apperrors.Internal("Failed to load trip", err)
}

func roundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
