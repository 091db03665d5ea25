package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"wayfarer/pkg/clock"
	"wayfarer/pkg/config"
	"wayfarer/pkg/kafka"
	"wayfarer/pkg/logger"
	"wayfarer/pkg/model"
	"wayfarer/pkg/provider"
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockBookingSource struct {
	bookings []*model.Booking
}

func (m *mockBookingSource) FindConfirmedDepartingBetween(ctx context.Context, from, to time.Time) ([]*model.Booking, error) {
	return m.bookings, nil
}

type mockPredictor struct {
	predictions map[string][]provider.DelayPrediction
	err         error
	calls       int
}

func (m *mockPredictor) PredictDelay(ctx context.Context, req provider.DelayPredictionRequest) ([]provider.DelayPrediction, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.predictions[req.CarrierCode+req.FlightNumber], nil
}

type mockPublisher struct {
	published []kafka.Message
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, msg)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		AlertDelayProbability: 0.3,
		AlertLookaheadDays:    2,
		Log: logger.New(logger.Config{
			Level:   logger.ERROR,
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

func departingBooking(bookingID, carrier, flight string) *model.Booking {
	return &model.Booking{
		BookingID:     bookingID,
		UserID:        "user-1",
		Departure:     "JFK",
		Arrival:       "LHR",
		DepartureDate: time.Date(2026, 9, 15, 18, 30, 0, 0, time.UTC),
		CarrierCode:   carrier,
		FlightNumber:  flight,
		Status:        model.StatusConfirmed,
	}
}

func newTestChecker(source *mockBookingSource, predictor *mockPredictor, publisher *mockPublisher) *Checker {
	now := time.Date(2026, 9, 15, 8, 0, 0, 0, time.UTC)
	return NewChecker(source, predictor, publisher, clock.NewFixed(now), testConfig())
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestChecker_PublishesOnSevereLikelyDelay(t *testing.T) {
	source := &mockBookingSource{bookings: []*model.Booking{departingBooking("b-1", "BA", "178")}}
	predictor := &mockPredictor{predictions: map[string][]provider.DelayPrediction{
		"BA178": {
			{Result: BandLessThan30, Probability: "0.2"},
			{Result: BandOver120OrCanceled, Probability: "0.6"},
		},
	}}
	publisher := &mockPublisher{}

	if err := newTestChecker(source, predictor, publisher).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(publisher.published) != 1 {
		t.Fatalf("published %d alerts, want 1", len(publisher.published))
	}

	msg := publisher.published[0]
	if msg.Key != "user-1" {
		t.Errorf("message key = %q, want the user ID", msg.Key)
	}
	if msg.GetEventType() != kafka.EventFlightDelayAlert {
		t.Errorf("event type = %q, want %q", msg.GetEventType(), kafka.EventFlightDelayAlert)
	}

	var alert model.FlightAlert
	if err := msg.DecodeValue(&alert); err != nil {
		t.Fatalf("failed to decode alert: %v", err)
	}
	if alert.DelayBand != BandOver120OrCanceled {
		t.Errorf("delay band = %q, want the most likely band", alert.DelayBand)
	}
	if alert.Probability != 0.6 {
		t.Errorf("probability = %v, want 0.6", alert.Probability)
	}
}

func TestChecker_SkipsMildBands(t *testing.T) {
	source := &mockBookingSource{bookings: []*model.Booking{departingBooking("b-1", "BA", "178")}}
	predictor := &mockPredictor{predictions: map[string][]provider.DelayPrediction{
		"BA178": {
			{Result: BandLessThan30, Probability: "0.7"},
			{Result: BandBetween60And120, Probability: "0.1"},
		},
	}}
	publisher := &mockPublisher{}

	if err := newTestChecker(source, predictor, publisher).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(publisher.published) != 0 {
		t.Errorf("published %d alerts for a mild most-likely band, want 0", len(publisher.published))
	}
}

func TestChecker_SkipsLowProbability(t *testing.T) {
	source := &mockBookingSource{bookings: []*model.Booking{departingBooking("b-1", "BA", "178")}}
	predictor := &mockPredictor{predictions: map[string][]provider.DelayPrediction{
		"BA178": {
			{Result: BandBetween60And120, Probability: "0.3"},
		},
	}}
	publisher := &mockPublisher{}

	// Exactly at the threshold does not alert; the probability must
	// exceed it.
	if err := newTestChecker(source, predictor, publisher).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(publisher.published) != 0 {
		t.Errorf("published %d alerts at threshold probability, want 0", len(publisher.published))
	}
}

func TestChecker_PredictionFailureDoesNotAbortPass(t *testing.T) {
	source := &mockBookingSource{bookings: []*model.Booking{
		departingBooking("b-1", "BA", "178"),
		departingBooking("b-2", "AF", "009"),
	}}
	predictor := &mockPredictor{err: errors.New("upstream down")}
	publisher := &mockPublisher{}

	if err := newTestChecker(source, predictor, publisher).Run(context.Background()); err != nil {
		t.Fatalf("run failed on per-booking errors: %v", err)
	}
	if predictor.calls != 2 {
		t.Errorf("predictor calls = %d, want 2 (every booking still checked)", predictor.calls)
	}
	if len(publisher.published) != 0 {
		t.Errorf("published %d alerts, want 0", len(publisher.published))
	}
}

// ────────────────────────────────────────────────
// Notifier handler
// ────────────────────────────────────────────────

type recordingNotifier struct {
	alerts []*model.FlightAlert
}

func (n *recordingNotifier) Notify(ctx context.Context, alert *model.FlightAlert) error {
	n.alerts = append(n.alerts, alert)
	return nil
}

func TestAlertHandler_DispatchesDecodedAlert(t *testing.T) {
	notifier := &recordingNotifier{}
	handler := AlertHandler(notifier, testConfig().Log)

	msg := kafka.NewMessage().
		WithKey("user-1").
		WithValue(&model.FlightAlert{BookingID: "b-1", UserID: "user-1", DelayBand: BandBetween60And120}).
		WithEventType(kafka.EventFlightDelayAlert).
		Build()

	if err := handler(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.alerts) != 1 || notifier.alerts[0].BookingID != "b-1" {
		t.Fatalf("notifier got %v, want the decoded alert", notifier.alerts)
	}
}

func TestAlertHandler_SkipsUnknownEventTypes(t *testing.T) {
	notifier := &recordingNotifier{}
	handler := AlertHandler(notifier, testConfig().Log)

	msg := kafka.NewMessage().
		WithKey("user-1").
		WithRawValue([]byte(`{}`)).
		WithEventType("something.else").
		Build()

	if err := handler(context.Background(), msg); err != nil {
		t.Fatalf("unknown event type should be skipped, got error: %v", err)
	}
	if len(notifier.alerts) != 0 {
		t.Errorf("notifier ran %d times for an unknown event, want 0", len(notifier.alerts))
	}
}

func TestAlertHandler_UndecodableValueIsPermanent(t *testing.T) {
	notifier := &recordingNotifier{}
	handler := AlertHandler(notifier, testConfig().Log)

	msg := kafka.NewMessage().
		WithKey("user-1").
		WithRawValue([]byte(`{not json`)).
		WithEventType(kafka.EventFlightDelayAlert).
		Build()

	err := handler(context.Background(), msg)
	var procErr *kafka.ProcessingError
	if !errors.As(err, &procErr) || procErr.Type != kafka.ErrorTypePermanent {
		t.Fatalf("expected a permanent processing error, got %v", err)
	}
}
