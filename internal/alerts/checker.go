package alerts

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"wayfarer/pkg/clock"
	"wayfarer/pkg/config"
	"wayfarer/pkg/kafka"
	"wayfarer/pkg/model"
	"wayfarer/pkg/provider"
)

// Delay bands returned by the prediction endpoint. Only the two worst
// bands are worth waking a traveler up for.
const (
	BandLessThan30        = "LESS_THAN_30_MINUTES"
	BandBetween30And60    = "BETWEEN_30_AND_60_MINUTES"
	BandBetween60And120   = "BETWEEN_60_AND_120_MINUTES"
	BandOver120OrCanceled = "OVER_120_MINUTES_OR_CANCELLED"
)

// DelayPredictor is the slice of the gateway the checker needs.
type DelayPredictor interface {
	PredictDelay(ctx context.Context, req provider.DelayPredictionRequest) ([]provider.DelayPrediction, error)
}

// BookingSource supplies the bookings worth checking.
type BookingSource interface {
	FindConfirmedDepartingBetween(ctx context.Context, from, to time.Time) ([]*model.Booking, error)
}

// AlertPublisher pushes alert events to the broker.
type AlertPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type Checker struct {
	source    BookingSource
	predictor DelayPredictor
	publisher AlertPublisher
	clock     clock.Clock
	cfg       *config.Config
}

func NewChecker(source BookingSource, predictor DelayPredictor, publisher AlertPublisher, clk clock.Clock, cfg *config.Config) *Checker {
	return &Checker{
		source:    source,
		predictor: predictor,
		publisher: publisher,
		clock:     clk,
		cfg:       cfg,
	}
}

// Run performs one pass over upcoming confirmed bookings. Prediction
// failures are logged per booking and never abort the pass.
func (c *Checker) Run(ctx context.Context) error {
	now := c.clock.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, c.cfg.AlertLookaheadDays)

	bookings, err := c.source.FindConfirmedDepartingBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to load departing bookings: %w", err)
	}

	c.cfg.Log.Info("Delay check started", "bookings", len(bookings), "from", from, "to", to)

	published := 0
	for _, booking := range bookings {
		alert, err := c.evaluate(ctx, booking)
		if err != nil {
			c.cfg.Log.Warn("Delay prediction failed",
				"booking_id", booking.BookingID,
				"carrier", booking.CarrierCode,
				"flight", booking.FlightNumber,
				"error", err,
			)
			continue
		}
		if alert == nil {
			continue
		}

		if err := c.publish(ctx, alert); err != nil {
			c.cfg.Log.Error("Alert publish failed", "booking_id", booking.BookingID, "error", err)
			continue
		}
		published++
	}

	c.cfg.Log.Info("Delay check finished", "bookings", len(bookings), "alerts", published)
	return nil
}

// evaluate returns a FlightAlert when the most likely prediction is a
// severe delay band above the probability threshold, nil otherwise.
func (c *Checker) evaluate(ctx context.Context, booking *model.Booking) (*model.FlightAlert, error) {
	predictions, err := c.predictor.PredictDelay(ctx, predictionRequest(booking))
	if err != nil {
		return nil, err
	}
	if len(predictions) == 0 {
		return nil, nil
	}

	band, probability := mostLikely(predictions)
	if !severeBand(band) || probability <= c.cfg.AlertDelayProbability {
		return nil, nil
	}

	return &model.FlightAlert{
		BookingID:     booking.BookingID,
		UserID:        booking.UserID,
		CarrierCode:   booking.CarrierCode,
		FlightNumber:  booking.FlightNumber,
		DepartureDate: booking.DepartureDate.Format(time.RFC3339),
		DelayBand:     band,
		Probability:   probability,
		Message:       alertMessage(booking, band),
		CreatedAt:     c.clock.Now().UTC(),
	}, nil
}

func (c *Checker) publish(ctx context.Context, alert *model.FlightAlert) error {
	msg := kafka.NewMessage().
		WithKey(alert.UserID).
		WithValue(alert).
		WithEventType(kafka.EventFlightDelayAlert).
		WithSource("alerts-checker").
		Build()
	return c.publisher.Publish(ctx, msg)
}

func predictionRequest(booking *model.Booking) provider.DelayPredictionRequest {
	req := provider.DelayPredictionRequest{
		Origin:        booking.Departure,
		Destination:   booking.Arrival,
		DepartureDate: booking.DepartureDate.Format("2006-01-02"),
		DepartureTime: booking.DepartureDate.Format("15:04:05"),
		CarrierCode:   booking.CarrierCode,
		FlightNumber:  booking.FlightNumber,
	}
	if booking.ArrivalDate != nil {
		req.ArrivalDate = booking.ArrivalDate.Format("2006-01-02")
		req.ArrivalTime = booking.ArrivalDate.Format("15:04:05")
		req.Duration = formatISODuration(booking.ArrivalDate.Sub(booking.DepartureDate))
	}
	return req
}

// mostLikely picks the prediction with the highest probability.
// Unparseable probabilities count as zero.
func mostLikely(predictions []provider.DelayPrediction) (string, float64) {
	var (
		band string
		best float64 = -1
	)
	for _, p := range predictions {
		probability, err := strconv.ParseFloat(p.Probability, 64)
		if err != nil {
			probability = 0
		}
		if probability > best {
			best = probability
			band = p.Result
		}
	}
	return band, best
}

func severeBand(band string) bool {
	return band == BandBetween60And120 || band == BandOver120OrCanceled
}

func alertMessage(booking *model.Booking, band string) string {
	flight := booking.CarrierCode + booking.FlightNumber
	if band == BandOver120OrCanceled {
		return fmt.Sprintf("Flight %s from %s to %s is predicted to be delayed over 2 hours or cancelled", flight, booking.Departure, booking.Arrival)
	}
	return fmt.Sprintf("Flight %s from %s to %s is predicted to be delayed 1-2 hours", flight, booking.Departure, booking.Arrival)
}

func formatISODuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if minutes == 0 {
		return fmt.Sprintf("PT%dH", hours)
	}
	return fmt.Sprintf("PT%dH%dM", hours, minutes)
}
