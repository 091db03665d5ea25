package alerts

import (
	"context"
	"fmt"

	"wayfarer/pkg/kafka"
	"wayfarer/pkg/logger"
	"wayfarer/pkg/model"
)

// Notifier delivers an alert to the traveler. Real channels (email,
// push) plug in here; the default just logs.
type Notifier interface {
	Notify(ctx context.Context, alert *model.FlightAlert) error
}

type logNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) Notify(ctx context.Context, alert *model.FlightAlert) error {
	n.log.Info("ALERT delivered",
		"user_id", alert.UserID,
		"booking_id", alert.BookingID,
		"flight", alert.CarrierCode+alert.FlightNumber,
		"delay_band", alert.DelayBand,
		"probability", alert.Probability,
		"message", alert.Message,
	)
	return nil
}

// AlertHandler returns the consumer handler that decodes alert events
// and dispatches them. Unknown event types are skipped, not failed, so
// they never loop through the DLQ.
func AlertHandler(notifier Notifier, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		if eventType := msg.GetEventType(); eventType != kafka.EventFlightDelayAlert {
			log.Warn("Skipping unexpected event type", "event_type", eventType, "event_id", msg.GetEventID())
			return nil
		}

		var alert model.FlightAlert
		if err := msg.DecodeValue(&alert); err != nil {
			return kafka.NewPermanentError(fmt.Sprintf("undecodable alert event %s", msg.GetEventID()), err)
		}

		if err := notifier.Notify(ctx, &alert); err != nil {
			return kafka.NewTransientError("alert delivery failed", err)
		}
		return nil
	}
}
