package notifier

import (
	"context"

	"github.com/fleetops/geoguard/internal/logging"
)

// LoggingNotifier writes every notification to the structured logger
// instead of sending it anywhere. Default for tests and local development
// so a missing Twilio credential never blocks the engine.
type LoggingNotifier struct {
	log *logging.Logger
}

// NewLoggingNotifier creates a LoggingNotifier writing through log.
func NewLoggingNotifier(log *logging.Logger) *LoggingNotifier {
	return &LoggingNotifier{log: log}
}

func (n *LoggingNotifier) PickupArrival(ctx context.Context, tripID, vehicleID, pickupName string) error {
	n.log.Info("notify: pickup arrival",
		"trip_id", tripID,
		"vehicle_id", vehicleID,
		"pickup_name", pickupName,
	)
	return nil
}

func (n *LoggingNotifier) TripCompletion(ctx context.Context, tripID, vehicleID string) error {
	n.log.Info("notify: trip completion",
		"trip_id", tripID,
		"vehicle_id", vehicleID,
	)
	return nil
}

func (n *LoggingNotifier) AdminAlert(ctx context.Context, tripID, vehicleID, reason string) error {
	n.log.Warn("notify: admin alert",
		"trip_id", tripID,
		"vehicle_id", vehicleID,
		"reason", reason,
	)
	return nil
}
