package notifier

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/fleetops/geoguard/internal/logging"
	"github.com/fleetops/geoguard/internal/models"
)

// DriverLookup is the subset of cache.StaticDataProvider TwilioNotifier
// needs to resolve a vehicle's assigned driver, so the phone lookup goes
// through the same read-through cache trip.Coordinator uses for vehicleReg
// instead of hitting the store directly on every SMS.
type DriverLookup interface {
	VehicleAndDriver(ctx context.Context, vehicleID string) (*models.Vehicle, *models.Driver, error)
}

// TwilioNotifier sends driver-facing prompts and admin alerts as SMS via
// Twilio. adminPhones are dialed for every AdminAlert.
type TwilioNotifier struct {
	client      *twilio.RestClient
	from        string
	adminPhones []string
	cache       DriverLookup
	log         *logging.Logger
}

// NewTwilioNotifier creates a TwilioNotifier. accountSID/authToken/from
// configure the Twilio REST client; adminPhones are dialed on AdminAlert.
func NewTwilioNotifier(accountSID, authToken, from string, adminPhones []string, cache DriverLookup, log *logging.Logger) *TwilioNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioNotifier{
		client:      client,
		from:        from,
		adminPhones: adminPhones,
		cache:       cache,
		log:         log,
	}
}

func (n *TwilioNotifier) PickupArrival(ctx context.Context, tripID, vehicleID, pickupName string) error {
	msg := fmt.Sprintf("Pickup %q confirmed for trip %s.", pickupName, tripID)
	return n.sendToDriver(ctx, vehicleID, msg)
}

func (n *TwilioNotifier) TripCompletion(ctx context.Context, tripID, vehicleID string) error {
	msg := fmt.Sprintf("Trip %s completed. Office arrival confirmed.", tripID)
	return n.sendToDriver(ctx, vehicleID, msg)
}

func (n *TwilioNotifier) AdminAlert(ctx context.Context, tripID, vehicleID, reason string) error {
	msg := fmt.Sprintf("ALERT trip=%s vehicle=%s: %s", tripID, vehicleID, reason)
	var lastErr error
	for _, phone := range n.adminPhones {
		if err := n.send(phone, msg); err != nil {
			n.log.LogError(err, "admin alert SMS failed", map[string]interface{}{"phone": phone})
			lastErr = err
		}
	}
	return lastErr
}

func (n *TwilioNotifier) sendToDriver(ctx context.Context, vehicleID, message string) error {
	_, driver, err := n.cache.VehicleAndDriver(ctx, vehicleID)
	if err != nil {
		return err
	}
	if driver == nil || driver.Phone == "" {
		n.log.Warn("no driver phone on file, skipping SMS", "vehicle_id", vehicleID)
		return nil
	}
	return n.send(driver.Phone, message)
}

func (n *TwilioNotifier) send(phone, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(phone)
	params.SetFrom(n.from)
	params.SetBody(message)

	if _, err := n.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	return nil
}
