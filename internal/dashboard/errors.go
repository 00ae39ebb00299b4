package dashboard

import "errors"

var (
	// ErrInvalidInterval rejects non-numeric or non-positive polling intervals.
	ErrInvalidInterval = errors.New("polling interval must be a positive number of seconds")
	// ErrConfirmationRequired is returned for short intervals the user has not confirmed.
	ErrConfirmationRequired = errors.New("short polling intervals increase load on the vendor server; confirm to apply")
	// ErrUnknownMode is returned when a mode is not in the appliance's range.
	ErrUnknownMode = errors.New("unknown aircon mode")
	// ErrApplianceNotFound is returned when an appliance id is not in the latest snapshot.
	ErrApplianceNotFound = errors.New("appliance not found")
	// ErrNotAircon is returned for settings changes on a non-AC appliance.
	ErrNotAircon = errors.New("appliance is not an air conditioner")
	// ErrPollerStopped is returned by poller operations after Stop.
	ErrPollerStopped = errors.New("poller stopped")
)
