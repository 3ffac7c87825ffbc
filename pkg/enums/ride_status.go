package enums

import "fmt"

// RideStatus tracks a delivery ride. The order of the constants is the
// order rides move through.
type RideStatus string

const (
	RideStatusRequested RideStatus = "requested"
	RideStatusAccepted  RideStatus = "accepted"
	RideStatusPickedUp  RideStatus = "picked_up"
	RideStatusInTransit RideStatus = "in_transit"
	RideStatusDelivered RideStatus = "delivered"
)

var rideStatusOrder = []RideStatus{
	RideStatusRequested,
	RideStatusAccepted,
	RideStatusPickedUp,
	RideStatusInTransit,
	RideStatusDelivered,
}

func (s RideStatus) String() string {
	return string(s)
}

func (s RideStatus) IsValid() bool {
	return s.rank() >= 0
}

func (s RideStatus) rank() int {
	for i, candidate := range rideStatusOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Precedes reports whether s comes strictly before next in the ride sequence.
func (s RideStatus) Precedes(next RideStatus) bool {
	a, b := s.rank(), next.rank()
	return a >= 0 && b >= 0 && a < b
}

func ParseRideStatus(value string) (RideStatus, error) {
	for _, candidate := range rideStatusOrder {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ride status %q", value)
}
