package domain

// DeliveryStatus is the lifecycle state of a delivery request.
type DeliveryStatus string

const (
	StatusPending   DeliveryStatus = "pending"
	StatusAssigned  DeliveryStatus = "assigned"
	StatusPickedUp  DeliveryStatus = "picked_up"
	StatusInTransit DeliveryStatus = "in_transit"
	StatusDelivered DeliveryStatus = "delivered"
	StatusCancelled DeliveryStatus = "cancelled"
	StatusFailed    DeliveryStatus = "failed"
)

// transitions is the closed lifecycle table. Terminal states map to nil.
var transitions = map[DeliveryStatus][]DeliveryStatus{
	StatusPending:   {StatusAssigned, StatusCancelled},
	StatusAssigned:  {StatusPickedUp, StatusCancelled, StatusFailed},
	StatusPickedUp:  {StatusInTransit, StatusCancelled, StatusFailed},
	StatusInTransit: {StatusDelivered, StatusFailed},
	StatusDelivered: nil,
	StatusCancelled: nil,
	StatusFailed:    nil,
}

func (s DeliveryStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle table allows moving to next.
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s DeliveryStatus) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}
