package domain

// ActorKind identifies who is calling: the restaurant owner, a driver, or an
// unauthenticated customer.
type ActorKind string

const (
	ActorOwner  ActorKind = "owner"
	ActorDriver ActorKind = "driver"
	ActorPublic ActorKind = "public"
)

// Actor is resolved once at the API boundary and passed into every
// authorization check.
type Actor struct {
	Kind ActorKind
	ID   int64
}

func (a Actor) IsOwnerOf(m *Menu) bool {
	return a.Kind == ActorOwner && m != nil && a.ID == m.OwnerID
}

// IsAssignedDriver reports whether the actor is the driver currently assigned
// to the delivery.
func (a Actor) IsAssignedDriver(d *DeliveryRequest) bool {
	return a.Kind == ActorDriver && d != nil && d.AssignedDriverID != nil && a.ID == *d.AssignedDriverID
}
