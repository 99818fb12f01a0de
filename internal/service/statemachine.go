package service

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"courier-dispatch/internal/domain"
)

// applyTransition validates and applies a lifecycle transition on the
// in-memory record. It returns settle=true when the caller must run the
// delivery-complete payout. The record is only mutated on success.
func applyTransition(d *domain.DeliveryRequest, next domain.DeliveryStatus, actor domain.Actor, menu *domain.Menu, failureReason string, now time.Time) (settle bool, err error) {
	if !next.Valid() {
		return false, Validation("unknown status: " + string(next))
	}
	if !actor.IsOwnerOf(menu) && !actor.IsAssignedDriver(d) {
		return false, Forbidden("only the menu owner or the assigned driver can update this delivery")
	}
	if !d.Status.CanTransitionTo(next) {
		return false, InvalidTransition(d.Status, next)
	}

	switch next {
	case domain.StatusPickedUp:
		t := now
		d.PickedUpAt = &t
	case domain.StatusDelivered:
		t := now
		d.DeliveredAt = &t
		if d.PickedUpAt != nil {
			mins := int(math.Round(now.Sub(*d.PickedUpAt).Seconds() / 60))
			d.ActualDuration = &mins
		}
		settle = d.AssignedDriverID != nil
	case domain.StatusCancelled:
		t := now
		d.CancelledAt = &t
	case domain.StatusFailed:
		d.FailureReason = sanitizeReason(failureReason)
	}

	d.Status = next
	d.UpdatedAt = now
	return settle, nil
}

// assignDriver is the manual assignment path: pending only, link approved,
// driver active. Availability is deliberately not required here; the owner
// may hand a delivery to a driver who has toggled themselves unavailable.
func assignDriver(d *domain.DeliveryRequest, driver *domain.Driver, link *domain.RestaurantDriverLink, actor domain.Actor, menu *domain.Menu, now time.Time) error {
	if !actor.IsOwnerOf(menu) {
		return Forbidden("only the menu owner can assign drivers")
	}
	if !d.Status.CanTransitionTo(domain.StatusAssigned) {
		return InvalidTransition(d.Status, domain.StatusAssigned)
	}
	if link == nil || link.Status != domain.LinkStatusApproved {
		return InvalidState("driver is not approved for this restaurant")
	}
	if driver.Status != domain.DriverStatusActive {
		return InvalidState("driver is not active")
	}

	id := driver.ID
	d.AssignedDriverID = &id
	d.Status = domain.StatusAssigned
	d.UpdatedAt = now
	return nil
}

func sanitizeReason(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		if r < 32 {
			return -1
		}
		return r
	}, s)
	if len(s) > 500 {
		cut := 500
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}
