package service

import (
	"context"
	"time"

	"courier-dispatch/internal/domain"
)

type DeliveryRepository interface {
	Create(ctx context.Context, d *domain.DeliveryRequest) error
	GetByID(ctx context.Context, id int64) (*domain.DeliveryRequest, error)
	// ListByMenu pages forward by id: rows with id > cursor, ascending.
	ListByMenu(ctx context.Context, menuID, cursor int64, limit int, status string) ([]domain.DeliveryRequest, error)
	ListActiveByMenu(ctx context.Context, menuID int64) ([]domain.DeliveryRequest, error)
	// UpdateIf persists the delivery's mutable fields only when the stored
	// status still equals expected. Returns false when the guard misses.
	UpdateIf(ctx context.Context, d *domain.DeliveryRequest, expected domain.DeliveryStatus) (bool, error)
	// SetRating stores rating+comment only when no rating exists yet.
	SetRating(ctx context.Context, id int64, rating int, comment string) (bool, error)
	// DriverRatingAverage returns the mean rating over all rated deliveries
	// of the driver and how many there are.
	DriverRatingAverage(ctx context.Context, driverID int64) (float64, int, error)
	CountDeliveredSince(ctx context.Context, menuID int64, since time.Time) (int, error)
	Stats(ctx context.Context, menuID int64, from, to *time.Time) (*domain.DeliveryStats, error)
	SettlementSummary(ctx context.Context, menuID int64, from, to *time.Time) (*domain.SettlementSummary, error)
}

type DriverRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Driver, error)
	GetLink(ctx context.Context, menuID, driverID int64) (*domain.RestaurantDriverLink, error)
	// ListCandidates returns drivers linked to the menu with approved links.
	ListCandidates(ctx context.Context, menuID int64) ([]domain.CandidateDriver, error)
	UpdateRating(ctx context.Context, driverID int64, rating float64) error
}

type MenuRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Menu, error)
}

type OrderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
}

// SettlementStore applies the delivery-complete payout as one transaction:
// ledger insert, driver counters, delivery earning overwrite. The insert is
// idempotent per delivery; created is false when a row already existed.
type SettlementStore interface {
	ApplySettlement(ctx context.Context, deliveryID, driverID, netPay int64, description string) (created bool, err error)
}

// RateLimiter is a keyed windowed counter shared across concurrent requests.
// Reset drops a key early, releasing a consumed one-shot slot.
type RateLimiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, remaining int, err error)
	Reset(ctx context.Context, key string) error
}

type EventPublisher interface {
	PublishDeliveryEvent(ctx context.Context, ev domain.DeliveryEvent) error
}

type DispatchServiceInterface interface {
	CreateDeliveryRequest(ctx context.Context, actor domain.Actor, in *CreateDeliveryInput) (*domain.DeliveryRequest, error)
	GetDeliveryRequests(ctx context.Context, actor domain.Actor, menuID, cursor int64, limit int, status string) ([]domain.DeliveryRequest, int64, error)
	GetDeliveryRequest(ctx context.Context, actor domain.Actor, id int64) (*domain.DeliveryRequest, error)
	AssignDriver(ctx context.Context, actor domain.Actor, deliveryID, driverID int64) (*domain.DeliveryRequest, error)
	UpdateDeliveryStatus(ctx context.Context, actor domain.Actor, deliveryID int64, status domain.DeliveryStatus, failureReason string) (*domain.DeliveryRequest, error)
	AutoDispatch(ctx context.Context, actor domain.Actor, deliveryID int64, maxDistanceKm float64) (*DispatchResult, error)
	CancelDelivery(ctx context.Context, actor domain.Actor, deliveryID int64) (*domain.DeliveryRequest, error)
	RateDriver(ctx context.Context, deliveryID int64, rating int, comment string) (*RatingResult, error)
	GetActiveDeliveries(ctx context.Context, actor domain.Actor, menuID int64) ([]domain.DeliveryRequest, error)
	GetDeliveryStats(ctx context.Context, actor domain.Actor, menuID int64, from, to *time.Time) (*domain.DeliveryStats, error)
	CalculateDeliveryFee(ctx context.Context, menuID int64, lat, lng float64, clientIP string) (*FeeQuote, error)
	SettleDelivery(ctx context.Context, actor domain.Actor, deliveryID int64, isRaining bool) (*OrderSettlement, error)
	GetSettlementSummary(ctx context.Context, actor domain.Actor, menuID int64, from, to *time.Time) (*domain.SettlementSummary, error)
	GetCommissionTier(monthlyOrders int) domain.CommissionTier
	GetCommissionRates() []domain.CommissionTier
	TrackingQR(ctx context.Context, actor domain.Actor, deliveryID int64) ([]byte, error)
}
