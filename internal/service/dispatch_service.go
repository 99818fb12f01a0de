package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"courier-dispatch/config"
	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/geo"
)

const (
	etaBaseMinutes        = 10
	etaMinutesPerKm       = 3
	feeSurchargeFreeKm    = 3
	feeSurchargePerKm     = 300
	provisionalEarningPct = 80
	feeQuotesPerMinute    = 60
	trailingVolumeWindow  = 30 * 24 * time.Hour
)

type DispatchService struct {
	deliveries  DeliveryRepository
	drivers     DriverRepository
	menus       MenuRepository
	orders      OrderRepository
	settlements SettlementStore
	limiter     RateLimiter
	publisher   EventPublisher
	engine      *SettlementEngine
	qr          QRGenerator
	dispatch    config.Dispatch
	now         func() time.Time
}

func NewDispatchService(
	deliveries DeliveryRepository,
	drivers DriverRepository,
	menus MenuRepository,
	orders OrderRepository,
	settlements SettlementStore,
	limiter RateLimiter,
	publisher EventPublisher,
	engine *SettlementEngine,
	qr QRGenerator,
	dispatch config.Dispatch,
) *DispatchService {
	return &DispatchService{
		deliveries:  deliveries,
		drivers:     drivers,
		menus:       menus,
		orders:      orders,
		settlements: settlements,
		limiter:     limiter,
		publisher:   publisher,
		engine:      engine,
		qr:          qr,
		dispatch:    dispatch,
		now:         time.Now,
	}
}

type CreateDeliveryInput struct {
	MenuID         int64    `json:"menu_id"`
	OrderID        int64    `json:"order_id"`
	DropoffLat     *float64 `json:"dropoff_lat,omitempty"`
	DropoffLng     *float64 `json:"dropoff_lng,omitempty"`
	DropoffAddress string   `json:"dropoff_address"`
	DeliveryFee    int64    `json:"delivery_fee"`
	TipAmount      int64    `json:"tip_amount"`
	Priority       int      `json:"priority"`
	PaymentMethod  string   `json:"payment_method"`
	Notes          string   `json:"notes,omitempty"`
}

type RatingResult struct {
	Success bool `json:"success"`
	Rating  int  `json:"rating"`
}

type FeeQuote struct {
	DistanceKm float64 `json:"distance_km"`
	BaseFee    int64   `json:"base_fee"`
	Surcharge  int64   `json:"surcharge"`
	TotalFee   int64   `json:"total_fee"`
	EtaMinutes int     `json:"eta_minutes"`
}

func (s *DispatchService) CreateDeliveryRequest(ctx context.Context, actor domain.Actor, in *CreateDeliveryInput) (*domain.DeliveryRequest, error) {
	menu, err := s.menus.GetByID(ctx, in.MenuID)
	if err != nil {
		return nil, err
	}
	if menu == nil {
		return nil, NotFound("menu")
	}
	if !actor.IsOwnerOf(menu) {
		return nil, Forbidden("only the menu owner can create delivery requests")
	}
	order, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, NotFound("order")
	}
	if order.MenuID != menu.ID {
		return nil, Validation("order does not belong to this menu")
	}
	if in.DeliveryFee < 0 || in.TipAmount < 0 {
		return nil, Validation("delivery_fee and tip_amount must be non-negative")
	}
	if in.Priority < 0 || in.Priority > 10 {
		return nil, Validation("priority must be between 0 and 10")
	}
	if (in.DropoffLat == nil) != (in.DropoffLng == nil) {
		return nil, Validation("dropoff coordinates must be provided as a pair")
	}
	if in.DropoffLat != nil && !geo.ValidCoordinates(*in.DropoffLat, *in.DropoffLng) {
		return nil, Validation("dropoff coordinates out of range")
	}

	now := s.now()
	d := &domain.DeliveryRequest{
		OrderID:        in.OrderID,
		MenuID:         in.MenuID,
		Status:         domain.StatusPending,
		PickupLat:      menu.Lat,
		PickupLng:      menu.Lng,
		DropoffLat:     in.DropoffLat,
		DropoffLng:     in.DropoffLng,
		DropoffAddress: in.DropoffAddress,
		DeliveryFee:    in.DeliveryFee,
		DriverEarning:  in.DeliveryFee * provisionalEarningPct / 100,
		TipAmount:      in.TipAmount,
		Priority:       in.Priority,
		PaymentMethod:  in.PaymentMethod,
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if d.PickupLat != nil && d.PickupLng != nil && d.DropoffLat != nil && d.DropoffLng != nil {
		km := geo.HaversineKm(*d.PickupLat, *d.PickupLng, *d.DropoffLat, *d.DropoffLng)
		eta := int(math.Ceil(km*etaMinutesPerKm + etaBaseMinutes))
		d.EstimatedDistance = &km
		d.EstimatedDuration = &eta
	}

	if err := s.deliveries.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DispatchService) GetDeliveryRequests(ctx context.Context, actor domain.Actor, menuID, cursor int64, limit int, status string) ([]domain.DeliveryRequest, int64, error) {
	if _, err := s.ownedMenu(ctx, actor, menuID); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		return nil, 0, Validation("limit must be <= 100")
	}
	if status != "" && !domain.DeliveryStatus(status).Valid() {
		return nil, 0, Validation("unknown status: " + status)
	}
	items, err := s.deliveries.ListByMenu(ctx, menuID, cursor, limit, status)
	if err != nil {
		return nil, 0, err
	}
	var next int64
	if len(items) == limit {
		next = items[len(items)-1].ID
	}
	return items, next, nil
}

func (s *DispatchService) GetDeliveryRequest(ctx context.Context, actor domain.Actor, id int64) (*domain.DeliveryRequest, error) {
	d, menu, err := s.loadDelivery(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsOwnerOf(menu) && !actor.IsAssignedDriver(d) {
		return nil, Forbidden("not allowed to view this delivery")
	}
	return d, nil
}

func (s *DispatchService) AssignDriver(ctx context.Context, actor domain.Actor, deliveryID, driverID int64) (*domain.DeliveryRequest, error) {
	d, menu, err := s.loadDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	driver, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, NotFound("driver")
	}
	link, err := s.drivers.GetLink(ctx, d.MenuID, driverID)
	if err != nil {
		return nil, err
	}

	expected := d.Status
	if err := assignDriver(d, driver, link, actor, menu, s.now()); err != nil {
		return nil, err
	}
	if err := s.persistGuarded(ctx, d, expected); err != nil {
		return nil, err
	}
	s.publish(ctx, domain.DeliveryEvent{
		Type: domain.EventStatusChanged, DeliveryID: d.ID, MenuID: d.MenuID,
		DriverID: driverID, Status: d.Status, Timestamp: s.now(),
	})
	return d, nil
}

func (s *DispatchService) UpdateDeliveryStatus(ctx context.Context, actor domain.Actor, deliveryID int64, status domain.DeliveryStatus, failureReason string) (*domain.DeliveryRequest, error) {
	d, menu, err := s.loadDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}

	expected := d.Status
	settle, err := applyTransition(d, status, actor, menu, failureReason, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.persistGuarded(ctx, d, expected); err != nil {
		return nil, err
	}

	var driverID int64
	if d.AssignedDriverID != nil {
		driverID = *d.AssignedDriverID
	}
	s.publish(ctx, domain.DeliveryEvent{
		Type: domain.EventStatusChanged, DeliveryID: d.ID, MenuID: d.MenuID,
		DriverID: driverID, Status: d.Status, Timestamp: s.now(),
	})

	if settle {
		if err := s.settleOnDelivered(ctx, d); err != nil {
			// The transition is already committed; surface the payout
			// failure so the caller can retry settlement explicitly.
			return nil, err
		}
	}
	return d, nil
}

// settleOnDelivered runs the delivery-complete payout: one idempotent ledger
// row, driver counters, the delivery's final driverEarning.
func (s *DispatchService) settleOnDelivered(ctx context.Context, d *domain.DeliveryRequest) error {
	distance := 0.0
	if d.EstimatedDistance != nil {
		distance = *d.EstimatedDistance
	}
	at := s.now()
	if d.DeliveredAt != nil {
		at = *d.DeliveredAt
	}
	pay := s.engine.CalculateDriverPay(distance, IsPeakHour(at), false, d.TipAmount)
	created, err := s.settlements.ApplySettlement(ctx, d.ID, *d.AssignedDriverID, pay.NetPay,
		fmt.Sprintf("Delivery #%d payout", d.ID))
	if err != nil {
		return err
	}
	if created {
		d.DriverEarning = pay.NetPay
		s.publish(ctx, domain.DeliveryEvent{
			Type: domain.EventSettled, DeliveryID: d.ID, MenuID: d.MenuID,
			DriverID: *d.AssignedDriverID, Amount: pay.NetPay, Timestamp: s.now(),
		})
	}
	return nil
}

func (s *DispatchService) AutoDispatch(ctx context.Context, actor domain.Actor, deliveryID int64, maxDistanceKm float64) (*DispatchResult, error) {
	key := fmt.Sprintf("dispatch:%s:%d", actor.Kind, actor.ID)
	allowed, _, err := s.limiter.Check(ctx, key, s.dispatch.RatePerMinute, time.Minute)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, RateLimited("auto-dispatch quota exceeded, try again later")
	}

	if maxDistanceKm == 0 {
		maxDistanceKm = s.dispatch.DefaultMaxDistanceKm
	}
	if maxDistanceKm < s.dispatch.MinMaxDistanceKm || maxDistanceKm > s.dispatch.MaxMaxDistanceKm {
		return nil, Validation(fmt.Sprintf("max_distance_km must be between %v and %v",
			s.dispatch.MinMaxDistanceKm, s.dispatch.MaxMaxDistanceKm))
	}

	d, menu, err := s.loadDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if !actor.IsOwnerOf(menu) {
		return nil, Forbidden("only the menu owner can auto-dispatch")
	}
	if d.Status != domain.StatusPending {
		return nil, InvalidTransition(d.Status, domain.StatusAssigned)
	}

	pool, err := s.drivers.ListCandidates(ctx, d.MenuID)
	if err != nil {
		return nil, err
	}

	pickupLat, pickupLng := d.PickupLat, d.PickupLng
	if pickupLat == nil || pickupLng == nil {
		pickupLat, pickupLng = menu.Lat, menu.Lng
	}
	best, reason := pickCandidate(pickupLat, pickupLng, pool, maxDistanceKm)
	if best == nil {
		return &DispatchResult{Assigned: false, Reason: reason}, nil
	}

	// The pool already guarantees approval, availability and active status,
	// so the manual-path re-checks are skipped.
	expected := d.Status
	id := best.Driver.ID
	d.AssignedDriverID = &id
	d.Status = domain.StatusAssigned
	d.UpdatedAt = s.now()
	if err := s.persistGuarded(ctx, d, expected); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.DeliveryEvent{
		Type: domain.EventDispatched, DeliveryID: d.ID, MenuID: d.MenuID,
		DriverID: id, Status: d.Status, Timestamp: s.now(),
	})
	return &DispatchResult{
		Assigned: true,
		Driver:   &DispatchedDriver{ID: id, FullName: best.Driver.FullName, Score: round2(best.Score)},
	}, nil
}

func (s *DispatchService) CancelDelivery(ctx context.Context, actor domain.Actor, deliveryID int64) (*domain.DeliveryRequest, error) {
	return s.UpdateDeliveryStatus(ctx, actor, deliveryID, domain.StatusCancelled, "")
}

func (s *DispatchService) RateDriver(ctx context.Context, deliveryID int64, rating int, comment string) (*RatingResult, error) {
	if rating < 1 || rating > 5 {
		return nil, Validation("rating must be between 1 and 5")
	}
	d, err := s.deliveries.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, NotFound("delivery")
	}
	if d.Status != domain.StatusDelivered {
		return nil, InvalidState("only delivered orders can be rated")
	}
	if d.Rating != nil {
		return nil, RateLimited("delivery already rated")
	}
	if d.AssignedDriverID == nil {
		return nil, InvalidState("delivery has no assigned driver")
	}

	// One-shot lock: window 24h, limit 1, keyed by delivery. The rating
	// IS NULL guard in SetRating is the primary write-once check; the key
	// only short-circuits repeats.
	key := fmt.Sprintf("rating:delivery:%d", deliveryID)
	allowed, _, err := s.limiter.Check(ctx, key, 1, 24*time.Hour)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, RateLimited("delivery already rated")
	}

	ok, err := s.deliveries.SetRating(ctx, deliveryID, rating, sanitizeReason(comment))
	if err != nil {
		// Release the key so a transient write failure does not block the
		// retry for the rest of the window.
		if rerr := s.limiter.Reset(ctx, key); rerr != nil {
			log.Printf("Warning: failed to release rating lock %s: %v", key, rerr)
		}
		return nil, err
	}
	if !ok {
		return nil, RateLimited("delivery already rated")
	}

	avg, n, err := s.deliveries.DriverRatingAverage(ctx, *d.AssignedDriverID)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		rounded := math.Round(avg*10) / 10
		if err := s.drivers.UpdateRating(ctx, *d.AssignedDriverID, rounded); err != nil {
			return nil, err
		}
	}

	s.publish(ctx, domain.DeliveryEvent{
		Type: domain.EventRated, DeliveryID: d.ID, MenuID: d.MenuID,
		DriverID: *d.AssignedDriverID, Amount: int64(rating), Timestamp: s.now(),
	})
	return &RatingResult{Success: true, Rating: rating}, nil
}

func (s *DispatchService) GetActiveDeliveries(ctx context.Context, actor domain.Actor, menuID int64) ([]domain.DeliveryRequest, error) {
	if _, err := s.ownedMenu(ctx, actor, menuID); err != nil {
		return nil, err
	}
	return s.deliveries.ListActiveByMenu(ctx, menuID)
}

func (s *DispatchService) GetDeliveryStats(ctx context.Context, actor domain.Actor, menuID int64, from, to *time.Time) (*domain.DeliveryStats, error) {
	if _, err := s.ownedMenu(ctx, actor, menuID); err != nil {
		return nil, err
	}
	stats, err := s.deliveries.Stats(ctx, menuID, from, to)
	if err != nil {
		return nil, err
	}
	stats.Pending = stats.Total - stats.Delivered - stats.Cancelled - stats.Failed
	if stats.Total > 0 {
		stats.SuccessRate = round2(float64(stats.Delivered) / float64(stats.Total) * 100)
	}
	return stats, nil
}

func (s *DispatchService) CalculateDeliveryFee(ctx context.Context, menuID int64, lat, lng float64, clientIP string) (*FeeQuote, error) {
	key := fmt.Sprintf("fee:%s:%d", clientIP, menuID)
	allowed, _, err := s.limiter.Check(ctx, key, feeQuotesPerMinute, time.Minute)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, RateLimited("too many fee lookups, try again later")
	}

	if !geo.ValidCoordinates(lat, lng) {
		return nil, Validation("coordinates out of range")
	}
	menu, err := s.menus.GetByID(ctx, menuID)
	if err != nil {
		return nil, err
	}
	if menu == nil {
		return nil, NotFound("menu")
	}
	if menu.Lat == nil || menu.Lng == nil {
		return nil, Validation("restaurant has no configured coordinates")
	}
	if !menu.DeliveryEnabled() {
		return nil, Validation("restaurant does not offer delivery")
	}

	km := geo.HaversineKm(*menu.Lat, *menu.Lng, lat, lng)
	var surcharge int64
	if km > feeSurchargeFreeKm {
		surcharge = int64(math.Round((km - feeSurchargeFreeKm) * feeSurchargePerKm))
	}
	return &FeeQuote{
		DistanceKm: round2(km),
		BaseFee:    menu.BaseFee,
		Surcharge:  surcharge,
		TotalFee:   menu.BaseFee + surcharge,
		EtaMinutes: int(math.Ceil(km*etaMinutesPerKm + etaBaseMinutes)),
	}, nil
}

func (s *DispatchService) SettleDelivery(ctx context.Context, actor domain.Actor, deliveryID int64, isRaining bool) (*OrderSettlement, error) {
	d, menu, err := s.loadDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if !actor.IsOwnerOf(menu) {
		return nil, Forbidden("only the menu owner can settle deliveries")
	}
	if d.Status != domain.StatusDelivered {
		return nil, InvalidState("cannot settle a delivery with status " + string(d.Status))
	}
	if d.AssignedDriverID == nil {
		return nil, InvalidState("delivery has no assigned driver")
	}
	order, err := s.orders.GetByID(ctx, d.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, NotFound("order")
	}

	monthly, err := s.deliveries.CountDeliveredSince(ctx, d.MenuID, s.now().Add(-trailingVolumeWindow))
	if err != nil {
		return nil, err
	}

	distance := 0.0
	if d.EstimatedDistance != nil {
		distance = *d.EstimatedDistance
	}
	at := s.now()
	if d.DeliveredAt != nil {
		at = *d.DeliveredAt
	}
	st := s.engine.SettleOrder(order.ID, d.ID, order.Amount, d.DeliveryFee, d.TipAmount,
		distance, IsPeakHour(at), isRaining, monthly)

	created, err := s.settlements.ApplySettlement(ctx, d.ID, *d.AssignedDriverID, st.DriverPay,
		fmt.Sprintf("Delivery #%d payout", d.ID))
	if err != nil {
		return nil, err
	}
	st.EarningCreated = created
	if created {
		s.publish(ctx, domain.DeliveryEvent{
			Type: domain.EventSettled, DeliveryID: d.ID, MenuID: d.MenuID,
			DriverID: *d.AssignedDriverID, Amount: st.DriverPay, Timestamp: s.now(),
		})
	}
	return &st, nil
}

func (s *DispatchService) GetSettlementSummary(ctx context.Context, actor domain.Actor, menuID int64, from, to *time.Time) (*domain.SettlementSummary, error) {
	if _, err := s.ownedMenu(ctx, actor, menuID); err != nil {
		return nil, err
	}
	return s.deliveries.SettlementSummary(ctx, menuID, from, to)
}

func (s *DispatchService) GetCommissionTier(monthlyOrders int) domain.CommissionTier {
	return s.engine.TierFor(monthlyOrders)
}

func (s *DispatchService) GetCommissionRates() []domain.CommissionTier {
	return s.engine.Rates()
}

func (s *DispatchService) TrackingQR(ctx context.Context, actor domain.Actor, deliveryID int64) ([]byte, error) {
	d, menu, err := s.loadDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if !actor.IsOwnerOf(menu) {
		return nil, Forbidden("only the menu owner can fetch the tracking code")
	}
	return s.qr.Generate(d.ID)
}

func (s *DispatchService) loadDelivery(ctx context.Context, id int64) (*domain.DeliveryRequest, *domain.Menu, error) {
	d, err := s.deliveries.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if d == nil {
		return nil, nil, NotFound("delivery")
	}
	menu, err := s.menus.GetByID(ctx, d.MenuID)
	if err != nil {
		return nil, nil, err
	}
	if menu == nil {
		return nil, nil, NotFound("menu")
	}
	return d, menu, nil
}

func (s *DispatchService) ownedMenu(ctx context.Context, actor domain.Actor, menuID int64) (*domain.Menu, error) {
	menu, err := s.menus.GetByID(ctx, menuID)
	if err != nil {
		return nil, err
	}
	if menu == nil {
		return nil, NotFound("menu")
	}
	if !actor.IsOwnerOf(menu) {
		return nil, Forbidden("only the menu owner can access this resource")
	}
	return menu, nil
}

// persistGuarded writes the delivery with the status guard. A miss means a
// concurrent writer won the transition first.
func (s *DispatchService) persistGuarded(ctx context.Context, d *domain.DeliveryRequest, expected domain.DeliveryStatus) error {
	ok, err := s.deliveries.UpdateIf(ctx, d, expected)
	if err != nil {
		return err
	}
	if !ok {
		return InvalidState("delivery was modified concurrently, reload and retry")
	}
	return nil
}

func (s *DispatchService) publish(ctx context.Context, ev domain.DeliveryEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishDeliveryEvent(ctx, ev); err != nil {
		log.Printf("Warning: failed to publish delivery event: %v", err)
	}
}

var _ DispatchServiceInterface = (*DispatchService)(nil)
