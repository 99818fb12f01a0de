package service

import (
	"math"
	"time"

	"courier-dispatch/config"
	"courier-dispatch/internal/domain"
)

// SettlementEngine computes driver pay and the commission/driver/restaurant
// split. All amounts are centimes; policy numbers come from config.
type SettlementEngine struct {
	pay   config.Payouts
	tiers []domain.CommissionTier
}

func NewSettlementEngine(pay config.Payouts, tiers []domain.CommissionTier) *SettlementEngine {
	return &SettlementEngine{pay: pay, tiers: tiers}
}

// PayBreakdown is the per-delivery driver pay split.
type PayBreakdown struct {
	BasePay       int64 `json:"base_pay"`
	DistanceBonus int64 `json:"distance_bonus"`
	PeakBonus     int64 `json:"peak_bonus"`
	WeatherBonus  int64 `json:"weather_bonus"`
	TipAmount     int64 `json:"tip_amount"`
	NetPay        int64 `json:"net_pay"`
}

// OrderSettlement is the full split for a completed order.
type OrderSettlement struct {
	OrderID          int64                 `json:"order_id"`
	DeliveryID       int64                 `json:"delivery_id"`
	Tier             domain.CommissionTier `json:"tier"`
	CommissionAmount int64                 `json:"commission_amount"`
	DriverPay        int64                 `json:"driver_pay"`
	RestaurantPayout int64                 `json:"restaurant_payout"`
	Pay              PayBreakdown          `json:"pay"`
	EarningCreated   bool                  `json:"earning_created"`
}

// IsPeakHour reports whether t falls in the lunch (12:00-14:00) or dinner
// (19:00-22:00) window, local time.
func IsPeakHour(t time.Time) bool {
	h := t.Hour()
	return (h >= 12 && h < 14) || (h >= 19 && h < 22)
}

// CalculateDriverPay computes the per-delivery payout. The floor applies to
// the base+bonus sum; the tip is paid on top in full.
func (e *SettlementEngine) CalculateDriverPay(distanceKm float64, isPeakHour, isRaining bool, tip int64) PayBreakdown {
	b := PayBreakdown{
		BasePay:       e.pay.BasePay,
		DistanceBonus: int64(math.Round(distanceKm * float64(e.pay.PerKmBonus))),
		TipAmount:     tip,
	}
	if isPeakHour {
		b.PeakBonus = e.pay.PeakBonus
	}
	if isRaining {
		b.WeatherBonus = e.pay.RainBonus
	}
	earned := b.BasePay + b.DistanceBonus + b.PeakBonus + b.WeatherBonus
	if earned < e.pay.MinGuaranteedPay {
		earned = e.pay.MinGuaranteedPay
	}
	b.NetPay = earned + tip
	return b
}

// TierFor returns the best-matching commission tier for a restaurant's
// trailing monthly delivered-order count.
func (e *SettlementEngine) TierFor(monthlyOrders int) domain.CommissionTier {
	best := e.tiers[0]
	for _, t := range e.tiers {
		if monthlyOrders >= t.MinMonthly && t.MinMonthly >= best.MinMonthly {
			best = t
		}
	}
	return best
}

// Rates returns the full commission ladder.
func (e *SettlementEngine) Rates() []domain.CommissionTier {
	out := make([]domain.CommissionTier, len(e.tiers))
	copy(out, e.tiers)
	return out
}

// SettleOrder computes the commission/driver/restaurant split. Commission is
// levied on the delivery fee only; the tip passes through to the driver.
func (e *SettlementEngine) SettleOrder(orderID, deliveryID, orderAmount, deliveryFee, tip int64, distanceKm float64, isPeakHour, isRaining bool, monthlyDeliveredOrders int) OrderSettlement {
	tier := e.TierFor(monthlyDeliveredOrders)
	pay := e.CalculateDriverPay(distanceKm, isPeakHour, isRaining, tip)
	commission := int64(math.Round(float64(deliveryFee) * tier.Rate))
	return OrderSettlement{
		OrderID:          orderID,
		DeliveryID:       deliveryID,
		Tier:             tier,
		CommissionAmount: commission,
		DriverPay:        pay.NetPay,
		RestaurantPayout: orderAmount + deliveryFee + tip - commission - pay.NetPay,
		Pay:              pay,
	}
}
