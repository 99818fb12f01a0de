package domain

import "time"

// DeliveryEvent is the message published to the delivery-events topic on
// status changes and settlements. Consumers (analytics) are external.
type DeliveryEvent struct {
	Type       string         `json:"type"`
	DeliveryID int64          `json:"delivery_id"`
	MenuID     int64          `json:"menu_id"`
	DriverID   int64          `json:"driver_id,omitempty"`
	Status     DeliveryStatus `json:"status,omitempty"`
	Amount     int64          `json:"amount,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

const (
	EventStatusChanged = "status_changed"
	EventDispatched    = "dispatched"
	EventSettled       = "settled"
	EventRated         = "rated"
)

// CandidateDriver is a driver joined with its restaurant link, as read for
// auto-dispatch.
type CandidateDriver struct {
	Driver
	LinkStatus   LinkStatus `json:"link_status"`
	LinkPriority int        `json:"link_priority"`
}

// DeliveryStats is the aggregate snapshot for a menu's deliveries.
type DeliveryStats struct {
	Total          int     `json:"total"`
	Delivered      int     `json:"delivered"`
	Cancelled      int     `json:"cancelled"`
	Failed         int     `json:"failed"`
	Pending        int     `json:"pending"`
	SuccessRate    float64 `json:"success_rate"`
	TotalFees      int64   `json:"total_fees"`
	TotalEarnings  int64   `json:"total_earnings"`
	TotalTips      int64   `json:"total_tips"`
	AvgDurationMin float64 `json:"avg_duration_min"`
}

// SettlementSummary aggregates the ledger for a menu over a period.
type SettlementSummary struct {
	DeliveredOrders int   `json:"delivered_orders"`
	SettledOrders   int   `json:"settled_orders"`
	TotalDriverPay  int64 `json:"total_driver_pay"`
	TotalFees       int64 `json:"total_fees"`
	TotalTips       int64 `json:"total_tips"`
}
