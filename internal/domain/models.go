package domain

import "time"

// All monetary amounts are integer centimes.

type DeliveryRequest struct {
	ID                int64          `json:"id"`
	OrderID           int64          `json:"order_id"`
	MenuID            int64          `json:"menu_id"`
	Status            DeliveryStatus `json:"status"`
	PickupLat         *float64       `json:"pickup_lat,omitempty"`
	PickupLng         *float64       `json:"pickup_lng,omitempty"`
	DropoffLat        *float64       `json:"dropoff_lat,omitempty"`
	DropoffLng        *float64       `json:"dropoff_lng,omitempty"`
	DropoffAddress    string         `json:"dropoff_address"`
	EstimatedDistance *float64       `json:"estimated_distance,omitempty"` // km
	EstimatedDuration *int           `json:"estimated_duration,omitempty"` // minutes
	ActualDuration    *int           `json:"actual_duration,omitempty"`    // minutes
	DeliveryFee       int64          `json:"delivery_fee"`
	DriverEarning     int64          `json:"driver_earning"`
	TipAmount         int64          `json:"tip_amount"`
	Priority          int            `json:"priority"` // 0-10 dispatch weight
	AssignedDriverID  *int64         `json:"assigned_driver_id,omitempty"`
	PaymentMethod     string         `json:"payment_method"`
	Rating            *int           `json:"rating,omitempty"` // 1-5, set once
	RatingComment     string         `json:"rating_comment,omitempty"`
	PickedUpAt        *time.Time     `json:"picked_up_at,omitempty"`
	DeliveredAt       *time.Time     `json:"delivered_at,omitempty"`
	CancelledAt       *time.Time     `json:"cancelled_at,omitempty"`
	FailureReason     string         `json:"failure_reason,omitempty"`
	Notes             string         `json:"notes,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

type DriverStatus string

const (
	DriverStatusActive    DriverStatus = "active"
	DriverStatusSuspended DriverStatus = "suspended"
	DriverStatusInactive  DriverStatus = "inactive"
)

type Driver struct {
	ID              int64        `json:"id"`
	FullName        string       `json:"full_name"`
	IsAvailable     bool         `json:"is_available"`
	Status          DriverStatus `json:"status"`
	Rating          *float64     `json:"rating,omitempty"` // running average, 1dp
	CurrentLat      *float64     `json:"current_lat,omitempty"`
	CurrentLng      *float64     `json:"current_lng,omitempty"`
	TotalDeliveries int          `json:"total_deliveries"`
	TotalEarnings   int64        `json:"total_earnings"`
}

type LinkStatus string

const (
	LinkStatusApproved LinkStatus = "approved"
	LinkStatusPending  LinkStatus = "pending"
	LinkStatusRevoked  LinkStatus = "revoked"
)

// RestaurantDriverLink is the approval relationship between a menu (restaurant)
// and a driver. Created by onboarding, read-only here.
type RestaurantDriverLink struct {
	ID       int64      `json:"id"`
	MenuID   int64      `json:"menu_id"`
	DriverID int64      `json:"driver_id"`
	Status   LinkStatus `json:"status"`
	Priority int        `json:"priority"`
}

const EarningTypeDeliveryFee = "delivery_fee"

// DriverEarning is an append-only ledger row: one per settled delivery.
type DriverEarning struct {
	ID                int64     `json:"id"`
	DriverID          int64     `json:"driver_id"`
	DeliveryRequestID int64     `json:"delivery_request_id"`
	Amount            int64     `json:"amount"`
	Type              string    `json:"type"`
	Description       string    `json:"description,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// CommissionTier is a volume bracket of the commission ladder. Rate is the
// fraction of delivery-fee revenue the platform keeps.
type CommissionTier struct {
	Name       string  `json:"name"`
	MinMonthly int     `json:"min_monthly_orders"`
	Rate       float64 `json:"rate"`
}

// Menu is the restaurant-side record consumed read-only: its coordinates seed
// pickup locations and fee quotes, its OrderTypes gate delivery availability.
type Menu struct {
	ID          int64    `json:"id"`
	OwnerID     int64    `json:"owner_id"`
	Name        string   `json:"name"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	BaseFee     int64    `json:"base_fee"`
	OrderTypes  []string `json:"order_types"`
	TrackingURL string   `json:"tracking_url,omitempty"`
}

func (m *Menu) DeliveryEnabled() bool {
	for _, t := range m.OrderTypes {
		if t == "delivery" {
			return true
		}
	}
	return false
}

type Order struct {
	ID     int64  `json:"id"`
	MenuID int64  `json:"menu_id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}
