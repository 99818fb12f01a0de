package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"courier-dispatch/internal/domain"
)

type PostgresRepository struct {
	DB *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

// EnsureSchema creates the dispatch tables when they do not exist yet. The
// unique index on driver_earnings(delivery_request_id) is what makes the
// settlement ledger idempotent.
func (r *PostgresRepository) EnsureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS delivery_requests (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL,
			menu_id BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			pickup_lat DOUBLE PRECISION,
			pickup_lng DOUBLE PRECISION,
			dropoff_lat DOUBLE PRECISION,
			dropoff_lng DOUBLE PRECISION,
			dropoff_address TEXT NOT NULL DEFAULT '',
			estimated_distance DOUBLE PRECISION,
			estimated_duration INTEGER,
			actual_duration INTEGER,
			delivery_fee BIGINT NOT NULL DEFAULT 0,
			driver_earning BIGINT NOT NULL DEFAULT 0,
			tip_amount BIGINT NOT NULL DEFAULT 0,
			priority INTEGER NOT NULL DEFAULT 0,
			assigned_driver_id BIGINT,
			payment_method TEXT NOT NULL DEFAULT '',
			rating INTEGER,
			rating_comment TEXT NOT NULL DEFAULT '',
			picked_up_at TIMESTAMPTZ,
			delivered_at TIMESTAMPTZ,
			cancelled_at TIMESTAMPTZ,
			failure_reason TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS drivers (
			id BIGSERIAL PRIMARY KEY,
			full_name TEXT NOT NULL,
			is_available BOOLEAN NOT NULL DEFAULT FALSE,
			status TEXT NOT NULL DEFAULT 'active',
			rating DOUBLE PRECISION,
			current_lat DOUBLE PRECISION,
			current_lng DOUBLE PRECISION,
			total_deliveries INTEGER NOT NULL DEFAULT 0,
			total_earnings BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS restaurant_drivers (
			id BIGSERIAL PRIMARY KEY,
			menu_id BIGINT NOT NULL,
			driver_id BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			priority INTEGER NOT NULL DEFAULT 0,
			UNIQUE (menu_id, driver_id)
		)`,
		`CREATE TABLE IF NOT EXISTS driver_earnings (
			id BIGSERIAL PRIMARY KEY,
			driver_id BIGINT NOT NULL,
			delivery_request_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_driver_earnings_delivery
			ON driver_earnings (delivery_request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_delivery_requests_menu_status
			ON delivery_requests (menu_id, status)`,
	}
	for _, stmt := range stmts {
		if _, err := r.DB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

const deliveryColumns = `id, order_id, menu_id, status, pickup_lat, pickup_lng,
	dropoff_lat, dropoff_lng, dropoff_address, estimated_distance, estimated_duration,
	actual_duration, delivery_fee, driver_earning, tip_amount, priority,
	assigned_driver_id, payment_method, rating, rating_comment, picked_up_at,
	delivered_at, cancelled_at, failure_reason, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDelivery(row rowScanner, d *domain.DeliveryRequest) error {
	return row.Scan(
		&d.ID, &d.OrderID, &d.MenuID, &d.Status, &d.PickupLat, &d.PickupLng,
		&d.DropoffLat, &d.DropoffLng, &d.DropoffAddress, &d.EstimatedDistance, &d.EstimatedDuration,
		&d.ActualDuration, &d.DeliveryFee, &d.DriverEarning, &d.TipAmount, &d.Priority,
		&d.AssignedDriverID, &d.PaymentMethod, &d.Rating, &d.RatingComment, &d.PickedUpAt,
		&d.DeliveredAt, &d.CancelledAt, &d.FailureReason, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
	)
}

func (r *PostgresRepository) Create(ctx context.Context, d *domain.DeliveryRequest) error {
	return r.DB.QueryRowContext(ctx, `
		INSERT INTO delivery_requests (
			order_id, menu_id, status, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
			dropoff_address, estimated_distance, estimated_duration, delivery_fee,
			driver_earning, tip_amount, priority, payment_method, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING id, created_at, updated_at`,
		d.OrderID, d.MenuID, d.Status, d.PickupLat, d.PickupLng, d.DropoffLat, d.DropoffLng,
		d.DropoffAddress, d.EstimatedDistance, d.EstimatedDuration, d.DeliveryFee,
		d.DriverEarning, d.TipAmount, d.Priority, d.PaymentMethod, d.Notes).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.DeliveryRequest, error) {
	var d domain.DeliveryRequest
	err := scanDelivery(r.DB.QueryRowContext(ctx,
		`SELECT `+deliveryColumns+` FROM delivery_requests WHERE id = $1`, id), &d)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PostgresRepository) ListByMenu(ctx context.Context, menuID, cursor int64, limit int, status string) ([]domain.DeliveryRequest, error) {
	query := `SELECT ` + deliveryColumns + `
		FROM delivery_requests
		WHERE menu_id = $1 AND id > $2 AND ($3 = '' OR status = $3)
		ORDER BY id
		LIMIT $4`
	rows, err := r.DB.QueryContext(ctx, query, menuID, cursor, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.DeliveryRequest
	for rows.Next() {
		var d domain.DeliveryRequest
		if err := scanDelivery(rows, &d); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) ListActiveByMenu(ctx context.Context, menuID int64) ([]domain.DeliveryRequest, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+deliveryColumns+`
		FROM delivery_requests
		WHERE menu_id = $1 AND status IN ('pending','assigned','picked_up','in_transit')
		ORDER BY priority DESC, created_at`, menuID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.DeliveryRequest
	for rows.Next() {
		var d domain.DeliveryRequest
		if err := scanDelivery(rows, &d); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) UpdateIf(ctx context.Context, d *domain.DeliveryRequest, expected domain.DeliveryStatus) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE delivery_requests
		SET status = $1, assigned_driver_id = $2, actual_duration = $3,
			driver_earning = $4, picked_up_at = $5, delivered_at = $6,
			cancelled_at = $7, failure_reason = $8, updated_at = $9
		WHERE id = $10 AND status = $11`,
		d.Status, d.AssignedDriverID, d.ActualDuration,
		d.DriverEarning, d.PickedUpAt, d.DeliveredAt,
		d.CancelledAt, d.FailureReason, d.UpdatedAt,
		d.ID, expected)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PostgresRepository) SetRating(ctx context.Context, id int64, rating int, comment string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE delivery_requests
		SET rating = $1, rating_comment = $2, updated_at = NOW()
		WHERE id = $3 AND rating IS NULL`,
		rating, comment, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PostgresRepository) DriverRatingAverage(ctx context.Context, driverID int64) (float64, int, error) {
	var avg sql.NullFloat64
	var count int
	err := r.DB.QueryRowContext(ctx, `
		SELECT AVG(rating), COUNT(rating)
		FROM delivery_requests
		WHERE assigned_driver_id = $1 AND rating IS NOT NULL`, driverID).
		Scan(&avg, &count)
	if err != nil {
		return 0, 0, err
	}
	return avg.Float64, count, nil
}

func (r *PostgresRepository) CountDeliveredSince(ctx context.Context, menuID int64, since time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM delivery_requests
		WHERE menu_id = $1 AND status = 'delivered' AND delivered_at >= $2`,
		menuID, since).Scan(&n)
	return n, err
}

func (r *PostgresRepository) Stats(ctx context.Context, menuID int64, from, to *time.Time) (*domain.DeliveryStats, error) {
	var stats domain.DeliveryStats
	var avgDuration sql.NullFloat64
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'delivered'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COALESCE(SUM(delivery_fee), 0),
			COALESCE(SUM(driver_earning) FILTER (WHERE status = 'delivered'), 0),
			COALESCE(SUM(tip_amount) FILTER (WHERE status = 'delivered'), 0),
			AVG(actual_duration) FILTER (WHERE status = 'delivered')
		FROM delivery_requests
		WHERE menu_id = $1
			AND ($2::timestamptz IS NULL OR created_at >= $2)
			AND ($3::timestamptz IS NULL OR created_at < $3)`,
		menuID, from, to).
		Scan(&stats.Total, &stats.Delivered, &stats.Cancelled, &stats.Failed,
			&stats.TotalFees, &stats.TotalEarnings, &stats.TotalTips, &avgDuration)
	if err != nil {
		return nil, err
	}
	stats.AvgDurationMin = avgDuration.Float64
	return &stats, nil
}

func (r *PostgresRepository) SettlementSummary(ctx context.Context, menuID int64, from, to *time.Time) (*domain.SettlementSummary, error) {
	var sum domain.SettlementSummary
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(e.id),
			COALESCE(SUM(e.amount), 0),
			COALESCE(SUM(d.delivery_fee), 0),
			COALESCE(SUM(d.tip_amount), 0)
		FROM delivery_requests d
		LEFT JOIN driver_earnings e ON e.delivery_request_id = d.id
		WHERE d.menu_id = $1 AND d.status = 'delivered'
			AND ($2::timestamptz IS NULL OR d.delivered_at >= $2)
			AND ($3::timestamptz IS NULL OR d.delivered_at < $3)`,
		menuID, from, to).
		Scan(&sum.DeliveredOrders, &sum.SettledOrders, &sum.TotalDriverPay,
			&sum.TotalFees, &sum.TotalTips)
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

// ApplySettlement runs the delivery-complete payout in one transaction. The
// ledger insert is guarded by the unique index, so a concurrent or repeated
// settlement inserts nothing and skips the counter updates.
func (r *PostgresRepository) ApplySettlement(ctx context.Context, deliveryID, driverID, netPay int64, description string) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO driver_earnings (driver_id, delivery_request_id, amount, type, description)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (delivery_request_id) DO NOTHING`,
		driverID, deliveryID, netPay, domain.EarningTypeDeliveryFee, description)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE drivers
		SET total_deliveries = total_deliveries + 1, total_earnings = total_earnings + $1
		WHERE id = $2`, netPay, driverID); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE delivery_requests
		SET driver_earning = $1, updated_at = NOW()
		WHERE id = $2`, netPay, deliveryID); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// DriverRepo reads driver profiles and restaurant links, and writes the
// running rating average.
type DriverRepo struct {
	DB *sql.DB
}

func NewDriverRepo(db *sql.DB) *DriverRepo {
	return &DriverRepo{DB: db}
}

func (r *DriverRepo) GetByID(ctx context.Context, id int64) (*domain.Driver, error) {
	var d domain.Driver
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, full_name, is_available, status, rating, current_lat, current_lng,
			total_deliveries, total_earnings
		FROM drivers WHERE id = $1`, id).
		Scan(&d.ID, &d.FullName, &d.IsAvailable, &d.Status, &d.Rating,
			&d.CurrentLat, &d.CurrentLng, &d.TotalDeliveries, &d.TotalEarnings)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DriverRepo) GetLink(ctx context.Context, menuID, driverID int64) (*domain.RestaurantDriverLink, error) {
	var l domain.RestaurantDriverLink
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, menu_id, driver_id, status, priority
		FROM restaurant_drivers WHERE menu_id = $1 AND driver_id = $2`,
		menuID, driverID).
		Scan(&l.ID, &l.MenuID, &l.DriverID, &l.Status, &l.Priority)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *DriverRepo) ListCandidates(ctx context.Context, menuID int64) ([]domain.CandidateDriver, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT dr.id, dr.full_name, dr.is_available, dr.status, dr.rating,
			dr.current_lat, dr.current_lng, dr.total_deliveries, dr.total_earnings,
			l.status, l.priority
		FROM restaurant_drivers l
		JOIN drivers dr ON dr.id = l.driver_id
		WHERE l.menu_id = $1 AND l.status = 'approved'
		ORDER BY l.priority DESC, dr.id`, menuID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CandidateDriver
	for rows.Next() {
		var c domain.CandidateDriver
		if err := rows.Scan(&c.ID, &c.FullName, &c.IsAvailable, &c.Status, &c.Rating,
			&c.CurrentLat, &c.CurrentLng, &c.TotalDeliveries, &c.TotalEarnings,
			&c.LinkStatus, &c.LinkPriority); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *DriverRepo) UpdateRating(ctx context.Context, driverID int64, rating float64) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE drivers SET rating = $1 WHERE id = $2`, rating, driverID)
	return err
}

// MenuRepo and OrderRepo are read-only views over records owned by the
// catalog side of the platform.
type MenuRepo struct {
	DB *sql.DB
}

func NewMenuRepo(db *sql.DB) *MenuRepo {
	return &MenuRepo{DB: db}
}

func (r *MenuRepo) GetByID(ctx context.Context, id int64) (*domain.Menu, error) {
	var m domain.Menu
	var types pq.StringArray
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, owner_id, name, lat, lng, base_fee, order_types, COALESCE(tracking_url, '')
		FROM menus WHERE id = $1`, id).
		Scan(&m.ID, &m.OwnerID, &m.Name, &m.Lat, &m.Lng, &m.BaseFee, &types, &m.TrackingURL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.OrderTypes = types
	return &m, nil
}

type OrderRepo struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{DB: db}
}

func (r *OrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, menu_id, amount, status FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.MenuID, &o.Amount, &o.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
