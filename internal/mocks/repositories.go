// Package mocks contains testify mocks for the service-layer interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"courier-dispatch/internal/domain"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

type DeliveryRepository struct {
	mock.Mock
}

func NewDeliveryRepository(t testingT) *DeliveryRepository {
	m := &DeliveryRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *DeliveryRepository) Create(ctx context.Context, d *domain.DeliveryRequest) error {
	return _m.Called(ctx, d).Error(0)
}

func (_m *DeliveryRepository) GetByID(ctx context.Context, id int64) (*domain.DeliveryRequest, error) {
	ret := _m.Called(ctx, id)
	var r0 *domain.DeliveryRequest
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.DeliveryRequest)
	}
	return r0, ret.Error(1)
}

func (_m *DeliveryRepository) ListByMenu(ctx context.Context, menuID, cursor int64, limit int, status string) ([]domain.DeliveryRequest, error) {
	ret := _m.Called(ctx, menuID, cursor, limit, status)
	var r0 []domain.DeliveryRequest
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.DeliveryRequest)
	}
	return r0, ret.Error(1)
}

func (_m *DeliveryRepository) ListActiveByMenu(ctx context.Context, menuID int64) ([]domain.DeliveryRequest, error) {
	ret := _m.Called(ctx, menuID)
	var r0 []domain.DeliveryRequest
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.DeliveryRequest)
	}
	return r0, ret.Error(1)
}

func (_m *DeliveryRepository) UpdateIf(ctx context.Context, d *domain.DeliveryRequest, expected domain.DeliveryStatus) (bool, error) {
	ret := _m.Called(ctx, d, expected)
	return ret.Bool(0), ret.Error(1)
}

func (_m *DeliveryRepository) SetRating(ctx context.Context, id int64, rating int, comment string) (bool, error) {
	ret := _m.Called(ctx, id, rating, comment)
	return ret.Bool(0), ret.Error(1)
}

func (_m *DeliveryRepository) DriverRatingAverage(ctx context.Context, driverID int64) (float64, int, error) {
	ret := _m.Called(ctx, driverID)
	return ret.Get(0).(float64), ret.Int(1), ret.Error(2)
}

func (_m *DeliveryRepository) CountDeliveredSince(ctx context.Context, menuID int64, since time.Time) (int, error) {
	ret := _m.Called(ctx, menuID, since)
	return ret.Int(0), ret.Error(1)
}

func (_m *DeliveryRepository) Stats(ctx context.Context, menuID int64, from, to *time.Time) (*domain.DeliveryStats, error) {
	ret := _m.Called(ctx, menuID, from, to)
	var r0 *domain.DeliveryStats
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.DeliveryStats)
	}
	return r0, ret.Error(1)
}

func (_m *DeliveryRepository) SettlementSummary(ctx context.Context, menuID int64, from, to *time.Time) (*domain.SettlementSummary, error) {
	ret := _m.Called(ctx, menuID, from, to)
	var r0 *domain.SettlementSummary
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.SettlementSummary)
	}
	return r0, ret.Error(1)
}

type DriverRepository struct {
	mock.Mock
}

func NewDriverRepository(t testingT) *DriverRepository {
	m := &DriverRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *DriverRepository) GetByID(ctx context.Context, id int64) (*domain.Driver, error) {
	ret := _m.Called(ctx, id)
	var r0 *domain.Driver
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.Driver)
	}
	return r0, ret.Error(1)
}

func (_m *DriverRepository) GetLink(ctx context.Context, menuID, driverID int64) (*domain.RestaurantDriverLink, error) {
	ret := _m.Called(ctx, menuID, driverID)
	var r0 *domain.RestaurantDriverLink
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.RestaurantDriverLink)
	}
	return r0, ret.Error(1)
}

func (_m *DriverRepository) ListCandidates(ctx context.Context, menuID int64) ([]domain.CandidateDriver, error) {
	ret := _m.Called(ctx, menuID)
	var r0 []domain.CandidateDriver
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.CandidateDriver)
	}
	return r0, ret.Error(1)
}

func (_m *DriverRepository) UpdateRating(ctx context.Context, driverID int64, rating float64) error {
	return _m.Called(ctx, driverID, rating).Error(0)
}

type MenuRepository struct {
	mock.Mock
}

func NewMenuRepository(t testingT) *MenuRepository {
	m := &MenuRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *MenuRepository) GetByID(ctx context.Context, id int64) (*domain.Menu, error) {
	ret := _m.Called(ctx, id)
	var r0 *domain.Menu
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.Menu)
	}
	return r0, ret.Error(1)
}

type OrderRepository struct {
	mock.Mock
}

func NewOrderRepository(t testingT) *OrderRepository {
	m := &OrderRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	ret := _m.Called(ctx, id)
	var r0 *domain.Order
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.Order)
	}
	return r0, ret.Error(1)
}

type SettlementStore struct {
	mock.Mock
}

func NewSettlementStore(t testingT) *SettlementStore {
	m := &SettlementStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *SettlementStore) ApplySettlement(ctx context.Context, deliveryID, driverID, netPay int64, description string) (bool, error) {
	ret := _m.Called(ctx, deliveryID, driverID, netPay, description)
	return ret.Bool(0), ret.Error(1)
}

type RateLimiter struct {
	mock.Mock
}

func NewRateLimiter(t testingT) *RateLimiter {
	m := &RateLimiter{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *RateLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	ret := _m.Called(ctx, key, limit, window)
	return ret.Bool(0), ret.Int(1), ret.Error(2)
}

func (_m *RateLimiter) Reset(ctx context.Context, key string) error {
	return _m.Called(ctx, key).Error(0)
}

type EventPublisher struct {
	mock.Mock
}

func NewEventPublisher(t testingT) *EventPublisher {
	m := &EventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *EventPublisher) PublishDeliveryEvent(ctx context.Context, ev domain.DeliveryEvent) error {
	return _m.Called(ctx, ev).Error(0)
}

type QRGenerator struct {
	mock.Mock
}

func NewQRGenerator(t testingT) *QRGenerator {
	m := &QRGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *QRGenerator) Generate(deliveryID int64) ([]byte, error) {
	ret := _m.Called(deliveryID)
	var r0 []byte
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}
	return r0, ret.Error(1)
}
