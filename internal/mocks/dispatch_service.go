package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/service"
)

type DispatchServiceInterface struct {
	mock.Mock
}

func NewDispatchServiceInterface(t testingT) *DispatchServiceInterface {
	m := &DispatchServiceInterface{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *DispatchServiceInterface) CreateDeliveryRequest(ctx context.Context, actor domain.Actor, in *service.CreateDeliveryInput) (*domain.DeliveryRequest, error) {
	ret := _m.Called(ctx, actor, in)
	var r0 *domain.DeliveryRequest
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.DeliveryRequest)
	}
	return r0, ret.Error(1)
}

func (_m *DispatchServiceInterface) GetDeliveryRequests(ctx context.Context, actor domain.Actor, menuID, cursor int64, limit int, status string) ([]domain.DeliveryRequest, int64, error) {
	ret := _m.Called(ctx, actor, menuID, cursor, limit, status)
	var r0 []domain.DeliveryRequest
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.DeliveryRequest)
	}
	return r0, ret.Get(1).(int64), ret.Error(2)
}

func (_m *DispatchServiceInterface) GetDeliveryRequest(ctx context.Context, actor domain.Actor, id int64) (*domain.DeliveryRequest, error) {
	ret := _m.Called(ctx, actor, id)
	var r0 *domain.DeliveryRequest
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.DeliveryRequest)
	}
	return r0, ret.Error(1)
}

func (_m *DispatchServiceInterface) AssignDriver(ctx context.Context, actor domain.Actor, deliveryID, driverID int64) (*domain.DeliveryRequest, error) {
	ret := _m.Called(ctx, actor, deliveryID, driverID)
	var r0 *domain.DeliveryRequest
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.DeliveryRequest)
	}
	return r0, ret.Error(1)
}

func (_m *DispatchServiceInterface) UpdateDeliveryStatus(ctx context.Context, actor domain.Actor, deliveryID int64, status domain.DeliveryStatus, failureReason string) (*domain.DeliveryRequest, error) {
	ret := _m.Called(ctx, actor, deliveryID, status, failureReason)
	var r0 *domain.DeliveryRequest
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.DeliveryRequest)
	}
	return r0, ret.Error(1)
}

func (_m *DispatchServiceInterface) AutoDispatch(ctx context.Context, actor domain.Actor, deliveryID int64, maxDistanceKm float64) (*service.DispatchResult, error) {
	ret := _m.Called(ctx, actor, deliveryID, maxDistanceKm)
	var r0 *service.DispatchResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.DispatchResult)
	}
	return r0, ret.Error(1)
}

func (_m *DispatchServiceInterface) CancelDelivery(ctx context.Context, actor domain.Actor, deliveryID int64) (*domain.DeliveryRequest, error) {
	ret := _m.Called(ctx, actor, deliveryID)
	var r0 *domain.DeliveryRequest
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.DeliveryRequest)
	}
	return r0, ret.Error(1)
}

func (_m *DispatchServiceInterface) RateDriver(ctx context.Context, deliveryID int64, rating int, comment string) (*service.RatingResult, error) {
	ret := _m.Called(ctx, deliveryID, rating, comment)
	var r0 *service.RatingResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.RatingResult)
	}
	return r0, ret.Error(1)
}

func (_m *DispatchServiceInterface) GetActiveDeliveries(ctx context.Context, actor domain.Actor, menuID int64) ([]domain.DeliveryRequest, error) {
	ret := _m.Called(ctx, actor, menuID)
	var r0 []domain.DeliveryRequest
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.DeliveryRequest)
	}
	return r0, ret.Error(1)
}

func (_m *DispatchServiceInterface) GetDeliveryStats(ctx context.Context, actor domain.Actor, menuID int64, from, to *time.Time) (*domain.DeliveryStats, error) {
	ret := _m.Called(ctx, actor, menuID, from, to)
	var r0 *domain.DeliveryStats
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.DeliveryStats)
	}
	return r0, ret.Error(1)
}

func (_m *DispatchServiceInterface) CalculateDeliveryFee(ctx context.Context, menuID int64, lat, lng float64, clientIP string) (*service.FeeQuote, error) {
	ret := _m.Called(ctx, menuID, lat, lng, clientIP)
	var r0 *service.FeeQuote
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.FeeQuote)
	}
	return r0, ret.Error(1)
}

func (_m *DispatchServiceInterface) SettleDelivery(ctx context.Context, actor domain.Actor, deliveryID int64, isRaining bool) (*service.OrderSettlement, error) {
	ret := _m.Called(ctx, actor, deliveryID, isRaining)
	var r0 *service.OrderSettlement
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.OrderSettlement)
	}
	return r0, ret.Error(1)
}

func (_m *DispatchServiceInterface) GetSettlementSummary(ctx context.Context, actor domain.Actor, menuID int64, from, to *time.Time) (*domain.SettlementSummary, error) {
	ret := _m.Called(ctx, actor, menuID, from, to)
	var r0 *domain.SettlementSummary
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.SettlementSummary)
	}
	return r0, ret.Error(1)
}

func (_m *DispatchServiceInterface) GetCommissionTier(monthlyOrders int) domain.CommissionTier {
	ret := _m.Called(monthlyOrders)
	return ret.Get(0).(domain.CommissionTier)
}

func (_m *DispatchServiceInterface) GetCommissionRates() []domain.CommissionTier {
	ret := _m.Called()
	var r0 []domain.CommissionTier
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.CommissionTier)
	}
	return r0
}

func (_m *DispatchServiceInterface) TrackingQR(ctx context.Context, actor domain.Actor, deliveryID int64) ([]byte, error) {
	ret := _m.Called(ctx, actor, deliveryID)
	var r0 []byte
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}
	return r0, ret.Error(1)
}
