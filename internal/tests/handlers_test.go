package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	httpapi "courier-dispatch/internal/api/http"
	"courier-dispatch/internal/auth"
	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/mocks"
	"courier-dispatch/internal/service"
)

const testSecret = "test-secret"

func newServer(t *testing.T) (*mocks.DispatchServiceInterface, http.Handler) {
	svc := mocks.NewDispatchServiceInterface(t)
	handler := httpapi.NewHandler(svc, testSecret)
	return svc, httpapi.NewRouter(handler)
}

func bearer(t *testing.T, actor domain.Actor) string {
	token, err := auth.IssueToken(actor, testSecret, time.Hour)
	assert.NoError(t, err)
	return "Bearer " + token
}

func doRequest(router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	_, router := newServer(t)
	rr := doRequest(router, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "healthy")
}

func TestCreateDeliveryEndpoint(t *testing.T) {
	svc, router := newServer(t)
	token := bearer(t, owner)

	svc.On("CreateDeliveryRequest", mock.Anything, owner, mock.MatchedBy(func(in *service.CreateDeliveryInput) bool {
		return in.MenuID == 10 && in.OrderID == 77 && in.DeliveryFee == 2500
	})).Return(&domain.DeliveryRequest{ID: 100, MenuID: 10, OrderID: 77, Status: domain.StatusPending}, nil)

	rr := doRequest(router, "POST", "/api/menus/10/deliveries", token, map[string]interface{}{
		"order_id":        77,
		"delivery_fee":    2500,
		"dropoff_address": "12 rue du Test",
		"payment_method":  "card",
	})
	assert.Equal(t, http.StatusCreated, rr.Code)

	var out domain.DeliveryRequest
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, int64(100), out.ID)
	assert.Equal(t, domain.StatusPending, out.Status)
}

func TestCreateDeliveryEndpoint_BadToken(t *testing.T) {
	_, router := newServer(t)
	rr := doRequest(router, "POST", "/api/menus/10/deliveries", "Bearer not-a-jwt", map[string]interface{}{})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", service.NotFound("delivery"), http.StatusNotFound},
		{"forbidden", service.Forbidden("nope"), http.StatusForbidden},
		{"invalid transition", service.InvalidTransition(domain.StatusDelivered, domain.StatusCancelled), http.StatusConflict},
		{"rate limited", service.RateLimited("slow down"), http.StatusTooManyRequests},
		{"validation", service.Validation("bad input"), http.StatusBadRequest},
	}
	token := bearer(t, owner)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, router := newServer(t)
			svc.On("GetDeliveryRequest", mock.Anything, owner, int64(100)).Return(nil, tc.err)
			rr := doRequest(router, "GET", "/api/deliveries/100", token, nil)
			assert.Equal(t, tc.status, rr.Code)

			var body map[string]string
			assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, service.CodeOf(tc.err), body["code"])
		})
	}
}

func TestUpdateStatusEndpoint(t *testing.T) {
	svc, router := newServer(t)
	token := bearer(t, driver)

	svc.On("UpdateDeliveryStatus", mock.Anything, driver, int64(100), domain.StatusPickedUp, "").
		Return(&domain.DeliveryRequest{ID: 100, Status: domain.StatusPickedUp}, nil)

	rr := doRequest(router, "PATCH", "/api/deliveries/100/status", token, map[string]string{"status": "picked_up"})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUpdateStatusEndpoint_MissingStatus(t *testing.T) {
	_, router := newServer(t)
	rr := doRequest(router, "PATCH", "/api/deliveries/100/status", bearer(t, driver), map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAutoDispatchEndpoint(t *testing.T) {
	svc, router := newServer(t)
	token := bearer(t, owner)

	svc.On("AutoDispatch", mock.Anything, owner, int64(100), 7.5).
		Return(&service.DispatchResult{
			Assigned: true,
			Driver:   &service.DispatchedDriver{ID: 5, FullName: "Nina", Score: 34.6},
		}, nil)

	rr := doRequest(router, "POST", "/api/deliveries/100/auto-dispatch", token, map[string]float64{"max_distance_km": 7.5})
	assert.Equal(t, http.StatusOK, rr.Code)

	var res service.DispatchResult
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, res.Assigned)
	assert.Equal(t, "Nina", res.Driver.FullName)
}

func TestRatingEndpoint_Anonymous(t *testing.T) {
	svc, router := newServer(t)

	svc.On("RateDriver", mock.Anything, int64(100), 5, "great").
		Return(&service.RatingResult{Success: true, Rating: 5}, nil)

	// No Authorization header: rating is a public endpoint.
	rr := doRequest(router, "POST", "/api/deliveries/100/rating", "", map[string]interface{}{
		"rating": 5, "comment": "great",
	})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestDeliveryFeeEndpoint(t *testing.T) {
	svc, router := newServer(t)

	svc.On("CalculateDeliveryFee", mock.Anything, int64(10), 48.8666, 2.3522, mock.AnythingOfType("string")).
		Return(&service.FeeQuote{DistanceKm: 1.11, BaseFee: 2500, TotalFee: 2500, EtaMinutes: 14}, nil)

	rr := doRequest(router, "GET", "/api/menus/10/delivery-fee?lat=48.8666&lng=2.3522", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var q service.FeeQuote
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &q))
	assert.Equal(t, int64(2500), q.TotalFee)
}

func TestDeliveryFeeEndpoint_MissingCoords(t *testing.T) {
	_, router := newServer(t)
	rr := doRequest(router, "GET", "/api/menus/10/delivery-fee", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStatsEndpoint_DateRange(t *testing.T) {
	svc, router := newServer(t)
	token := bearer(t, owner)

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	svc.On("GetDeliveryStats", mock.Anything, owner, int64(10), &from, (*time.Time)(nil)).
		Return(&domain.DeliveryStats{Total: 100, Delivered: 80, Pending: 5, SuccessRate: 80}, nil)

	rr := doRequest(router, "GET", "/api/menus/10/deliveries/stats?from=2026-02-01", token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var stats domain.DeliveryStats
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 80.0, stats.SuccessRate)
}

func TestStatsEndpoint_BadDate(t *testing.T) {
	_, router := newServer(t)
	rr := doRequest(router, "GET", "/api/menus/10/deliveries/stats?from=last-tuesday", bearer(t, owner), nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCommissionTiersEndpoint(t *testing.T) {
	svc, router := newServer(t)

	svc.On("GetCommissionRates").Return([]domain.CommissionTier{
		{Name: "Bronze", MinMonthly: 0, Rate: 0.25},
		{Name: "Silver", MinMonthly: 50, Rate: 0.20},
	})

	rr := doRequest(router, "GET", "/api/commission-tiers", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var tiers []domain.CommissionTier
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tiers))
	assert.Len(t, tiers, 2)
}

func TestCommissionTiersEndpoint_Lookup(t *testing.T) {
	svc, router := newServer(t)
	svc.On("GetCommissionTier", 250).Return(domain.CommissionTier{Name: "Gold", MinMonthly: 200, Rate: 0.15})

	rr := doRequest(router, "GET", "/api/commission-tiers?monthly_orders=250", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Gold")
}

func TestTrackingQREndpoint(t *testing.T) {
	svc, router := newServer(t)
	token := bearer(t, owner)
	svc.On("TrackingQR", mock.Anything, owner, int64(100)).Return([]byte{0x89, 'P', 'N', 'G'}, nil)

	rr := doRequest(router, "GET", "/api/deliveries/100/qr", token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
}
