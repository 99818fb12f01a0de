package httpapi

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"courier-dispatch/internal/auth"
	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/service"
)

type Handler struct {
	Dispatch  service.DispatchServiceInterface
	JWTSecret string
}

func NewHandler(dispatch service.DispatchServiceInterface, jwtSecret string) *Handler {
	return &Handler{Dispatch: dispatch, JWTSecret: jwtSecret}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	r.HandleFunc("/api/menus/{menuId}/deliveries", h.createDelivery).Methods("POST")
	r.HandleFunc("/api/menus/{menuId}/deliveries", h.listDeliveries).Methods("GET")
	r.HandleFunc("/api/menus/{menuId}/deliveries/active", h.activeDeliveries).Methods("GET")
	r.HandleFunc("/api/menus/{menuId}/deliveries/stats", h.deliveryStats).Methods("GET")
	r.HandleFunc("/api/menus/{menuId}/delivery-fee", h.deliveryFee).Methods("GET")
	r.HandleFunc("/api/menus/{menuId}/settlements/summary", h.settlementSummary).Methods("GET")

	r.HandleFunc("/api/deliveries/{id}", h.getDelivery).Methods("GET")
	r.HandleFunc("/api/deliveries/{id}/assign", h.assignDriver).Methods("POST")
	r.HandleFunc("/api/deliveries/{id}/status", h.updateStatus).Methods("PATCH")
	r.HandleFunc("/api/deliveries/{id}/auto-dispatch", h.autoDispatch).Methods("POST")
	r.HandleFunc("/api/deliveries/{id}/cancel", h.cancelDelivery).Methods("POST")
	r.HandleFunc("/api/deliveries/{id}/rating", h.rateDriver).Methods("POST")
	r.HandleFunc("/api/deliveries/{id}/settle", h.settleDelivery).Methods("POST")
	r.HandleFunc("/api/deliveries/{id}/qr", h.trackingQR).Methods("GET")

	r.HandleFunc("/api/commission-tiers", h.commissionTiers).Methods("GET")
}

func (h *Handler) healthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "courier-dispatch",
	})
}

func (h *Handler) createDelivery(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	menuID, err := pathID(r, "menuId")
	if err != nil {
		writeError(w, service.Validation("invalid menu id"))
		return
	}
	var in service.CreateDeliveryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, service.Validation("invalid payload"))
		return
	}
	in.MenuID = menuID

	d, err := h.Dispatch.CreateDeliveryRequest(r.Context(), actor, &in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *Handler) listDeliveries(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	menuID, err := pathID(r, "menuId")
	if err != nil {
		writeError(w, service.Validation("invalid menu id"))
		return
	}
	cursor, _ := strconv.ParseInt(r.URL.Query().Get("cursor"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	status := r.URL.Query().Get("status")

	items, next, err := h.Dispatch.GetDeliveryRequests(r.Context(), actor, menuID, cursor, limit, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":       items,
		"next_cursor": next,
	})
}

func (h *Handler) getDelivery(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, service.Validation("invalid delivery id"))
		return
	}
	d, err := h.Dispatch.GetDeliveryRequest(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) assignDriver(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, service.Validation("invalid delivery id"))
		return
	}
	var body struct {
		DriverID int64 `json:"driver_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DriverID == 0 {
		writeError(w, service.Validation("driver_id is required"))
		return
	}
	d, err := h.Dispatch.AssignDriver(r.Context(), actor, id, body.DriverID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, service.Validation("invalid delivery id"))
		return
	}
	var body struct {
		Status        string `json:"status"`
		FailureReason string `json:"failure_reason,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		writeError(w, service.Validation("status is required"))
		return
	}
	d, err := h.Dispatch.UpdateDeliveryStatus(r.Context(), actor, id, domain.DeliveryStatus(body.Status), body.FailureReason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) autoDispatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, service.Validation("invalid delivery id"))
		return
	}
	var body struct {
		MaxDistanceKm float64 `json:"max_distance_km"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body) // empty body means defaults
	}
	res, err := h.Dispatch.AutoDispatch(r.Context(), actor, id, body.MaxDistanceKm)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) cancelDelivery(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, service.Validation("invalid delivery id"))
		return
	}
	d, err := h.Dispatch.CancelDelivery(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) rateDriver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, service.Validation("invalid delivery id"))
		return
	}
	var body struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, service.Validation("invalid payload"))
		return
	}
	res, err := h.Dispatch.RateDriver(r.Context(), id, body.Rating, body.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) activeDeliveries(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	menuID, err := pathID(r, "menuId")
	if err != nil {
		writeError(w, service.Validation("invalid menu id"))
		return
	}
	items, err := h.Dispatch.GetActiveDeliveries(r.Context(), actor, menuID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) deliveryStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	menuID, err := pathID(r, "menuId")
	if err != nil {
		writeError(w, service.Validation("invalid menu id"))
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	stats, err := h.Dispatch.GetDeliveryStats(r.Context(), actor, menuID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) deliveryFee(w http.ResponseWriter, r *http.Request) {
	menuID, err := pathID(r, "menuId")
	if err != nil {
		writeError(w, service.Validation("invalid menu id"))
		return
	}
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, err2 := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err1 != nil || err2 != nil {
		writeError(w, service.Validation("lat and lng are required"))
		return
	}
	quote, err := h.Dispatch.CalculateDeliveryFee(r.Context(), menuID, lat, lng, clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *Handler) settleDelivery(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, service.Validation("invalid delivery id"))
		return
	}
	var body struct {
		IsRaining bool `json:"is_raining"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	res, err := h.Dispatch.SettleDelivery(r.Context(), actor, id, body.IsRaining)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) settlementSummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	menuID, err := pathID(r, "menuId")
	if err != nil {
		writeError(w, service.Validation("invalid menu id"))
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sum, err := h.Dispatch.GetSettlementSummary(r.Context(), actor, menuID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *Handler) commissionTiers(w http.ResponseWriter, r *http.Request) {
	if v := r.URL.Query().Get("monthly_orders"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, service.Validation("monthly_orders must be a non-negative integer"))
			return
		}
		writeJSON(w, http.StatusOK, h.Dispatch.GetCommissionTier(n))
		return
	}
	writeJSON(w, http.StatusOK, h.Dispatch.GetCommissionRates())
}

func (h *Handler) trackingQR(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, service.Validation("invalid delivery id"))
		return
	}
	png, err := h.Dispatch.TrackingQR(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// actor resolves the caller once per request. Missing tokens resolve to the
// public actor; the service layer decides whether that is enough.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, err := auth.ParseFromRequest(r, h.JWTSecret)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return domain.Actor{}, false
	}
	return actor, true
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

func dateRange(r *http.Request) (*time.Time, *time.Time, error) {
	parse := func(v string) (*time.Time, error) {
		if v == "" {
			return nil, nil
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return &t, nil
		}
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, service.Validation("invalid date: " + v)
		}
		return &t, nil
	}
	from, err := parse(r.URL.Query().Get("from"))
	if err != nil {
		return nil, nil, err
	}
	to, err := parse(r.URL.Query().Get("to"))
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := service.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case service.CodeNotFound:
		status = http.StatusNotFound
	case service.CodeForbidden:
		status = http.StatusForbidden
	case service.CodeInvalidState, service.CodeInvalidTransition:
		status = http.StatusConflict
	case service.CodeRateLimited:
		status = http.StatusTooManyRequests
	case service.CodeValidation:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"code": code, "error": err.Error()})
}
