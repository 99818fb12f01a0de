package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"courier-dispatch/config"
	"courier-dispatch/internal/domain"
)

func testEngine() *SettlementEngine {
	return NewSettlementEngine(
		config.Payouts{
			BasePay:          1000,
			PerKmBonus:       300,
			PeakBonus:        500,
			RainBonus:        300,
			MinGuaranteedPay: 800,
		},
		[]domain.CommissionTier{
			{Name: "Bronze", MinMonthly: 0, Rate: 0.25},
			{Name: "Silver", MinMonthly: 50, Rate: 0.20},
			{Name: "Gold", MinMonthly: 200, Rate: 0.15},
			{Name: "Platinum", MinMonthly: 500, Rate: 0.10},
		},
	)
}

func TestIsPeakHour(t *testing.T) {
	tests := []struct {
		hour int
		peak bool
	}{
		{11, false}, {12, true}, {13, true}, {14, false},
		{18, false}, {19, true}, {21, true}, {22, false}, {3, false},
	}
	for _, tc := range tests {
		ts := time.Date(2026, 3, 2, tc.hour, 30, 0, 0, time.UTC)
		assert.Equal(t, tc.peak, IsPeakHour(ts), "hour %d", tc.hour)
	}
}

func TestCalculateDriverPay_ThreeKmOffPeakDry(t *testing.T) {
	b := testEngine().CalculateDriverPay(3, false, false, 0)
	assert.Equal(t, int64(1000), b.BasePay)
	assert.Equal(t, int64(900), b.DistanceBonus)
	assert.Zero(t, b.PeakBonus)
	assert.Zero(t, b.WeatherBonus)
	assert.Equal(t, int64(1900), b.NetPay)
}

func TestCalculateDriverPay_AllBonuses(t *testing.T) {
	b := testEngine().CalculateDriverPay(5.5, true, true, 250)
	assert.Equal(t, int64(1650), b.DistanceBonus)
	assert.Equal(t, int64(500), b.PeakBonus)
	assert.Equal(t, int64(300), b.WeatherBonus)
	assert.Equal(t, int64(1000+1650+500+300+250), b.NetPay)
}

func TestCalculateDriverPay_FloorBeforeTip(t *testing.T) {
	e := NewSettlementEngine(
		config.Payouts{BasePay: 400, PerKmBonus: 100, MinGuaranteedPay: 800},
		[]domain.CommissionTier{{Name: "Bronze", MinMonthly: 0, Rate: 0.25}},
	)
	// 400 + 100 = 500 earned, floored to 800, tip on top.
	b := e.CalculateDriverPay(1, false, false, 150)
	assert.Equal(t, int64(950), b.NetPay)
}

func TestCalculateDriverPay_NeverBelowFloorPlusTip(t *testing.T) {
	e := testEngine()
	for _, km := range []float64{0, 0.1, 1, 7.3, 42} {
		for _, tip := range []int64{0, 100, 999} {
			b := e.CalculateDriverPay(km, false, false, tip)
			assert.GreaterOrEqual(t, b.NetPay, int64(800)+tip)
		}
	}
}

func TestTierFor(t *testing.T) {
	e := testEngine()
	tests := []struct {
		monthly int
		name    string
		rate    float64
	}{
		{0, "Bronze", 0.25},
		{49, "Bronze", 0.25},
		{50, "Silver", 0.20},
		{199, "Silver", 0.20},
		{200, "Gold", 0.15},
		{499, "Gold", 0.15},
		{500, "Platinum", 0.10},
		{12000, "Platinum", 0.10},
	}
	for _, tc := range tests {
		tier := e.TierFor(tc.monthly)
		assert.Equal(t, tc.name, tier.Name, "monthly=%d", tc.monthly)
		assert.Equal(t, tc.rate, tier.Rate)
	}
}

func TestSettleOrder_CommissionOnDeliveryFeeOnly(t *testing.T) {
	// 60 delivered last month => Silver 20%. Fee 2500 => commission 500.
	s := testEngine().SettleOrder(7, 100, 45000, 2500, 300, 3, false, false, 60)
	assert.Equal(t, "Silver", s.Tier.Name)
	assert.Equal(t, int64(500), s.CommissionAmount)
	assert.Equal(t, int64(1900+300), s.DriverPay)
	assert.Equal(t, int64(45000+2500+300-500-2200), s.RestaurantPayout)
}

func TestSettleOrder_MoneyConservation(t *testing.T) {
	e := testEngine()
	for _, monthly := range []int{0, 75, 300, 800} {
		s := e.SettleOrder(1, 2, 38000, 3100, 450, 6.2, true, true, monthly)
		total := s.CommissionAmount + s.DriverPay + s.RestaurantPayout
		assert.Equal(t, int64(38000+3100+450), total, "monthly=%d", monthly)
	}
}

func TestRates_ReturnsCopy(t *testing.T) {
	e := testEngine()
	rates := e.Rates()
	rates[0].Rate = 0.99
	assert.Equal(t, 0.25, e.Rates()[0].Rate)
}
