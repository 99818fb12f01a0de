package service

import (
	"math"

	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/geo"
)

const (
	weightPriority = 3
	weightRating   = 2
	maxProximity   = 10
	ratingDefault  = 5
)

// scoredCandidate is one surviving auto-dispatch candidate.
type scoredCandidate struct {
	Driver     domain.CandidateDriver
	DistanceKm float64
	Score      float64
}

// DispatchResult is the auto-dispatch outcome returned to the caller.
type DispatchResult struct {
	Assigned bool              `json:"assigned"`
	Driver   *DispatchedDriver `json:"driver,omitempty"`
	Reason   string            `json:"reason,omitempty"`
}

type DispatchedDriver struct {
	ID       int64   `json:"id"`
	FullName string  `json:"full_name"`
	Score    float64 `json:"score"`
}

// candidateDistance measures pickup-to-driver distance, +Inf when either
// side lacks coordinates.
func candidateDistance(pickupLat, pickupLng *float64, c domain.CandidateDriver) float64 {
	if pickupLat == nil || pickupLng == nil || c.CurrentLat == nil || c.CurrentLng == nil {
		return math.Inf(1)
	}
	return geo.HaversineKm(*pickupLat, *pickupLng, *c.CurrentLat, *c.CurrentLng)
}

func proximityScore(distanceKm float64) float64 {
	if distanceKm < 1 {
		return maxProximity
	}
	return maxProximity / distanceKm
}

func candidateScore(c domain.CandidateDriver, distanceKm float64) float64 {
	rating := float64(ratingDefault)
	if c.Rating != nil {
		rating = *c.Rating
	}
	return float64(c.LinkPriority)*weightPriority + rating*weightRating + proximityScore(distanceKm)
}

// pickCandidate filters the pool to available active drivers within range and
// returns the highest-scoring survivor. Ties go to the first encountered
// (strict > comparison). A non-empty reason means nobody was picked.
func pickCandidate(pickupLat, pickupLng *float64, pool []domain.CandidateDriver, maxDistanceKm float64) (*scoredCandidate, string) {
	eligible := pool[:0:0]
	for _, c := range pool {
		if c.IsAvailable && c.Status == domain.DriverStatusActive {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return nil, "No available drivers"
	}

	var best *scoredCandidate
	inRange := false
	for _, c := range eligible {
		d := candidateDistance(pickupLat, pickupLng, c)
		if d > maxDistanceKm {
			continue
		}
		inRange = true
		score := candidateScore(c, d)
		if best == nil || score > best.Score {
			best = &scoredCandidate{Driver: c, DistanceKm: d, Score: score}
		}
	}
	if !inRange {
		return nil, "No drivers within range"
	}
	return best, ""
}

// round2 rounds to 2 decimals for the reported score.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
