package services

import (
	"cmp"
	"math"
	"slices"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// MatchQuery describes where and for what a courier is needed.
type MatchQuery struct {
	// Origin is the pickup point, usually the restaurant.
	Origin kernel.GeoPoint
	// RadiusKm is inclusive: a courier exactly RadiusKm away qualifies.
	RadiusKm float64
	// OnlyAvailable skips couriers that reported themselves unavailable.
	OnlyAvailable bool
	// CODRequiredAmount, when present, keeps only couriers that accept cash on
	// delivery and can still take on this much cash.
	CODRequiredAmount kernel.Optional[decimal.Decimal]
}

// CandidateCourier is a courier that passed every filter, with its distance to the origin.
type CandidateCourier struct {
	Courier    *courier.Courier
	DistanceKm float64
}

// GeoMatcher is a domain service that ranks couriers around a point.
//
// Key responsibilities:
//   - Filtering a courier snapshot by great-circle distance, availability and cash capacity
//   - Ranking the remaining couriers deterministically
//
// Business rules:
//   - Distance is haversine over a 6371 km Earth radius
//   - Ranking is distance ascending, then active order count ascending,
//     then freshest location first
//   - No match is an empty result, not an error
//   - Couriers are never mutated
//
// Example usage:
//
//	matcher := services.NewGeoMatcher()
//	candidates, err := matcher.FindCandidates(snapshot, services.MatchQuery{
//	    Origin:            o.RestaurantLocation(),
//	    RadiusKm:          5,
//	    OnlyAvailable:     true,
//	    CODRequiredAmount: o.CODRequirement(),
//	})
//	if err != nil {
//	    return err
//	}
//	if len(candidates) == 0 {
//	    // nobody nearby, the caller decides what that means
//	}
type GeoMatcher struct{}

func NewGeoMatcher() GeoMatcher {
	return GeoMatcher{}
}

// FindCandidates filters and ranks couriers for query.
//
// Returns:
//   - []CandidateCourier: qualifying couriers, best first; empty when none qualify
//   - error: validation error for a malformed query or an unconstructed courier
func (g GeoMatcher) FindCandidates(couriers []*courier.Courier, query MatchQuery) ([]CandidateCourier, error) {
	if err := query.validate(); err != nil {
		return nil, err
	}

	candidates := make([]CandidateCourier, 0, len(couriers))
	for _, c := range couriers {
		if err := c.Validate(); err != nil {
			return nil, err
		}

		if !g.qualifies(c, query) {
			continue
		}

		distance := query.Origin.DistanceKm(c.Location())
		if distance > query.RadiusKm {
			continue
		}

		candidates = append(candidates, CandidateCourier{Courier: c, DistanceKm: distance})
	}

	slices.SortStableFunc(candidates, compareCandidates)
	return candidates, nil
}

func (g GeoMatcher) qualifies(c *courier.Courier, query MatchQuery) bool {
	if query.OnlyAvailable && !c.IsAvailable() {
		return false
	}

	amount, ok := query.CODRequiredAmount.Get()
	if !ok {
		return true
	}
	return c.AcceptsCOD() && c.HasSufficientBalance(amount)
}

func compareCandidates(a, b CandidateCourier) int {
	if byDistance := cmp.Compare(a.DistanceKm, b.DistanceKm); byDistance != 0 {
		return byDistance
	}
	if byLoad := cmp.Compare(a.Courier.ActiveOrderCount(), b.Courier.ActiveOrderCount()); byLoad != 0 {
		return byLoad
	}
	// freshest location first
	return b.Courier.LocationUpdatedAt().Compare(a.Courier.LocationUpdatedAt())
}

func (q MatchQuery) validate() error {
	if err := q.Origin.Validate(); err != nil {
		return err
	}
	if math.IsNaN(q.RadiusKm) || q.RadiusKm < 0 {
		return errs.NewValueIsOutOfRangeError("radiusKm", q.RadiusKm, 0, "unbounded")
	}
	if amount, ok := q.CODRequiredAmount.Get(); ok && amount.IsNegative() {
		return errs.NewValueIsOutOfRangeError("codRequiredAmount", amount.String(), 0, "unbounded")
	}
	return nil
}
