// Package services contains stateless domain services that work across
// aggregates: GeoMatcher ranks couriers around a pickup point and
// FeeCalculator prices a delivery from its distance and order amount.
//
// Both are pure. They receive everything they need as arguments and never
// touch storage, which keeps them deterministic under concurrent use.
package services
