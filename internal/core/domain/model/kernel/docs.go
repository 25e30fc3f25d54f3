// Package kernel holds the value objects shared by every aggregate of the
// dispatch domain: identifiers (UUID), WGS-84 coordinates with great-circle
// distance (GeoPoint) and an explicit optional value (Optional).
//
// Values are immutable. GeoPoint zero values fail Validate, so aggregates
// can tell a missing location from a constructed one.
package kernel
