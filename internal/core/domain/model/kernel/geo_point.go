package kernel

import (
	"errors"
	"fmt"
	"math"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

const (
	// EarthRadiusKm is the mean Earth radius used for great-circle distances.
	EarthRadiusKm = 6371.0

	LatitudeMin  = -90.0
	LatitudeMax  = 90.0
	LongitudeMin = -180.0
	LongitudeMax = 180.0
)

// ErrGeoPointIsNotConstructed is returned when a zero-value GeoPoint is used.
var ErrGeoPointIsNotConstructed = errs.NewValueIsRequiredError(
	"geo point must be created via NewGeoPoint")

// GeoPoint is an immutable WGS-84 coordinate in degrees.
// Latitude lies in [-90, 90] and longitude in [-180, 180], both inclusive.
//
// Example:
//
//	restaurant, err := kernel.NewGeoPoint(25.2048, 55.2708)
//	if err != nil {
//	    return err
//	}
//	km := restaurant.DistanceKm(customer)
type GeoPoint struct { //nolint:recvcheck //using for validation
	lat   float64
	lon   float64
	guard guard.ConstructorGuard
}

// NewGeoPoint validates both coordinates and returns the point.
// NaN and infinite values are rejected together with out-of-range ones.
func NewGeoPoint(lat, lon float64) (GeoPoint, error) {
	p := GeoPoint{guard: guard.NewConstructorGuard()}

	if err := errors.Join(p.setLat(lat), p.setLon(lon)); err != nil {
		return GeoPoint{}, err
	}

	return p, nil
}

// MustGeoPoint is NewGeoPoint for literals known to be valid. It panics otherwise.
func MustGeoPoint(lat, lon float64) GeoPoint {
	p, err := NewGeoPoint(lat, lon)
	if err != nil {
		panic(err)
	}
	return p
}

// Validate reports whether the point was built by a constructor.
func (p GeoPoint) Validate() error {
	return p.guard.Validate(ErrGeoPointIsNotConstructed)
}

func (p GeoPoint) Lat() float64 { return p.lat }

func (p GeoPoint) Lon() float64 { return p.lon }

// String implements fmt.Stringer as "GeoPoint(lat,lon)".
func (p GeoPoint) String() string {
	return fmt.Sprintf("GeoPoint(%.6f,%.6f)", p.lat, p.lon)
}

// IsEqual compares coordinates exactly.
func (p GeoPoint) IsEqual(other GeoPoint) bool {
	return p.lat == other.lat && p.lon == other.lon
}

// DistanceKm returns the great-circle (haversine) distance to other in kilometres.
//
// The result is symmetric, never negative and zero for identical points.
//
// Example:
//
//	dubai := kernel.MustGeoPoint(25.2048, 55.2708)
//	abuDhabi := kernel.MustGeoPoint(24.4539, 54.3773)
//	km := dubai.DistanceKm(abuDhabi) // ~122.9
func (p GeoPoint) DistanceKm(other GeoPoint) float64 {
	lat1 := toRadians(p.lat)
	lat2 := toRadians(other.lat)
	dLat := lat2 - lat1
	dLon := toRadians(other.lon - p.lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	// rounding can push a marginally above 1 for antipodal points
	a = math.Min(1, math.Max(0, a))

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}

// BoundingBox is a latitude/longitude rectangle used as a cheap storage prefilter.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains reports whether the point falls inside the box, edges included.
func (b BoundingBox) Contains(p GeoPoint) bool {
	return p.lat >= b.MinLat && p.lat <= b.MaxLat && p.lon >= b.MinLon && p.lon <= b.MaxLon
}

// BoundingBox returns a rectangle that contains every point within radiusKm.
// Near the poles or when the box would cross the antimeridian the longitude
// range widens to the full [-180, 180]. The box over-approximates the circle,
// so callers still have to check DistanceKm.
func (p GeoPoint) BoundingBox(radiusKm float64) BoundingBox {
	if radiusKm < 0 {
		radiusKm = 0
	}

	angular := radiusKm / EarthRadiusKm
	dLat := angular * 180 / math.Pi
	box := BoundingBox{
		MinLat: math.Max(LatitudeMin, p.lat-dLat),
		MaxLat: math.Min(LatitudeMax, p.lat+dLat),
		MinLon: LongitudeMin,
		MaxLon: LongitudeMax,
	}

	cosLat := math.Cos(toRadians(p.lat))
	if box.MinLat == LatitudeMin || box.MaxLat == LatitudeMax || cosLat < 1e-9 {
		return box
	}

	// widest longitude offset reached by the circle, at the tangent meridians
	ratio := math.Sin(angular) / cosLat
	if ratio >= 1 {
		return box
	}
	dLon := math.Asin(ratio) * 180 / math.Pi
	if p.lon-dLon < LongitudeMin || p.lon+dLon > LongitudeMax {
		return box
	}

	box.MinLon = p.lon - dLon
	box.MaxLon = p.lon + dLon
	return box
}

func (p *GeoPoint) setLat(lat float64) error {
	if math.IsNaN(lat) || lat < LatitudeMin || lat > LatitudeMax {
		return errs.NewValueIsOutOfRangeError("lat", lat, LatitudeMin, LatitudeMax)
	}
	p.lat = lat
	return nil
}

func (p *GeoPoint) setLon(lon float64) error {
	if math.IsNaN(lon) || lon < LongitudeMin || lon > LongitudeMax {
		return errs.NewValueIsOutOfRangeError("lon", lon, LongitudeMin, LongitudeMax)
	}
	p.lon = lon
	return nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
