package kernel_test

import (
	"math"
	"testing"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeoPoint(t *testing.T) {
	t.Run("should accept boundary coordinates", func(t *testing.T) {
		for _, c := range [][2]float64{{-90, -180}, {90, 180}, {0, 0}} {
			p, err := kernel.NewGeoPoint(c[0], c[1])

			require.NoError(t, err)
			assert.NoError(t, p.Validate())
			assert.InDelta(t, c[0], p.Lat(), 0)
			assert.InDelta(t, c[1], p.Lon(), 0)
		}
	})

	t.Run("should reject out of range coordinates", func(t *testing.T) {
		cases := []struct {
			name     string
			lat, lon float64
		}{
			{"lat above", 90.0001, 0},
			{"lat below", -91, 0},
			{"lon above", 0, 180.5},
			{"lon below", 0, -181},
			{"lat nan", math.NaN(), 0},
			{"lon inf", 0, math.Inf(1)},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := kernel.NewGeoPoint(tc.lat, tc.lon)

				require.Error(t, err)
				assert.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
			})
		}
	})

	t.Run("should report both invalid coordinates", func(t *testing.T) {
		_, err := kernel.NewGeoPoint(100, 200)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "lat")
		assert.Contains(t, err.Error(), "lon")
	})

	t.Run("zero value should fail validation", func(t *testing.T) {
		var p kernel.GeoPoint

		assert.ErrorIs(t, p.Validate(), kernel.ErrGeoPointIsNotConstructed)
	})
}

func TestGeoPoint_DistanceKm(t *testing.T) {
	dubai := kernel.MustGeoPoint(25.2048, 55.2708)
	abuDhabi := kernel.MustGeoPoint(24.4539, 54.3773)

	t.Run("should match known city distance", func(t *testing.T) {
		assert.InDelta(t, 122.9, dubai.DistanceKm(abuDhabi), 1.0)
	})

	t.Run("should be symmetric", func(t *testing.T) {
		assert.InDelta(t, dubai.DistanceKm(abuDhabi), abuDhabi.DistanceKm(dubai), 1e-9)
	})

	t.Run("should be zero for the same point", func(t *testing.T) {
		assert.InDelta(t, 0, dubai.DistanceKm(dubai), 1e-9)
	})

	t.Run("one degree of latitude is about 111 km", func(t *testing.T) {
		a := kernel.MustGeoPoint(0, 0)
		b := kernel.MustGeoPoint(1, 0)

		assert.InDelta(t, 111.19, a.DistanceKm(b), 0.01)
	})

	t.Run("antipodal points should be half the circumference", func(t *testing.T) {
		a := kernel.MustGeoPoint(0, 0)
		b := kernel.MustGeoPoint(0, 180)

		assert.InDelta(t, math.Pi*kernel.EarthRadiusKm, a.DistanceKm(b), 1e-6)
	})
}

func TestGeoPoint_BoundingBox(t *testing.T) {
	t.Run("should contain points inside the radius", func(t *testing.T) {
		center := kernel.MustGeoPoint(25.2, 55.27)
		box := center.BoundingBox(5)

		near := kernel.MustGeoPoint(25.23, 55.29)
		far := kernel.MustGeoPoint(25.5, 55.27)

		require.Less(t, center.DistanceKm(near), 5.0)
		assert.True(t, box.Contains(center))
		assert.True(t, box.Contains(near))
		assert.False(t, box.Contains(far))
	})

	t.Run("should widen longitude near the antimeridian", func(t *testing.T) {
		box := kernel.MustGeoPoint(0, 179.99).BoundingBox(10)

		assert.InDelta(t, -180, box.MinLon, 0)
		assert.InDelta(t, 180, box.MaxLon, 0)
	})

	t.Run("should clamp latitude near the pole", func(t *testing.T) {
		box := kernel.MustGeoPoint(89.99, 10).BoundingBox(50)

		assert.InDelta(t, 90, box.MaxLat, 0)
		assert.InDelta(t, -180, box.MinLon, 0)
	})

	t.Run("should contain every point of the circle", func(t *testing.T) {
		cases := []struct {
			name     string
			lat, lon float64
			radiusKm float64
		}{
			{"equator", 0, 30, 500},
			{"subtropics", 33.5, 36.3, 5},
			{"mid latitude", 45, -73, 50},
			{"high latitude", 60, 10, 1000},
			{"southern high latitude", -62, 120, 800},
			{"arctic", 70, 25, 20},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				center := kernel.MustGeoPoint(tc.lat, tc.lon)
				box := center.BoundingBox(tc.radiusKm)

				for step := range 3600 {
					p := destination(center, float64(step)/10, tc.radiusKm*0.9999)
					require.LessOrEqual(t, center.DistanceKm(p), tc.radiusKm)
					require.True(t, box.Contains(p), "%s at %.3f km is outside %+v",
						p, center.DistanceKm(p), box)
				}
			})
		}
	})
}

// destination walks distanceKm from origin along the initial bearing in degrees.
func destination(origin kernel.GeoPoint, bearing, distanceKm float64) kernel.GeoPoint {
	rad := math.Pi / 180
	lat1 := origin.Lat() * rad
	lon1 := origin.Lon() * rad
	d := distanceKm / kernel.EarthRadiusKm
	theta := bearing * rad

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(theta))
	lon2 := lon1 + math.Atan2(math.Sin(theta)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))
	lon := math.Mod(lon2/rad+540, 360) - 180

	return kernel.MustGeoPoint(lat2/rad, lon)
}
