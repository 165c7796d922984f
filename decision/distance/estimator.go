// Package distance estimates great-circle distance, travel time and a
// suggested transport mode between two points.
package distance

import (
	"math"

	"trip-planner/decision/geocode"
	planerrors "trip-planner/pkg/errors"
)

const earthRadiusKm = 6371.0

// Mode is a transport mode.
type Mode string

const (
	ModeFlight Mode = "flight"
	ModeGround Mode = "ground"
)

// Thresholds holds the mode selection and speed table.
type Thresholds struct {
	// FlightMinKm: above this distance flying is suggested.
	FlightMinKm float64 `yaml:"flight_min_km" json:"flight_min_km"`
	// GroundMaxKm: ground transport is only plausible up to this distance.
	GroundMaxKm    float64 `yaml:"ground_max_km" json:"ground_max_km"`
	FlightSpeedKmh float64 `yaml:"flight_speed_kmh" json:"flight_speed_kmh"`
	GroundSpeedKmh float64 `yaml:"ground_speed_kmh" json:"ground_speed_kmh"`
	// FlightOverheadHours is added to every flight (boarding, transfers).
	FlightOverheadHours float64 `yaml:"flight_overhead_hours" json:"flight_overhead_hours"`
}

// DefaultThresholds returns the standard table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FlightMinKm:    500,
		GroundMaxKm:    3500,
		FlightSpeedKmh: 700,
		GroundSpeedKmh: 80,
	}
}

// Estimate is the result of comparing two points.
type Estimate struct {
	DistanceKm    float64 `json:"distance_km"`
	DurationHours float64 `json:"duration_hours"`
	Mode          Mode    `json:"mode"`
}

// Estimator is stateless and safe for concurrent use.
type Estimator struct {
	t Thresholds
}

func NewEstimator(t Thresholds) *Estimator {
	return &Estimator{t: t}
}

func (e *Estimator) Thresholds() Thresholds { return e.t }

// Estimate returns the great-circle distance between a and b, the suggested
// mode and the travel time in that mode.
func (e *Estimator) Estimate(a, b geocode.GeoPoint) (Estimate, error) {
	km, err := Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
	if err != nil {
		return Estimate{}, err
	}
	mode := ModeGround
	if km > e.t.FlightMinKm {
		mode = ModeFlight
	}
	return Estimate{DistanceKm: km, DurationHours: e.ForMode(km, mode), Mode: mode}, nil
}

// ForMode returns the travel time for km in the given mode.
func (e *Estimator) ForMode(km float64, mode Mode) float64 {
	if mode == ModeFlight {
		return km/e.t.FlightSpeedKmh + e.t.FlightOverheadHours
	}
	return km / e.t.GroundSpeedKmh
}

// GroundPlausible reports whether ground transport is a realistic
// replacement for a flight over km.
func (e *Estimator) GroundPlausible(km float64) bool {
	return km <= e.t.GroundMaxKm
}

// Haversine returns the great-circle distance in km.
func Haversine(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if !validCoordinate(lat1, lon1) {
		return 0, planerrors.NewInvalidCoordinateError(lat1, lon1)
	}
	if !validCoordinate(lat2, lon2) {
		return 0, planerrors.NewInvalidCoordinateError(lat2, lon2)
	}

	p1, p2 := radians(lat1), radians(lat2)
	dp := radians(lat2 - lat1)
	dl := radians(lon2 - lon1)
	x := math.Sin(dp/2)*math.Sin(dp/2) + math.Cos(p1)*math.Cos(p2)*math.Sin(dl/2)*math.Sin(dl/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(x), math.Sqrt(1-x)), nil
}

func validCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
