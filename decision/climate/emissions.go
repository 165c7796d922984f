package climate

import "trip-planner/decision/distance"

// Passenger intensity in gCO2e per passenger-km (approximate, 2023 factors).
var modeIntensity = map[distance.Mode]float64{
	distance.ModeFlight: 150.0, // medium/long haul economy
	distance.ModeGround: 27.0,  // intercity coach
}

const (
	shortHaulKm        = 1000.0
	shortHaulIntensity = 245.0 // take-off and landing dominate short flights
	defaultIntensity   = 100.0
)

// Intensity returns gCO2e per passenger-km for a leg.
func Intensity(mode distance.Mode, km float64) float64 {
	if mode == distance.ModeFlight && km < shortHaulKm {
		return shortHaulIntensity
	}
	if v, ok := modeIntensity[mode]; ok {
		return v
	}
	return defaultIntensity
}

// LegKgCO2e returns the estimated emissions of one leg for all travelers.
func LegKgCO2e(mode distance.Mode, km float64, travelers int) float64 {
	return Intensity(mode, km) * km * float64(travelers) / 1000.0
}
