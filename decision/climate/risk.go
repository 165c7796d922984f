// Package climate provides static climate-risk and transport-emission
// heuristics for a destination.
package climate

import (
	"math"
	"time"
)

// Level grades climate risk.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Risk is the climate label for a trip.
type Risk struct {
	Level Level  `json:"level"`
	Label string `json:"label"`
}

const tropicLat = 23.44

// humidTropics are destinations with year-round heat and heavy rain.
var humidTropics = map[string]bool{
	"manaus": true,
	"belem":  true,
}

// Assess grades the trip from the destination catalog key, its latitude and
// the month of departure. Amazon destinations are never low risk and peak
// during the southern rainy season; elsewhere inside the tropics the
// hemisphere's rainy season raises risk to medium.
func Assess(key string, lat float64, month time.Month) Risk {
	rainy := rainySeason(lat, month)

	if humidTropics[key] {
		if rainy {
			return Risk{Level: LevelHigh, Label: "High (tropical rainy season, heavy rain and humid heat)"}
		}
		return Risk{Level: LevelMedium, Label: "Medium (tropical rain / humid heat)"}
	}
	if math.Abs(lat) <= tropicLat && rainy {
		return Risk{Level: LevelMedium, Label: "Medium (rainy season in the tropics)"}
	}
	return Risk{Level: LevelLow, Label: "Low"}
}

// rainySeason approximates the tropical wet season: December to May south
// of the equator, June to November north of it.
func rainySeason(lat float64, m time.Month) bool {
	southWet := m >= time.December || m <= time.May
	if lat < 0 {
		return southWet
	}
	return !southWet
}
