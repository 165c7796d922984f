package costmodel

import (
	"strings"

	planerrors "trip-planner/pkg/errors"
)

// Profile is a spending tier.
type Profile string

const (
	Economic Profile = "economic"
	Balanced Profile = "balanced"
	Premium  Profile = "premium"
)

// Profiles in ascending cost order.
var Profiles = []Profile{Economic, Balanced, Premium}

// ParseProfile accepts the English names and the Portuguese wire names
// (econômico, equilibrado, premium). Empty input means balanced.
func ParseProfile(s string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "economic", "econômico", "economico":
		return Economic, nil
	case "", "balanced", "equilibrado":
		return Balanced, nil
	case "premium":
		return Premium, nil
	}
	return "", planerrors.NewInvalidProfileError(s)
}

// Valid reports whether p is one of the known tiers.
func (p Profile) Valid() bool {
	return p.Rank() >= 0
}

// Rank is the position in Profiles, or -1.
func (p Profile) Rank() int {
	for i, q := range Profiles {
		if q == p {
			return i
		}
	}
	return -1
}

// Downgrade returns the next cheaper tier. ok is false at the floor.
func (p Profile) Downgrade() (next Profile, ok bool) {
	r := p.Rank()
	if r <= 0 {
		return p, false
	}
	return Profiles[r-1], true
}

// Portuguese returns the wire label used in plan responses.
func (p Profile) Portuguese() string {
	switch p {
	case Economic:
		return "econômico"
	case Balanced:
		return "equilibrado"
	default:
		return string(p)
	}
}
