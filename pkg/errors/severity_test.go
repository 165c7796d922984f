package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanErrorMessage(t *testing.T) {
	err := NewGeocodeFailedError("Atlantis", nil)
	assert.Equal(t, "[fatal] GEOCODE_FAILED: Could not resolve location: Atlantis (subject: Atlantis)", err.Error())

	err = NewInvalidCoordinateError(91, 0)
	assert.Equal(t, "[error] INVALID_COORDINATE: Coordinate out of range: (91, 0)", err.Error())
}

func TestIsFollowsWrapChain(t *testing.T) {
	cause := stderrors.New("timeout")
	err := fmt.Errorf("resolve destination: %w", NewGeocodeFailedError("Atlantis", cause))

	assert.True(t, Is(err, ErrCodeGeocodeFailed))
	assert.False(t, Is(err, ErrCodeInvalidProfile))
	assert.Equal(t, ErrCodeGeocodeFailed, Code(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "", Code(cause))
}

func TestRecoverableFlags(t *testing.T) {
	assert.True(t, NewNarrativeFailedError("2025-01-01", nil).Recoverable)
	assert.True(t, NewCeilingNotMetError("970.00", "500.00").Recoverable)
	assert.False(t, NewInvalidProfileError("luxo").Recoverable)
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "unknown", Severity(42).String())
}
