package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackendAcceptsEveryListedName(t *testing.T) {
	names := BackendNames()
	assert.Len(t, names, 9)
	assert.IsIncreasing(t, names)
	for _, name := range names {
		_, err := ParseBackend(name)
		assert.NoError(t, err, name)
	}

	b, err := ParseBackend("  HOLT ")
	require.NoError(t, err)
	assert.Equal(t, BackendExponentialSmoothing, b)

	_, err = ParseBackend("lstm")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestForecastQueryHorizon(t *testing.T) {
	assert.Equal(t, DefaultHorizonWeeks, (&ForecastQuery{}).HorizonWeeks())

	zero := 0
	assert.Equal(t, 0, (&ForecastQuery{Horizon: &zero}).HorizonWeeks())
}
