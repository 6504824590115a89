package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeUnitsHourlyAccruesFractionalUnits(t *testing.T) {
	units, amount := ComputeUnits(6000, RateUnitHour, 90)

	assert.InDelta(t, 1.5, units, 1e-9)
	assert.Equal(t, int64(9000), amount)
}

func TestComputeUnitsHourlyRoundsToNearestCent(t *testing.T) {
	// 50 minutes at 10.00/h = 8.333... -> 8.33
	units, amount := ComputeUnits(1000, RateUnitHour, 50)

	assert.InDelta(t, 50.0/60.0, units, 1e-9)
	assert.Equal(t, int64(833), amount)
}

func TestComputeUnitsFlatUnitsPayPerSession(t *testing.T) {
	for _, unit := range []RateUnit{RateUnitSession, RateUnitDay, RateUnitWeek, RateUnitMonth} {
		units, amount := ComputeUnits(5000, unit, 45)
		assert.Equal(t, 1.0, units, "unit %s", unit)
		assert.Equal(t, int64(5000), amount, "unit %s", unit)
	}
}

func TestComputeUnitsNonPositiveRateYieldsZero(t *testing.T) {
	units, amount := ComputeUnits(0, RateUnitHour, 60)
	assert.Zero(t, units)
	assert.Zero(t, amount)

	units, amount = ComputeUnits(-100, RateUnitSession, 60)
	assert.Zero(t, units)
	assert.Zero(t, amount)
}
