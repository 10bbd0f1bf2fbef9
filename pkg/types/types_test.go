package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHealthyWithinBounds(t *testing.T) {
	tel := WorkerTelemetry{Thermal: 50, CPULoad: 40}
	assert.True(t, tel.IsHealthy())
}

func TestIsHealthyThermalAtBoundaryIsUnhealthy(t *testing.T) {
	tel := WorkerTelemetry{Thermal: 90, CPULoad: 40}
	assert.False(t, tel.IsHealthy())
}

func TestIsHealthyCPULoadAtBoundaryIsUnhealthy(t *testing.T) {
	tel := WorkerTelemetry{Thermal: 50, CPULoad: 98}
	assert.False(t, tel.IsHealthy())
}

func TestIsHealthyJustUnderBoundsIsHealthy(t *testing.T) {
	tel := WorkerTelemetry{Thermal: 89.9, CPULoad: 97.9}
	assert.True(t, tel.IsHealthy())
}

func TestIsHealthyBothOverBoundsIsUnhealthy(t *testing.T) {
	tel := WorkerTelemetry{Thermal: 120, CPULoad: 100}
	assert.False(t, tel.IsHealthy())
}
