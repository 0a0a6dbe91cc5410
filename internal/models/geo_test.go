package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineMeters(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0, HaversineMeters(52.52, 13.405, 52.52, 13.405), 1e-6)
	// one degree of latitude is roughly 111.2 km
	assert.InDelta(t, 111195, HaversineMeters(0, 0, 1, 0), 100)
}

func TestBoundingBoxAround(t *testing.T) {
	t.Parallel()

	box := BoundingBoxAround(52.52, 13.405, 500)
	assert.Less(t, box.MinLat, 52.52)
	assert.Greater(t, box.MaxLat, 52.52)
	assert.Less(t, box.MinLon, 13.405)
	assert.Greater(t, box.MaxLon, 13.405)

	// every corner of the box is at least radius away along one axis
	assert.GreaterOrEqual(t, HaversineMeters(52.52, 13.405, box.MaxLat, 13.405), 499.0)
	assert.GreaterOrEqual(t, HaversineMeters(52.52, 13.405, 52.52, box.MaxLon), 499.0)

	pole := BoundingBoxAround(89.9999, 0, 500)
	assert.Equal(t, 90.0, pole.MaxLat)
	assert.Equal(t, -180.0, pole.MinLon)
}
