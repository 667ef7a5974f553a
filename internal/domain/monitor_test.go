package domain

import (
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRoad = "Test Rd"

// eastOfOrigin returns a point on the equator the given distance east of (0,0).
func eastOfOrigin(meters float64) Position {
	return Position{Lat: 0, Lon: meters / EarthRadiusMeters * 180 / math.Pi}
}

func originHotspot(radius float64, tier AlertTier) Hotspot {
	return Hotspot{
		Position:     Position{Lat: 0, Lon: 0},
		RadiusMeters: radius,
		RoadName:     testRoad,
		Tier:         tier,
	}
}

func newLoadedMonitor(hotspots ...Hotspot) *Monitor {
	m := NewMonitor(nil)
	m.Load(hotspots)
	return m
}

func TestMonitor_EnterExitSequence(t *testing.T) {
	m := newLoadedMonitor(originHotspot(1000, AlertTierHigh))

	distances := []float64{2000, 500, 2000, 500}
	counts := make([]int, len(distances))
	for i, d := range distances {
		counts[i] = len(m.Update(eastOfOrigin(d)))
	}

	assert.Equal(t, []int{0, 1, 0, 1}, counts)
}

func TestMonitor_LatchSuppressesWhileInside(t *testing.T) {
	m := newLoadedMonitor(originHotspot(1000, AlertTierHigh))

	require.Len(t, m.Update(eastOfOrigin(900)), 1)
	assert.Empty(t, m.Update(eastOfOrigin(800)))
	assert.Empty(t, m.Update(eastOfOrigin(10)))
	assert.True(t, m.Hotspots()[0].Alerted)
}

func TestMonitor_ReentryFiresAgain(t *testing.T) {
	m := newLoadedMonitor(originHotspot(1000, AlertTierExtreme))

	first := m.Update(eastOfOrigin(100))
	require.Len(t, first, 1)
	assert.Empty(t, m.Update(eastOfOrigin(1500)))
	assert.False(t, m.Hotspots()[0].Alerted)

	second := m.Update(eastOfOrigin(100))
	require.Len(t, second, 1)
	assert.NotEqual(t, first[0].ID, second[0].ID)
}

func TestMonitor_BoundaryIsOutside(t *testing.T) {
	h := originHotspot(1000, AlertTierHigh)
	p := eastOfOrigin(1000)
	h.RadiusMeters = Distance(h.Position, p)

	m := newLoadedMonitor(h)
	assert.Empty(t, m.Update(p), "d == radius must not enter")

	require.Len(t, m.Update(eastOfOrigin(10)), 1)
	assert.Empty(t, m.Update(p), "d == radius exits silently")
	assert.False(t, m.Hotspots()[0].Alerted)
}

func TestMonitor_EventContent(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.May, 1, 6, 30, 0, 0, time.UTC))
	m := NewMonitor(fakeClock)
	m.Load([]Hotspot{originHotspot(1000, AlertTierExtreme)})
	events := m.Update(eastOfOrigin(250))
	require.Len(t, events, 1)

	e := events[0]
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "⚠ EXTREME wildlife collision risk ahead on Test Rd. Slow down immediately.", e.Message)
	assert.Equal(t, AlertTierExtreme, e.Tier)
	assert.Equal(t, testRoad, e.RoadName)
	assert.Equal(t, 0, e.HotspotIndex)
	assert.Equal(t, 1000.0, e.RadiusMeters)
	assert.InDelta(t, 250, e.DistanceMeters, 1e-6)
	assert.Equal(t, fakeClock.Now(), e.RaisedAt)
}

func TestMonitor_MultipleZonesInRegistryOrder(t *testing.T) {
	a := originHotspot(1000, AlertTierHigh)
	a.RoadName = "A Rd"
	b := originHotspot(2000, AlertTierExtreme)
	b.RoadName = "B Rd"
	c := originHotspot(100, AlertTierHigh)
	c.RoadName = "C Rd"

	m := newLoadedMonitor(a, b, c)
	events := m.Update(eastOfOrigin(500))
	require.Len(t, events, 2)
	assert.Equal(t, "A Rd", events[0].RoadName)
	assert.Equal(t, 0, events[0].HotspotIndex)
	assert.Equal(t, "B Rd", events[1].RoadName)
	assert.Equal(t, 1, events[1].HotspotIndex)

	// Leaving A only; B stays latched, C was never entered.
	assert.Empty(t, m.Update(eastOfOrigin(1500)))
	hs := m.Hotspots()
	assert.False(t, hs[0].Alerted)
	assert.True(t, hs[1].Alerted)
	assert.False(t, hs[2].Alerted)
}

func TestMonitor_LoadResetsLatches(t *testing.T) {
	h := originHotspot(1000, AlertTierHigh)
	m := newLoadedMonitor(h)
	require.Len(t, m.Update(eastOfOrigin(100)), 1)
	require.True(t, m.Hotspots()[0].Alerted)

	// Reload while the vehicle is still inside: latch is cleared and nothing
	// fires until the next update, which then fires.
	m.Load([]Hotspot{h})
	assert.False(t, m.Hotspots()[0].Alerted)
	assert.Len(t, m.Update(eastOfOrigin(100)), 1)
}

func TestMonitor_LoadIgnoresIncomingAlertedFlag(t *testing.T) {
	h := originHotspot(1000, AlertTierHigh)
	h.Alerted = true

	m := newLoadedMonitor(h)
	assert.False(t, m.Hotspots()[0].Alerted)
	assert.Len(t, m.Update(eastOfOrigin(100)), 1)
}

func TestMonitor_EmptyRegistry(t *testing.T) {
	m := NewMonitor(nil)
	assert.Empty(t, m.Update(eastOfOrigin(0)))
	assert.Equal(t, 0, m.Len())

	m.Reload(nil)
	assert.Empty(t, m.Update(eastOfOrigin(0)))
	assert.NotNil(t, m.Hotspots())
}

func TestMonitor_ReloadFromSegments(t *testing.T) {
	m := NewMonitor(nil)
	m.Reload([]IncidentSegment{
		{StartLat: 0, StartLon: 0, RoadName: "Seg Rd", TotalEvents: 100, DangerCategory: "Extreme"},
	})
	require.Equal(t, 1, m.Len())

	assert.Empty(t, m.Update(eastOfOrigin(801)))
	events := m.Update(eastOfOrigin(799))
	require.Len(t, events, 1)
	assert.Equal(t, AlertTierExtreme, events[0].Tier)
}

func TestMonitor_HotspotsReturnsCopy(t *testing.T) {
	m := newLoadedMonitor(originHotspot(1000, AlertTierHigh))
	hs := m.Hotspots()
	hs[0].Alerted = true
	hs[0].RadiusMeters = 1

	fresh := m.Hotspots()
	assert.False(t, fresh[0].Alerted)
	assert.Equal(t, 1000.0, fresh[0].RadiusMeters)
}

func TestMonitor_IndependentInstances(t *testing.T) {
	h := originHotspot(1000, AlertTierHigh)
	m1 := newLoadedMonitor(h)
	m2 := newLoadedMonitor(h)

	require.Len(t, m1.Update(eastOfOrigin(100)), 1)
	assert.False(t, m2.Hotspots()[0].Alerted)
	assert.Len(t, m2.Update(eastOfOrigin(100)), 1)
}

func TestMonitor_ClocksAreIndependent(t *testing.T) {
	early := clockwork.NewFakeClockAt(time.Date(2024, time.May, 1, 6, 0, 0, 0, time.UTC))
	late := clockwork.NewFakeClockAt(time.Date(2024, time.May, 1, 18, 0, 0, 0, time.UTC))

	a := NewMonitor(early)
	b := NewMonitor(late)
	a.Load([]Hotspot{originHotspot(1000, AlertTierHigh)})
	b.Load([]Hotspot{originHotspot(1000, AlertTierHigh)})

	ea := a.Update(eastOfOrigin(100))
	eb := b.Update(eastOfOrigin(100))
	require.Len(t, ea, 1)
	require.Len(t, eb, 1)
	assert.Equal(t, early.Now(), ea[0].RaisedAt)
	assert.Equal(t, late.Now(), eb[0].RaisedAt)
}
