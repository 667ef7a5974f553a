package domain

import (
	"sync"

	"github.com/jonboulle/clockwork"
)

// Fleet routes each vehicle's positions to its own Monitor. All monitors share
// the snapshot given to Load; a vehicle seen for the first time starts with
// every latch cleared. An empty vehicle ID is a vehicle like any other.
type Fleet struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	hotspots []Hotspot
	vehicles map[string]*Monitor
}

// NewFleet returns a fleet with an empty registry and no vehicles. nil clock
// uses the real clock.
func NewFleet(clock clockwork.Clock) *Fleet {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Fleet{
		clock:    clock,
		hotspots: []Hotspot{},
		vehicles: make(map[string]*Monitor),
	}
}

// Load swaps the snapshot for every vehicle at once and clears all latches.
func (f *Fleet) Load(hotspots []Hotspot) {
	next := clearedCopy(hotspots)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.hotspots = next
	for _, m := range f.vehicles {
		m.Load(next)
	}
}

// Reload builds a fresh registry from segments and loads it.
func (f *Fleet) Reload(segments []IncidentSegment) {
	f.Load(BuildHotspots(segments))
}

// Update evaluates pos for vehicleID only and stamps the vehicle on every
// event. Updates are serialized across the fleet in arrival order.
func (f *Fleet) Update(vehicleID string, pos Position) []AlertEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.vehicles[vehicleID]
	if !ok {
		m = NewMonitor(f.clock)
		m.Load(f.hotspots)
		f.vehicles[vehicleID] = m
	}

	events := m.Update(pos)
	for i := range events {
		events[i].VehicleID = vehicleID
	}
	return events
}

// Hotspots returns a copy of the shared registry. Latches are per vehicle, so
// Alerted is always false here; see VehicleHotspots.
func (f *Fleet) Hotspots() []Hotspot {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Hotspot, len(f.hotspots))
	copy(out, f.hotspots)
	return out
}

// VehicleHotspots returns the registry with vehicleID's latch state, or false
// if no position has been seen for that vehicle.
func (f *Fleet) VehicleHotspots(vehicleID string) ([]Hotspot, bool) {
	f.mu.Lock()
	m, ok := f.vehicles[vehicleID]
	f.mu.Unlock()
	if !ok {
		return nil, false
	}
	return m.Hotspots(), true
}

// Len returns the number of hotspots in the registry.
func (f *Fleet) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.hotspots)
}

// Vehicles returns how many vehicles have reported a position.
func (f *Fleet) Vehicles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.vehicles)
}
