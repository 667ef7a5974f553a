package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// AlertEvent is raised when the tracked vehicle enters a hotspot.
type AlertEvent struct {
	ID             string    `json:"id"`
	Message        string    `json:"message"`
	Tier           AlertTier `json:"tier"`
	RoadName       string    `json:"road_name"`
	HotspotIndex   int       `json:"hotspot_index"`
	Hotspot        Position  `json:"hotspot"`
	RadiusMeters   float64   `json:"radius_m"`
	Position       Position  `json:"position"`
	DistanceMeters float64   `json:"distance_m"`
	VehicleID      string    `json:"vehicle_id,omitempty"`
	RaisedAt       time.Time `json:"raised_at"`
}

// Monitor tracks one vehicle against a hotspot snapshot. Each hotspot latches
// on entry and unlatches on exit, so an alert fires once per continuous stay.
// Load and Update are serialized; a position is never evaluated against a
// partially swapped snapshot. Use a [Fleet] when positions come from more than
// one vehicle.
type Monitor struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	hotspots []Hotspot
}

// NewMonitor returns a monitor with an empty registry. clock stamps
// AlertEvent.RaisedAt; nil uses the real clock.
func NewMonitor(clock clockwork.Clock) *Monitor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Monitor{clock: clock, hotspots: []Hotspot{}}
}

// Load replaces the registry. Every latch starts cleared, even when the
// vehicle is already inside a zone; the next Update decides.
func (m *Monitor) Load(hotspots []Hotspot) {
	next := clearedCopy(hotspots)

	m.mu.Lock()
	m.hotspots = next
	m.mu.Unlock()
}

// Reload builds a fresh registry from segments and loads it.
func (m *Monitor) Reload(segments []IncidentSegment) {
	m.Load(BuildHotspots(segments))
}

// Update evaluates pos against every hotspot and returns one event per newly
// entered hotspot, in registry order. Exits clear the latch without an event.
func (m *Monitor) Update(pos Position) []AlertEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	var events []AlertEvent
	for i := range m.hotspots {
		h := &m.hotspots[i]
		inside, d := h.Contains(pos)
		switch {
		case inside && !h.Alerted:
			h.Alerted = true
			events = append(events, AlertEvent{
				ID:             uuid.NewString(),
				Message:        h.Tier.BannerMessage(h.RoadName),
				Tier:           h.Tier,
				RoadName:       h.RoadName,
				HotspotIndex:   i,
				Hotspot:        h.Position,
				RadiusMeters:   h.RadiusMeters,
				Position:       pos,
				DistanceMeters: d,
				RaisedAt:       m.clock.Now().UTC(),
			})
		case !inside && h.Alerted:
			h.Alerted = false
		}
	}
	return events
}

// Hotspots returns a copy of the current registry including latch state.
func (m *Monitor) Hotspots() []Hotspot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Hotspot, len(m.hotspots))
	copy(out, m.hotspots)
	return out
}

// Len returns the number of hotspots in the registry.
func (m *Monitor) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hotspots)
}

// clearedCopy copies hotspots with every latch cleared.
func clearedCopy(hotspots []Hotspot) []Hotspot {
	out := make([]Hotspot, len(hotspots))
	copy(out, hotspots)
	for i := range out {
		out[i].Alerted = false
	}
	return out
}
