package domain

// Hotspot is a circular danger zone around a segment start point.
// Everything except Alerted is fixed when the hotspot is built.
type Hotspot struct {
	Position       Position       `json:"position"`
	RadiusMeters   float64        `json:"radius_m"`
	RoadName       string         `json:"road_name"`
	Tier           AlertTier      `json:"alert_tier"`
	Classification Classification `json:"classification"`
	TotalEvents    int            `json:"total_events"`
	EventBreakdown EventBreakdown `json:"event_breakdown"`

	// Alerted is true iff the last position seen by the owning Monitor was
	// strictly inside RadiusMeters.
	Alerted bool `json:"alerted"`
}

// Contains reports whether p lies strictly inside the hotspot, along with the
// distance to its centre.
func (h Hotspot) Contains(p Position) (bool, float64) {
	d := Distance(h.Position, p)
	return d < h.RadiusMeters, d
}

// BuildHotspot derives a single hotspot with its latch cleared.
func BuildHotspot(seg IncidentSegment) Hotspot {
	c := Classify(seg.EventBreakdown, seg.DangerCategory)
	return Hotspot{
		Position:       seg.Position(),
		RadiusMeters:   ComputeRadius(seg),
		RoadName:       seg.RoadName,
		Tier:           c.Alert,
		Classification: c,
		TotalEvents:    seg.TotalEvents,
		EventBreakdown: seg.EventBreakdown,
	}
}

// BuildHotspots derives one hotspot per segment in input order. The result is
// never nil, so an empty input yields an empty registry.
func BuildHotspots(segments []IncidentSegment) []Hotspot {
	hotspots := make([]Hotspot, len(segments))
	for i, seg := range segments {
		hotspots[i] = BuildHotspot(seg)
	}
	return hotspots
}
