package domain

import "context"

// EventBreakdown splits a segment's incidents by outcome.
type EventBreakdown struct {
	Killed  int `json:"killed"`
	Injured int `json:"injured"`
}

// IncidentSegment is the per-road-segment statistic delivered by the source.
// Counts are never negative once decoded.
type IncidentSegment struct {
	StartLat       float64        `json:"start_lat"`
	StartLon       float64        `json:"start_lon"`
	RoadName       string         `json:"road_name"`
	TotalEvents    int            `json:"total_events"`
	EventBreakdown EventBreakdown `json:"event_breakdown"`
	DangerCategory string         `json:"danger_category"`
}

// Position returns the segment start as a coordinate.
func (s IncidentSegment) Position() Position {
	return Position{Lat: s.StartLat, Lon: s.StartLon}
}

// SegmentFilter narrows the segments a source returns. Empty fields are ignored.
type SegmentFilter struct {
	RoadName  string
	TimeOfDay string
	Species   string
}

// SegmentSource supplies the current incident segments.
type SegmentSource interface {
	FetchSegments(ctx context.Context, filter SegmentFilter) ([]IncidentSegment, error)
}
