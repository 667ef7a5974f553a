package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// rawSegment mirrors IncidentSegment with every field left undecoded so that a
// single malformed value degrades to its zero value instead of failing the record.
type rawSegment struct {
	StartLat       json.RawMessage `json:"start_lat"`
	StartLon       json.RawMessage `json:"start_lon"`
	RoadName       json.RawMessage `json:"road_name"`
	TotalEvents    json.RawMessage `json:"total_events"`
	EventBreakdown json.RawMessage `json:"event_breakdown"`
	DangerCategory json.RawMessage `json:"danger_category"`
}

type rawBreakdown struct {
	Killed  json.RawMessage `json:"killed"`
	Injured json.RawMessage `json:"injured"`
}

// segmentsEnvelope is the response shape of the hotspot API.
type segmentsEnvelope struct {
	Segments json.RawMessage `json:"segments"`
}

// DecodeSegments parses a JSON array of segments, or an object carrying the
// array under "segments". It returns the decoded segments in input order and
// the number of elements skipped because they were not JSON objects.
// An error is returned only when the payload itself is not a segment list.
func DecodeSegments(data []byte) ([]IncidentSegment, int, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var env segmentsEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, 0, fmt.Errorf("decode segments envelope: %w", err)
		}
		data = bytes.TrimSpace(env.Segments)
		if len(data) == 0 || bytes.Equal(data, []byte("null")) {
			return []IncidentSegment{}, 0, nil
		}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, 0, fmt.Errorf("decode segments: %w", err)
	}

	segments := make([]IncidentSegment, 0, len(elems))
	skipped := 0
	for _, elem := range elems {
		seg, ok := decodeSegment(elem)
		if !ok {
			skipped++
			continue
		}
		segments = append(segments, seg)
	}
	return segments, skipped, nil
}

func decodeSegment(elem json.RawMessage) (IncidentSegment, bool) {
	elem = bytes.TrimSpace(elem)
	if len(elem) == 0 || elem[0] != '{' {
		return IncidentSegment{}, false
	}
	var raw rawSegment
	if err := json.Unmarshal(elem, &raw); err != nil {
		return IncidentSegment{}, false
	}

	var bd rawBreakdown
	if b := bytes.TrimSpace(raw.EventBreakdown); len(b) > 0 && b[0] == '{' {
		// A broken breakdown object leaves both counts at zero.
		_ = json.Unmarshal(b, &bd)
	}

	return IncidentSegment{
		StartLat:    numberOrZero(raw.StartLat),
		StartLon:    numberOrZero(raw.StartLon),
		RoadName:    stringOrEmpty(raw.RoadName),
		TotalEvents: countOrZero(raw.TotalEvents),
		EventBreakdown: EventBreakdown{
			Killed:  countOrZero(bd.Killed),
			Injured: countOrZero(bd.Injured),
		},
		DangerCategory: stringOrEmpty(raw.DangerCategory),
	}, true
}

// numberOrZero accepts a JSON number or numeric string. Anything else,
// including NaN and infinities, yields 0.
func numberOrZero(raw json.RawMessage) float64 {
	v, ok := parseNumber(raw)
	if !ok {
		return 0
	}
	return v
}

func parseNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		v = parsed
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// countOrZero truncates to an integer and clamps negatives to 0.
func countOrZero(raw json.RawMessage) int {
	v := numberOrZero(raw)
	if v <= 0 {
		return 0
	}
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}

func stringOrEmpty(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// rawPosition is the wire form of a position message.
type rawPosition struct {
	VehicleID  string          `json:"vehicle_id"`
	Lat        json.RawMessage `json:"lat"`
	Lon        json.RawMessage `json:"lon"`
	ObservedAt string          `json:"observed_at"`
}

// DecodePosition parses a position message such as
// {"vehicle_id":"v1","lat":-33.9,"lon":151.1,"observed_at":"2024-05-01T10:00:00Z"}.
// Unlike segment counts, coordinates are required: (0,0) is a real place, so a
// missing or out-of-range coordinate is an error rather than a default.
func DecodePosition(data []byte) (PositionUpdate, error) {
	var raw rawPosition
	if err := json.Unmarshal(data, &raw); err != nil {
		return PositionUpdate{}, fmt.Errorf("decode position: %w", err)
	}

	lat, okLat := parseNumber(raw.Lat)
	lon, okLon := parseNumber(raw.Lon)
	if !okLat || !okLon {
		return PositionUpdate{}, errors.New("decode position: lat and lon are required")
	}
	pos := Position{Lat: lat, Lon: lon}
	if !pos.Valid() {
		return PositionUpdate{}, fmt.Errorf("decode position: coordinates out of range: %v", pos)
	}

	update := PositionUpdate{VehicleID: raw.VehicleID, Position: pos}
	if raw.ObservedAt != "" {
		if t, err := time.Parse(time.RFC3339, raw.ObservedAt); err == nil {
			update.ObservedAt = t.UTC()
		}
	}
	return update, nil
}
