package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the position topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// PositionUpdate is one observed position of the tracked vehicle.
type PositionUpdate struct {
	VehicleID  string    `json:"vehicle_id,omitempty"`
	Position   Position  `json:"position"`
	ObservedAt time.Time `json:"observed_at,omitempty"`
}

// ParseRawEvent decodes a position message. When the payload carries no
// observation time, the message timestamp is used and the key stands in for a
// missing vehicle ID.
func ParseRawEvent(raw RawEvent) (PositionUpdate, error) {
	update, err := DecodePosition(raw.Value)
	if err != nil {
		return PositionUpdate{}, err
	}
	if update.ObservedAt.IsZero() && !raw.Timestamp.IsZero() {
		update.ObservedAt = raw.Timestamp.UTC()
	}
	if update.VehicleID == "" && len(raw.Key) > 0 {
		update.VehicleID = string(raw.Key)
	}
	return update, nil
}
