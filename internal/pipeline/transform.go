package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/wildlife-hotspot-service/internal/domain"
)

// PositionDecoder implements Decoder for the JSON position messages on the
// vehicle position topic.
type PositionDecoder struct {
	logger *slog.Logger
}

// NewDecoder creates a PositionDecoder.
func NewDecoder(logger *slog.Logger) *PositionDecoder {
	return &PositionDecoder{logger: logger}
}

func (d *PositionDecoder) Decode(_ context.Context, raw domain.RawEvent) (domain.PositionUpdate, error) {
	update, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.PositionUpdate{}, err
	}
	d.logger.Debug("position decoded",
		"vehicle_id", update.VehicleID,
		"position", update.Position.String(),
		"offset", raw.Offset,
	)
	return update, nil
}
