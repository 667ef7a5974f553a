package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/couchcryptid/wildlife-hotspot-service/internal/domain"
	"github.com/couchcryptid/wildlife-hotspot-service/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// segmentsQuery reads segment_stats, one row per road segment and
// time-of-day/species bucket. Empty filter arguments match every row.
const segmentsQuery = `
	SELECT start_lat, start_lon, road_name, total_events, killed, injured, danger_category
	FROM segment_stats
	WHERE ($1 = '' OR road_name = $1)
	  AND ($2 = '' OR time_of_day = $2)
	  AND ($3 = '' OR species = $3)
	ORDER BY id
`

type database interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

type scanner interface {
	Scan(dest ...any) error
}

// Source implements domain.SegmentSource over PostgreSQL.
type Source struct {
	db      database
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewSource creates a segment source backed by pool.
func NewSource(pool *pgxpool.Pool, logger *slog.Logger, metrics *observability.Metrics) *Source {
	return newSource(pool, logger, metrics)
}

func newSource(db database, logger *slog.Logger, metrics *observability.Metrics) *Source {
	return &Source{db: db, logger: logger, metrics: metrics}
}

// FetchSegments returns the rows matching filter in id order. Rows whose
// values cannot form a segment are logged and skipped.
func (s *Source) FetchSegments(ctx context.Context, filter domain.SegmentFilter) ([]domain.IncidentSegment, error) {
	rows, err := s.db.Query(ctx, segmentsQuery, queryArgs(filter)...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query segments: %w", err)
	}
	defer rows.Close()

	segments := []domain.IncidentSegment{}
	for row := 0; rows.Next(); row++ {
		seg, err := scanSegment(rows)
		if err != nil {
			s.logger.Warn("skipping unreadable segment row", "row", row, "error", err)
			s.metrics.SegmentsSkipped.Inc()
			continue
		}
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read segments: %w", err)
	}
	return segments, nil
}

// CheckReadiness pings the database.
func (s *Source) CheckReadiness(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

func queryArgs(filter domain.SegmentFilter) []any {
	return []any{filter.RoadName, filter.TimeOfDay, filter.Species}
}

// scanSegment reads one row into untyped values so a column of an unexpected
// type fails this row only. Coordinates must be numeric. NULL or negative
// counts become 0 and NULL text becomes empty, matching the JSON decoder.
func scanSegment(row scanner) (domain.IncidentSegment, error) {
	var lat, lon, road, total, killed, injured, category any
	if err := row.Scan(&lat, &lon, &road, &total, &killed, &injured, &category); err != nil {
		return domain.IncidentSegment{}, err
	}

	var seg domain.IncidentSegment
	var ok bool
	if seg.StartLat, ok = number(lat); !ok {
		return domain.IncidentSegment{}, fmt.Errorf("start_lat: unusable value %v", lat)
	}
	if seg.StartLon, ok = number(lon); !ok {
		return domain.IncidentSegment{}, fmt.Errorf("start_lon: unusable value %v", lon)
	}
	if seg.RoadName, ok = text(road); !ok {
		return domain.IncidentSegment{}, fmt.Errorf("road_name: unusable value %v", road)
	}
	if seg.DangerCategory, ok = text(category); !ok {
		return domain.IncidentSegment{}, fmt.Errorf("danger_category: unusable value %v", category)
	}
	for _, c := range []struct {
		name  string
		value any
		dest  *int
	}{
		{"total_events", total, &seg.TotalEvents},
		{"killed", killed, &seg.EventBreakdown.Killed},
		{"injured", injured, &seg.EventBreakdown.Injured},
	} {
		if *c.dest, ok = count(c.value); !ok {
			return domain.IncidentSegment{}, fmt.Errorf("%s: unusable value %v", c.name, c.value)
		}
	}
	return seg, nil
}

// number converts a decoded numeric column. NULL is not a number.
func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case int16:
		f = float64(n)
	case pgtype.Numeric:
		fv, err := n.Float64Value()
		if err != nil || !fv.Valid {
			return 0, false
		}
		f = fv.Float64
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func count(v any) (int, bool) {
	if v == nil {
		return 0, true
	}
	f, ok := number(v)
	if !ok {
		return 0, false
	}
	if f < 0 {
		return 0, true
	}
	return int(f), true
}

func text(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", true
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}
