package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/couchcryptid/wildlife-hotspot-service/internal/domain"
	"github.com/couchcryptid/wildlife-hotspot-service/internal/observability"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRow assigns values positionally into the *any destinations used by
// scanSegment. A nil value is SQL NULL.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("column count mismatch")
	}
	for i, v := range r.values {
		d, ok := dest[i].(*any)
		if !ok {
			return errors.New("unexpected destination type")
		}
		*d = v
	}
	return nil
}

// fakeRows serves fakeRow values through the pgx.Rows interface.
type fakeRows struct {
	rows []fakeRow
	next int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.next-1].values, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.next >= len(r.rows) {
		return false
	}
	r.next++
	return true
}

func (r *fakeRows) Scan(dest ...any) error { return r.rows[r.next-1].Scan(dest...) }

type fakeDB struct {
	rows    *fakeRows
	err     error
	pingErr error
	args    []any
}

func (db *fakeDB) Query(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
	db.args = args
	if db.err != nil {
		return nil, db.err
	}
	return db.rows, nil
}

func (db *fakeDB) Ping(_ context.Context) error { return db.pingErr }

func newTestSource(db *fakeDB) (*Source, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	return newSource(db, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics), metrics
}

func princesHwyRow() fakeRow {
	return fakeRow{values: []any{-34.0, 151.0, "Princes Hwy", int64(12), int64(2), int64(3), "Extreme"}}
}

func TestScanSegment(t *testing.T) {
	seg, err := scanSegment(princesHwyRow())
	require.NoError(t, err)

	want := domain.IncidentSegment{
		StartLat:       -34.0,
		StartLon:       151.0,
		RoadName:       "Princes Hwy",
		TotalEvents:    12,
		EventBreakdown: domain.EventBreakdown{Killed: 2, Injured: 3},
		DangerCategory: "Extreme",
	}
	if diff := cmp.Diff(want, seg); diff != "" {
		t.Fatalf("segment mismatch (-want +got):\n%s", diff)
	}
}

func TestScanSegment_NullsAndNegatives(t *testing.T) {
	seg, err := scanSegment(fakeRow{values: []any{
		-34.0, 151.0, nil, nil, int64(-4), nil, nil,
	}})
	require.NoError(t, err)
	assert.Empty(t, seg.RoadName)
	assert.Zero(t, seg.TotalEvents)
	assert.Zero(t, seg.EventBreakdown.Killed)
	assert.Zero(t, seg.EventBreakdown.Injured)
	assert.Empty(t, seg.DangerCategory)
}

func TestScanSegment_LenientNumbers(t *testing.T) {
	seg, err := scanSegment(fakeRow{values: []any{
		float32(-34.5), "151.25", []byte("Hume Hwy"), int32(7), "1", int16(2), "High",
	}})
	require.NoError(t, err)
	assert.InDelta(t, -34.5, seg.StartLat, 1e-9)
	assert.InDelta(t, 151.25, seg.StartLon, 1e-9)
	assert.Equal(t, "Hume Hwy", seg.RoadName)
	assert.Equal(t, 7, seg.TotalEvents)
	assert.Equal(t, domain.EventBreakdown{Killed: 1, Injured: 2}, seg.EventBreakdown)
}

func TestScanSegment_Unusable(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		column string
	}{
		{"null latitude", []any{nil, 151.0, "Rd", int64(1), nil, nil, "High"}, "start_lat"},
		{"text longitude", []any{-34.0, "east", "Rd", int64(1), nil, nil, "High"}, "start_lon"},
		{"numeric road name", []any{-34.0, 151.0, int64(5), int64(1), nil, nil, "High"}, "road_name"},
		{"non-numeric count", []any{-34.0, 151.0, "Rd", "many", nil, nil, "High"}, "total_events"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scanSegment(fakeRow{values: tt.values})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.column)
		})
	}
}

func TestScanSegment_Error(t *testing.T) {
	_, err := scanSegment(fakeRow{err: errors.New("conn reset")})
	require.Error(t, err)
}

func TestQueryArgs(t *testing.T) {
	args := queryArgs(domain.SegmentFilter{RoadName: "Princes Hwy", Species: "wombat"})
	assert.Equal(t, []any{"Princes Hwy", "", "wombat"}, args)
	assert.Equal(t, 3, strings.Count(segmentsQuery, "= ''"), "every filter is optional")
	assert.Contains(t, segmentsQuery, "ORDER BY id")
}

func TestFetchSegments_SkipsBadRows(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{rows: []fakeRow{
		princesHwyRow(),
		{values: []any{nil, nil, "Nowhere Rd", int64(3), nil, nil, "High"}},
		{values: []any{-33.0, 150.0, "Bells Line of Rd", int64(3), nil, nil, "High"}},
	}}}
	src, metrics := newTestSource(db)

	segments, err := src.FetchSegments(context.Background(), domain.SegmentFilter{Species: "wombat"})
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "Princes Hwy", segments[0].RoadName)
	assert.Equal(t, "Bells Line of Rd", segments[1].RoadName)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SegmentsSkipped))
	assert.Equal(t, []any{"", "", "wombat"}, db.args)
}

func TestFetchSegments_Empty(t *testing.T) {
	src, _ := newTestSource(&fakeDB{rows: &fakeRows{}})
	segments, err := src.FetchSegments(context.Background(), domain.SegmentFilter{})
	require.NoError(t, err)
	assert.NotNil(t, segments)
	assert.Empty(t, segments)
}

func TestFetchSegments_Errors(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		src, _ := newTestSource(&fakeDB{err: errors.New("connection refused")})
		_, err := src.FetchSegments(context.Background(), domain.SegmentFilter{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query segments")
	})
	t.Run("rows", func(t *testing.T) {
		src, _ := newTestSource(&fakeDB{rows: &fakeRows{err: errors.New("conn reset")}})
		_, err := src.FetchSegments(context.Background(), domain.SegmentFilter{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read segments")
	})
}

func TestCheckReadiness(t *testing.T) {
	src, _ := newTestSource(&fakeDB{})
	require.NoError(t, src.CheckReadiness(context.Background()))

	src, _ = newTestSource(&fakeDB{pingErr: errors.New("no route to host")})
	err := src.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health check failed")
}
