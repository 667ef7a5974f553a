package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/wildlife-hotspot-service/internal/domain"
	"github.com/couchcryptid/wildlife-hotspot-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Registry receives each rebuilt hotspot snapshot. *domain.Fleet and
// *domain.Monitor both satisfy it.
type Registry interface {
	Load(hotspots []domain.Hotspot)
	Len() int
}

// Refresher keeps the hotspot registry and the heatmap snapshot in step with
// the segment source.
type Refresher struct {
	source   domain.SegmentSource
	filter   domain.SegmentFilter
	registry Registry
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	interval time.Duration

	mu          sync.Mutex
	heat        atomic.Pointer[[]domain.HeatPoint]
	lastRefresh atomic.Pointer[time.Time]
}

// NewRefresher creates a Refresher. A nil clock uses the real clock.
func NewRefresher(source domain.SegmentSource, filter domain.SegmentFilter, registry Registry, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Refresher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	r := &Refresher{
		source:   source,
		filter:   filter,
		registry: registry,
		logger:   logger,
		metrics:  metrics,
		clock:    clock,
		interval: interval,
	}
	empty := []domain.HeatPoint{}
	r.heat.Store(&empty)
	return r
}

// Refresh fetches segments with the configured filter and swaps in the new
// registry. On failure the previous registry and heat points stay in place.
func (r *Refresher) Refresh(ctx context.Context) error {
	return r.RefreshWith(ctx, r.filter)
}

// RefreshWith is Refresh with an explicit filter.
func (r *Refresher) RefreshWith(ctx context.Context, filter domain.SegmentFilter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.clock.Now()
	segments, err := r.source.FetchSegments(ctx, filter)
	if err != nil {
		r.metrics.Reloads.WithLabelValues("error").Inc()
		r.logger.Error("hotspot refresh failed, keeping previous registry",
			"error", err, "hotspots", r.registry.Len())
		return fmt.Errorf("refresh hotspots: %w", err)
	}

	hotspots := domain.BuildHotspots(segments)
	heat := domain.BuildHeatPoints(segments)

	r.registry.Load(hotspots)
	r.heat.Store(&heat)
	now := r.clock.Now()
	r.lastRefresh.Store(&now)

	r.metrics.Hotspots.Set(float64(len(hotspots)))
	r.metrics.Reloads.WithLabelValues("success").Inc()
	r.metrics.ReloadDuration.Observe(now.Sub(start).Seconds())
	r.logger.Info("hotspots loaded",
		"hotspots", len(hotspots),
		"road_name", filter.RoadName,
		"time_of_day", filter.TimeOfDay,
		"species", filter.Species,
	)
	return nil
}

// Run refreshes immediately and then on every interval tick until ctx is
// cancelled. Failures are logged and retried on the next tick.
func (r *Refresher) Run(ctx context.Context) error {
	_ = r.Refresh(ctx)

	if r.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			_ = r.Refresh(ctx)
		}
	}
}

// HeatPoints returns the heat points of the last successful refresh.
func (r *Refresher) HeatPoints() []domain.HeatPoint {
	return *r.heat.Load()
}

// LastRefresh returns the time of the last successful refresh.
func (r *Refresher) LastRefresh() (time.Time, bool) {
	t := r.lastRefresh.Load()
	if t == nil {
		return time.Time{}, false
	}
	return *t, true
}

// CheckReadiness returns nil once a refresh has succeeded.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if r.lastRefresh.Load() == nil {
		return errors.New("hotspots have not been loaded yet")
	}
	return nil
}
