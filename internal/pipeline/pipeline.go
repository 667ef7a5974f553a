package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/couchcryptid/wildlife-hotspot-service/internal/domain"
	"github.com/couchcryptid/wildlife-hotspot-service/internal/observability"
)

// BatchExtractor reads up to batchSize raw position messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Decoder converts a raw message into a position update.
type Decoder interface {
	Decode(ctx context.Context, raw domain.RawEvent) (domain.PositionUpdate, error)
}

// AlertLoader writes alert events to the destination.
type AlertLoader interface {
	LoadBatch(ctx context.Context, events []domain.AlertEvent) error
}

// AlertPresenter surfaces a single alert to the driver.
type AlertPresenter interface {
	PresentEvent(event domain.AlertEvent)
}

// Tracker feeds position updates through each vehicle's proximity monitor and
// fans the resulting alerts out to the presenter and the alert loader.
type Tracker struct {
	extractor BatchExtractor
	decoder   Decoder
	fleet     *domain.Fleet
	presenter AlertPresenter
	loader    AlertLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	batchSize int
}

// Option configures optional Tracker stages.
type Option func(*Tracker)

// WithStream attaches a position source for Run.
func WithStream(e BatchExtractor, d Decoder, batchSize int) Option {
	return func(t *Tracker) {
		t.extractor = e
		t.decoder = d
		t.batchSize = batchSize
	}
}

// WithPresenter routes every raised alert to p.
func WithPresenter(p AlertPresenter) Option {
	return func(t *Tracker) { t.presenter = p }
}

// WithLoader publishes raised alerts through l.
func WithLoader(l AlertLoader) Option {
	return func(t *Tracker) { t.loader = l }
}

// NewTracker creates a Tracker around fleet.
func NewTracker(fleet *domain.Fleet, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Tracker {
	t := &Tracker{
		fleet:     fleet,
		logger:    logger,
		metrics:   metrics,
		batchSize: 1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Ready reports whether at least one batch has been processed.
func (t *Tracker) Ready() bool {
	return t.ready.Load()
}

// Track evaluates a single update against its vehicle's latches and presents
// any alerts it raises. It does not publish to the loader; Run does that per
// batch.
func (t *Tracker) Track(update domain.PositionUpdate) []domain.AlertEvent {
	events := t.fleet.Update(update.VehicleID, update.Position)
	t.metrics.PositionsConsumed.Inc()
	t.metrics.VehiclesTracked.Set(float64(t.fleet.Vehicles()))

	for i := range events {
		t.metrics.AlertsRaised.WithLabelValues(string(events[i].Tier)).Inc()
		t.logger.Info("hotspot entered",
			"road_name", events[i].RoadName,
			"tier", events[i].Tier,
			"distance_m", events[i].DistanceMeters,
			"vehicle_id", update.VehicleID,
		)
		if t.presenter != nil {
			t.presenter.PresentEvent(events[i])
		}
	}
	return events
}

// TrackAndPublish is Track followed by a single publish attempt.
func (t *Tracker) TrackAndPublish(ctx context.Context, update domain.PositionUpdate) ([]domain.AlertEvent, error) {
	events := t.Track(update)
	if len(events) == 0 || t.loader == nil {
		return events, nil
	}
	if err := t.loader.LoadBatch(ctx, events); err != nil {
		return events, err
	}
	t.metrics.AlertsPublished.Add(float64(len(events)))
	return events, nil
}

// Run executes the batch tracking loop until the context is cancelled.
func (t *Tracker) Run(ctx context.Context) error {
	if t.extractor == nil || t.decoder == nil {
		<-ctx.Done()
		return nil
	}

	t.logger.Info("tracker started", "batch_size", t.batchSize)
	t.metrics.TrackerRunning.Set(1)
	defer t.metrics.TrackerRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("tracker stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !t.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// processBatch runs one extract-evaluate-publish cycle. Returns false if the tracker should stop.
func (t *Tracker) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	rawBatch, err := t.extractor.ExtractBatch(ctx, t.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		t.logger.Error("extract batch failed", "error", err)
		return backoffOrStop(ctx, backoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	t.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = initialBackoff

	decoded := make([]domain.RawEvent, 0, len(rawBatch))
	var alerts []domain.AlertEvent

	for _, raw := range rawBatch {
		update, err := t.decoder.Decode(ctx, raw)
		if err != nil {
			t.logger.Warn("decode failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			t.metrics.PositionParseErrors.Inc()
			t.commitOffset(ctx, raw)
			continue
		}
		alerts = append(alerts, t.Track(update)...)
		decoded = append(decoded, raw)
	}

	if !t.publish(ctx, alerts, backoff) {
		return false
	}

	for _, raw := range decoded {
		t.commitOffset(ctx, raw)
	}

	t.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	t.ready.Store(true)
	return true
}

// publish hands alerts to the loader, retrying the same batch with backoff
// until it succeeds. Positions are never re-evaluated, so latches stay
// consistent with what was presented. Returns false if the tracker should stop.
func (t *Tracker) publish(ctx context.Context, alerts []domain.AlertEvent, backoff *time.Duration) bool {
	if len(alerts) == 0 || t.loader == nil {
		return true
	}
	for {
		err := t.loader.LoadBatch(ctx, alerts)
		if err == nil {
			t.metrics.AlertsPublished.Add(float64(len(alerts)))
			*backoff = initialBackoff
			return true
		}
		t.logger.Error("publish alerts failed", "error", err, "batch_size", len(alerts))
		if !backoffOrStop(ctx, backoff) {
			return false
		}
	}
}

// commitOffset commits the message offset if a commit function is available.
func (t *Tracker) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		t.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the caller should stop.
func backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}
