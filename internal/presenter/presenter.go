// Package presenter shows proximity alerts one at a time and dismisses them
// after a fixed display duration.
package presenter

import (
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/wildlife-hotspot-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// DefaultDuration is how long a banner stays visible without a newer alert.
const DefaultDuration = 5 * time.Second

// Display renders the banner. Implementations must not call back into the Presenter.
type Display interface {
	Show(message string, tier domain.AlertTier)
	Hide()
}

// Banner is the currently visible alert.
type Banner struct {
	Message string           `json:"message"`
	Tier    domain.AlertTier `json:"tier"`
	ShownAt time.Time        `json:"shown_at"`
	HideAt  time.Time        `json:"hide_at"`
}

// Presenter keeps at most one banner visible. A new Present replaces the
// visible banner and restarts the dismiss timer.
type Presenter struct {
	display  Display
	clock    clockwork.Clock
	duration time.Duration

	mu      sync.Mutex
	timer   clockwork.Timer
	gen     uint64
	current *Banner
}

// New creates a Presenter. A non-positive duration uses DefaultDuration and a
// nil clock uses the real clock.
func New(display Display, duration time.Duration, clock clockwork.Clock) *Presenter {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Presenter{display: display, clock: clock, duration: duration}
}

// Present shows message immediately and schedules its dismissal.
func (p *Presenter) Present(message string, tier domain.AlertTier) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
	}
	p.gen++
	gen := p.gen

	now := p.clock.Now()
	p.current = &Banner{Message: message, Tier: tier, ShownAt: now, HideAt: now.Add(p.duration)}
	p.display.Show(message, tier)

	p.timer = p.clock.AfterFunc(p.duration, func() { p.expire(gen) })
}

// PresentEvent presents an alert event's message at its tier.
func (p *Presenter) PresentEvent(e domain.AlertEvent) {
	p.Present(e.Message, e.Tier)
}

// expire hides the banner unless a newer Present has superseded it. A timer
// that fired concurrently with Stop still carries the old generation.
func (p *Presenter) expire(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen || p.current == nil {
		return
	}
	p.current = nil
	p.timer = nil
	p.display.Hide()
}

// Current returns the visible banner, if any.
func (p *Presenter) Current() (Banner, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return Banner{}, false
	}
	return *p.current, true
}

// Close cancels any pending dismissal and hides the visible banner.
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.gen++
	if p.current != nil {
		p.current = nil
		p.display.Hide()
	}
}

// LogDisplay writes banner changes to a structured logger.
type LogDisplay struct {
	logger *slog.Logger
}

// NewLogDisplay creates a Display backed by logger.
func NewLogDisplay(logger *slog.Logger) *LogDisplay {
	return &LogDisplay{logger: logger}
}

func (d *LogDisplay) Show(message string, tier domain.AlertTier) {
	d.logger.Warn("wildlife alert", "tier", tier, "message", message)
}

func (d *LogDisplay) Hide() {
	d.logger.Info("wildlife alert dismissed")
}
