package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/wildlife-hotspot-service/internal/adapter/kml"
	"github.com/couchcryptid/wildlife-hotspot-service/internal/domain"
	"github.com/couchcryptid/wildlife-hotspot-service/internal/presenter"
)

const maxPositionBytes = 1 << 20

// HotspotLister returns the current registry, optionally with one vehicle's
// latch state.
type HotspotLister interface {
	Hotspots() []domain.Hotspot
	VehicleHotspots(vehicleID string) ([]domain.Hotspot, bool)
}

// HeatSource returns the current heat points.
type HeatSource interface {
	HeatPoints() []domain.HeatPoint
}

// Reloader refreshes the registry from the segment source.
type Reloader interface {
	Refresh(ctx context.Context) error
	RefreshWith(ctx context.Context, filter domain.SegmentFilter) error
}

// PositionTracker evaluates a position update.
type PositionTracker interface {
	TrackAndPublish(ctx context.Context, update domain.PositionUpdate) ([]domain.AlertEvent, error)
}

// BannerSource reports the banner currently on screen.
type BannerSource interface {
	Current() (presenter.Banner, bool)
}

// API holds the collaborators behind the /api routes.
type API struct {
	Hotspots HotspotLister
	Heat     HeatSource
	Reloader Reloader
	Tracker  PositionTracker
	Banner   BannerSource

	logger *slog.Logger
}

func (a *API) register(mux *http.ServeMux, logger *slog.Logger) {
	a.logger = logger
	mux.HandleFunc("GET /api/hotspots", a.handleHotspots)
	mux.HandleFunc("GET /api/hotspots.kml", a.handleHotspotsKML)
	mux.HandleFunc("GET /api/heatmap", a.handleHeatmap)
	mux.HandleFunc("POST /api/positions", a.handlePosition)
	mux.HandleFunc("GET /api/alert", a.handleAlert)
	mux.HandleFunc("POST /api/reload", a.handleReload)
}

type hotspotsResponse struct {
	Hotspots []domain.Hotspot `json:"hotspots"`
}

type heatmapResponse struct {
	Points []domain.HeatPoint  `json:"points"`
	Style  domain.HeatmapStyle `json:"style"`
}

type positionResponse struct {
	Alerts    []domain.AlertEvent `json:"alerts"`
	Published bool                `json:"published"`
}

type bannerResponse struct {
	Message string           `json:"message"`
	Level   domain.AlertTier `json:"level"`
	ShownAt time.Time        `json:"shown_at"`
	HideAt  time.Time        `json:"hide_at"`
}

// handleHotspots lists the registry. With ?vehicle_id= the Alerted flags are
// that vehicle's latches.
func (a *API) handleHotspots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("vehicle_id") {
		sharedobs.WriteJSON(w, http.StatusOK, hotspotsResponse{Hotspots: a.Hotspots.Hotspots()})
		return
	}
	hotspots, ok := a.Hotspots.VehicleHotspots(q.Get("vehicle_id"))
	if !ok {
		writeError(w, http.StatusNotFound, "no positions seen for vehicle")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, hotspotsResponse{Hotspots: hotspots})
}

func (a *API) handleHotspotsKML(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := kml.Encode(&buf, "Wildlife collision hotspots", a.Hotspots.Hotspots()); err != nil {
		a.logger.Error("kml export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "kml export failed")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	w.Header().Set("Content-Disposition", `attachment; filename="hotspots.kml"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (a *API) handleHeatmap(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, heatmapResponse{
		Points: a.Heat.HeatPoints(),
		Style:  domain.DefaultHeatmapStyle(),
	})
}

func (a *API) handlePosition(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPositionBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	update, err := domain.DecodePosition(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	alerts, err := a.Tracker.TrackAndPublish(r.Context(), update)
	published := err == nil
	if err != nil {
		a.logger.Warn("publish alerts failed", "error", err, "alerts", len(alerts))
	}
	if alerts == nil {
		alerts = []domain.AlertEvent{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, positionResponse{Alerts: alerts, Published: published})
}

func (a *API) handleAlert(w http.ResponseWriter, _ *http.Request) {
	banner, ok := a.Banner.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, bannerResponse{
		Message: banner.Message,
		Level:   banner.Tier,
		ShownAt: banner.ShownAt,
		HideAt:  banner.HideAt,
	})
}

// handleReload refreshes with the configured filter, or with the filter given
// in the query string when any of road_name, time_of_day, species is present.
func (a *API) handleReload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var err error
	if q.Has("road_name") || q.Has("time_of_day") || q.Has("species") {
		err = a.Reloader.RefreshWith(r.Context(), domain.SegmentFilter{
			RoadName:  q.Get("road_name"),
			TimeOfDay: q.Get("time_of_day"),
			Species:   q.Get("species"),
		})
	} else {
		err = a.Reloader.Refresh(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, hotspotsResponse{Hotspots: a.Hotspots.Hotspots()})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
