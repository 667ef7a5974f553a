package hotspotapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/wildlife-hotspot-service/internal/domain"
	"github.com/couchcryptid/wildlife-hotspot-service/internal/observability"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 32 << 20

// Client implements domain.SegmentSource using the hotspot REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a hotspot API client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		metrics: metrics,
	}
}

// FetchSegments requests the segments matching filter. Only non-empty filter
// fields are sent.
func (c *Client) FetchSegments(ctx context.Context, filter domain.SegmentFilter) ([]domain.IncidentSegment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.segmentsURL(filter), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hotspot request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hotspot API error: status %d: %s", resp.StatusCode, body)
	}

	segments, skipped, err := domain.DecodeSegments(body)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		c.logger.Warn("skipped malformed segment records", "skipped", skipped, "kept", len(segments))
		c.metrics.SegmentsSkipped.Add(float64(skipped))
	}
	return segments, nil
}

func (c *Client) segmentsURL(filter domain.SegmentFilter) string {
	params := url.Values{}
	if filter.RoadName != "" {
		params.Set("road_name", filter.RoadName)
	}
	if filter.TimeOfDay != "" {
		params.Set("time_of_day", filter.TimeOfDay)
	}
	if filter.Species != "" {
		params.Set("species", filter.Species)
	}

	u := c.baseURL + "/hotspots"
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}
