package kml

import (
	"bytes"
	"encoding/xml"
	"image/color"
	"strings"
	"testing"

	"github.com/couchcryptid/wildlife-hotspot-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHotspots() []domain.Hotspot {
	return domain.BuildHotspots([]domain.IncidentSegment{
		{StartLat: -34.0, StartLon: 151.0, RoadName: "Princes Hwy", TotalEvents: 12,
			EventBreakdown: domain.EventBreakdown{Killed: 7}, DangerCategory: "Extreme"},
		{StartLat: -34.1, StartLon: 151.1, RoadName: "Old Coast Rd", TotalEvents: 1},
	})
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, "Wildlife hotspots", sampleHotspots()))
	out := buf.String()

	assert.Contains(t, out, "<kml")
	assert.Contains(t, out, "<name>Wildlife hotspots</name>")
	assert.Contains(t, out, "<name>Princes Hwy</name>")
	assert.Contains(t, out, "EXTREME RISK AREA")
	assert.Contains(t, out, "<name>Old Coast Rd</name>")
	assert.Contains(t, out, "HIGH RISK AREA")
	assert.Contains(t, out, "<styleUrl>#fill-a</styleUrl>")
	assert.Contains(t, out, "<styleUrl>#fill-e</styleUrl>")
	assert.Equal(t, 2, strings.Count(out, "<Placemark>"))
	assert.Equal(t, 2, strings.Count(out, "<Polygon>"))

	// Well-formed XML.
	dec := xml.NewDecoder(strings.NewReader(out))
	for {
		_, err := dec.Token()
		if err != nil {
			assert.Equal(t, "EOF", err.Error())
			break
		}
	}
}

func TestEncode_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, "none", nil))
	assert.NotContains(t, buf.String(), "<Placemark>")
	assert.Contains(t, buf.String(), "<Document>")
}

func TestRing_ClosedAtRadius(t *testing.T) {
	h := sampleHotspots()[0]
	coords := ring(h)

	require.Len(t, coords, circleVertices+1)
	assert.Equal(t, coords[0], coords[len(coords)-1])
	for _, c := range coords {
		d := domain.Distance(h.Position, domain.Position{Lat: c.Lat, Lon: c.Lon})
		assert.InDelta(t, h.RadiusMeters, d, 0.01)
	}
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0x7a, A: 0xff}, hexColor("#7a0000"))
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xd9, B: 0x66, A: 0xff}, hexColor("ffd966"))
	assert.Equal(t, color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}, hexColor("#zzz"))
}
