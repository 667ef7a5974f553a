// Command replay runs the proximity monitor offline: it loads a segments
// fixture, walks a vehicle through a list of positions, and prints one line per
// alert. Positions carrying different vehicle_id values keep separate latches.
// It uses the same domain package as the service, so fixtures can be
// checked without Kafka or the hotspot API.
//
// Usage:
//
//	go run ./cmd/replay \
//	  -segments data/mock/segments.json \
//	  -positions data/mock/drive.json \
//	  -expect 3 \
//	  -kml out/hotspots.kml
//
// Without -positions the vehicle sits at the default start (-34, 151).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/couchcryptid/wildlife-hotspot-service/internal/adapter/kml"
	"github.com/couchcryptid/wildlife-hotspot-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// defaultStart is where the vehicle marker is first placed on the map.
var defaultStart = domain.Position{Lat: -34, Lon: 151}

// replayStart pins alert timestamps so output is reproducible.
var replayStart = time.Date(2024, time.May, 1, 6, 0, 0, 0, time.UTC)

type options struct {
	segmentsPath  string
	positionsPath string
	kmlPath       string
	expect        int
}

func main() {
	var opts options
	flag.StringVar(&opts.segmentsPath, "segments", "", "path to a segments JSON fixture (array or {\"segments\":[...]})")
	flag.StringVar(&opts.positionsPath, "positions", "", "path to a JSON array of position messages")
	flag.StringVar(&opts.kmlPath, "kml", "", "optional output path for a KML export of the hotspots")
	flag.IntVar(&opts.expect, "expect", -1, "fail unless exactly this many alerts are raised")
	flag.Parse()

	if opts.segmentsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(os.Stdout, opts); err != nil {
		log.Fatal(err)
	}
}

func run(w io.Writer, opts options) error {
	data, err := os.ReadFile(opts.segmentsPath)
	if err != nil {
		return fmt.Errorf("read segments: %w", err)
	}
	segments, skipped, err := domain.DecodeSegments(data)
	if err != nil {
		return err
	}
	if skipped > 0 {
		log.Printf("skipped %d malformed segment records", skipped)
	}

	positions := []domain.PositionUpdate{{Position: defaultStart}}
	if opts.positionsPath != "" {
		if positions, err = readPositions(opts.positionsPath); err != nil {
			return err
		}
	}

	fleet := domain.NewFleet(clockwork.NewFakeClockAt(replayStart))
	fleet.Reload(segments)
	fmt.Fprintf(w, "loaded %d hotspots\n", fleet.Len())

	alerts := 0
	for i, p := range positions {
		for _, e := range fleet.Update(p.VehicleID, p.Position) {
			alerts++
			fmt.Fprintf(w, "#%d %s [%s] %s (%.0f m from centre, radius %.0f m)\n",
				i, p.Position, e.Tier, e.Message, e.DistanceMeters, e.RadiusMeters)
		}
	}
	fmt.Fprintf(w, "%d positions, %d alerts\n", len(positions), alerts)

	if opts.kmlPath != "" {
		if err := writeKML(opts.kmlPath, fleet.Hotspots()); err != nil {
			return err
		}
	}

	if opts.expect >= 0 && alerts != opts.expect {
		return fmt.Errorf("expected %d alerts, got %d", opts.expect, alerts)
	}
	return nil
}

func readPositions(path string) ([]domain.PositionUpdate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	positions := make([]domain.PositionUpdate, 0, len(raws))
	for i, raw := range raws {
		p, err := domain.DecodePosition(raw)
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		positions = append(positions, p)
	}
	return positions, nil
}

func writeKML(path string, hotspots []domain.Hotspot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create kml: %w", err)
	}
	if err := kml.Encode(f, "Wildlife collision hotspots", hotspots); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
