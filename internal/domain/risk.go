package domain

import "math"

const (
	// MinRadiusMeters is the smallest alert radius any hotspot gets.
	MinRadiusMeters = 150.0

	// radiusScale converts sqrt(intensity) to metres.
	radiusScale = 80.0
)

// Intensity weights fatalities three times and injuries once on top of the
// total event count.
func Intensity(seg IncidentSegment) int {
	return seg.TotalEvents + seg.EventBreakdown.Killed*3 + seg.EventBreakdown.Injured
}

// ComputeRadius returns the alert radius in metres: max(150, sqrt(intensity)*80).
func ComputeRadius(seg IncidentSegment) float64 {
	intensity := Intensity(seg)
	if intensity <= 0 {
		return MinRadiusMeters
	}
	return math.Max(MinRadiusMeters, math.Sqrt(float64(intensity))*radiusScale)
}

// ComputeHeatWeight returns the heatmap weight. Fatalities and injuries are
// weighted more heavily here than in Intensity.
func ComputeHeatWeight(seg IncidentSegment) float64 {
	return float64(seg.TotalEvents + seg.EventBreakdown.Killed*4 + seg.EventBreakdown.Injured*2)
}
