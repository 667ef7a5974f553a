package domain

// HeatPoint is one weighted sample for the heatmap layer.
type HeatPoint struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Weight float64 `json:"weight"`
}

// GradientStop maps a normalised intensity to a colour.
type GradientStop struct {
	Stop  float64 `json:"stop"`
	Color string  `json:"color"`
}

// HeatmapStyle describes how the renderer should draw the heat layer.
type HeatmapStyle struct {
	Radius     int            `json:"radius"`
	Blur       int            `json:"blur"`
	MinOpacity float64        `json:"min_opacity"`
	Gradient   []GradientStop `json:"gradient"`
}

// DefaultHeatmapStyle returns the style the map client has always used.
func DefaultHeatmapStyle() HeatmapStyle {
	return HeatmapStyle{
		Radius:     45,
		Blur:       30,
		MinOpacity: 0.4,
		Gradient: []GradientStop{
			{Stop: 0.2, Color: "#ffffb2"},
			{Stop: 0.4, Color: "#fecc5c"},
			{Stop: 0.6, Color: "#fd8d3c"},
			{Stop: 0.8, Color: "#f03b20"},
			{Stop: 1.0, Color: "#7a0000"},
		},
	}
}

// BuildHeatPoints maps each segment to its start point and heat weight,
// preserving input order.
func BuildHeatPoints(segments []IncidentSegment) []HeatPoint {
	points := make([]HeatPoint, len(segments))
	for i, seg := range segments {
		points[i] = HeatPoint{
			Lat:    seg.StartLat,
			Lon:    seg.StartLon,
			Weight: ComputeHeatWeight(seg),
		}
	}
	return points
}
