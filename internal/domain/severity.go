package domain

import "fmt"

// FillTier is the marker colour class derived from fatality and injury counts.
type FillTier string

const (
	FillTierA FillTier = "A" // more than five killed
	FillTierB FillTier = "B" // at least one killed
	FillTierC FillTier = "C" // more than five injured
	FillTierD FillTier = "D" // at least one injured
	FillTierE FillTier = "E" // no casualties recorded
)

var fillColors = map[FillTier]string{
	FillTierA: "#7a0000",
	FillTierB: "#cc0000",
	FillTierC: "#ff6600",
	FillTierD: "#ff9900",
	FillTierE: "#ffd966",
}

// Color returns the hex fill colour for the tier.
func (t FillTier) Color() string {
	return fillColors[t]
}

// ClassifyFill picks the fill tier. Thresholds are checked in priority order
// and the first match wins, so fatalities always outrank injuries.
func ClassifyFill(b EventBreakdown) FillTier {
	switch {
	case b.Killed > 5:
		return FillTierA
	case b.Killed > 0:
		return FillTierB
	case b.Injured > 5:
		return FillTierC
	case b.Injured > 0:
		return FillTierD
	default:
		return FillTierE
	}
}

// AlertTier frames banners and popups. It is independent of FillTier.
type AlertTier string

const (
	AlertTierExtreme AlertTier = "extreme"
	AlertTierHigh    AlertTier = "high"
)

// CategoryExtreme is the only danger category that maps to AlertTierExtreme.
const CategoryExtreme = "Extreme"

// ParseDangerCategory maps an upstream danger category to an alert tier.
// "High", unknown and empty categories all fall back to AlertTierHigh.
func ParseDangerCategory(category string) AlertTier {
	if category == CategoryExtreme {
		return AlertTierExtreme
	}
	return AlertTierHigh
}

// Color returns the risk accent colour used for popups and banners.
func (t AlertTier) Color() string {
	if t == AlertTierExtreme {
		return "#b30000"
	}
	return "#d97706"
}

// Headline returns the popup title.
func (t AlertTier) Headline() string {
	if t == AlertTierExtreme {
		return "EXTREME RISK AREA"
	}
	return "HIGH RISK AREA"
}

// Recommendation returns the driving advice shown in the popup.
func (t AlertTier) Recommendation() string {
	if t == AlertTierExtreme {
		return "Slow down immediately and scan road edges."
	}
	return "Reduce speed and stay alert for wildlife."
}

// BannerMessage returns the proximity alert text for a road.
func (t AlertTier) BannerMessage(road string) string {
	if t == AlertTierExtreme {
		return fmt.Sprintf("⚠ EXTREME wildlife collision risk ahead on %s. Slow down immediately.", road)
	}
	return fmt.Sprintf("⚠ High wildlife collision risk ahead on %s. Reduce speed and stay alert.", road)
}

// Classification bundles both severity axes for one segment.
type Classification struct {
	Fill           FillTier  `json:"fill_tier"`
	FillColor      string    `json:"fill_color"`
	Alert          AlertTier `json:"alert_tier"`
	AlertColor     string    `json:"alert_color"`
	Headline       string    `json:"headline"`
	Recommendation string    `json:"recommendation"`
}

// Classify derives the fill tier from the breakdown and the alert tier from
// the category.
func Classify(b EventBreakdown, category string) Classification {
	fill := ClassifyFill(b)
	alert := ParseDangerCategory(category)
	return Classification{
		Fill:           fill,
		FillColor:      fill.Color(),
		Alert:          alert,
		AlertColor:     alert.Color(),
		Headline:       alert.Headline(),
		Recommendation: alert.Recommendation(),
	}
}
