// Package domain models wildlife-vehicle collision statistics for road
// segments and the risk-scoring and proximity-alerting rules built on them.
//
// # Data Source
//
// Segment statistics come from an upstream hotspot API (or its backing
// database). Each record describes the start point of a road segment and the
// incidents recorded on it:
//
//	{"start_lat": -33.87, "start_lon": 151.2, "road_name": "Pacific Hwy",
//	 "total_events": 12, "event_breakdown": {"killed": 3, "injured": 2},
//	 "danger_category": "Extreme"}
//
// Filtering by time of day, species or road is the source's job; this package
// only ever sees the already-filtered list.
//
// Malformed numbers are common in the upstream feed (strings, nulls, floats
// for counts). They decode to 0 rather than failing the record. See
// [DecodeSegments].
//
// # Scoring
//
// Two different weightings are derived from the same counts:
//
//	intensity  = total + killed*3 + injured       drives the alert radius
//	heatWeight = total + killed*4 + injured*2     drives heatmap intensity
//
// The alert radius is max(150, sqrt(intensity)*80) metres.
//
// # Severity
//
// Two independent classifications exist:
//
//	Fill tier (marker colour), first match wins:
//	  killed > 5   A  #7a0000
//	  killed > 0   B  #cc0000
//	  injured > 5  C  #ff6600
//	  injured > 0  D  #ff9900
//	  otherwise    E  #ffd966
//
//	Alert tier (banner and popup framing):
//	  danger_category == "Extreme"  Extreme
//	  anything else                 High
//
// # Proximity Alerts
//
// A [Monitor] owns one hotspot snapshot and a latch per hotspot. A position
// strictly inside a hotspot's radius sets the latch and emits one
// [AlertEvent]; a position at or beyond the radius clears it silently. Reloading
// hotspots clears every latch.
//
// A [Fleet] keeps one Monitor per vehicle ID over a shared snapshot, so one
// vehicle's positions never move another vehicle's latches.
package domain
