package defs

import "time"

// FeedStatus is what the dashboard knows about the threat feed. Connected
// tracks data fetches and Healthy tracks the health endpoint; the two are
// refreshed on different timers and may disagree.
type FeedStatus struct {
	Latest    *ThreatAnalysis  `json:"latest"`
	History   []ThreatAnalysis `json:"history"`
	Connected bool             `json:"connected"`
	Healthy   bool             `json:"healthy"`
	LastError string           `json:"lastError,omitempty"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// DashboardState is a copy of everything the views render.
type DashboardState struct {
	Readings        []GlucoseReading `json:"readings"`
	Alerts          []Alert          `json:"alerts"`
	Active          []Alert          `json:"active"`
	ActiveAlerts    int              `json:"activeAlerts"`
	RecentDismissed []Alert          `json:"recentDismissed"`
	Pump            PumpStatus       `json:"pump"`
	Threats         []SecurityThreat `json:"threats"`
	AlertPanelOpen  bool             `json:"alertPanelOpen"`
	Feed            FeedStatus       `json:"feed"`
}

// Current returns the latest reading, if any.
func (ds DashboardState) Current() (GlucoseReading, bool) {
	if len(ds.Readings) == 0 {
		return GlucoseReading{}, false
	}
	return ds.Readings[len(ds.Readings)-1], true
}
