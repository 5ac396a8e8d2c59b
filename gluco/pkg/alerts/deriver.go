package alerts

import (
	"fmt"
	"securegluco/gluco/defs"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CurrentGlucoseTitle = "Current Glucose"
	LowGlucoseTitle     = "Low Glucose Alert"
	HighGlucoseTitle    = "High Glucose Alert"
	SuspendedTitle      = "Insulin Delivery Suspended"
	ResumedTitle        = "Insulin Delivery Resumed"
	ThreatBlockedTitle  = "Threat Blocked"
	AIThreatTitle       = "AI Threat Detection Alert"
	LowBatteryTitle     = "Low Battery Warning"
)

// Action is a manual or external event that produces exactly one alert. The
// set of actions is closed: Suspend, Resume, ThreatBlocked and ThreatDetected.
type Action interface {
	action()
}

type Suspend struct{}

type Resume struct{}

type ThreatBlocked struct {
	Threat defs.SecurityThreat
}

type ThreatDetected struct {
	Threat defs.SecurityThreat
}

func (Suspend) action()        {}
func (Resume) action()         {}
func (ThreatBlocked) action()  {}
func (ThreatDetected) action() {}

// Derivation is the next alert list plus whether the alert panel should be
// brought up.
type Derivation struct {
	Alerts    []defs.Alert
	OpenPanel bool
}

// Deriver turns readings and actions into alerts. It never mutates the slices
// it is given.
type Deriver struct {
	Glucose defs.GlucoseConfig
	Logger  *zap.Logger

	NewID func() string
	Now   func() time.Time
}

func NewDeriver(cfg defs.GlucoseConfig, now func() time.Time, logger *zap.Logger) *Deriver {
	if now == nil {
		now = time.Now
	}
	return &Deriver{
		Glucose: cfg,
		Logger:  logger,
		NewID:   uuid.NewString,
		Now:     now,
	}
}

// FromReading refreshes the pinned current-glucose alert and any active
// low/high alert, and raises a low or high alert when the value leaves the
// normal range and none is active.
func (d *Deriver) FromReading(current defs.GlucoseReading, prev []defs.Alert) Derivation {
	now := d.Now()
	v := current.Value

	alerts := make([]defs.Alert, 0, len(prev)+2)
	hasCurrent, hasLow, hasHigh := false, false, false

	for _, al := range prev {
		if al.Dismissed {
			alerts = append(alerts, al)
			continue
		}

		switch al.Type {
		case defs.CurrentGlucoseAlert:
			if hasCurrent {
				// Only one may stay active.
				al.Dismissed = true
				break
			}
			hasCurrent = true
			al.Message = currentMessage(v)
			al.Time = now
		case defs.LowGlucoseAlert:
			hasLow = true
			al.Message = d.refreshedLowMessage(v)
			al.Time = now
		case defs.HighGlucoseAlert:
			hasHigh = true
			al.Message = d.refreshedHighMessage(v)
			al.Time = now
		}
		alerts = append(alerts, al)
	}

	if !hasCurrent {
		alerts = append([]defs.Alert{{
			ID:       d.NewID(),
			Type:     defs.CurrentGlucoseAlert,
			Severity: defs.Info,
			Title:    CurrentGlucoseTitle,
			Message:  currentMessage(v),
			Time:     now,
		}}, alerts...)
	}

	openPanel := false
	switch {
	case v < d.Glucose.Low && !hasLow:
		alerts = append([]defs.Alert{{
			ID:       d.NewID(),
			Type:     defs.LowGlucoseAlert,
			Severity: defs.Critical,
			Title:    LowGlucoseTitle,
			Message:  d.lowMessage(v),
			Time:     now,
		}}, alerts...)
		openPanel = true
	case v > d.Glucose.High && !hasHigh:
		severity := defs.Warning
		if v > d.Glucose.CriticalHigh {
			severity = defs.Critical
		}
		alerts = append([]defs.Alert{{
			ID:       d.NewID(),
			Type:     defs.HighGlucoseAlert,
			Severity: severity,
			Title:    HighGlucoseTitle,
			Message:  d.highMessage(v),
			Time:     now,
		}}, alerts...)
		openPanel = true
	}

	if openPanel {
		d.Logger.Debug("glucose out of range",
			zap.Int("value", v),
			zap.Int("low", d.Glucose.Low),
			zap.Int("high", d.Glucose.High),
		)
	}

	SortByTime(alerts)
	return Derivation{Alerts: alerts, OpenPanel: openPanel}
}

// FromAction prepends the alert for a.
func (d *Deriver) FromAction(a Action, prev []defs.Alert) []defs.Alert {
	al := d.actionAlert(a)
	d.Logger.Debug("alert from action",
		zap.String("title", al.Title),
		zap.Stringer("severity", al.Severity),
	)

	alerts := make([]defs.Alert, 0, len(prev)+1)
	alerts = append(alerts, al)
	return append(alerts, prev...)
}

func (d *Deriver) actionAlert(a Action) defs.Alert {
	al := defs.Alert{ID: d.NewID(), Time: d.Now()}

	switch a := a.(type) {
	case Suspend:
		al.Type = defs.DeviceAlert
		al.Severity = defs.Warning
		al.Title = SuspendedTitle
		al.Message = "Insulin delivery has been manually suspended"
	case Resume:
		al.Type = defs.DeviceAlert
		al.Severity = defs.Info
		al.Title = ResumedTitle
		al.Message = "Insulin delivery has been resumed"
	case ThreatBlocked:
		al.Type = defs.SecurityAlert
		al.Severity = defs.Info
		al.Title = ThreatBlockedTitle
		al.Message = "Security threat has been successfully blocked"
	case ThreatDetected:
		al.Type = defs.AIThreatAlert
		al.Severity = a.Threat.Severity
		al.Title = AIThreatTitle
		al.Message = a.Threat.Description
	default:
		panic(fmt.Sprintf("alerts: unhandled action %T", a))
	}

	return al
}

// Seed builds the alert list the dashboard opens with: the most recent
// simulated excursions in the window, a dismissed battery warning, notices
// for the first two threats, then the usual derivation for the latest reading.
func (d *Deriver) Seed(readings []defs.GlucoseReading, threats []defs.SecurityThreat) Derivation {
	now := d.Now()
	alerts := make([]defs.Alert, 0)

	createdLow, createdHigh := false, false
	for i := len(readings) - 1; i >= 0 && !(createdLow && createdHigh); i-- {
		tr := readings[i]
		if !createdLow && tr.Value < d.Glucose.Low {
			alerts = append(alerts, defs.Alert{
				ID:       d.NewID(),
				Type:     defs.GlucoseAlert,
				Severity: defs.Critical,
				Title:    LowGlucoseTitle,
				Message:  fmt.Sprintf("Simulated: glucose %d mg/dL, take action", tr.Value),
				Time:     tr.Time,
			})
			createdLow = true
		}
		if !createdHigh && tr.Value > d.Glucose.High {
			alerts = append(alerts, defs.Alert{
				ID:       d.NewID(),
				Type:     defs.GlucoseAlert,
				Severity: defs.Warning,
				Title:    HighGlucoseTitle,
				Message:  fmt.Sprintf("Simulated: glucose %d mg/dL, consider follow-up", tr.Value),
				Time:     tr.Time,
			})
			createdHigh = true
		}
	}

	alerts = append(alerts, defs.Alert{
		ID:        d.NewID(),
		Type:      defs.DeviceAlert,
		Severity:  defs.Warning,
		Title:     LowBatteryTitle,
		Message:   "Insulin pump battery at 20% - Consider charging soon",
		Time:      now.Add(-30 * time.Minute),
		Dismissed: true,
	})

	for i, th := range threats {
		if i == 2 {
			break
		}
		al := defs.Alert{
			ID:        "sec-" + th.ID,
			Type:      defs.SecurityAlert,
			Severity:  defs.Warning,
			Title:     "Security Notice",
			Message:   th.Description,
			Time:      th.Time,
			Dismissed: th.Status != defs.ThreatBlocked,
		}
		if th.Severity == defs.Critical {
			al.Severity = defs.Critical
			al.Title = "Security Threat Blocked"
		}
		alerts = append(alerts, al)
	}

	if len(readings) == 0 {
		SortByTime(alerts)
		return Derivation{Alerts: alerts}
	}
	return d.FromReading(readings[len(readings)-1], alerts)
}

func currentMessage(v int) string {
	return fmt.Sprintf("Current glucose: %d mg/dL", v)
}

func (d *Deriver) lowMessage(v int) string {
	if v < d.Glucose.CriticalLow {
		return fmt.Sprintf("Current glucose: %d mg/dL. Urgent low, take action immediately.", v)
	}
	return fmt.Sprintf("Current glucose: %d mg/dL. Take action immediately.", v)
}

func (d *Deriver) highMessage(v int) string {
	if v > d.Glucose.CriticalHigh {
		return fmt.Sprintf("Current glucose: %d mg/dL. Consider corrective action immediately.", v)
	}
	return fmt.Sprintf("Current glucose: %d mg/dL. Consider follow-up or insulin per plan.", v)
}

func (d *Deriver) refreshedLowMessage(v int) string {
	if v < d.Glucose.Low {
		return d.lowMessage(v)
	}
	return fmt.Sprintf("Current glucose: %d mg/dL. Retest and monitor.", v)
}

func (d *Deriver) refreshedHighMessage(v int) string {
	if v > d.Glucose.High {
		return d.highMessage(v)
	}
	return fmt.Sprintf("Current glucose: %d mg/dL. Retest and monitor.", v)
}

// SortByTime orders alerts newest first, keeping insertion order for ties.
func SortByTime(alerts []defs.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Time.After(alerts[j].Time)
	})
}
