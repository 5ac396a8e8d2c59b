package gluco

import (
	"math/rand"
	"securegluco/gluco/defs"
	"securegluco/gluco/pkg/alerts"
	"securegluco/gluco/pkg/sched"
	"securegluco/gluco/pkg/telemetry"
	"securegluco/gluco/pkg/threatfeed"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dashboard owns the readings, pump, threats and alerts, and is the only
// thing that changes them. Everything it does runs on Sched.
type Dashboard struct {
	Sched     sched.Scheduler
	Generator *telemetry.Generator
	Deriver   *alerts.Deriver
	Alerts    *alerts.Store
	Feed      *threatfeed.Poller
	Notifier  Notifier
	Logger    *zap.Logger

	window            int
	telemetryInterval time.Duration

	readings  []defs.GlucoseReading
	pump      defs.PumpStatus
	threats   []defs.SecurityThreat
	panelOpen bool

	started   bool
	closed    bool
	cancels   []func()
	observers map[int]func(defs.DashboardState)
	nextObs   int
}

// Notifier is told about every newly raised critical alert.
type Notifier interface {
	Notify(al defs.Alert)
}

// NewDashboard wires the components together. notifier may be nil.
func NewDashboard(cfg defs.Config, s sched.Scheduler, src threatfeed.Source, notifier Notifier) *Dashboard {
	cfg.SetDefaults()
	logger := cfg.Logger

	seed := cfg.Telemetry.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Dashboard{
		Sched:             s,
		Generator:         telemetry.New(rand.NewSource(seed), cfg.Telemetry.MaxStep),
		Deriver:           alerts.NewDeriver(cfg.Glucose, s.Now, logger.Named("alerts")),
		Alerts:            alerts.NewStore(logger.Named("alerts")),
		Feed:              threatfeed.NewPoller(src, s, cfg.ThreatFeed, logger.Named("threatfeed")),
		Notifier:          notifier,
		Logger:            logger,
		window:            cfg.Telemetry.Window,
		telemetryInterval: cfg.Telemetry.Interval,
		observers:         make(map[int]func(defs.DashboardState)),
	}
}

// Start seeds the state and starts every timer.
func (d *Dashboard) Start() {
	d.Sched.Do(func() {
		if d.started || d.closed {
			return
		}
		d.started = true

		now := d.Sched.Now()
		d.readings = d.Generator.Generate(now, d.window)
		d.pump = telemetry.PumpStatus(now)
		d.threats = telemetry.Threats(now)

		deriv := d.Deriver.Seed(d.readings, d.threats)
		d.Alerts.Set(deriv.Alerts)
		d.panelOpen = deriv.OpenPanel

		d.cancels = append(d.cancels,
			d.Feed.OnThreat(d.threatDetected),
			d.Feed.Subscribe(func(defs.FeedStatus) { d.publish() }),
			d.Sched.Every(d.telemetryInterval, d.tick),
			d.Sched.Every(defs.SyncInterval, d.sync),
		)
		d.Feed.Start()

		d.Logger.Info("dashboard started",
			zap.Int("readings", len(d.readings)),
			zap.Int("alerts", len(deriv.Alerts)),
			zap.Duration("telemetry interval", d.telemetryInterval),
		)
		d.publish()
	})
}

// Close stops every timer and drops replies still in flight. Nothing
// changes after Close returns.
func (d *Dashboard) Close() {
	d.Sched.Do(func() {
		if d.closed {
			return
		}
		d.closed = true

		d.Feed.Stop()
		for _, cancel := range d.cancels {
			cancel()
		}
		d.cancels = nil

		d.Logger.Info("dashboard closed")
	})
}

// Observe registers fn for every state change. fn runs on the loop and must
// not call back into the Dashboard.
func (d *Dashboard) Observe(fn func(defs.DashboardState)) func() {
	var id int
	d.Sched.Do(func() {
		id = d.nextObs
		d.nextObs++
		d.observers[id] = fn
	})
	return func() {
		d.Sched.Do(func() { delete(d.observers, id) })
	}
}

func (d *Dashboard) State() defs.DashboardState {
	var state defs.DashboardState
	d.Sched.Do(func() { state = d.snapshot() })
	return state
}

// DismissAlert reports whether the alert was dismissed. False also covers the
// pinned current-glucose alert, which can't be dismissed.
func (d *Dashboard) DismissAlert(id string) bool {
	var ok bool
	d.Sched.Do(func() {
		if d.closed {
			return
		}
		if ok = d.Alerts.Dismiss(id); ok {
			d.publish()
		}
	})
	return ok
}

// SuspendDelivery stops insulin delivery. It does nothing when delivery is
// already suspended.
func (d *Dashboard) SuspendDelivery() bool {
	return d.setDelivering(false, alerts.Suspend{})
}

// ResumeDelivery restarts insulin delivery. It does nothing when the pump is
// already delivering.
func (d *Dashboard) ResumeDelivery() bool {
	return d.setDelivering(true, alerts.Resume{})
}

func (d *Dashboard) setDelivering(on bool, action alerts.Action) bool {
	var changed bool
	d.Sched.Do(func() {
		if d.closed || d.pump.Delivering == on {
			return
		}
		changed = true
		d.pump.Delivering = on
		d.applyAction(action)

		d.Logger.Debug("insulin delivery changed", zap.Bool("delivering", on))
		d.publish()
	})
	return changed
}

// BlockThreat blocks an active threat. Threats that are unknown or no
// longer active are left alone.
func (d *Dashboard) BlockThreat(id string) bool {
	var blocked bool
	d.Sched.Do(func() {
		if d.closed {
			return
		}
		for i := range d.threats {
			th := &d.threats[i]
			if th.ID != id || th.Status != defs.ThreatActive {
				continue
			}

			th.Status = defs.ThreatBlocked
			blocked = true
			d.applyAction(alerts.ThreatBlocked{Threat: *th})

			d.Logger.Debug("blocked threat", zap.String("id", id), zap.Stringer("type", th.Type))
			d.publish()
			return
		}
		d.Logger.Debug("no active threat to block", zap.String("id", id))
	})
	return blocked
}

// RefreshThreatFeed polls the feed once, outside its usual cadence.
func (d *Dashboard) RefreshThreatFeed() {
	d.Sched.Do(func() {
		if d.closed {
			return
		}
		d.Feed.Poll()
	})
}

func (d *Dashboard) SetAlertPanel(open bool) {
	d.Sched.Do(func() {
		if d.closed || d.panelOpen == open {
			return
		}
		d.panelOpen = open
		d.publish()
	})
}

func (d *Dashboard) tick() {
	if d.closed {
		return
	}

	d.readings = d.Generator.Advance(d.readings, d.Sched.Now())
	cur := d.readings[len(d.readings)-1]

	var openPanel bool
	d.applyAlerts(func(known []defs.Alert) []defs.Alert {
		deriv := d.Deriver.FromReading(cur, known)
		openPanel = deriv.OpenPanel
		return deriv.Alerts
	})
	if openPanel {
		d.panelOpen = true
	}

	d.Logger.Debug("new reading",
		zap.Int("value", cur.Value),
		zap.Stringer("trend", cur.Trend),
	)
	d.publish()
}

func (d *Dashboard) sync() {
	if d.closed {
		return
	}
	d.pump.LastSync = d.Sched.Now()
	d.publish()
}

func (d *Dashboard) threatDetected(th defs.SecurityThreat) {
	if d.closed {
		return
	}

	if th.ID == "" {
		th.ID = uuid.NewString()
	}
	for _, known := range d.threats {
		if known.ID == th.ID {
			return
		}
	}

	d.threats = append([]defs.SecurityThreat{th}, d.threats...)
	d.applyAction(alerts.ThreatDetected{Threat: th})

	d.Logger.Info("threat detected",
		zap.String("id", th.ID),
		zap.Stringer("type", th.Type),
		zap.Stringer("severity", th.Severity),
	)
	d.publish()
}

func (d *Dashboard) applyAction(action alerts.Action) {
	d.applyAlerts(func(known []defs.Alert) []defs.Alert {
		return d.Deriver.FromAction(action, known)
	})
}

// applyAlerts derives and publishes the next alert list in one store update,
// then hands new critical alerts to the notifier.
func (d *Dashboard) applyAlerts(derive func([]defs.Alert) []defs.Alert) {
	var fresh []defs.Alert
	d.Alerts.Update(func(cur []defs.Alert) []defs.Alert {
		known := make(map[string]bool, len(cur))
		for _, al := range cur {
			known[al.ID] = true
		}

		next := derive(cur)
		for _, al := range next {
			if !known[al.ID] && !al.Dismissed && al.Severity == defs.Critical {
				fresh = append(fresh, al)
			}
		}
		return next
	})

	if d.Notifier == nil {
		return
	}
	for _, al := range fresh {
		d.Notifier.Notify(al)
	}
}

func (d *Dashboard) snapshot() defs.DashboardState {
	readings := make([]defs.GlucoseReading, len(d.readings))
	copy(readings, d.readings)
	threats := make([]defs.SecurityThreat, len(d.threats))
	copy(threats, d.threats)

	return defs.DashboardState{
		Readings:        readings,
		Alerts:          d.Alerts.All(),
		Active:          d.Alerts.Active(),
		ActiveAlerts:    d.Alerts.ActiveCount(),
		RecentDismissed: d.Alerts.RecentDismissed(defs.RecentAlertLimit),
		Pump:            d.pump,
		Threats:         threats,
		AlertPanelOpen:  d.panelOpen,
		Feed:            d.Feed.Status(),
	}
}

func (d *Dashboard) publish() {
	if len(d.observers) == 0 {
		return
	}
	state := d.snapshot()
	for _, fn := range d.observers {
		fn(state)
	}
}
