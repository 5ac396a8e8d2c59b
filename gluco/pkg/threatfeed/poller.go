package threatfeed

import (
	"context"
	"fmt"
	"securegluco/gluco/defs"
	"securegluco/gluco/pkg/sched"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const ThreatSource = "AI threat feed"

// Layouts the service has been seen to send timestamps in.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
}

// Poller keeps the last known feed snapshot fresh. Start, Stop, Poll and
// CheckHealth must run on the scheduler's loop. Listeners may be added and
// removed from anywhere, whether or not polling is running.
type Poller struct {
	Source Source
	Sched  sched.Scheduler
	Logger *zap.Logger

	PollInterval   time.Duration
	HealthInterval time.Duration

	mu              sync.Mutex
	status          defs.FeedStatus
	listeners       map[int]func(defs.FeedStatus)
	threatListeners map[int]func(defs.SecurityThreat)
	nextListener    int

	running    bool
	generation int
	cancels    []func()
	lastThreat string
}

func NewPoller(src Source, s sched.Scheduler, cfg defs.ThreatFeedConfig, logger *zap.Logger) *Poller {
	return &Poller{
		Source:          src,
		Sched:           s,
		Logger:          logger,
		PollInterval:    cfg.PollInterval,
		HealthInterval:  cfg.HealthInterval,
		listeners:       make(map[int]func(defs.FeedStatus)),
		threatListeners: make(map[int]func(defs.SecurityThreat)),
	}
}

// Subscribe registers fn for every status change and returns its
// unsubscribe func.
func (p *Poller) Subscribe(fn func(defs.FeedStatus)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextListener
	p.nextListener++
	p.listeners[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// OnThreat registers fn for every non-benign classification and returns its
// unsubscribe func.
func (p *Poller) OnThreat(fn func(defs.SecurityThreat)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextListener
	p.nextListener++
	p.threatListeners[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.threatListeners, id)
	}
}

func (p *Poller) Status() defs.FeedStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyStatus(p.status)
}

func (p *Poller) Running() bool {
	return p.running
}

// Start polls once right away and then on both intervals.
func (p *Poller) Start() {
	if p.running {
		return
	}
	p.running = true
	p.generation++

	p.Logger.Info("starting threat feed polling",
		zap.Duration("poll interval", p.PollInterval),
		zap.Duration("health interval", p.HealthInterval),
	)

	p.Poll()
	p.CheckHealth()

	p.cancels = append(p.cancels,
		p.Sched.Every(p.PollInterval, p.Poll),
		p.Sched.Every(p.HealthInterval, p.CheckHealth),
	)
}

// Stop cancels both timers. Replies still in flight are dropped, so no
// listener is called after Stop.
func (p *Poller) Stop() {
	if !p.running {
		return
	}
	p.running = false
	p.generation++

	for _, cancel := range p.cancels {
		cancel()
	}
	p.cancels = nil

	p.Logger.Info("stopped threat feed polling")
}

// Poll fetches the latest analysis and then the history outside the loop.
// A good latest reply is applied even when the history fetch fails; the
// previous history stays and the poll still counts as disconnected.
func (p *Poller) Poll() {
	if !p.running {
		return
	}
	gen := p.generation

	p.Sched.Async(func(ctx context.Context) func() {
		latest, err := p.Source.Latest(ctx)
		var (
			history    []defs.ThreatAnalysis
			historyErr error
		)
		if err == nil {
			history, historyErr = p.Source.History(ctx)
		}

		return func() {
			if gen != p.generation {
				return
			}
			p.applyPoll(latest, err, history, historyErr)
		}
	})
}

func (p *Poller) CheckHealth() {
	if !p.running {
		return
	}
	gen := p.generation

	p.Sched.Async(func(ctx context.Context) func() {
		healthy, err := p.Source.Healthy(ctx)

		return func() {
			if gen != p.generation {
				return
			}
			if err != nil {
				p.Logger.Warn("threat feed health check failed", zap.Error(err))
			}

			p.mu.Lock()
			p.status.Healthy = healthy
			p.mu.Unlock()

			p.notify(nil)
		}
	})
}

func (p *Poller) applyPoll(latest *defs.ThreatAnalysis, err error, history []defs.ThreatAnalysis, historyErr error) {
	p.mu.Lock()
	if err != nil {
		p.Logger.Warn("threat feed unreachable, keeping last snapshot", zap.Error(err))
		p.status.Connected = false
		p.status.LastError = err.Error()
		p.mu.Unlock()
		p.notify(nil)
		return
	}

	p.status.UpdatedAt = p.Sched.Now()
	if latest != nil {
		p.status.Latest = latest
	}
	if historyErr != nil {
		p.Logger.Warn("unable to fetch threat history, keeping last history", zap.Error(historyErr))
		p.status.Connected = false
		p.status.LastError = historyErr.Error()
	} else {
		p.status.Connected = true
		p.status.LastError = ""
		if history != nil {
			p.status.History = history
		}
	}
	p.mu.Unlock()

	var threat *defs.SecurityThreat
	if latest != nil && !latest.IsBenign() {
		key := analysisKey(latest)
		if key != p.lastThreat {
			p.lastThreat = key
			th := ThreatFromAnalysis(latest, p.Sched.Now())
			threat = &th
			p.Logger.Debug("threat classified",
				zap.String("id", th.ID),
				zap.String("class", latest.ThreatClass),
				zap.Stringer("severity", th.Severity),
			)
		}
	}

	p.notify(threat)
}

func (p *Poller) notify(threat *defs.SecurityThreat) {
	p.mu.Lock()
	status := copyStatus(p.status)
	listeners := make([]func(defs.FeedStatus), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	threatListeners := make([]func(defs.SecurityThreat), 0, len(p.threatListeners))
	for _, fn := range p.threatListeners {
		threatListeners = append(threatListeners, fn)
	}
	p.mu.Unlock()

	if threat != nil {
		for _, fn := range threatListeners {
			fn(*threat)
		}
	}
	for _, fn := range listeners {
		fn(status)
	}
}

// ThreatFromAnalysis turns a non-benign classification into an active threat.
func ThreatFromAnalysis(ta *defs.ThreatAnalysis, now time.Time) defs.SecurityThreat {
	severity := defs.Warning
	if ta.RiskLevel == defs.RiskCritical {
		severity = defs.Critical
	}

	ts := now
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ta.Timestamp); err == nil {
			ts = t
			break
		}
	}

	return defs.SecurityThreat{
		ID:          ta.ID,
		Type:        ThreatTypeOf(ta.ThreatClass),
		Severity:    severity,
		Time:        ts,
		Description: fmt.Sprintf("%s detected - Confidence: %.1f%%", ta.ThreatClass, ta.Confidence*100),
		Status:      defs.ThreatActive,
		Source:      ThreatSource,
	}
}

// ThreatTypeOf maps a free-form class name onto the closed threat types.
// Unrecognised classes are reported as port scans.
func ThreatTypeOf(class string) defs.ThreatType {
	c := strings.ToLower(class)
	switch {
	case strings.Contains(c, "ddos"):
		return defs.DDoSAttack
	case strings.Contains(c, "port"), strings.Contains(c, "scan"):
		return defs.PortScan
	case strings.Contains(c, "replay"):
		return defs.ReplayAttack
	case strings.Contains(c, "bolus"):
		return defs.UnauthorizedBolus
	case strings.Contains(c, "bluetooth"), strings.Contains(c, "spoof"):
		return defs.BluetoothSpoofing
	case strings.Contains(c, "wifi"), strings.Contains(c, "intercept"):
		return defs.WifiInterception
	case strings.Contains(c, "manipulat"):
		return defs.DeviceManipulation
	default:
		return defs.PortScan
	}
}

func analysisKey(ta *defs.ThreatAnalysis) string {
	if ta.ID != "" {
		return ta.ID
	}
	return ta.Timestamp + "/" + ta.ThreatClass
}

func copyStatus(s defs.FeedStatus) defs.FeedStatus {
	if s.History != nil {
		h := make([]defs.ThreatAnalysis, len(s.History))
		copy(h, s.History)
		s.History = h
	}
	if s.Latest != nil {
		l := *s.Latest
		s.Latest = &l
	}
	return s
}
