package defs

import (
	"time"

	"go.uber.org/zap"
)

// Intervals.
const (
	TelemetryInterval  = 30 * time.Second
	SyncInterval       = 30 * time.Second
	ThreatPollInterval = 3 * time.Second
	HealthInterval     = 30 * time.Second
	RequestTimeout     = 2 * time.Second
	ReadingSpacing     = 5 * time.Minute
)

// Limits.
const (
	DefaultWindow      = 24*12 + 1 // One day of readings, inclusive of now.
	DefaultMaxStep     = 5
	RecentAlertLimit   = 5
	FeedHistoryLimit   = 50
	DefaultHTTPAddress = ":4242"
)

// Channels.
const (
	AlertsChannel = "alerts"
)

// BaseURLEnv overrides ThreatFeedConfig.BaseURL when set.
const BaseURLEnv = "SECUREGLUCO_API_BASE_URL"

type Config struct {
	Glucose    GlucoseConfig    `yaml:"glucose"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	ThreatFeed ThreatFeedConfig `yaml:"threatFeed"`
	HTTP       HTTPConfig       `yaml:"http"`
	Discord    DiscordConfig    `yaml:"discord"`
	Timezone   string           `yaml:"timezone"`
	Logger     *zap.Logger      `yaml:"-"`
}

// GlucoseConfig holds thresholds in mg/dL. Low and High bound the normal
// range and decide when alerts are raised; the critical pair only changes
// severity and wording.
type GlucoseConfig struct {
	Low          int `yaml:"low"`
	High         int `yaml:"high"`
	CriticalLow  int `yaml:"criticalLow"`
	CriticalHigh int `yaml:"criticalHigh"`
}

type TelemetryConfig struct {
	Window   int           `yaml:"window"`
	Interval time.Duration `yaml:"interval"`
	MaxStep  int           `yaml:"maxStep"`
	Seed     int64         `yaml:"seed"`
}

type ThreatFeedConfig struct {
	BaseURL        string        `yaml:"baseURL"`
	Host           string        `yaml:"host"`
	PollInterval   time.Duration `yaml:"pollInterval"`
	HealthInterval time.Duration `yaml:"healthInterval"`
	Timeout        time.Duration `yaml:"timeout"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DiscordConfig struct {
	Token    string            `yaml:"token"`
	Channels map[string]string `yaml:"channels"`
}

func DefaultGlucoseConfig() GlucoseConfig {
	return GlucoseConfig{Low: 70, High: 180, CriticalLow: 54, CriticalHigh: 300}
}

// SetDefaults fills every zero value with its default. Counts and durations
// that are not positive are replaced too.
func (c *Config) SetDefaults() {
	gd := DefaultGlucoseConfig()
	if c.Glucose.Low == 0 {
		c.Glucose.Low = gd.Low
	}
	if c.Glucose.High == 0 {
		c.Glucose.High = gd.High
	}
	if c.Glucose.CriticalLow == 0 {
		c.Glucose.CriticalLow = gd.CriticalLow
	}
	if c.Glucose.CriticalHigh == 0 {
		c.Glucose.CriticalHigh = gd.CriticalHigh
	}

	if c.Telemetry.Window <= 0 {
		c.Telemetry.Window = DefaultWindow
	}
	if c.Telemetry.Interval <= 0 {
		c.Telemetry.Interval = TelemetryInterval
	}
	if c.Telemetry.MaxStep <= 0 {
		c.Telemetry.MaxStep = DefaultMaxStep
	}

	if c.ThreatFeed.PollInterval <= 0 {
		c.ThreatFeed.PollInterval = ThreatPollInterval
	}
	if c.ThreatFeed.HealthInterval <= 0 {
		c.ThreatFeed.HealthInterval = HealthInterval
	}
	if c.ThreatFeed.Timeout <= 0 {
		c.ThreatFeed.Timeout = RequestTimeout
	}

	if c.HTTP.Address == "" {
		c.HTTP.Address = DefaultHTTPAddress
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}
