package defs

import (
	"strings"
	"time"
)

type Trend int

const (
	Stable Trend = iota
	Rising
	Falling
)

func (t Trend) String() string {
	return [...]string{"stable", "rising", "falling"}[t]
}

func (t Trend) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// GlucoseReading is a single CGM sample in mg/dL. Readings are values, never
// mutated after creation.
type GlucoseReading struct {
	Time  time.Time `json:"timestamp"`
	Value int       `json:"value"`
	Trend Trend     `json:"trend"`
}

type AlertType int

const (
	GlucoseAlert AlertType = iota
	SecurityAlert
	DeviceAlert
	AIThreatAlert
	CurrentGlucoseAlert
	LowGlucoseAlert
	HighGlucoseAlert
)

func (at AlertType) String() string {
	return [...]string{
		"glucose",
		"security",
		"device",
		"ai_threat",
		"current-glucose",
		"low-glucose",
		"high-glucose",
	}[at]
}

func (at AlertType) MarshalText() ([]byte, error) {
	return []byte(at.String()), nil
}

type Severity int

const (
	Info Severity = iota
	Warning
	Critical
)

func (s Severity) String() string {
	return [...]string{"info", "warning", "critical"}[s]
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Alert is only ever mutated through Dismissed, which goes false -> true once.
type Alert struct {
	ID        string    `json:"id"`
	Type      AlertType `json:"type"`
	Severity  Severity  `json:"severity"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Time      time.Time `json:"timestamp"`
	Dismissed bool      `json:"dismissed"`
}

type ConnectionStatus int

const (
	Connected ConnectionStatus = iota
	Weak
	Disconnected
)

func (cs ConnectionStatus) String() string {
	return [...]string{"connected", "weak", "disconnected"}[cs]
}

func (cs ConnectionStatus) MarshalText() ([]byte, error) {
	return []byte(cs.String()), nil
}

type PumpStatus struct {
	BatteryLevel     int              `json:"batteryLevel"`
	ActiveInsulin    float64          `json:"activeInsulin"`
	ReservoirLevel   float64          `json:"reservoirLevel"`
	ConnectionStatus ConnectionStatus `json:"connectionStatus"`
	LastSync         time.Time        `json:"lastSync"`
	Delivering       bool             `json:"isDelivering"`
}

type ThreatType int

const (
	ReplayAttack ThreatType = iota
	UnauthorizedBolus
	BluetoothSpoofing
	WifiInterception
	DeviceManipulation
	DDoSAttack
	PortScan
)

func (tt ThreatType) String() string {
	return [...]string{
		"replay_attack",
		"unauthorized_bolus",
		"bluetooth_spoofing",
		"wifi_interception",
		"device_manipulation",
		"ddos_attack",
		"port_scan",
	}[tt]
}

func (tt ThreatType) MarshalText() ([]byte, error) {
	return []byte(tt.String()), nil
}

type ThreatStatus int

const (
	ThreatActive ThreatStatus = iota
	ThreatBlocked
	ThreatResolved
)

func (ts ThreatStatus) String() string {
	return [...]string{"active", "blocked", "resolved"}[ts]
}

func (ts ThreatStatus) MarshalText() ([]byte, error) {
	return []byte(ts.String()), nil
}

type SecurityThreat struct {
	ID          string       `json:"id"`
	Type        ThreatType   `json:"type"`
	Severity    Severity     `json:"severity"`
	Time        time.Time    `json:"timestamp"`
	Description string       `json:"description"`
	Status      ThreatStatus `json:"status"`
	Source      string       `json:"source,omitempty"`
}

type RiskLevel int

const (
	RiskUnknown RiskLevel = iota
	RiskLow
	RiskMedium
	RiskHigh
	RiskCritical
)

var riskNames = [...]string{"Unknown", "Low", "Medium", "High", "Critical"}

func (rl RiskLevel) String() string {
	return riskNames[rl]
}

func (rl RiskLevel) MarshalText() ([]byte, error) {
	return []byte(rl.String()), nil
}

// UnmarshalText accepts any casing. Levels the feed invents are kept as
// RiskUnknown rather than failing the whole payload.
func (rl *RiskLevel) UnmarshalText(b []byte) error {
	*rl = RiskUnknown
	for i, name := range riskNames {
		if strings.EqualFold(name, string(b)) {
			*rl = RiskLevel(i)
			break
		}
	}
	return nil
}

// ThreatAnalysis is a classification snapshot produced by the external
// threat-analysis service. It is consumed read-only.
type ThreatAnalysis struct {
	ID              string             `json:"id"`
	Timestamp       string             `json:"timestamp"`
	ThreatClass     string             `json:"threat_class"`
	Confidence      float64            `json:"confidence"`
	Probabilities   map[string]float64 `json:"probabilities"`
	Features        map[string]float64 `json:"features"`
	Recommendations []string           `json:"recommendations"`
	RiskLevel       RiskLevel          `json:"risk_level"`
	ModelUsed       string             `json:"model_used,omitempty"`
}

// IsBenign reports whether the classification needs no action.
func (ta *ThreatAnalysis) IsBenign() bool {
	class := strings.ToLower(strings.TrimSpace(ta.ThreatClass))
	return class == "benign" || class == "normal"
}
