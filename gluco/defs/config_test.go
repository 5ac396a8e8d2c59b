package defs

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type DefsTestSuite struct {
	suite.Suite
}

func TestDefsTestSuite(t *testing.T) {
	suite.Run(t, new(DefsTestSuite))
}

func (suite *DefsTestSuite) TestSetDefaults() {
	var cfg Config
	cfg.SetDefaults()

	assert.Equal(suite.T(), DefaultGlucoseConfig(), cfg.Glucose)
	assert.Equal(suite.T(), DefaultWindow, cfg.Telemetry.Window)
	assert.Equal(suite.T(), TelemetryInterval, cfg.Telemetry.Interval)
	assert.Equal(suite.T(), ThreatPollInterval, cfg.ThreatFeed.PollInterval)
	assert.Equal(suite.T(), HealthInterval, cfg.ThreatFeed.HealthInterval)
	assert.Equal(suite.T(), DefaultHTTPAddress, cfg.HTTP.Address)
	assert.NotNil(suite.T(), cfg.Logger)
}

func (suite *DefsTestSuite) TestSetDefaultsNegative() {
	var cfg Config
	assert.NoError(suite.T(), yaml.Unmarshal([]byte(`
telemetry:
  window: -1
  interval: -30s
threatFeed:
  pollInterval: -3s
  healthInterval: 0s
  timeout: -2s
`), &cfg))
	cfg.SetDefaults()

	assert.Equal(suite.T(), DefaultWindow, cfg.Telemetry.Window)
	assert.Equal(suite.T(), TelemetryInterval, cfg.Telemetry.Interval)
	assert.Equal(suite.T(), ThreatPollInterval, cfg.ThreatFeed.PollInterval)
	assert.Equal(suite.T(), HealthInterval, cfg.ThreatFeed.HealthInterval)
	assert.Equal(suite.T(), RequestTimeout, cfg.ThreatFeed.Timeout)
}

func (suite *DefsTestSuite) TestYAMLOverrides() {
	file := []byte(`
glucose:
  low: 80
telemetry:
  interval: 10s
threatFeed:
  baseURL: http://feed.local:5000
  pollInterval: 1s
discord:
  token: abc
  channels:
    alerts: "123"
`)

	var cfg Config
	assert.NoError(suite.T(), yaml.Unmarshal(file, &cfg))
	cfg.SetDefaults()

	assert.Equal(suite.T(), 80, cfg.Glucose.Low)
	assert.Equal(suite.T(), 180, cfg.Glucose.High)
	assert.Equal(suite.T(), 10*time.Second, cfg.Telemetry.Interval)
	assert.Equal(suite.T(), time.Second, cfg.ThreatFeed.PollInterval)
	assert.Equal(suite.T(), "http://feed.local:5000", cfg.ThreatFeed.BaseURL)
	assert.Equal(suite.T(), "123", cfg.Discord.Channels[AlertsChannel])
}

func (suite *DefsTestSuite) TestRiskLevelDecoding() {
	var ta ThreatAnalysis
	err := json.Unmarshal([]byte(`{"id":"1","threat_class":"DDoS","risk_level":"critical"}`), &ta)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), RiskCritical, ta.RiskLevel)

	err = json.Unmarshal([]byte(`{"id":"2","threat_class":"DDoS","risk_level":"Severe"}`), &ta)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), RiskUnknown, ta.RiskLevel)
}

func (suite *DefsTestSuite) TestIsBenign() {
	for class, benign := range map[string]bool{
		"Benign":    true,
		"NORMAL":    true,
		" normal ":  true,
		"DDoS":      false,
		"PortScan":  false,
		"benignish": false,
	} {
		ta := ThreatAnalysis{ThreatClass: class}
		assert.Equal(suite.T(), benign, ta.IsBenign(), class)
	}
}

func (suite *DefsTestSuite) TestEnumsMarshalAsText() {
	b, err := json.Marshal(Alert{Type: LowGlucoseAlert, Severity: Critical})
	assert.NoError(suite.T(), err)
	assert.Contains(suite.T(), string(b), `"type":"low-glucose"`)
	assert.Contains(suite.T(), string(b), `"severity":"critical"`)
}

func (suite *DefsTestSuite) TestEnumsRoundTrip() {
	in := SecurityThreat{ID: "1", Type: WifiInterception, Severity: Warning, Status: ThreatResolved}
	b, err := json.Marshal(in)
	assert.NoError(suite.T(), err)

	var out SecurityThreat
	assert.NoError(suite.T(), json.Unmarshal(b, &out))
	assert.Equal(suite.T(), in, out)

	var al Alert
	err = json.Unmarshal([]byte(`{"type":"sideways"}`), &al)
	assert.Error(suite.T(), err)
}
