package threatfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"securegluco/gluco/defs"
	"strings"

	"go.uber.org/zap"
)

const (
	ProductionURL  = "https://secure-gluco.onrender.com"
	DevelopmentURL = "http://localhost:5000"

	latestEndpoint  = "api/threat-analysis"
	historyEndpoint = "api/threat-analysis/history"
	healthEndpoint  = "api/health"
)

var (
	// ErrServiceStatus is returned when the service replies with status "error".
	ErrServiceStatus = errors.New("threat service reported an error")
	// ErrUnexpectedStatus is returned for any non-2xx response.
	ErrUnexpectedStatus = errors.New("unexpected http status")
)

// Hosts that identify a production deployment.
var productionHosts = []string{"vercel.app", "secure-gluco"}

// Source is the read side of the threat-analysis service.
type Source interface {
	Latest(ctx context.Context) (*defs.ThreatAnalysis, error)
	History(ctx context.Context) ([]defs.ThreatAnalysis, error)
	Healthy(ctx context.Context) (bool, error)
}

type Client struct {
	BaseURL string

	client *http.Client
	logger *zap.Logger
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}

// ResolveBaseURL picks the service address: an explicit override wins, then
// a known production host, then the local development server.
func ResolveBaseURL(override, host string) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}

	host = strings.ToLower(host)
	for _, ph := range productionHosts {
		if strings.Contains(host, ph) {
			return ProductionURL
		}
	}
	return DevelopmentURL
}

// New builds a client whose base URL is resolved once, here. The
// SECUREGLUCO_API_BASE_URL environment variable takes precedence over the
// configured override, and the host falls back to the machine hostname.
func New(cfg defs.ThreatFeedConfig, logger *zap.Logger) *Client {
	override := cfg.BaseURL
	if env := os.Getenv(defs.BaseURLEnv); env != "" {
		override = env
	}

	host := cfg.Host
	if host == "" {
		host, _ = os.Hostname()
	}

	base := ResolveBaseURL(override, host)
	logger.Info("resolved threat feed base url",
		zap.String("url", base),
		zap.String("host", host),
	)

	return &Client{
		BaseURL: base,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// Latest returns the most recent classification, or nil when the service has
// none yet.
func (c *Client) Latest(ctx context.Context) (*defs.ThreatAnalysis, error) {
	data, err := c.get(ctx, latestEndpoint)
	if err != nil {
		return nil, fmt.Errorf("unable to get latest analysis: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var ta defs.ThreatAnalysis
	if err := json.Unmarshal(data, &ta); err != nil {
		return nil, fmt.Errorf("unable to decode latest analysis: %w", err)
	}

	c.logger.Debug("received latest analysis",
		zap.String("id", ta.ID),
		zap.String("class", ta.ThreatClass),
		zap.Float64("confidence", ta.Confidence),
	)

	return &ta, nil
}

// History returns at most defs.FeedHistoryLimit classifications in the order
// the service sent them.
func (c *Client) History(ctx context.Context) ([]defs.ThreatAnalysis, error) {
	data, err := c.get(ctx, historyEndpoint)
	if err != nil {
		return nil, fmt.Errorf("unable to get analysis history: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var history []defs.ThreatAnalysis
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("unable to decode analysis history: %w", err)
	}

	if len(history) > defs.FeedHistoryLimit {
		history = history[len(history)-defs.FeedHistoryLimit:]
	}

	c.logger.Debug("received analysis history", zap.Int("count", len(history)))

	return history, nil
}

func (c *Client) Healthy(ctx context.Context) (bool, error) {
	resp, err := c.do(ctx, healthEndpoint)
	if err != nil {
		return false, fmt.Errorf("unable to check health: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return false, fmt.Errorf("unable to decode health response: %w", err)
	}

	c.logger.Debug("checked threat feed health", zap.String("status", env.Status))

	return strings.EqualFold(env.Status, "healthy"), nil
}

// get returns the data field of a successful reply, nil when it is missing.
func (c *Client) get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	resp, err := c.do(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}

	if env.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrServiceStatus, env.Message)
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		c.logger.Debug("reply carried no data", zap.String("endpoint", endpoint))
		return nil, nil
	}

	return env.Data, nil
}

func (c *Client) do(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/"+endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	return resp, nil
}
