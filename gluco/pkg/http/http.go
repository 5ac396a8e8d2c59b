package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"securegluco/gluco/defs"
	"securegluco/gluco/pkg/stats"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Dashboard is what the views may read and do.
type Dashboard interface {
	State() defs.DashboardState
	DismissAlert(id string) bool
	SuspendDelivery() bool
	ResumeDelivery() bool
	BlockThreat(id string) bool
	RefreshThreatFeed()
	SetAlertPanel(open bool)
}

type HttpServer struct {
	Dashboard Dashboard
	Hub       *Hub
	Logger    *zap.Logger
	Glucose   defs.GlucoseConfig
	Location  *time.Location
	Router    *gin.Engine

	srv      *http.Server
	upgrader websocket.Upgrader
}

type GlucoseReport struct {
	Range       string                  `json:"range"`
	Readings    []defs.GlucoseReading   `json:"readings"`
	Current     *BandedReading          `json:"current,omitempty"`
	TimeInRange stats.RangeAnalysis     `json:"timeInRange"`
	Summary     stats.SummaryStatistics `json:"summary"`
	Hourly      []stats.HourlyBucket    `json:"hourly"`
}

type BandedReading struct {
	defs.GlucoseReading
	Band stats.Band `json:"band"`
}

type AlertsReport struct {
	Active          []defs.Alert `json:"active"`
	ActiveCount     int          `json:"activeCount"`
	RecentDismissed []defs.Alert `json:"recentDismissed"`
}

func New(d Dashboard, hub *Hub, cfg defs.GlucoseConfig, loc *time.Location, logger *zap.Logger) *HttpServer {
	if loc == nil {
		loc = time.UTC
	}

	s := &HttpServer{
		Dashboard: d,
		Hub:       hub,
		Logger:    logger,
		Glucose:   cfg,
		Location:  loc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.Router = s.routes()
	return s
}

func (s *HttpServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)

	api := r.Group("/api")
	api.GET("/state", s.getState)
	api.GET("/glucose", s.getGlucose)
	api.GET("/alerts", s.getAlerts)
	api.POST("/alerts/:id/dismiss", s.dismissAlert)
	api.POST("/pump/suspend", s.suspend)
	api.POST("/pump/resume", s.resume)
	api.POST("/threats/:id/block", s.blockThreat)
	api.POST("/threat-feed/refresh", s.refreshFeed)
	api.POST("/alert-panel/open", s.setPanel(true))
	api.POST("/alert-panel/close", s.setPanel(false))

	r.GET("/ws", s.serveWS)

	return r
}

// ListenAndServe blocks until the server is shut down.
func (s *HttpServer) ListenAndServe(addr string) error {
	s.srv = &http.Server{Addr: addr, Handler: s.Router}
	s.Logger.Info("serving dashboard", zap.String("address", addr))

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("unable to serve: %w", err)
	}
	return nil
}

func (s *HttpServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *HttpServer) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.Logger.Debug("handled request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("took", time.Since(start)),
	)
}

func (s *HttpServer) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.Dashboard.State())
}

func (s *HttpServer) getGlucose(c *gin.Context) {
	tr, err := stats.ParseTimeRange(c.DefaultQuery("range", ""))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state := s.Dashboard.State()
	now := time.Now()
	if cur, ok := state.Current(); ok {
		now = cur.Time
	}
	readings := stats.FilterRange(state.Readings, tr, now)

	report := GlucoseReport{
		Range:       tr.String(),
		Readings:    readings,
		TimeInRange: stats.TimeSpentInRange(readings, s.Glucose.Low, s.Glucose.High),
		Summary:     stats.GlucoseSummary(readings),
		Hourly:      stats.HourlyBuckets(readings, s.Glucose.Low, s.Glucose.High, s.Location),
	}
	if cur, ok := state.Current(); ok {
		report.Current = &BandedReading{GlucoseReading: cur, Band: stats.Classify(cur.Value)}
	}

	c.JSON(http.StatusOK, report)
}

func (s *HttpServer) getAlerts(c *gin.Context) {
	state := s.Dashboard.State()

	c.JSON(http.StatusOK, AlertsReport{
		Active:          state.Active,
		ActiveCount:     state.ActiveAlerts,
		RecentDismissed: state.RecentDismissed,
	})
}

// Unknown ids are not errors; the reply just says nothing changed.
func (s *HttpServer) dismissAlert(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"dismissed": s.Dashboard.DismissAlert(c.Param("id"))})
}

func (s *HttpServer) suspend(c *gin.Context) {
	changed := s.Dashboard.SuspendDelivery()
	c.JSON(http.StatusOK, gin.H{"changed": changed, "pump": s.Dashboard.State().Pump})
}

func (s *HttpServer) resume(c *gin.Context) {
	changed := s.Dashboard.ResumeDelivery()
	c.JSON(http.StatusOK, gin.H{"changed": changed, "pump": s.Dashboard.State().Pump})
}

func (s *HttpServer) blockThreat(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"blocked": s.Dashboard.BlockThreat(c.Param("id"))})
}

func (s *HttpServer) refreshFeed(c *gin.Context) {
	s.Dashboard.RefreshThreatFeed()
	c.JSON(http.StatusAccepted, gin.H{"refreshing": true})
}

func (s *HttpServer) setPanel(open bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.Dashboard.SetAlertPanel(open)
		c.JSON(http.StatusOK, gin.H{"alertPanelOpen": open})
	}
}

func (s *HttpServer) serveWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	s.Hub.serve(conn)
}
