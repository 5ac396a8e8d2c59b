package gluco

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"securegluco/gluco/defs"
	"securegluco/gluco/pkg/discgo"
	ghttp "securegluco/gluco/pkg/http"
	"securegluco/gluco/pkg/sched"
	"securegluco/gluco/pkg/threatfeed"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Run serves the dashboard until SIGINT or SIGTERM.
func Run(config defs.Config) error {
	config.SetDefaults()
	logger := config.Logger

	loc := time.Local
	if config.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(config.Timezone); err != nil {
			return fmt.Errorf("unable to load timezone: %w", err)
		}
	}

	loop := sched.NewLoop(logger.Named("sched"))
	source := threatfeed.New(config.ThreatFeed, logger.Named("threatfeed"))

	var notifier Notifier
	if config.Discord.Token != "" {
		dg, err := discgo.New(config.Discord, logger.Named("discgo"))
		if err != nil {
			return fmt.Errorf("unable to set up discord: %w", err)
		}
		notifier = NewAlertPusher(dg, loop, loc, logger.Named("discgo"))
	} else {
		logger.Info("no discord token, critical alerts will not be pushed")
	}

	dash := NewDashboard(config, loop, source, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ghttp.NewHub(logger.Named("hub"))
	go hub.Run(ctx)
	dash.Observe(func(state defs.DashboardState) {
		hub.Broadcast("state", state)
	})

	gin.SetMode(gin.ReleaseMode)
	server := ghttp.New(dash, hub, config.Glucose, loc, logger.Named("http"))

	dash.Start()

	errs := make(chan error, 1)
	go func() {
		errs <- server.ListenAndServe(config.HTTP.Address)
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	var err error
	select {
	case sig := <-signals:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err = <-errs:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if serr := server.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("unable to shut down http server", zap.Error(serr))
	}

	dash.Close()
	loop.Stop()
	cancel()

	return err
}
