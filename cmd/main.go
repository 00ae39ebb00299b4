package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"remo_dashboard/internal/apiclient"
	"remo_dashboard/internal/config"
	"remo_dashboard/internal/dashboard"
	"remo_dashboard/internal/handlers"
	"remo_dashboard/internal/logger"
	"remo_dashboard/internal/metrics"
	"remo_dashboard/internal/publisher"
	"remo_dashboard/internal/remo"
	"remo_dashboard/internal/repository"
	"remo_dashboard/internal/repository/db"
	"remo_dashboard/internal/server"
	"remo_dashboard/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// load configs/config.yml + env
	cfg, err := config.Load("configs", ".")
	if err != nil {
		logger.Get(logger.InfoLevel, logger.ConsoleEncoding).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.Log.Level, cfg.Log.Encoding)
	if cfg.Remo.Token == "" {
		log.Warnw("REMO_TOKEN is not set; proxy endpoints will answer 500")
	}

	// open DB
	conn, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// wire dependencies
	rec := metrics.New()
	repos := repository.NewRepository(conn, cfg.DB.MaxEvents)
	vendor := remo.New(remo.Options{
		BaseURL:         cfg.Remo.BaseURL,
		Token:           cfg.Remo.Token,
		Timeout:         cfg.Remo.Timeout,
		BreakerFailures: cfg.Remo.BreakerFailures,
		BreakerOpenFor:  cfg.Remo.BreakerOpenFor,
		Observer:        rec.ObserveVendorRequest,
	})
	proxy := service.NewProxyService(vendor)

	sinks := []dashboard.SampleSink{rec}
	pub := connectPublisher(ctx, cfg.MQTT, log)
	if pub != nil {
		sinks = append(sinks, pub)
	}

	dash := dashboard.New(dashboard.Options{
		Backend:   newBackend(cfg, proxy, log),
		Interval:  cfg.Dashboard.PollInterval,
		Log:       log.Named("dashboard"),
		Events:    repos.EventRepo,
		Observers: []dashboard.PollObserver{rec},
		Sinks:     sinks,
	})
	rec.TrackDashboard(dash)

	services := service.NewService(repos, proxy, dash)
	apiHandler := handlers.NewHandler(services, log.Named("http"), rec.Handler())

	// start polling
	if err := dash.Start(ctx); err != nil {
		log.Fatalw("failed to start dashboard polling", "err", err)
	}

	// start HTTP server
	srv := server.New(server.Options{})
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log, dash.Stop, closePublisher(pub))
}

// openDB initializes the SQLite event log.
func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	path := cfg.DBPath()
	if cfg.DB.Path == "" {
		log.Infow("db.path not set in config; keeping events in memory")
	}
	return db.InitDB(path)
}

// newBackend picks where the dashboard reads from: the proxy in this process
// or a proxy running elsewhere.
func newBackend(cfg *config.Config, proxy service.Proxy, log *logger.Logger) dashboard.Backend {
	if cfg.Dashboard.Source == config.SourceRemote {
		log.Infow("dashboard uses remote proxy", "url", cfg.Dashboard.APIBaseURL)
		return apiclient.New(cfg.Dashboard.APIBaseURL, nil)
	}
	return service.NewLocalBackend(proxy)
}

// connectPublisher returns nil when MQTT is not configured or unreachable;
// the dashboard runs without it.
func connectPublisher(ctx context.Context, cfg config.MQTTConfig, log *logger.Logger) *publisher.Publisher {
	if cfg.Broker == "" {
		return nil
	}
	pub, err := publisher.Connect(ctx, publisher.Config{
		Broker:   cfg.Broker,
		ClientID: cfg.ClientID,
		Username: cfg.Username,
		Password: cfg.Password,
		Topic:    cfg.Topic,
	}, log.Named("mqtt"))
	if err != nil {
		log.Errorw("mqtt publishing disabled", "err", err)
		return nil
	}
	return pub
}

func closePublisher(pub *publisher.Publisher) func() {
	return func() {
		if pub != nil {
			pub.Close()
		}
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger, stops ...func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()
	for _, stop := range stops {
		stop()
	}

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
