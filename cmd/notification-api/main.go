package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"notification_feed/internal/config"
	"notification_feed/internal/db"
	"notification_feed/internal/logger"
	"notification_feed/internal/metrics"
	"notification_feed/internal/queue"
	"notification_feed/internal/server"
	"notification_feed/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Log.Fatalf("Config load error: %v", err)
	}
	logger.Init(cfg.LogLevel)
	defer logger.Log.Info("Application stopped")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.NewDB(ctx, cfg.API.DatabaseURL)
	if err != nil {
		logger.Log.Fatalf("DB connection error: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Log.Fatalf("DB migration error: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	srv := server.NewServer(database, m)
	apiServer := &http.Server{Addr: cfg.API.ListenAddr, Handler: srv.Routes()}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{Addr: cfg.API.MetricsAddr, Handler: metricsMux}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.Infof("Starting HTTP server on %s", cfg.API.ListenAddr)
		if err := apiServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Log.Infof("Starting metrics server on %s", cfg.API.MetricsAddr)
		if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.RabbitMQ.URL != "" {
		consumer, err := queue.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, cfg.RabbitMQ.Workers)
		if err != nil {
			logger.Log.Fatalf("RabbitMQ consumer error: %v", err)
		}
		defer consumer.Close()

		wrk := worker.NewWorker(database, m)
		g.Go(func() error {
			err := consumer.Consume(gctx, wrk.HandleTask)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Log.Warn("RabbitMQ URL not set, event ingestion disabled")
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("Shutting down...")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := apiServer.Shutdown(ctxShutdown); err != nil {
			return err
		}
		return metricsServer.Shutdown(ctxShutdown)
	})

	if err := g.Wait(); err != nil {
		logger.Log.Errorf("Server error: %v", err)
		os.Exit(1)
	}
}
