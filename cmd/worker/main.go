package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/learnloop/engage-api/internal/config"
	"github.com/learnloop/engage-api/internal/email"
	"github.com/learnloop/engage-api/internal/service/mailbox"
	"github.com/learnloop/engage-api/internal/service/recommendation"
	"github.com/learnloop/engage-api/internal/store"
	"github.com/learnloop/engage-api/internal/store/redisstore"
	"github.com/learnloop/engage-api/internal/worker"
	"github.com/learnloop/engage-api/pkg/logger"
	"github.com/learnloop/engage-api/pkg/messaging"
	redisbroker "github.com/learnloop/engage-api/pkg/messaging/redis"
	"github.com/learnloop/engage-api/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	l := logger.New(nil)
	m := metrics.New("engage_worker")

	var (
		st     store.Store = store.NewNoop()
		broker messaging.Broker
		ready  func() error
	)
	if cfg.Redis.URL != "" {
		rs, err := redisstore.New(redisstore.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, l.Zerolog(), m)
		if err != nil {
			l.Error(err, "failed to connect to Redis, running degraded")
		} else {
			defer rs.Close()
			st = rs
			broker = redisbroker.NewBroker(rs.Client(), l.Zerolog())
			ready = func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return rs.Client().Ping(ctx).Err()
			}
		}
	} else {
		l.Warn("no Redis URL configured, running degraded")
	}

	var mail email.Service = email.Noop{}
	if cfg.Email.Enabled {
		mail = email.NewService(email.Config{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		}, l)
	}

	mailboxSvc := mailbox.NewService(st, broker, l, m)
	recommendationSvc := recommendation.NewService(st, l, m, recommendation.Config{
		NeighborCount: cfg.Engagement.NeighborCount,
		DefaultLimit:  cfg.Engagement.RecommendationLimit,
		CacheTTL:      cfg.Engagement.RecommendationTTL,
	})

	delivery := worker.NewDeliveryServer(mailboxSvc, recommendationSvc, mail, cfg.Scheduler.SigningKey, l)

	mux := http.NewServeMux()
	delivery.Register(mux)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Worker.Port),
		Handler: mux,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	refresher := worker.NewPopularityRefresher(recommendationSvc, cfg.Engagement.PopularityRefresh, l)
	go refresher.Run(ctx)

	go func() {
		l.Info("starting worker server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal(err, "failed to start worker server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Fatal(err, "worker forced to shutdown")
	}

	l.Info("worker exited")
}
