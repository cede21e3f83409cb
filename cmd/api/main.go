package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/learnloop/engage-api/internal/config"
	activityHandler "github.com/learnloop/engage-api/internal/handler/activity"
	analyticsHandler "github.com/learnloop/engage-api/internal/handler/analytics"
	dispatchHandler "github.com/learnloop/engage-api/internal/handler/dispatch"
	healthHandler "github.com/learnloop/engage-api/internal/handler/health"
	mailboxHandler "github.com/learnloop/engage-api/internal/handler/mailbox"
	recommendationHandler "github.com/learnloop/engage-api/internal/handler/recommendation"
	"github.com/learnloop/engage-api/internal/middleware"
	"github.com/learnloop/engage-api/internal/router"
	"github.com/learnloop/engage-api/internal/scheduler"
	"github.com/learnloop/engage-api/internal/scheduler/httpsched"
	"github.com/learnloop/engage-api/internal/service/activity"
	"github.com/learnloop/engage-api/internal/service/analytics"
	"github.com/learnloop/engage-api/internal/service/dispatch"
	"github.com/learnloop/engage-api/internal/service/mailbox"
	"github.com/learnloop/engage-api/internal/service/recommendation"
	"github.com/learnloop/engage-api/internal/store"
	"github.com/learnloop/engage-api/internal/store/redisstore"
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
	m := metrics.New("engage")

	// The store degrades to a no-op rather than blocking startup; every
	// read serves neutral values until Redis is reachable again.
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

	var sched scheduler.Scheduler = scheduler.NewNoop()
	if cfg.Scheduler.BaseURL != "" && cfg.Scheduler.Token != "" {
		sched = httpsched.New(httpsched.Config{
			BaseURL: cfg.Scheduler.BaseURL,
			Token:   cfg.Scheduler.Token,
			Timeout: cfg.Scheduler.Timeout,
		}, l.Zerolog(), m)
	} else {
		l.Warn("scheduler not configured, dispatch runs in noop mode")
	}

	activitySvc := activity.NewService(st, l, m, cfg.Engagement.RecentSetSize)
	recommendationSvc := recommendation.NewService(st, l, m, recommendation.Config{
		NeighborCount: cfg.Engagement.NeighborCount,
		DefaultLimit:  cfg.Engagement.RecommendationLimit,
		CacheTTL:      cfg.Engagement.RecommendationTTL,
	})
	analyticsSvc := analytics.NewService(st, l, m, cfg.Engagement.RetentionDays)
	mailboxSvc := mailbox.NewService(st, broker, l, m)
	dispatchSvc := dispatch.NewService(st, sched, l, dispatch.Config{
		CallbackBaseURL: cfg.Scheduler.CallbackBaseURL,
		DefaultRetries:  cfg.Scheduler.DefaultRetries,
	})

	r := router.New(router.Config{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		CORS:             middleware.DefaultCORSConfig(),
	},
		activityHandler.NewHandler(activitySvc),
		recommendationHandler.NewHandler(recommendationSvc),
		analyticsHandler.NewHandler(analyticsSvc),
		mailboxHandler.NewHandler(mailboxSvc),
		dispatchHandler.NewHandler(dispatchSvc),
		healthHandler.NewHandler(ready),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		l.Info("starting API server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		l.Fatal(err, "server forced to shutdown")
	}

	l.Info("server exited")
}
