package worker

import (
	"context"
	"time"

	"github.com/learnloop/engage-api/internal/service/recommendation"
	"github.com/learnloop/engage-api/pkg/logger"
)

// PopularityRefresher periodically rebuilds the popularity ranking from
// the per-course view counters so fallback recommendations stay fresh.
type PopularityRefresher struct {
	recommender recommendation.Recommender
	interval    time.Duration
	logger      *logger.Logger
}

func NewPopularityRefresher(rec recommendation.Recommender, interval time.Duration, l *logger.Logger) *PopularityRefresher {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &PopularityRefresher{
		recommender: rec,
		interval:    interval,
		logger:      l,
	}
}

// Run blocks until ctx is cancelled. One refresh runs immediately on
// startup so a fresh deployment has a ranking before the first tick.
func (r *PopularityRefresher) Run(ctx context.Context) {
	r.refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("popularity refresher stopping")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *PopularityRefresher) refresh(ctx context.Context) {
	start := time.Now()
	count, err := r.recommender.UpdatePopularityRanking(ctx)
	if err != nil {
		r.logger.Error(err, "popularity refresh failed")
		return
	}
	r.logger.Info("popularity ranking refreshed",
		"courses", count,
		"duration", time.Since(start).String(),
	)
}
