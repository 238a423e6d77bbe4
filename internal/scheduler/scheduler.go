package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/airbuddy/airbuddy-api/internal/airquality"
	"github.com/airbuddy/airbuddy-api/internal/metrics"
)

const (
	warmTimeout     = 30 * time.Second
	defaultInterval = time.Minute
	minInterval     = time.Second
)

// jobInterval keeps the configured period as is; non-positive values fall
// back to a minute and sub-second values are raised to gocron's minimum.
func jobInterval(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return defaultInterval
	case d < minInterval:
		return minInterval
	default:
		return d
	}
}

// Warmer resolves a batch of locations; the service's Map satisfies it.
type Warmer interface {
	Map(ctx context.Context, bounds *airquality.Bounds, custom []airquality.Location) ([]airquality.StationReading, error)
}

// Scheduler runs the periodic background jobs: cache warming and housekeeping.
type Scheduler struct {
	scheduler *gocron.Scheduler
	log       *zap.SugaredLogger
	jobs      int
}

// New creates a new Scheduler.
func New(log *zap.SugaredLogger) *Scheduler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		log:       log.With("component", "scheduler"),
	}
}

// AddWarmer prefetches the given cities every interval so their upstream
// payloads stay cached. The first run happens when the scheduler starts.
func (s *Scheduler) AddWarmer(w Warmer, cities []airquality.Location, interval time.Duration) error {
	if len(cities) == 0 {
		s.log.Infow("no cities configured; cache warmer not scheduled")
		return nil
	}
	if w == nil {
		return errors.New("scheduler: warmer is nil")
	}

	_, err := s.scheduler.Every(jobInterval(interval)).SingletonMode().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
		defer cancel()
		s.warm(ctx, w, cities)
	})
	if err != nil {
		return err
	}
	s.jobs++
	return nil
}

// AddCleanup runs fn every interval.
func (s *Scheduler) AddCleanup(name string, interval time.Duration, fn func()) error {
	_, err := s.scheduler.Every(jobInterval(interval)).Tag(name).Do(fn)
	if err != nil {
		return err
	}
	s.jobs++
	return nil
}

func (s *Scheduler) warm(ctx context.Context, w Warmer, cities []airquality.Location) {
	start := time.Now()
	readings, err := w.Map(ctx, nil, cities)
	if err != nil {
		metrics.WarmerRuns.WithLabelValues("error").Inc()
		s.log.Warnw("cache warm failed", "error", err)
		return
	}

	outcome := "success"
	if len(readings) < len(cities) {
		outcome = "partial"
	}
	metrics.WarmerRuns.WithLabelValues(outcome).Inc()
	s.log.Infow("cache warm completed",
		"cities", len(cities),
		"resolved", len(readings),
		"duration", time.Since(start),
	)
}

// Start starts the underlying scheduler if any job was added.
func (s *Scheduler) Start() {
	if s.jobs == 0 {
		return
	}
	s.scheduler.StartAsync()
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil && s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
}
