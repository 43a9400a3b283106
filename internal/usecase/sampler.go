package usecase

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"AirSight/internal/domain/repository"
	"AirSight/pkg/logger"
	"AirSight/pkg/util"
)

// samplePollTimeout bounds one full sampling sweep.
const samplePollTimeout = 2 * time.Minute

// Sampler polls every configured station on a fixed interval, feeding the
// history window the forecaster reads from and, when enabled, the readings
// firehose.
type Sampler struct {
	source    repository.LiveDataSource
	history   repository.HistoryStore
	publisher repository.Publisher
	metrics   repository.Metrics
	stations  []string
	interval  time.Duration
	log       *logger.Logger
	scheduler *gocron.Scheduler
}

func NewSampler(
	source repository.LiveDataSource,
	history repository.HistoryStore,
	publisher repository.Publisher,
	metrics repository.Metrics,
	stations []string,
	interval time.Duration,
	log *logger.Logger,
) *Sampler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sampler{
		source:    source,
		history:   history,
		publisher: publisher,
		metrics:   metrics,
		stations:  stations,
		interval:  interval,
		log:       log,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the sampling job and runs the first sweep immediately so
// the history window begins filling without waiting a full interval.
func (s *Sampler) Start() error {
	_, err := s.scheduler.Every(s.interval).StartImmediately().Do(s.sweep)
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.log.Info("sampler started",
		logger.Duration("interval", s.interval),
		logger.Strings("stations", s.stations),
	)
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Sampler) Stop() {
	s.scheduler.Stop()
	s.log.Info("sampler stopped")
}

func (s *Sampler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), samplePollTimeout)
	defer cancel()

	for _, station := range s.stations {
		reading, err := s.source.Fetch(ctx, station)
		if err != nil {
			s.metrics.RecordError("sample_fetch")
			s.log.Warn("sample fetch failed",
				logger.String("station", station),
				logger.Error(err),
			)
			continue
		}

		// Snap to the sampling grid so upstream publish jitter does not
		// open gaps in the forecaster's history window.
		reading.Timestamp = util.AlignToInterval(reading.Timestamp, s.interval)
		s.history.Append(station, reading)
		if err := s.publisher.PublishReading(ctx, reading); err != nil {
			s.metrics.RecordError("sample_publish")
			s.log.Warn("firehose publish failed",
				logger.String("station", station),
				logger.Error(err),
			)
		}
	}
}
