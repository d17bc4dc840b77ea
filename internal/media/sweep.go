package media

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/waforge/gateway-go/internal/metrics"
)

// SweepJob runs the retention sweep on a fixed interval.
type SweepJob struct {
	store    *Store
	interval time.Duration
	done     chan struct{}
}

func NewSweepJob(store *Store, interval time.Duration) *SweepJob {
	return &SweepJob{
		store:    store,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (j *SweepJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("media sweep job started")
}

func (j *SweepJob) Stop() {
	close(j.done)
	log.Info().Msg("media sweep job stopped")
}

func (j *SweepJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *SweepJob) sweep() {
	removed := j.store.Sweep(time.Now())
	if removed > 0 {
		metrics.MediaSwept.Add(float64(removed))
		log.Info().Int("count", removed).Msg("expired media removed")
	}
}
