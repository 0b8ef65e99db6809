package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Refreshable is the slice of the acquisition layer the refresh job
// drives.
type Refreshable interface {
	Refresh(ctx context.Context) error
}

// RefreshJob re-runs the acquisition cycle on a fixed interval. It can
// be paused while nobody is watching the dashboard and resumed with an
// immediate refresh when a viewer returns.
type RefreshJob struct {
	target  Refreshable
	timeout time.Duration
	log     zerolog.Logger
	active  atomic.Bool
}

// NewRefreshJob builds the job in the active state.
func NewRefreshJob(target Refreshable, timeout time.Duration, log zerolog.Logger) *RefreshJob {
	j := &RefreshJob{
		target:  target,
		timeout: timeout,
		log:     log.With().Str("component", "refresh-job").Logger(),
	}
	j.active.Store(true)
	return j
}

func (j *RefreshJob) Name() string { return "market-refresh" }

// Run refreshes the snapshot unless the job is paused.
func (j *RefreshJob) Run() error {
	if !j.active.Load() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	return j.target.Refresh(ctx)
}

// Pause stops scheduled refreshes; ticks while paused are no-ops.
func (j *RefreshJob) Pause() {
	if j.active.CompareAndSwap(true, false) {
		j.log.Info().Msg("Refresh paused")
	}
}

// Resume reactivates the job and kicks off a refresh right away so the
// returning viewer does not look at a stale snapshot until the next
// tick.
func (j *RefreshJob) Resume() {
	if !j.active.CompareAndSwap(false, true) {
		return
	}
	j.log.Info().Msg("Refresh resumed")

	go func() {
		if err := j.Run(); err != nil {
			j.log.Warn().Err(err).Msg("Immediate refresh on resume failed")
		}
	}()
}

// Active reports whether scheduled refreshes are currently running.
func (j *RefreshJob) Active() bool {
	return j.active.Load()
}

// EverySchedule formats an interval as a cron spec.
func EverySchedule(interval time.Duration) string {
	return fmt.Sprintf("@every %s", interval)
}
