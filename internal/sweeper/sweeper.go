package sweeper

import (
	"context"
	"log"
	"time"

	ucAppointment "github.com/Danx101/AIL-APP-sub003/internal/usecase/appointment"
)

// Runner drives the auto-completion sweep on a fixed interval. The
// sweep is idempotent, so overlapping deployments or restarts are safe.
type Runner struct {
	sweep    *ucAppointment.Sweep
	interval time.Duration
}

func NewRunner(sweep *ucAppointment.Sweep, interval time.Duration) *Runner {
	return &Runner{
		sweep:    sweep,
		interval: interval,
	}
}

func (r *Runner) Start(ctx context.Context) {
	go r.loop(ctx)
}

func (r *Runner) loop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce sweeps all studios and logs the outcome.
func (r *Runner) RunOnce(ctx context.Context) {
	result, err := r.sweep.Execute(ctx, nil, time.Now())
	if err != nil {
		log.Printf("sweep failed: %v", err)
		return
	}

	if result.UpdatedCount > 0 || len(result.Failures) > 0 {
		log.Printf(
			"sweep: %d auto-completed, %d failures",
			result.UpdatedCount, len(result.Failures),
		)
	}

	for _, f := range result.Failures {
		log.Printf("sweep: appointment %d failed: %s", f.AppointmentID, f.Reason)
	}
}
