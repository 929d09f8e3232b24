package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"disha/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// ProtocolRefresher periodically drops and rewarms the protocol catalog
// cache so out-of-band catalog edits surface without a restart.
type ProtocolRefresher struct {
	scheduler gocron.Scheduler
	protocols *services.ProtocolService
	interval  time.Duration
}

// NewProtocolRefresher creates the refresher with its schedule
func NewProtocolRefresher(protocols *services.ProtocolService, intervalMinutes int) (*ProtocolRefresher, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	interval := time.Duration(intervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	return &ProtocolRefresher{
		scheduler: scheduler,
		protocols: protocols,
		interval:  interval,
	}, nil
}

// Start registers and starts the refresh job
func (r *ProtocolRefresher) Start() error {
	_, err := r.scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() {
			r.refresh()
		}),
		gocron.WithName("protocol_cache_refresh"),
	)
	if err != nil {
		return fmt.Errorf("failed to register refresh job: %w", err)
	}

	r.scheduler.Start()
	log.Printf("⏰ Protocol cache refresh scheduled every %s", r.interval)
	return nil
}

func (r *ProtocolRefresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	r.protocols.Invalidate()
	protocols, err := r.protocols.GetAll(ctx)
	if err != nil {
		log.Printf("⚠️ Protocol cache refresh failed: %v", err)
		return
	}
	log.Printf("🔄 Protocol cache refreshed: %d active protocols", len(protocols))
}

// Stop shuts the scheduler down
func (r *ProtocolRefresher) Stop() error {
	return r.scheduler.Shutdown()
}
