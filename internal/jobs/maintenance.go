package jobs

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/souqly/backend/internal/services/listing"
)

// PurgeAfter is how long a soft-deleted listing is kept before the nightly
// sweep removes it for good.
const PurgeAfter = 30 * 24 * time.Hour

// MaintenanceScheduler runs the periodic sweeps over the listings store
type MaintenanceScheduler struct {
	scheduler *gocron.Scheduler
	service   *listing.Service
}

// NewMaintenanceScheduler creates the scheduler with its jobs registered
func NewMaintenanceScheduler(service *listing.Service) *MaintenanceScheduler {
	m := &MaintenanceScheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
	}

	m.scheduler.Every(1).Day().At("03:00").Do(m.expireStarAds)
	m.scheduler.Every(1).Day().At("03:30").Do(m.purgeDeleted)

	return m
}

// Start runs the scheduler in the background
func (m *MaintenanceScheduler) Start() {
	m.scheduler.StartAsync()
}

// Stop stops the scheduler
func (m *MaintenanceScheduler) Stop() {
	m.scheduler.Stop()
}

func (m *MaintenanceScheduler) expireStarAds() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := m.service.ExpireStarAds(ctx)
	if err != nil {
		log.Printf("Star ad expiry failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Demoted %d expired star ads", n)
	}
}

func (m *MaintenanceScheduler) purgeDeleted() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := m.service.PurgeDeleted(ctx, PurgeAfter)
	if err != nil {
		log.Printf("Listing purge failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Purged %d deleted listings", n)
	}
}
