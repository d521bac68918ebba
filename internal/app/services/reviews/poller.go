package reviews

import (
	"context"
	"sync"
	"time"

	"github.com/localpulse/platform/internal/app/system"
	"github.com/localpulse/platform/pkg/logger"
)

var _ system.Service = (*SyncPoller)(nil)

// SyncPoller periodically syncs reviews for every location that has review
// sync enabled.
type SyncPoller struct {
	service  *Service
	log      *logger.Logger
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewSyncPoller creates a lifecycle-managed review sync poller.
func NewSyncPoller(service *Service, interval time.Duration, log *logger.Logger) *SyncPoller {
	if log == nil {
		log = logger.NewDefault("reviews-runner")
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &SyncPoller{
		service:  service,
		log:      log,
		interval: interval,
	}
}

func (p *SyncPoller) Name() string { return "review-sync-poller" }

func (p *SyncPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				p.tick(runCtx)
			}
		}
	}()

	p.log.Info("review sync poller started")
	return nil
}

func (p *SyncPoller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.log.Info("review sync poller stopped")
	return nil
}

func (p *SyncPoller) tick(ctx context.Context) {
	if p.service == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	locs, err := p.service.locations.ListSyncEnabledLocations(ctx)
	if err != nil {
		p.log.WithError(err).Warn("review sync tick failed")
		return
	}

	for _, loc := range locs {
		if _, err := p.service.Sync(ctx, loc.TenantID, loc.ID); err != nil {
			p.log.WithError(err).
				WithField("location_id", loc.ID).
				Warn("review sync failed")
		}
	}
}
