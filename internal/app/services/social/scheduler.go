package social

import (
	"context"
	"sync"
	"time"

	"github.com/localpulse/platform/internal/app/domain/social"
	"github.com/localpulse/platform/internal/app/system"
	"github.com/localpulse/platform/pkg/logger"
)

var _ system.Service = (*Scheduler)(nil)

// Scheduler publishes scheduled posts when they come due.
type Scheduler struct {
	service  *Service
	log      *logger.Logger
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewScheduler creates a lifecycle-managed post scheduler.
func NewScheduler(service *Service, interval time.Duration, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewDefault("social-runner")
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		service:  service,
		log:      log,
		interval: interval,
	}
}

func (r *Scheduler) Name() string { return "social-scheduler" }

func (r *Scheduler) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				r.tick(runCtx)
			}
		}
	}()

	r.log.Info("social scheduler started")
	return nil
}

func (r *Scheduler) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.log.Info("social scheduler stopped")
	return nil
}

func (r *Scheduler) tick(ctx context.Context) {
	if r.service == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	due, err := r.service.store.ListDuePosts(ctx, r.service.now())
	if err != nil {
		r.log.WithError(err).Warn("scheduler tick failed")
		return
	}

	for _, post := range due {
		// Claim before publishing so a second tick cannot pick up the
		// same post.
		post.Status = social.StatusPublishing
		claimed, err := r.service.store.UpdateSocialPost(ctx, post)
		if err != nil {
			r.log.WithError(err).
				WithField("post_id", post.ID).
				Warn("claim scheduled post failed")
			continue
		}
		if _, err := r.service.publish(ctx, claimed); err != nil {
			r.log.WithError(err).
				WithField("post_id", post.ID).
				Warn("scheduled publish failed")
		}
	}
}
