package instagram

import (
	"context"
	"sync"
	"time"

	"github.com/localpulse/platform/internal/app/system"
	"github.com/localpulse/platform/pkg/logger"
)

var _ system.Service = (*TokenRefresher)(nil)

// refreshWindow is how close to expiry a token gets before it is refreshed.
const refreshWindow = 10 * 24 * time.Hour

// TokenRefresher keeps long-lived tokens alive by refreshing them before
// they expire. A failed refresh keeps the old token.
type TokenRefresher struct {
	service  *Service
	log      *logger.Logger
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewTokenRefresher creates a lifecycle-managed token refresher.
func NewTokenRefresher(service *Service, interval time.Duration, log *logger.Logger) *TokenRefresher {
	if log == nil {
		log = logger.NewDefault("instagram-runner")
	}
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &TokenRefresher{
		service:  service,
		log:      log,
		interval: interval,
	}
}

func (r *TokenRefresher) Name() string { return "instagram-token-refresher" }

func (r *TokenRefresher) Start(ctx context.Context) error {
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

	r.log.Info("instagram token refresher started")
	return nil
}

func (r *TokenRefresher) Stop(ctx context.Context) error {
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

	r.log.Info("instagram token refresher stopped")
	return nil
}

func (r *TokenRefresher) tick(ctx context.Context) {
	if r.service == nil || r.service.graph == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	conns, err := r.service.store.ListConnections(ctx)
	if err != nil {
		r.log.WithError(err).Warn("token refresh tick failed")
		return
	}

	now := time.Now().UTC()
	for _, conn := range conns {
		if conn.ExpiresAt.IsZero() || conn.ExpiresAt.Sub(now) > refreshWindow {
			continue
		}
		result, err := r.service.graph.RefreshToken(ctx, conn.AccessToken)
		if err != nil {
			r.log.WithError(err).
				WithField("connection_id", conn.ID).
				Warn("token refresh failed")
			continue
		}
		conn.AccessToken = result.AccessToken
		conn.ExpiresAt = now.Add(result.ExpiresIn)
		if _, err := r.service.store.UpdateConnection(ctx, conn); err != nil {
			r.log.WithError(err).
				WithField("connection_id", conn.ID).
				Warn("store refreshed token failed")
			continue
		}
		r.log.WithField("connection_id", conn.ID).Info("instagram token refreshed")
	}
}
