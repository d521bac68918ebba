// Package social manages the post studio: drafting, scheduling and publishing
// posts across connected channels.
package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/localpulse/platform/internal/app/domain/social"
	"github.com/localpulse/platform/internal/app/events"
	"github.com/localpulse/platform/internal/app/metrics"
	"github.com/localpulse/platform/internal/app/storage"
	"github.com/localpulse/platform/pkg/logger"
)

// ErrForbidden is returned when a post belongs to a different tenant.
var ErrForbidden = errors.New("post does not belong to tenant")

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Publisher pushes a post to a single channel and returns the remote ref.
type Publisher interface {
	Publish(ctx context.Context, post social.Post) (string, error)
}

// Service manages social posts.
type Service struct {
	store      storage.SocialPostStore
	publishers map[string]Publisher
	hub        *events.Hub
	log        *logger.Logger
	now        func() time.Time
}

// New constructs a social post service. publishers maps channel names to the
// clients that publish there; channels without a publisher fail at publish
// time, not at scheduling time.
func New(store storage.SocialPostStore, publishers map[string]Publisher, hub *events.Hub, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("social")
	}
	if publishers == nil {
		publishers = make(map[string]Publisher)
	}
	return &Service{
		store:      store,
		publishers: publishers,
		hub:        hub,
		log:        log,
		now:        time.Now,
	}
}

// CreateInput carries the writable post fields.
type CreateInput struct {
	LocationID  string
	Caption     string
	MediaURLs   []string
	Channels    []string
	ScheduledAt time.Time
	Recur       string
}

// Create drafts a post. A non-zero schedule moves it straight to scheduled.
func (s *Service) Create(ctx context.Context, tenantID string, in CreateInput) (social.Post, error) {
	in.Caption = strings.TrimSpace(in.Caption)
	in.Recur = strings.TrimSpace(in.Recur)
	if tenantID == "" {
		return social.Post{}, fmt.Errorf("tenant_id is required")
	}
	if in.Caption == "" && len(in.MediaURLs) == 0 {
		return social.Post{}, fmt.Errorf("a caption or media is required")
	}
	if len(in.Channels) == 0 {
		return social.Post{}, fmt.Errorf("at least one channel is required")
	}
	for _, ch := range in.Channels {
		switch ch {
		case social.ChannelGBP, social.ChannelInstagram, social.ChannelFacebook:
		default:
			return social.Post{}, fmt.Errorf("unknown channel %q", ch)
		}
	}

	post := social.Post{
		TenantID:   tenantID,
		LocationID: in.LocationID,
		Caption:    in.Caption,
		MediaURLs:  in.MediaURLs,
		Channels:   in.Channels,
		Status:     social.StatusDraft,
		Recur:      in.Recur,
	}

	if !in.ScheduledAt.IsZero() || in.Recur != "" {
		scheduledAt, err := s.validateSchedule(in.ScheduledAt, in.Recur)
		if err != nil {
			return social.Post{}, err
		}
		post.ScheduledAt = scheduledAt
		post.Status = social.StatusScheduled
	}

	post, err := s.store.CreateSocialPost(ctx, post)
	if err != nil {
		return social.Post{}, err
	}
	s.log.WithField("post_id", post.ID).
		WithField("status", post.Status).
		Info("social post created")
	return post, nil
}

// Update edits a draft or scheduled post. Published posts are immutable.
func (s *Service) Update(ctx context.Context, tenantID, id string, in CreateInput) (social.Post, error) {
	post, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return social.Post{}, err
	}
	if post.Status != social.StatusDraft && post.Status != social.StatusScheduled && post.Status != social.StatusFailed {
		return social.Post{}, fmt.Errorf("post %s is %s and cannot be edited", id, post.Status)
	}

	if caption := strings.TrimSpace(in.Caption); caption != "" {
		post.Caption = caption
	}
	if len(in.MediaURLs) > 0 {
		post.MediaURLs = in.MediaURLs
	}
	if len(in.Channels) > 0 {
		post.Channels = in.Channels
	}
	if !in.ScheduledAt.IsZero() || strings.TrimSpace(in.Recur) != "" {
		scheduledAt, err := s.validateSchedule(in.ScheduledAt, strings.TrimSpace(in.Recur))
		if err != nil {
			return social.Post{}, err
		}
		post.ScheduledAt = scheduledAt
		post.Recur = strings.TrimSpace(in.Recur)
		post.Status = social.StatusScheduled
		post.Error = ""
	}
	return s.store.UpdateSocialPost(ctx, post)
}

// Get returns a post with tenant scoping.
func (s *Service) Get(ctx context.Context, tenantID, id string) (social.Post, error) {
	post, err := s.store.GetSocialPost(ctx, id)
	if err != nil {
		return social.Post{}, err
	}
	if post.TenantID != tenantID {
		return social.Post{}, ErrForbidden
	}
	return post, nil
}

// List returns all of a tenant's posts.
func (s *Service) List(ctx context.Context, tenantID string) ([]social.Post, error) {
	return s.store.ListSocialPosts(ctx, tenantID)
}

// Calendar returns the posts scheduled inside a time window.
func (s *Service) Calendar(ctx context.Context, tenantID string, from, to time.Time) ([]social.Post, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("calendar window end must be after start")
	}
	return s.store.ListSocialPostsWindow(ctx, tenantID, from, to)
}

// Delete removes a tenant's post.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return err
	}
	return s.store.DeleteSocialPost(ctx, id)
}

// Publish pushes a post to each of its channels immediately. Successful
// channel refs are kept even when another channel fails; the first failure
// marks the post failed.
func (s *Service) Publish(ctx context.Context, tenantID, id string) (social.Post, error) {
	post, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return social.Post{}, err
	}
	if post.Status == social.StatusPublishing {
		return social.Post{}, fmt.Errorf("post %s is already publishing", id)
	}

	post.Status = social.StatusPublishing
	post, err = s.store.UpdateSocialPost(ctx, post)
	if err != nil {
		return social.Post{}, err
	}
	return s.publish(ctx, post)
}

func (s *Service) publish(ctx context.Context, post social.Post) (social.Post, error) {
	if post.RemoteRefs == nil {
		post.RemoteRefs = make(map[string]string)
	}

	var firstErr error
	for _, channel := range post.Channels {
		if _, done := post.RemoteRefs[channel]; done {
			continue
		}
		pub, ok := s.publishers[channel]
		if !ok {
			if firstErr == nil {
				firstErr = fmt.Errorf("no publisher configured for channel %s", channel)
			}
			metrics.RecordPostPublish(channel, false)
			continue
		}
		ref, err := pub.Publish(ctx, post)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("publish to %s: %w", channel, err)
			}
			metrics.RecordPostPublish(channel, false)
			s.log.WithError(err).
				WithField("post_id", post.ID).
				WithField("channel", channel).
				Warn("channel publish failed")
			continue
		}
		post.RemoteRefs[channel] = ref
		metrics.RecordPostPublish(channel, true)
	}

	now := s.now().UTC()
	if firstErr != nil {
		post.Status = social.StatusFailed
		post.Error = firstErr.Error()
	} else {
		post.Error = ""
		if post.Recur != "" {
			next, err := s.nextOccurrence(post.Recur, now)
			if err == nil {
				post.Status = social.StatusScheduled
				post.ScheduledAt = next
				post.PublishedAt = now
				post.RemoteRefs = make(map[string]string)
			} else {
				post.Status = social.StatusFailed
				post.Error = err.Error()
			}
		} else {
			post.Status = social.StatusPublished
			post.PublishedAt = now
		}
	}

	post, storeErr := s.store.UpdateSocialPost(ctx, post)
	if storeErr != nil {
		return social.Post{}, storeErr
	}

	if s.hub != nil {
		evtType := events.TypePostPublished
		if firstErr != nil {
			evtType = events.TypePostFailed
		}
		s.hub.Publish(events.Event{
			Type:     evtType,
			TenantID: post.TenantID,
			Payload:  map[string]interface{}{"post_id": post.ID, "status": post.Status},
			At:       now,
		})
	}

	if firstErr != nil {
		return post, firstErr
	}
	s.log.WithField("post_id", post.ID).
		WithField("status", post.Status).
		Info("post published")
	return post, nil
}

// validateSchedule checks the schedule fields and resolves the effective
// first run time.
func (s *Service) validateSchedule(at time.Time, recur string) (time.Time, error) {
	now := s.now()
	if recur != "" {
		next, err := s.nextOccurrence(recur, now)
		if err != nil {
			return time.Time{}, err
		}
		if at.IsZero() {
			return next, nil
		}
	}
	if at.IsZero() {
		return time.Time{}, fmt.Errorf("scheduled_at is required")
	}
	if !at.After(now) {
		return time.Time{}, fmt.Errorf("scheduled_at must be in the future")
	}
	return at, nil
}

func (s *Service) nextOccurrence(recur string, after time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(recur)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", recur, err)
	}
	return schedule.Next(after), nil
}
