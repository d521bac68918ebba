// Package reviews syncs Google Business Profile reviews, manages replies and
// drives outbound review requests.
package reviews

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/localpulse/platform/internal/app/domain/review"
	"github.com/localpulse/platform/internal/app/events"
	"github.com/localpulse/platform/internal/app/metrics"
	"github.com/localpulse/platform/internal/app/storage"
	"github.com/localpulse/platform/pkg/logger"
)

// ErrForbidden is returned when a resource belongs to a different tenant.
var ErrForbidden = errors.New("resource does not belong to tenant")

// Service manages review sync, replies and review requests.
type Service struct {
	store     storage.ReviewStore
	locations storage.LocationStore
	gbp       GBPClient
	hub       *events.Hub
	log       *logger.Logger
}

// New constructs a review service. gbp may be nil when no GBP credentials are
// configured; sync and reply operations then report an error.
func New(store storage.ReviewStore, locations storage.LocationStore, gbp GBPClient, hub *events.Hub, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("reviews")
	}
	return &Service{store: store, locations: locations, gbp: gbp, hub: hub, log: log}
}

// Sync pulls the remote review list for a location and upserts it locally.
// It returns the number of reviews that were new to the store.
func (s *Service) Sync(ctx context.Context, tenantID, locationID string) (int, error) {
	loc, err := s.locations.GetLocation(ctx, locationID)
	if err != nil {
		return 0, err
	}
	if loc.TenantID != tenantID {
		return 0, ErrForbidden
	}
	if !loc.GBPConnected || loc.GBPLocationID == "" {
		return 0, fmt.Errorf("location %s is not connected to a business profile", locationID)
	}
	if s.gbp == nil {
		return 0, fmt.Errorf("gbp client is not configured")
	}

	remote, err := s.gbp.ListReviews(ctx, loc.GBPLocationID)
	if err != nil {
		return 0, fmt.Errorf("list gbp reviews: %w", err)
	}

	now := time.Now().UTC()
	created := 0
	for _, rr := range remote {
		isNew := false
		if _, err := s.store.GetReviewByRemoteID(ctx, locationID, rr.RemoteID); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return created, fmt.Errorf("lookup review %s: %w", rr.RemoteID, err)
			}
			isNew = true
		}

		rev := review.Review{
			LocationID:     locationID,
			RemoteID:       rr.RemoteID,
			Author:         rr.Author,
			AuthorPhotoURL: rr.AuthorPhotoURL,
			Rating:         rr.Rating,
			Comment:        rr.Comment,
			ReplyComment:   rr.ReplyComment,
			ReplyUpdatedAt: rr.ReplyUpdatedAt,
			CreateTime:     rr.CreateTime,
			UpdateTime:     rr.UpdateTime,
			SyncedAt:       now,
		}
		stored, err := s.store.UpsertReview(ctx, rev)
		if err != nil {
			return created, fmt.Errorf("upsert review %s: %w", rr.RemoteID, err)
		}
		if isNew {
			created++
			if s.hub != nil {
				s.hub.Publish(events.Event{
					Type:     events.TypeReviewSynced,
					TenantID: tenantID,
					Payload:  map[string]interface{}{"review_id": stored.ID, "rating": stored.Rating},
					At:       now,
				})
			}
		}
	}

	metrics.RecordReviewsSynced(locationID, len(remote))
	s.log.WithField("location_id", locationID).
		WithField("total", len(remote)).
		WithField("new", created).
		Info("reviews synced")
	return created, nil
}

// List returns a location's reviews with optional filters.
func (s *Service) List(ctx context.Context, tenantID, locationID string, filter storage.ReviewFilter) ([]review.Review, error) {
	loc, err := s.locations.GetLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if loc.TenantID != tenantID {
		return nil, ErrForbidden
	}
	return s.store.ListReviews(ctx, locationID, filter)
}

// Reply publishes a business reply to GBP, then persists it locally. The
// remote write happens first so local state never claims an unpublished reply.
func (s *Service) Reply(ctx context.Context, tenantID, reviewID, comment string) (review.Review, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return review.Review{}, fmt.Errorf("comment is required")
	}
	rev, err := s.ownedReview(ctx, tenantID, reviewID)
	if err != nil {
		return review.Review{}, err
	}
	if s.gbp == nil {
		return review.Review{}, fmt.Errorf("gbp client is not configured")
	}

	if err := s.gbp.UpsertReply(ctx, rev.RemoteID, comment); err != nil {
		return review.Review{}, fmt.Errorf("publish reply: %w", err)
	}

	rev.ReplyComment = comment
	rev.ReplyUpdatedAt = time.Now().UTC()
	rev, err = s.store.UpdateReview(ctx, rev)
	if err != nil {
		return review.Review{}, err
	}
	s.log.WithField("review_id", rev.ID).Info("review reply published")
	return rev, nil
}

// UpdateReply replaces an existing reply. GBP treats replies as upserts, so
// this shares the remote path with Reply.
func (s *Service) UpdateReply(ctx context.Context, tenantID, reviewID, comment string) (review.Review, error) {
	return s.Reply(ctx, tenantID, reviewID, comment)
}

// DeleteReply removes the reply from GBP, then clears it locally.
func (s *Service) DeleteReply(ctx context.Context, tenantID, reviewID string) (review.Review, error) {
	rev, err := s.ownedReview(ctx, tenantID, reviewID)
	if err != nil {
		return review.Review{}, err
	}
	if s.gbp == nil {
		return review.Review{}, fmt.Errorf("gbp client is not configured")
	}

	if err := s.gbp.DeleteReply(ctx, rev.RemoteID); err != nil {
		return review.Review{}, fmt.Errorf("delete reply: %w", err)
	}

	rev.ReplyComment = ""
	rev.ReplyUpdatedAt = time.Time{}
	rev, err = s.store.UpdateReview(ctx, rev)
	if err != nil {
		return review.Review{}, err
	}
	s.log.WithField("review_id", rev.ID).Info("review reply deleted")
	return rev, nil
}

// Get returns a single review with tenant scoping.
func (s *Service) Get(ctx context.Context, tenantID, reviewID string) (review.Review, error) {
	return s.ownedReview(ctx, tenantID, reviewID)
}

func (s *Service) ownedReview(ctx context.Context, tenantID, reviewID string) (review.Review, error) {
	rev, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return review.Review{}, err
	}
	loc, err := s.locations.GetLocation(ctx, rev.LocationID)
	if err != nil {
		return review.Review{}, err
	}
	if loc.TenantID != tenantID {
		return review.Review{}, ErrForbidden
	}
	return rev, nil
}

func shortCode() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf)
}
