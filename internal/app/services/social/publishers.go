package social

import (
	"context"
	"fmt"

	"github.com/localpulse/platform/internal/app/domain/social"
	"github.com/localpulse/platform/internal/app/storage"
	"github.com/localpulse/platform/pkg/logger"
)

// LocalPoster creates a Google Business Profile local post and returns its
// resource name.
type LocalPoster interface {
	CreateLocalPost(ctx context.Context, gbpLocation, summary string, mediaURLs []string) (string, error)
}

// GBPPublisher publishes studio posts as GBP local posts. It satisfies
// Publisher.
type GBPPublisher struct {
	locations storage.LocationStore
	poster    LocalPoster
	log       *logger.Logger
}

// NewGBPPublisher constructs a GBP channel publisher.
func NewGBPPublisher(locations storage.LocationStore, poster LocalPoster, log *logger.Logger) *GBPPublisher {
	if log == nil {
		log = logger.NewDefault("gbp-publisher")
	}
	return &GBPPublisher{locations: locations, poster: poster, log: log}
}

// Publish creates a local post on the GBP location bound to the post.
func (p *GBPPublisher) Publish(ctx context.Context, post social.Post) (string, error) {
	if post.LocationID == "" {
		return "", fmt.Errorf("gbp posts require a location")
	}
	loc, err := p.locations.GetLocation(ctx, post.LocationID)
	if err != nil {
		return "", err
	}
	if !loc.GBPConnected || loc.GBPLocationID == "" {
		return "", fmt.Errorf("location %s is not connected to a business profile", post.LocationID)
	}
	if p.poster == nil {
		return "", fmt.Errorf("gbp client is not configured")
	}
	return p.poster.CreateLocalPost(ctx, loc.GBPLocationID, post.Caption, post.MediaURLs)
}
