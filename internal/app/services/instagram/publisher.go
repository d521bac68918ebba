package instagram

import (
	"context"
	"fmt"

	"github.com/localpulse/platform/internal/app/domain/social"
	"github.com/localpulse/platform/internal/app/storage"
	"github.com/localpulse/platform/pkg/logger"
)

// MediaPublisher publishes social studio posts to Instagram. It satisfies the
// social service's Publisher interface.
type MediaPublisher struct {
	store storage.InstagramStore
	graph GraphClient
	log   *logger.Logger
}

// NewMediaPublisher constructs an Instagram channel publisher.
func NewMediaPublisher(store storage.InstagramStore, graph GraphClient, log *logger.Logger) *MediaPublisher {
	if log == nil {
		log = logger.NewDefault("instagram-publisher")
	}
	return &MediaPublisher{store: store, graph: graph, log: log}
}

// Publish pushes the post's first image to the tenant's Instagram account.
func (p *MediaPublisher) Publish(ctx context.Context, post social.Post) (string, error) {
	if len(post.MediaURLs) == 0 {
		return "", fmt.Errorf("instagram posts require media")
	}
	conn, err := p.store.GetConnectionByTenant(ctx, post.TenantID)
	if err != nil {
		return "", ErrNotConnected
	}
	if p.graph == nil {
		return "", fmt.Errorf("instagram client is not configured")
	}
	return p.graph.PublishMedia(ctx, conn.IGUserID, conn.AccessToken, post.MediaURLs[0], post.Caption)
}
