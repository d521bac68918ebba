package storage

import (
	"context"
	"time"

	"github.com/localpulse/platform/internal/app/domain/competitor"
	"github.com/localpulse/platform/internal/app/domain/instagram"
	"github.com/localpulse/platform/internal/app/domain/location"
	"github.com/localpulse/platform/internal/app/domain/review"
	"github.com/localpulse/platform/internal/app/domain/social"
	"github.com/localpulse/platform/internal/app/domain/tenant"
)

// TenantStore persists tenant accounts.
type TenantStore interface {
	CreateTenant(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error)
	UpdateTenant(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error)
	GetTenant(ctx context.Context, id string) (tenant.Tenant, error)
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	DeleteTenant(ctx context.Context, id string) error
}

// LocationStore persists business locations.
type LocationStore interface {
	CreateLocation(ctx context.Context, loc location.Location) (location.Location, error)
	UpdateLocation(ctx context.Context, loc location.Location) (location.Location, error)
	GetLocation(ctx context.Context, id string) (location.Location, error)
	ListLocations(ctx context.Context, tenantID string) ([]location.Location, error)
	ListSyncEnabledLocations(ctx context.Context) ([]location.Location, error)
	DeleteLocation(ctx context.Context, id string) error
}

// ReviewFilter narrows review listings.
type ReviewFilter struct {
	MinRating int
	MaxRating int
	Answered  *bool
}

// ReviewStore persists synced reviews and review requests.
type ReviewStore interface {
	UpsertReview(ctx context.Context, rev review.Review) (review.Review, error)
	UpdateReview(ctx context.Context, rev review.Review) (review.Review, error)
	GetReview(ctx context.Context, id string) (review.Review, error)
	GetReviewByRemoteID(ctx context.Context, locationID, remoteID string) (review.Review, error)
	ListReviews(ctx context.Context, locationID string, filter ReviewFilter) ([]review.Review, error)

	CreateReviewRequest(ctx context.Context, req review.Request) (review.Request, error)
	UpdateReviewRequest(ctx context.Context, req review.Request) (review.Request, error)
	GetReviewRequest(ctx context.Context, id string) (review.Request, error)
	GetReviewRequestByCode(ctx context.Context, code string) (review.Request, error)
	ListReviewRequests(ctx context.Context, tenantID string) ([]review.Request, error)
}

// RankSnapshotStore persists competitor rank snapshots.
type RankSnapshotStore interface {
	CreateRankSnapshot(ctx context.Context, snap competitor.Snapshot) (competitor.Snapshot, error)
	GetRankSnapshot(ctx context.Context, id string) (competitor.Snapshot, error)
	ListRankSnapshots(ctx context.Context, locationID, keyword string) ([]competitor.Snapshot, error)
	LatestRankSnapshot(ctx context.Context, locationID, keyword string) (competitor.Snapshot, error)
}

// SocialPostStore persists social studio posts.
type SocialPostStore interface {
	CreateSocialPost(ctx context.Context, post social.Post) (social.Post, error)
	UpdateSocialPost(ctx context.Context, post social.Post) (social.Post, error)
	GetSocialPost(ctx context.Context, id string) (social.Post, error)
	ListSocialPosts(ctx context.Context, tenantID string) ([]social.Post, error)
	ListSocialPostsWindow(ctx context.Context, tenantID string, from, to time.Time) ([]social.Post, error)
	ListDuePosts(ctx context.Context, now time.Time) ([]social.Post, error)
	DeleteSocialPost(ctx context.Context, id string) error
}

// InstagramStore persists Instagram connections, media and DM threads.
type InstagramStore interface {
	CreateConnection(ctx context.Context, conn instagram.Connection) (instagram.Connection, error)
	UpdateConnection(ctx context.Context, conn instagram.Connection) (instagram.Connection, error)
	GetConnection(ctx context.Context, id string) (instagram.Connection, error)
	GetConnectionByTenant(ctx context.Context, tenantID string) (instagram.Connection, error)
	ListConnections(ctx context.Context) ([]instagram.Connection, error)
	DeleteConnection(ctx context.Context, id string) error

	UpsertMedia(ctx context.Context, media instagram.Media) (instagram.Media, error)
	ListMedia(ctx context.Context, connectionID string) ([]instagram.Media, error)

	UpsertConversation(ctx context.Context, conv instagram.Conversation) (instagram.Conversation, error)
	ListConversations(ctx context.Context, connectionID string) ([]instagram.Conversation, error)
	CreateMessage(ctx context.Context, msg instagram.Message) (instagram.Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]instagram.Message, error)
}
