package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/localpulse/platform/internal/app/domain/competitor"
	"github.com/localpulse/platform/internal/app/domain/instagram"
	"github.com/localpulse/platform/internal/app/domain/location"
	"github.com/localpulse/platform/internal/app/domain/review"
	"github.com/localpulse/platform/internal/app/domain/social"
	"github.com/localpulse/platform/internal/app/domain/tenant"
	"github.com/localpulse/platform/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local
// development.
type Store struct {
	mu             sync.RWMutex
	nextID         int64
	tenants        map[string]tenant.Tenant
	locations      map[string]location.Location
	reviews        map[string]review.Review
	reviewRequests map[string]review.Request
	rankSnapshots  map[string]competitor.Snapshot
	socialPosts    map[string]social.Post
	igConnections  map[string]instagram.Connection
	igMedia        map[string][]instagram.Media
	igConvos       map[string][]instagram.Conversation
	igMessages     map[string][]instagram.Message
}

var _ storage.TenantStore = (*Store)(nil)
var _ storage.LocationStore = (*Store)(nil)
var _ storage.ReviewStore = (*Store)(nil)
var _ storage.RankSnapshotStore = (*Store)(nil)
var _ storage.SocialPostStore = (*Store)(nil)
var _ storage.InstagramStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:         1,
		tenants:        make(map[string]tenant.Tenant),
		locations:      make(map[string]location.Location),
		reviews:        make(map[string]review.Review),
		reviewRequests: make(map[string]review.Request),
		rankSnapshots:  make(map[string]competitor.Snapshot),
		socialPosts:    make(map[string]social.Post),
		igConnections:  make(map[string]instagram.Connection),
		igMedia:        make(map[string][]instagram.Media),
		igConvos:       make(map[string][]instagram.Conversation),
		igMessages:     make(map[string][]instagram.Message),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// TenantStore implementation --------------------------------------------------

func (s *Store) CreateTenant(_ context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = s.nextIDLocked()
	} else if _, exists := s.tenants[t.ID]; exists {
		return tenant.Tenant{}, fmt.Errorf("tenant %s already exists", t.ID)
	}

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Settings = cloneMap(t.Settings)

	s.tenants[t.ID] = t
	return cloneTenant(t), nil
}

func (s *Store) UpdateTenant(_ context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.tenants[t.ID]
	if !ok {
		return tenant.Tenant{}, fmt.Errorf("tenant %s not found", t.ID)
	}

	t.CreatedAt = original.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	t.Settings = cloneMap(t.Settings)

	s.tenants[t.ID] = t
	return cloneTenant(t), nil
}

func (s *Store) GetTenant(_ context.Context, id string) (tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[id]
	if !ok {
		return tenant.Tenant{}, fmt.Errorf("tenant %s not found", id)
	}
	return cloneTenant(t), nil
}

func (s *Store) ListTenants(_ context.Context) ([]tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]tenant.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		result = append(result, cloneTenant(t))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) DeleteTenant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[id]; !ok {
		return fmt.Errorf("tenant %s not found", id)
	}
	delete(s.tenants, id)
	return nil
}

// LocationStore implementation ------------------------------------------------

func (s *Store) CreateLocation(_ context.Context, loc location.Location) (location.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if loc.ID == "" {
		loc.ID = s.nextIDLocked()
	} else if _, exists := s.locations[loc.ID]; exists {
		return location.Location{}, fmt.Errorf("location %s already exists", loc.ID)
	}

	now := time.Now().UTC()
	loc.CreatedAt = now
	loc.UpdatedAt = now

	s.locations[loc.ID] = loc
	return loc, nil
}

func (s *Store) UpdateLocation(_ context.Context, loc location.Location) (location.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.locations[loc.ID]
	if !ok {
		return location.Location{}, fmt.Errorf("location %s not found", loc.ID)
	}

	loc.TenantID = original.TenantID
	loc.CreatedAt = original.CreatedAt
	loc.UpdatedAt = time.Now().UTC()

	s.locations[loc.ID] = loc
	return loc, nil
}

func (s *Store) GetLocation(_ context.Context, id string) (location.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.locations[id]
	if !ok {
		return location.Location{}, fmt.Errorf("location %s not found", id)
	}
	return loc, nil
}

func (s *Store) ListLocations(_ context.Context, tenantID string) ([]location.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []location.Location
	for _, loc := range s.locations {
		if tenantID == "" || loc.TenantID == tenantID {
			result = append(result, loc)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) ListSyncEnabledLocations(_ context.Context) ([]location.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []location.Location
	for _, loc := range s.locations {
		if loc.ReviewSyncEnabled && loc.GBPConnected {
			result = append(result, loc)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) DeleteLocation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.locations[id]; !ok {
		return fmt.Errorf("location %s not found", id)
	}
	delete(s.locations, id)
	return nil
}

// ReviewStore implementation --------------------------------------------------

func (s *Store) UpsertReview(_ context.Context, rev review.Review) (review.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.reviews {
		if existing.LocationID == rev.LocationID && existing.RemoteID == rev.RemoteID {
			rev.ID = existing.ID
			rev.SyncedAt = time.Now().UTC()
			s.reviews[rev.ID] = rev
			return rev, nil
		}
	}

	if rev.ID == "" {
		rev.ID = s.nextIDLocked()
	}
	rev.SyncedAt = time.Now().UTC()
	s.reviews[rev.ID] = rev
	return rev, nil
}

func (s *Store) UpdateReview(_ context.Context, rev review.Review) (review.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.reviews[rev.ID]
	if !ok {
		return review.Review{}, fmt.Errorf("review %s not found", rev.ID)
	}
	rev.LocationID = original.LocationID
	rev.RemoteID = original.RemoteID
	s.reviews[rev.ID] = rev
	return rev, nil
}

func (s *Store) GetReview(_ context.Context, id string) (review.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rev, ok := s.reviews[id]
	if !ok {
		return review.Review{}, fmt.Errorf("review %s not found", id)
	}
	return rev, nil
}

func (s *Store) GetReviewByRemoteID(_ context.Context, locationID, remoteID string) (review.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rev := range s.reviews {
		if rev.LocationID == locationID && rev.RemoteID == remoteID {
			return rev, nil
		}
	}
	return review.Review{}, fmt.Errorf("review %s not found: %w", remoteID, sql.ErrNoRows)
}

func (s *Store) ListReviews(_ context.Context, locationID string, filter storage.ReviewFilter) ([]review.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []review.Review
	for _, rev := range s.reviews {
		if rev.LocationID != locationID {
			continue
		}
		if filter.MinRating > 0 && rev.Rating < filter.MinRating {
			continue
		}
		if filter.MaxRating > 0 && rev.Rating > filter.MaxRating {
			continue
		}
		if filter.Answered != nil && rev.Answered() != *filter.Answered {
			continue
		}
		result = append(result, rev)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreateTime.After(result[j].CreateTime) })
	return result, nil
}

func (s *Store) CreateReviewRequest(_ context.Context, req review.Request) (review.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.ID == "" {
		req.ID = s.nextIDLocked()
	} else if _, exists := s.reviewRequests[req.ID]; exists {
		return review.Request{}, fmt.Errorf("review request %s already exists", req.ID)
	}

	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	s.reviewRequests[req.ID] = req
	return req, nil
}

func (s *Store) UpdateReviewRequest(_ context.Context, req review.Request) (review.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.reviewRequests[req.ID]
	if !ok {
		return review.Request{}, fmt.Errorf("review request %s not found", req.ID)
	}
	req.TenantID = original.TenantID
	req.LocationID = original.LocationID
	req.CreatedAt = original.CreatedAt
	req.UpdatedAt = time.Now().UTC()

	s.reviewRequests[req.ID] = req
	return req, nil
}

func (s *Store) GetReviewRequest(_ context.Context, id string) (review.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.reviewRequests[id]
	if !ok {
		return review.Request{}, fmt.Errorf("review request %s not found", id)
	}
	return req, nil
}

func (s *Store) GetReviewRequestByCode(_ context.Context, code string) (review.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, req := range s.reviewRequests {
		if strings.EqualFold(req.ShortCode, code) {
			return req, nil
		}
	}
	return review.Request{}, fmt.Errorf("review request with code %s not found", code)
}

func (s *Store) ListReviewRequests(_ context.Context, tenantID string) ([]review.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []review.Request
	for _, req := range s.reviewRequests {
		if tenantID == "" || req.TenantID == tenantID {
			result = append(result, req)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// RankSnapshotStore implementation --------------------------------------------

func (s *Store) CreateRankSnapshot(_ context.Context, snap competitor.Snapshot) (competitor.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.ID == "" {
		snap.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	snap.CreatedAt = now
	if snap.TakenAt.IsZero() {
		snap.TakenAt = now
	}
	snap.Entries = cloneEntries(snap.Entries)

	s.rankSnapshots[snap.ID] = snap
	return cloneSnapshot(snap), nil
}

func (s *Store) GetRankSnapshot(_ context.Context, id string) (competitor.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.rankSnapshots[id]
	if !ok {
		return competitor.Snapshot{}, fmt.Errorf("rank snapshot %s not found", id)
	}
	return cloneSnapshot(snap), nil
}

func (s *Store) ListRankSnapshots(_ context.Context, locationID, keyword string) ([]competitor.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []competitor.Snapshot
	for _, snap := range s.rankSnapshots {
		if snap.LocationID != locationID {
			continue
		}
		if keyword != "" && !strings.EqualFold(snap.Keyword, keyword) {
			continue
		}
		result = append(result, cloneSnapshot(snap))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TakenAt.After(result[j].TakenAt) })
	return result, nil
}

func (s *Store) LatestRankSnapshot(ctx context.Context, locationID, keyword string) (competitor.Snapshot, error) {
	snaps, err := s.ListRankSnapshots(ctx, locationID, keyword)
	if err != nil {
		return competitor.Snapshot{}, err
	}
	if len(snaps) == 0 {
		return competitor.Snapshot{}, fmt.Errorf("no rank snapshot for location %s", locationID)
	}
	return snaps[0], nil
}

// SocialPostStore implementation ----------------------------------------------

func (s *Store) CreateSocialPost(_ context.Context, post social.Post) (social.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.ID == "" {
		post.ID = s.nextIDLocked()
	} else if _, exists := s.socialPosts[post.ID]; exists {
		return social.Post{}, fmt.Errorf("social post %s already exists", post.ID)
	}

	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	post.MediaURLs = cloneStrings(post.MediaURLs)
	post.Channels = cloneStrings(post.Channels)
	post.RemoteRefs = cloneMap(post.RemoteRefs)

	s.socialPosts[post.ID] = post
	return clonePost(post), nil
}

func (s *Store) UpdateSocialPost(_ context.Context, post social.Post) (social.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.socialPosts[post.ID]
	if !ok {
		return social.Post{}, fmt.Errorf("social post %s not found", post.ID)
	}
	post.TenantID = original.TenantID
	post.CreatedAt = original.CreatedAt
	post.UpdatedAt = time.Now().UTC()
	post.MediaURLs = cloneStrings(post.MediaURLs)
	post.Channels = cloneStrings(post.Channels)
	post.RemoteRefs = cloneMap(post.RemoteRefs)

	s.socialPosts[post.ID] = post
	return clonePost(post), nil
}

func (s *Store) GetSocialPost(_ context.Context, id string) (social.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.socialPosts[id]
	if !ok {
		return social.Post{}, fmt.Errorf("social post %s not found", id)
	}
	return clonePost(post), nil
}

func (s *Store) ListSocialPosts(_ context.Context, tenantID string) ([]social.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []social.Post
	for _, post := range s.socialPosts {
		if tenantID == "" || post.TenantID == tenantID {
			result = append(result, clonePost(post))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) ListSocialPostsWindow(_ context.Context, tenantID string, from, to time.Time) ([]social.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []social.Post
	for _, post := range s.socialPosts {
		if tenantID != "" && post.TenantID != tenantID {
			continue
		}
		if post.ScheduledAt.IsZero() {
			continue
		}
		if post.ScheduledAt.Before(from) || post.ScheduledAt.After(to) {
			continue
		}
		result = append(result, clonePost(post))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledAt.Before(result[j].ScheduledAt) })
	return result, nil
}

func (s *Store) ListDuePosts(_ context.Context, now time.Time) ([]social.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []social.Post
	for _, post := range s.socialPosts {
		if post.Status != social.StatusScheduled {
			continue
		}
		if post.ScheduledAt.IsZero() || post.ScheduledAt.After(now) {
			continue
		}
		result = append(result, clonePost(post))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledAt.Before(result[j].ScheduledAt) })
	return result, nil
}

func (s *Store) DeleteSocialPost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.socialPosts[id]; !ok {
		return fmt.Errorf("social post %s not found", id)
	}
	delete(s.socialPosts, id)
	return nil
}

// InstagramStore implementation -----------------------------------------------

func (s *Store) CreateConnection(_ context.Context, conn instagram.Connection) (instagram.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.igConnections {
		if existing.TenantID == conn.TenantID {
			return instagram.Connection{}, fmt.Errorf("tenant %s already has an instagram connection", conn.TenantID)
		}
	}

	if conn.ID == "" {
		conn.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	conn.CreatedAt = now
	conn.UpdatedAt = now

	s.igConnections[conn.ID] = conn
	return conn, nil
}

func (s *Store) UpdateConnection(_ context.Context, conn instagram.Connection) (instagram.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.igConnections[conn.ID]
	if !ok {
		return instagram.Connection{}, fmt.Errorf("instagram connection %s not found", conn.ID)
	}
	conn.TenantID = original.TenantID
	conn.CreatedAt = original.CreatedAt
	conn.UpdatedAt = time.Now().UTC()

	s.igConnections[conn.ID] = conn
	return conn, nil
}

func (s *Store) GetConnection(_ context.Context, id string) (instagram.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conn, ok := s.igConnections[id]
	if !ok {
		return instagram.Connection{}, fmt.Errorf("instagram connection %s not found", id)
	}
	return conn, nil
}

func (s *Store) GetConnectionByTenant(_ context.Context, tenantID string) (instagram.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, conn := range s.igConnections {
		if conn.TenantID == tenantID {
			return conn, nil
		}
	}
	return instagram.Connection{}, fmt.Errorf("tenant %s has no instagram connection", tenantID)
}

func (s *Store) ListConnections(_ context.Context) ([]instagram.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]instagram.Connection, 0, len(s.igConnections))
	for _, conn := range s.igConnections {
		result = append(result, conn)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) DeleteConnection(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.igConnections[id]; !ok {
		return fmt.Errorf("instagram connection %s not found", id)
	}
	delete(s.igConnections, id)
	delete(s.igMedia, id)
	for _, conv := range s.igConvos[id] {
		delete(s.igMessages, conv.ID)
	}
	delete(s.igConvos, id)
	return nil
}

func (s *Store) UpsertMedia(_ context.Context, media instagram.Media) (instagram.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.igMedia[media.ConnectionID]
	for i, existing := range items {
		if existing.RemoteID == media.RemoteID {
			media.ID = existing.ID
			media.SyncedAt = time.Now().UTC()
			items[i] = media
			return media, nil
		}
	}

	if media.ID == "" {
		media.ID = s.nextIDLocked()
	}
	media.SyncedAt = time.Now().UTC()
	s.igMedia[media.ConnectionID] = append(items, media)
	return media, nil
}

func (s *Store) ListMedia(_ context.Context, connectionID string) ([]instagram.Media, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.igMedia[connectionID]
	result := make([]instagram.Media, len(items))
	copy(result, items)
	sort.Slice(result, func(i, j int) bool { return result[i].Timestamp.After(result[j].Timestamp) })
	return result, nil
}

func (s *Store) UpsertConversation(_ context.Context, conv instagram.Conversation) (instagram.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.igConvos[conv.ConnectionID]
	for i, existing := range items {
		if existing.RemoteID == conv.RemoteID {
			conv.ID = existing.ID
			items[i] = conv
			return conv, nil
		}
	}

	if conv.ID == "" {
		conv.ID = s.nextIDLocked()
	}
	s.igConvos[conv.ConnectionID] = append(items, conv)
	return conv, nil
}

func (s *Store) ListConversations(_ context.Context, connectionID string) ([]instagram.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.igConvos[connectionID]
	result := make([]instagram.Conversation, len(items))
	copy(result, items)
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedTime.After(result[j].UpdatedTime) })
	return result, nil
}

func (s *Store) CreateMessage(_ context.Context, msg instagram.Message) (instagram.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = s.nextIDLocked()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	s.igMessages[msg.ConversationID] = append(s.igMessages[msg.ConversationID], msg)
	return msg, nil
}

func (s *Store) ListMessages(_ context.Context, conversationID string) ([]instagram.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.igMessages[conversationID]
	result := make([]instagram.Message, len(items))
	copy(result, items)
	sort.Slice(result, func(i, j int) bool { return result[i].SentAt.Before(result[j].SentAt) })
	return result, nil
}

// Clone helpers ---------------------------------------------------------------

func cloneMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneTenant(t tenant.Tenant) tenant.Tenant {
	t.Settings = cloneMap(t.Settings)
	return t
}

func cloneEntries(in []competitor.Entry) []competitor.Entry {
	if in == nil {
		return nil
	}
	out := make([]competitor.Entry, len(in))
	copy(out, in)
	return out
}

func cloneSnapshot(snap competitor.Snapshot) competitor.Snapshot {
	snap.Entries = cloneEntries(snap.Entries)
	return snap
}

func clonePost(post social.Post) social.Post {
	post.MediaURLs = cloneStrings(post.MediaURLs)
	post.Channels = cloneStrings(post.Channels)
	post.RemoteRefs = cloneMap(post.RemoteRefs)
	return post
}
