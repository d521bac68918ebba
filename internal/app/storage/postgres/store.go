package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/localpulse/platform/internal/app/domain/competitor"
	"github.com/localpulse/platform/internal/app/domain/instagram"
	"github.com/localpulse/platform/internal/app/domain/location"
	"github.com/localpulse/platform/internal/app/domain/review"
	"github.com/localpulse/platform/internal/app/domain/social"
	"github.com/localpulse/platform/internal/app/domain/tenant"
	"github.com/localpulse/platform/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.TenantStore = (*Store)(nil)
var _ storage.LocationStore = (*Store)(nil)
var _ storage.ReviewStore = (*Store)(nil)
var _ storage.RankSnapshotStore = (*Store)(nil)
var _ storage.SocialPostStore = (*Store)(nil)
var _ storage.InstagramStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// --- TenantStore ------------------------------------------------------------

func (s *Store) CreateTenant(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	settingsJSON, err := json.Marshal(t.Settings)
	if err != nil {
		return tenant.Tenant{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO lp_tenants (id, name, owner_email, plan, api_key_hash, onboarding_step, onboarding_done, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, t.ID, t.Name, t.OwnerEmail, t.Plan, t.APIKeyHash, t.OnboardingStep, t.OnboardingDone, settingsJSON, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return tenant.Tenant{}, err
	}
	return t, nil
}

func (s *Store) UpdateTenant(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	existing, err := s.GetTenant(ctx, t.ID)
	if err != nil {
		return tenant.Tenant{}, err
	}

	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now().UTC()

	settingsJSON, err := json.Marshal(t.Settings)
	if err != nil {
		return tenant.Tenant{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE lp_tenants
		SET name = $2, owner_email = $3, plan = $4, api_key_hash = $5, onboarding_step = $6, onboarding_done = $7, settings = $8, updated_at = $9
		WHERE id = $1
	`, t.ID, t.Name, t.OwnerEmail, t.Plan, t.APIKeyHash, t.OnboardingStep, t.OnboardingDone, settingsJSON, t.UpdatedAt)
	if err != nil {
		return tenant.Tenant{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return tenant.Tenant{}, sql.ErrNoRows
	}
	return t, nil
}

func (s *Store) GetTenant(ctx context.Context, id string) (tenant.Tenant, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, owner_email, plan, api_key_hash, onboarding_step, onboarding_done, settings, created_at, updated_at
		FROM lp_tenants
		WHERE id = $1
	`, id)

	return scanTenant(row)
}

func (s *Store) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, owner_email, plan, api_key_hash, onboarding_step, onboarding_done, settings, created_at, updated_at
		FROM lp_tenants
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (s *Store) DeleteTenant(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM lp_tenants WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTenant(row rowScanner) (tenant.Tenant, error) {
	var (
		t           tenant.Tenant
		settingsRaw []byte
	)
	if err := row.Scan(&t.ID, &t.Name, &t.OwnerEmail, &t.Plan, &t.APIKeyHash, &t.OnboardingStep, &t.OnboardingDone, &settingsRaw, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return tenant.Tenant{}, err
	}
	if len(settingsRaw) > 0 {
		_ = json.Unmarshal(settingsRaw, &t.Settings)
	}
	return t, nil
}

// --- LocationStore ----------------------------------------------------------

type locationRow struct {
	ID                string    `db:"id"`
	TenantID          string    `db:"tenant_id"`
	Name              string    `db:"name"`
	Address           string    `db:"address"`
	Latitude          float64   `db:"latitude"`
	Longitude         float64   `db:"longitude"`
	Phone             string    `db:"phone"`
	Website           string    `db:"website"`
	Category          string    `db:"category"`
	PlaceID           string    `db:"place_id"`
	GBPAccountID      string    `db:"gbp_account_id"`
	GBPLocationID     string    `db:"gbp_location_id"`
	GBPConnected      bool      `db:"gbp_connected"`
	ReviewSyncEnabled bool      `db:"review_sync_enabled"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (r locationRow) toDomain() location.Location {
	return location.Location(r)
}

const locationColumns = `id, tenant_id, name, address, latitude, longitude, phone, website, category, place_id, gbp_account_id, gbp_location_id, gbp_connected, review_sync_enabled, created_at, updated_at`

func (s *Store) CreateLocation(ctx context.Context, loc location.Location) (location.Location, error) {
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	loc.CreatedAt = now
	loc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lp_locations (`+locationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, loc.ID, loc.TenantID, loc.Name, loc.Address, loc.Latitude, loc.Longitude, loc.Phone, loc.Website, loc.Category, loc.PlaceID, loc.GBPAccountID, loc.GBPLocationID, loc.GBPConnected, loc.ReviewSyncEnabled, loc.CreatedAt, loc.UpdatedAt)
	if err != nil {
		return location.Location{}, err
	}
	return loc, nil
}

func (s *Store) UpdateLocation(ctx context.Context, loc location.Location) (location.Location, error) {
	existing, err := s.GetLocation(ctx, loc.ID)
	if err != nil {
		return location.Location{}, err
	}

	loc.TenantID = existing.TenantID
	loc.CreatedAt = existing.CreatedAt
	loc.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE lp_locations
		SET name = $2, address = $3, latitude = $4, longitude = $5, phone = $6, website = $7, category = $8, place_id = $9, gbp_account_id = $10, gbp_location_id = $11, gbp_connected = $12, review_sync_enabled = $13, updated_at = $14
		WHERE id = $1
	`, loc.ID, loc.Name, loc.Address, loc.Latitude, loc.Longitude, loc.Phone, loc.Website, loc.Category, loc.PlaceID, loc.GBPAccountID, loc.GBPLocationID, loc.GBPConnected, loc.ReviewSyncEnabled, loc.UpdatedAt)
	if err != nil {
		return location.Location{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return location.Location{}, sql.ErrNoRows
	}
	return loc, nil
}

func (s *Store) GetLocation(ctx context.Context, id string) (location.Location, error) {
	var row locationRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+locationColumns+`
		FROM lp_locations
		WHERE id = $1
	`, id)
	if err != nil {
		return location.Location{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) ListLocations(ctx context.Context, tenantID string) ([]location.Location, error) {
	var rows []locationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+locationColumns+`
		FROM lp_locations
		WHERE $1 = '' OR tenant_id = $1
		ORDER BY created_at
	`, tenantID)
	if err != nil {
		return nil, err
	}

	result := make([]location.Location, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (s *Store) ListSyncEnabledLocations(ctx context.Context) ([]location.Location, error) {
	var rows []locationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+locationColumns+`
		FROM lp_locations
		WHERE review_sync_enabled AND gbp_connected
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}

	result := make([]location.Location, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (s *Store) DeleteLocation(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM lp_locations WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- ReviewStore ------------------------------------------------------------

const reviewColumns = `id, location_id, remote_id, author, author_photo_url, rating, comment, reply_comment, reply_updated_at, create_time, update_time, synced_at`

func (s *Store) UpsertReview(ctx context.Context, rev review.Review) (review.Review, error) {
	if rev.ID == "" {
		rev.ID = uuid.NewString()
	}
	rev.SyncedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lp_reviews (`+reviewColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (location_id, remote_id) DO UPDATE
		SET author = EXCLUDED.author, author_photo_url = EXCLUDED.author_photo_url, rating = EXCLUDED.rating, comment = EXCLUDED.comment, reply_comment = EXCLUDED.reply_comment, reply_updated_at = EXCLUDED.reply_updated_at, update_time = EXCLUDED.update_time, synced_at = EXCLUDED.synced_at
	`, rev.ID, rev.LocationID, rev.RemoteID, rev.Author, rev.AuthorPhotoURL, rev.Rating, rev.Comment, rev.ReplyComment, toNullTime(rev.ReplyUpdatedAt), rev.CreateTime, rev.UpdateTime, rev.SyncedAt)
	if err != nil {
		return review.Review{}, err
	}
	return s.GetReviewByRemoteID(ctx, rev.LocationID, rev.RemoteID)
}

func (s *Store) UpdateReview(ctx context.Context, rev review.Review) (review.Review, error) {
	existing, err := s.GetReview(ctx, rev.ID)
	if err != nil {
		return review.Review{}, err
	}

	rev.LocationID = existing.LocationID
	rev.RemoteID = existing.RemoteID

	result, err := s.db.ExecContext(ctx, `
		UPDATE lp_reviews
		SET author = $2, author_photo_url = $3, rating = $4, comment = $5, reply_comment = $6, reply_updated_at = $7, create_time = $8, update_time = $9, synced_at = $10
		WHERE id = $1
	`, rev.ID, rev.Author, rev.AuthorPhotoURL, rev.Rating, rev.Comment, rev.ReplyComment, toNullTime(rev.ReplyUpdatedAt), rev.CreateTime, rev.UpdateTime, rev.SyncedAt)
	if err != nil {
		return review.Review{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return review.Review{}, sql.ErrNoRows
	}
	return rev, nil
}

func (s *Store) GetReview(ctx context.Context, id string) (review.Review, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+reviewColumns+`
		FROM lp_reviews
		WHERE id = $1
	`, id)
	return scanReview(row)
}

func (s *Store) GetReviewByRemoteID(ctx context.Context, locationID, remoteID string) (review.Review, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+reviewColumns+`
		FROM lp_reviews
		WHERE location_id = $1 AND remote_id = $2
	`, locationID, remoteID)
	return scanReview(row)
}

func (s *Store) ListReviews(ctx context.Context, locationID string, filter storage.ReviewFilter) ([]review.Review, error) {
	answered := 0
	if filter.Answered != nil {
		if *filter.Answered {
			answered = 1
		} else {
			answered = -1
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reviewColumns+`
		FROM lp_reviews
		WHERE location_id = $1
		  AND ($2 = 0 OR rating >= $2)
		  AND ($3 = 0 OR rating <= $3)
		  AND ($4 = 0 OR ($4 = 1 AND reply_comment <> '') OR ($4 = -1 AND reply_comment = ''))
		ORDER BY create_time DESC
	`, locationID, filter.MinRating, filter.MaxRating, answered)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []review.Review
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rev)
	}
	return result, rows.Err()
}

func scanReview(row rowScanner) (review.Review, error) {
	var (
		rev       review.Review
		replyTime sql.NullTime
	)
	if err := row.Scan(&rev.ID, &rev.LocationID, &rev.RemoteID, &rev.Author, &rev.AuthorPhotoURL, &rev.Rating, &rev.Comment, &rev.ReplyComment, &replyTime, &rev.CreateTime, &rev.UpdateTime, &rev.SyncedAt); err != nil {
		return review.Review{}, err
	}
	if replyTime.Valid {
		rev.ReplyUpdatedAt = replyTime.Time.UTC()
	}
	return rev, nil
}

func (s *Store) CreateReviewRequest(ctx context.Context, req review.Request) (review.Request, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lp_review_requests (id, tenant_id, location_id, customer_name, channel, destination, status, short_code, sent_at, clicked_at, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, req.ID, req.TenantID, req.LocationID, req.CustomerName, req.Channel, req.Destination, req.Status, req.ShortCode, toNullTime(req.SentAt), toNullTime(req.ClickedAt), toNullTime(req.CompletedAt), req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return review.Request{}, err
	}
	return req, nil
}

func (s *Store) UpdateReviewRequest(ctx context.Context, req review.Request) (review.Request, error) {
	existing, err := s.GetReviewRequest(ctx, req.ID)
	if err != nil {
		return review.Request{}, err
	}

	req.TenantID = existing.TenantID
	req.LocationID = existing.LocationID
	req.CreatedAt = existing.CreatedAt
	req.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE lp_review_requests
		SET customer_name = $2, channel = $3, destination = $4, status = $5, short_code = $6, sent_at = $7, clicked_at = $8, completed_at = $9, updated_at = $10
		WHERE id = $1
	`, req.ID, req.CustomerName, req.Channel, req.Destination, req.Status, req.ShortCode, toNullTime(req.SentAt), toNullTime(req.ClickedAt), toNullTime(req.CompletedAt), req.UpdatedAt)
	if err != nil {
		return review.Request{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return review.Request{}, sql.ErrNoRows
	}
	return req, nil
}

func (s *Store) GetReviewRequest(ctx context.Context, id string) (review.Request, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, location_id, customer_name, channel, destination, status, short_code, sent_at, clicked_at, completed_at, created_at, updated_at
		FROM lp_review_requests
		WHERE id = $1
	`, id)
	return scanReviewRequest(row)
}

func (s *Store) GetReviewRequestByCode(ctx context.Context, code string) (review.Request, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, location_id, customer_name, channel, destination, status, short_code, sent_at, clicked_at, completed_at, created_at, updated_at
		FROM lp_review_requests
		WHERE lower(short_code) = lower($1)
	`, code)
	return scanReviewRequest(row)
}

func (s *Store) ListReviewRequests(ctx context.Context, tenantID string) ([]review.Request, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, location_id, customer_name, channel, destination, status, short_code, sent_at, clicked_at, completed_at, created_at, updated_at
		FROM lp_review_requests
		WHERE $1 = '' OR tenant_id = $1
		ORDER BY created_at
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []review.Request
	for rows.Next() {
		req, err := scanReviewRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

func scanReviewRequest(row rowScanner) (review.Request, error) {
	var (
		req         review.Request
		sentAt      sql.NullTime
		clickedAt   sql.NullTime
		completedAt sql.NullTime
	)
	if err := row.Scan(&req.ID, &req.TenantID, &req.LocationID, &req.CustomerName, &req.Channel, &req.Destination, &req.Status, &req.ShortCode, &sentAt, &clickedAt, &completedAt, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return review.Request{}, err
	}
	if sentAt.Valid {
		req.SentAt = sentAt.Time.UTC()
	}
	if clickedAt.Valid {
		req.ClickedAt = clickedAt.Time.UTC()
	}
	if completedAt.Valid {
		req.CompletedAt = completedAt.Time.UTC()
	}
	return req, nil
}

// --- RankSnapshotStore ------------------------------------------------------

func (s *Store) CreateRankSnapshot(ctx context.Context, snap competitor.Snapshot) (competitor.Snapshot, error) {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	snap.CreatedAt = now
	if snap.TakenAt.IsZero() {
		snap.TakenAt = now
	}

	entriesJSON, err := json.Marshal(snap.Entries)
	if err != nil {
		return competitor.Snapshot{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO lp_rank_snapshots (id, location_id, keyword, position, total_results, source, entries, taken_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, snap.ID, snap.LocationID, snap.Keyword, snap.Position, snap.TotalResults, snap.Source, entriesJSON, snap.TakenAt, snap.CreatedAt)
	if err != nil {
		return competitor.Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) GetRankSnapshot(ctx context.Context, id string) (competitor.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, location_id, keyword, position, total_results, source, entries, taken_at, created_at
		FROM lp_rank_snapshots
		WHERE id = $1
	`, id)
	return scanSnapshot(row)
}

func (s *Store) ListRankSnapshots(ctx context.Context, locationID, keyword string) ([]competitor.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, location_id, keyword, position, total_results, source, entries, taken_at, created_at
		FROM lp_rank_snapshots
		WHERE location_id = $1 AND ($2 = '' OR lower(keyword) = lower($2))
		ORDER BY taken_at DESC
	`, locationID, keyword)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []competitor.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, snap)
	}
	return result, rows.Err()
}

func (s *Store) LatestRankSnapshot(ctx context.Context, locationID, keyword string) (competitor.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, location_id, keyword, position, total_results, source, entries, taken_at, created_at
		FROM lp_rank_snapshots
		WHERE location_id = $1 AND ($2 = '' OR lower(keyword) = lower($2))
		ORDER BY taken_at DESC
		LIMIT 1
	`, locationID, keyword)
	return scanSnapshot(row)
}

func scanSnapshot(row rowScanner) (competitor.Snapshot, error) {
	var (
		snap       competitor.Snapshot
		entriesRaw []byte
	)
	if err := row.Scan(&snap.ID, &snap.LocationID, &snap.Keyword, &snap.Position, &snap.TotalResults, &snap.Source, &entriesRaw, &snap.TakenAt, &snap.CreatedAt); err != nil {
		return competitor.Snapshot{}, err
	}
	if len(entriesRaw) > 0 {
		_ = json.Unmarshal(entriesRaw, &snap.Entries)
	}
	return snap, nil
}

// --- SocialPostStore --------------------------------------------------------

const socialPostColumns = `id, tenant_id, location_id, caption, media_urls, channels, status, scheduled_at, recur, published_at, error, remote_refs, created_at, updated_at`

func (s *Store) CreateSocialPost(ctx context.Context, post social.Post) (social.Post, error) {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	mediaJSON, channelsJSON, refsJSON, err := marshalPostJSON(post)
	if err != nil {
		return social.Post{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO lp_social_posts (`+socialPostColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, post.ID, post.TenantID, post.LocationID, post.Caption, mediaJSON, channelsJSON, post.Status, toNullTime(post.ScheduledAt), post.Recur, toNullTime(post.PublishedAt), post.Error, refsJSON, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return social.Post{}, err
	}
	return post, nil
}

func (s *Store) UpdateSocialPost(ctx context.Context, post social.Post) (social.Post, error) {
	existing, err := s.GetSocialPost(ctx, post.ID)
	if err != nil {
		return social.Post{}, err
	}

	post.TenantID = existing.TenantID
	post.CreatedAt = existing.CreatedAt
	post.UpdatedAt = time.Now().UTC()

	mediaJSON, channelsJSON, refsJSON, err := marshalPostJSON(post)
	if err != nil {
		return social.Post{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE lp_social_posts
		SET location_id = $2, caption = $3, media_urls = $4, channels = $5, status = $6, scheduled_at = $7, recur = $8, published_at = $9, error = $10, remote_refs = $11, updated_at = $12
		WHERE id = $1
	`, post.ID, post.LocationID, post.Caption, mediaJSON, channelsJSON, post.Status, toNullTime(post.ScheduledAt), post.Recur, toNullTime(post.PublishedAt), post.Error, refsJSON, post.UpdatedAt)
	if err != nil {
		return social.Post{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return social.Post{}, sql.ErrNoRows
	}
	return post, nil
}

func (s *Store) GetSocialPost(ctx context.Context, id string) (social.Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+socialPostColumns+`
		FROM lp_social_posts
		WHERE id = $1
	`, id)
	return scanSocialPost(row)
}

func (s *Store) ListSocialPosts(ctx context.Context, tenantID string) ([]social.Post, error) {
	return s.listSocialPosts(ctx, `
		SELECT `+socialPostColumns+`
		FROM lp_social_posts
		WHERE $1 = '' OR tenant_id = $1
		ORDER BY created_at
	`, tenantID)
}

func (s *Store) ListSocialPostsWindow(ctx context.Context, tenantID string, from, to time.Time) ([]social.Post, error) {
	return s.listSocialPosts(ctx, `
		SELECT `+socialPostColumns+`
		FROM lp_social_posts
		WHERE ($1 = '' OR tenant_id = $1) AND scheduled_at BETWEEN $2 AND $3
		ORDER BY scheduled_at
	`, tenantID, from.UTC(), to.UTC())
}

func (s *Store) ListDuePosts(ctx context.Context, now time.Time) ([]social.Post, error) {
	return s.listSocialPosts(ctx, `
		SELECT `+socialPostColumns+`
		FROM lp_social_posts
		WHERE status = $1 AND scheduled_at IS NOT NULL AND scheduled_at <= $2
		ORDER BY scheduled_at
	`, social.StatusScheduled, now.UTC())
}

func (s *Store) listSocialPosts(ctx context.Context, query string, args ...interface{}) ([]social.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []social.Post
	for rows.Next() {
		post, err := scanSocialPost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, post)
	}
	return result, rows.Err()
}

func (s *Store) DeleteSocialPost(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM lp_social_posts WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func marshalPostJSON(post social.Post) ([]byte, []byte, []byte, error) {
	mediaJSON, err := json.Marshal(post.MediaURLs)
	if err != nil {
		return nil, nil, nil, err
	}
	channelsJSON, err := json.Marshal(post.Channels)
	if err != nil {
		return nil, nil, nil, err
	}
	refsJSON, err := json.Marshal(post.RemoteRefs)
	if err != nil {
		return nil, nil, nil, err
	}
	return mediaJSON, channelsJSON, refsJSON, nil
}

func scanSocialPost(row rowScanner) (social.Post, error) {
	var (
		post        social.Post
		mediaRaw    []byte
		channelsRaw []byte
		refsRaw     []byte
		scheduledAt sql.NullTime
		publishedAt sql.NullTime
	)
	if err := row.Scan(&post.ID, &post.TenantID, &post.LocationID, &post.Caption, &mediaRaw, &channelsRaw, &post.Status, &scheduledAt, &post.Recur, &publishedAt, &post.Error, &refsRaw, &post.CreatedAt, &post.UpdatedAt); err != nil {
		return social.Post{}, err
	}
	if len(mediaRaw) > 0 {
		_ = json.Unmarshal(mediaRaw, &post.MediaURLs)
	}
	if len(channelsRaw) > 0 {
		_ = json.Unmarshal(channelsRaw, &post.Channels)
	}
	if len(refsRaw) > 0 {
		_ = json.Unmarshal(refsRaw, &post.RemoteRefs)
	}
	if scheduledAt.Valid {
		post.ScheduledAt = scheduledAt.Time.UTC()
	}
	if publishedAt.Valid {
		post.PublishedAt = publishedAt.Time.UTC()
	}
	return post, nil
}

// --- InstagramStore ---------------------------------------------------------

func (s *Store) CreateConnection(ctx context.Context, conn instagram.Connection) (instagram.Connection, error) {
	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	conn.CreatedAt = now
	conn.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lp_instagram_connections (id, tenant_id, ig_user_id, username, access_token, token_type, expires_at, page_id, last_sync_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, conn.ID, conn.TenantID, conn.IGUserID, conn.Username, conn.AccessToken, conn.TokenType, toNullTime(conn.ExpiresAt), conn.PageID, toNullTime(conn.LastSyncAt), conn.CreatedAt, conn.UpdatedAt)
	if err != nil {
		return instagram.Connection{}, err
	}
	return conn, nil
}

func (s *Store) UpdateConnection(ctx context.Context, conn instagram.Connection) (instagram.Connection, error) {
	existing, err := s.GetConnection(ctx, conn.ID)
	if err != nil {
		return instagram.Connection{}, err
	}

	conn.TenantID = existing.TenantID
	conn.CreatedAt = existing.CreatedAt
	conn.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE lp_instagram_connections
		SET ig_user_id = $2, username = $3, access_token = $4, token_type = $5, expires_at = $6, page_id = $7, last_sync_at = $8, updated_at = $9
		WHERE id = $1
	`, conn.ID, conn.IGUserID, conn.Username, conn.AccessToken, conn.TokenType, toNullTime(conn.ExpiresAt), conn.PageID, toNullTime(conn.LastSyncAt), conn.UpdatedAt)
	if err != nil {
		return instagram.Connection{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return instagram.Connection{}, sql.ErrNoRows
	}
	return conn, nil
}

func (s *Store) GetConnection(ctx context.Context, id string) (instagram.Connection, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, ig_user_id, username, access_token, token_type, expires_at, page_id, last_sync_at, created_at, updated_at
		FROM lp_instagram_connections
		WHERE id = $1
	`, id)
	return scanConnection(row)
}

func (s *Store) GetConnectionByTenant(ctx context.Context, tenantID string) (instagram.Connection, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, ig_user_id, username, access_token, token_type, expires_at, page_id, last_sync_at, created_at, updated_at
		FROM lp_instagram_connections
		WHERE tenant_id = $1
	`, tenantID)
	return scanConnection(row)
}

func (s *Store) ListConnections(ctx context.Context) ([]instagram.Connection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, ig_user_id, username, access_token, token_type, expires_at, page_id, last_sync_at, created_at, updated_at
		FROM lp_instagram_connections
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []instagram.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, conn)
	}
	return result, rows.Err()
}

func (s *Store) DeleteConnection(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM lp_instagram_connections WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanConnection(row rowScanner) (instagram.Connection, error) {
	var (
		conn       instagram.Connection
		expiresAt  sql.NullTime
		lastSyncAt sql.NullTime
	)
	if err := row.Scan(&conn.ID, &conn.TenantID, &conn.IGUserID, &conn.Username, &conn.AccessToken, &conn.TokenType, &expiresAt, &conn.PageID, &lastSyncAt, &conn.CreatedAt, &conn.UpdatedAt); err != nil {
		return instagram.Connection{}, err
	}
	if expiresAt.Valid {
		conn.ExpiresAt = expiresAt.Time.UTC()
	}
	if lastSyncAt.Valid {
		conn.LastSyncAt = lastSyncAt.Time.UTC()
	}
	return conn, nil
}

type mediaRow struct {
	ID            string    `db:"id"`
	ConnectionID  string    `db:"connection_id"`
	RemoteID      string    `db:"remote_id"`
	MediaType     string    `db:"media_type"`
	MediaURL      string    `db:"media_url"`
	Permalink     string    `db:"permalink"`
	Caption       string    `db:"caption"`
	LikeCount     int       `db:"like_count"`
	CommentsCount int       `db:"comments_count"`
	Timestamp     time.Time `db:"timestamp"`
	SyncedAt      time.Time `db:"synced_at"`
}

func (s *Store) UpsertMedia(ctx context.Context, media instagram.Media) (instagram.Media, error) {
	if media.ID == "" {
		media.ID = uuid.NewString()
	}
	media.SyncedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lp_instagram_media (id, connection_id, remote_id, media_type, media_url, permalink, caption, like_count, comments_count, timestamp, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (connection_id, remote_id) DO UPDATE
		SET media_type = EXCLUDED.media_type, media_url = EXCLUDED.media_url, permalink = EXCLUDED.permalink, caption = EXCLUDED.caption, like_count = EXCLUDED.like_count, comments_count = EXCLUDED.comments_count, timestamp = EXCLUDED.timestamp, synced_at = EXCLUDED.synced_at
	`, media.ID, media.ConnectionID, media.RemoteID, media.MediaType, media.MediaURL, media.Permalink, media.Caption, media.LikeCount, media.CommentsCount, media.Timestamp, media.SyncedAt)
	if err != nil {
		return instagram.Media{}, err
	}
	return media, nil
}

func (s *Store) ListMedia(ctx context.Context, connectionID string) ([]instagram.Media, error) {
	var rows []mediaRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, connection_id, remote_id, media_type, media_url, permalink, caption, like_count, comments_count, timestamp, synced_at
		FROM lp_instagram_media
		WHERE connection_id = $1
		ORDER BY timestamp DESC
	`, connectionID)
	if err != nil {
		return nil, err
	}

	result := make([]instagram.Media, 0, len(rows))
	for _, row := range rows {
		result = append(result, instagram.Media(row))
	}
	return result, nil
}

func (s *Store) UpsertConversation(ctx context.Context, conv instagram.Conversation) (instagram.Conversation, error) {
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lp_instagram_conversations (id, connection_id, remote_id, participant_id, participant, updated_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (connection_id, remote_id) DO UPDATE
		SET participant_id = EXCLUDED.participant_id, participant = EXCLUDED.participant, updated_time = EXCLUDED.updated_time
	`, conv.ID, conv.ConnectionID, conv.RemoteID, conv.ParticipantID, conv.Participant, conv.UpdatedTime)
	if err != nil {
		return instagram.Conversation{}, err
	}
	return conv, nil
}

func (s *Store) ListConversations(ctx context.Context, connectionID string) ([]instagram.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, connection_id, remote_id, participant_id, participant, updated_time
		FROM lp_instagram_conversations
		WHERE connection_id = $1
		ORDER BY updated_time DESC
	`, connectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []instagram.Conversation
	for rows.Next() {
		var conv instagram.Conversation
		if err := rows.Scan(&conv.ID, &conv.ConnectionID, &conv.RemoteID, &conv.ParticipantID, &conv.Participant, &conv.UpdatedTime); err != nil {
			return nil, err
		}
		result = append(result, conv)
	}
	return result, rows.Err()
}

func (s *Store) CreateMessage(ctx context.Context, msg instagram.Message) (instagram.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lp_instagram_messages (id, conversation_id, remote_id, direction, text, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, msg.ID, msg.ConversationID, msg.RemoteID, msg.Direction, msg.Text, msg.SentAt, msg.CreatedAt)
	if err != nil {
		return instagram.Message{}, err
	}
	return msg, nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]instagram.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, remote_id, direction, text, sent_at, created_at
		FROM lp_instagram_messages
		WHERE conversation_id = $1
		ORDER BY sent_at
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []instagram.Message
	for rows.Next() {
		var msg instagram.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.RemoteID, &msg.Direction, &msg.Text, &msg.SentAt, &msg.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

func toNullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
