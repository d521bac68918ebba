package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// schema holds the DDL for all tables. Statements are idempotent so Migrate
// can run on every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS lp_tenants (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		owner_email     TEXT NOT NULL,
		plan            TEXT NOT NULL DEFAULT 'starter',
		api_key_hash    TEXT NOT NULL DEFAULT '',
		onboarding_step TEXT NOT NULL DEFAULT 'business',
		onboarding_done BOOLEAN NOT NULL DEFAULT FALSE,
		settings        JSONB,
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS lp_tenants_owner_email ON lp_tenants (lower(owner_email))`,

	`CREATE TABLE IF NOT EXISTS lp_locations (
		id                  TEXT PRIMARY KEY,
		tenant_id           TEXT NOT NULL REFERENCES lp_tenants (id) ON DELETE CASCADE,
		name                TEXT NOT NULL,
		address             TEXT NOT NULL,
		latitude            DOUBLE PRECISION NOT NULL DEFAULT 0,
		longitude           DOUBLE PRECISION NOT NULL DEFAULT 0,
		phone               TEXT NOT NULL DEFAULT '',
		website             TEXT NOT NULL DEFAULT '',
		category            TEXT NOT NULL DEFAULT '',
		place_id            TEXT NOT NULL DEFAULT '',
		gbp_account_id      TEXT NOT NULL DEFAULT '',
		gbp_location_id     TEXT NOT NULL DEFAULT '',
		gbp_connected       BOOLEAN NOT NULL DEFAULT FALSE,
		review_sync_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		created_at          TIMESTAMPTZ NOT NULL,
		updated_at          TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS lp_locations_tenant ON lp_locations (tenant_id)`,

	`CREATE TABLE IF NOT EXISTS lp_reviews (
		id               TEXT PRIMARY KEY,
		location_id      TEXT NOT NULL REFERENCES lp_locations (id) ON DELETE CASCADE,
		remote_id        TEXT NOT NULL,
		author           TEXT NOT NULL DEFAULT '',
		author_photo_url TEXT NOT NULL DEFAULT '',
		rating           INTEGER NOT NULL DEFAULT 0,
		comment          TEXT NOT NULL DEFAULT '',
		reply_comment    TEXT NOT NULL DEFAULT '',
		reply_updated_at TIMESTAMPTZ,
		create_time      TIMESTAMPTZ NOT NULL,
		update_time      TIMESTAMPTZ NOT NULL,
		synced_at        TIMESTAMPTZ NOT NULL,
		UNIQUE (location_id, remote_id)
	)`,

	`CREATE TABLE IF NOT EXISTS lp_review_requests (
		id            TEXT PRIMARY KEY,
		tenant_id     TEXT NOT NULL REFERENCES lp_tenants (id) ON DELETE CASCADE,
		location_id   TEXT NOT NULL REFERENCES lp_locations (id) ON DELETE CASCADE,
		customer_name TEXT NOT NULL DEFAULT '',
		channel       TEXT NOT NULL,
		destination   TEXT NOT NULL,
		status        TEXT NOT NULL,
		short_code    TEXT NOT NULL,
		sent_at       TIMESTAMPTZ,
		clicked_at    TIMESTAMPTZ,
		completed_at  TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL,
		UNIQUE (short_code)
	)`,

	`CREATE TABLE IF NOT EXISTS lp_rank_snapshots (
		id            TEXT PRIMARY KEY,
		location_id   TEXT NOT NULL REFERENCES lp_locations (id) ON DELETE CASCADE,
		keyword       TEXT NOT NULL,
		position      INTEGER NOT NULL DEFAULT 0,
		total_results INTEGER NOT NULL DEFAULT 0,
		source        TEXT NOT NULL DEFAULT '',
		entries       JSONB,
		taken_at      TIMESTAMPTZ NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS lp_rank_snapshots_location ON lp_rank_snapshots (location_id, keyword, taken_at DESC)`,

	`CREATE TABLE IF NOT EXISTS lp_social_posts (
		id           TEXT PRIMARY KEY,
		tenant_id    TEXT NOT NULL REFERENCES lp_tenants (id) ON DELETE CASCADE,
		location_id  TEXT NOT NULL DEFAULT '',
		caption      TEXT NOT NULL,
		media_urls   JSONB,
		channels     JSONB,
		status       TEXT NOT NULL,
		scheduled_at TIMESTAMPTZ,
		recur        TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ,
		error        TEXT NOT NULL DEFAULT '',
		remote_refs  JSONB,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS lp_social_posts_due ON lp_social_posts (status, scheduled_at)`,

	`CREATE TABLE IF NOT EXISTS lp_instagram_connections (
		id           TEXT PRIMARY KEY,
		tenant_id    TEXT NOT NULL REFERENCES lp_tenants (id) ON DELETE CASCADE,
		ig_user_id   TEXT NOT NULL,
		username     TEXT NOT NULL DEFAULT '',
		access_token TEXT NOT NULL,
		token_type   TEXT NOT NULL DEFAULT '',
		expires_at   TIMESTAMPTZ,
		page_id      TEXT NOT NULL DEFAULT '',
		last_sync_at TIMESTAMPTZ,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL,
		UNIQUE (tenant_id)
	)`,

	`CREATE TABLE IF NOT EXISTS lp_instagram_media (
		id             TEXT PRIMARY KEY,
		connection_id  TEXT NOT NULL REFERENCES lp_instagram_connections (id) ON DELETE CASCADE,
		remote_id      TEXT NOT NULL,
		media_type     TEXT NOT NULL DEFAULT '',
		media_url      TEXT NOT NULL DEFAULT '',
		permalink      TEXT NOT NULL DEFAULT '',
		caption        TEXT NOT NULL DEFAULT '',
		like_count     INTEGER NOT NULL DEFAULT 0,
		comments_count INTEGER NOT NULL DEFAULT 0,
		timestamp      TIMESTAMPTZ NOT NULL,
		synced_at      TIMESTAMPTZ NOT NULL,
		UNIQUE (connection_id, remote_id)
	)`,

	`CREATE TABLE IF NOT EXISTS lp_instagram_conversations (
		id             TEXT PRIMARY KEY,
		connection_id  TEXT NOT NULL REFERENCES lp_instagram_connections (id) ON DELETE CASCADE,
		remote_id      TEXT NOT NULL,
		participant_id TEXT NOT NULL DEFAULT '',
		participant    TEXT NOT NULL DEFAULT '',
		updated_time   TIMESTAMPTZ NOT NULL,
		UNIQUE (connection_id, remote_id)
	)`,

	`CREATE TABLE IF NOT EXISTS lp_instagram_messages (
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES lp_instagram_conversations (id) ON DELETE CASCADE,
		remote_id       TEXT NOT NULL DEFAULT '',
		direction       TEXT NOT NULL,
		text            TEXT NOT NULL,
		sent_at         TIMESTAMPTZ NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS lp_instagram_messages_conversation ON lp_instagram_messages (conversation_id, sent_at)`,
}

// Migrate creates any missing tables and indexes.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
