package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localpulse/platform/internal/app/domain/tenant"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func TestMigrateExecutesAllStatements(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range schema {
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, Migrate(context.Background(), sqlx.NewDb(db, "sqlmock")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTenantAssignsIDAndTimestamps(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO lp_tenants").
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := store.CreateTenant(context.Background(), tenant.Tenant{
		Name:       "Blue Door Bakery",
		OwnerEmail: "owner@example.com",
		Plan:       "starter",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTenantScansSettings(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "name", "owner_email", "plan", "api_key_hash",
		"onboarding_step", "onboarding_done", "settings", "created_at", "updated_at",
	}).AddRow("t1", "Blue Door Bakery", "owner@example.com", "starter", "",
		"done", true, []byte(`{"brand_color":"#1f6feb"}`), now, now)

	mock.ExpectQuery("SELECT (.+) FROM lp_tenants").
		WithArgs("t1").
		WillReturnRows(rows)

	got, err := store.GetTenant(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "#1f6feb", got.Settings["brand_color"])
	assert.True(t, got.OnboardingDone)
}

func TestDeleteLocationNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM lp_locations").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteLocation(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListDuePostsUnmarshalsJSON(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "location_id", "caption", "media_urls", "channels",
		"status", "scheduled_at", "recur", "published_at", "error", "remote_refs",
		"created_at", "updated_at",
	}).AddRow("p1", "t1", "l1", "Fresh sourdough", []byte(`["https://img.example/1.jpg"]`),
		[]byte(`["gbp","instagram"]`), "scheduled", now.Add(-time.Minute), "", nil, "",
		[]byte(`{}`), now, now)

	mock.ExpectQuery("SELECT (.+) FROM lp_social_posts").
		WillReturnRows(rows)

	posts, err := store.ListDuePosts(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, []string{"gbp", "instagram"}, posts[0].Channels)
	assert.Len(t, posts[0].MediaURLs, 1)
}
