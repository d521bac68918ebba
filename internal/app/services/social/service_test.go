package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/localpulse/platform/internal/app/domain/social"
	"github.com/localpulse/platform/internal/app/events"
	"github.com/localpulse/platform/internal/app/storage/memory"
)

type fakePublisher struct {
	ref   string
	err   error
	calls int
}

func (f *fakePublisher) Publish(context.Context, social.Post) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.ref, nil
}

func newTestService(publishers map[string]Publisher) (*Service, *memory.Store) {
	store := memory.New()
	svc := New(store, publishers, events.NewHub(), nil)
	return svc, store
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "t1", CreateInput{Channels: []string{"gbp"}}); err == nil {
		t.Fatalf("expected error for empty content")
	}
	if _, err := svc.Create(ctx, "t1", CreateInput{Caption: "hi"}); err == nil {
		t.Fatalf("expected error for missing channels")
	}
	if _, err := svc.Create(ctx, "t1", CreateInput{Caption: "hi", Channels: []string{"myspace"}}); err == nil {
		t.Fatalf("expected error for unknown channel")
	}

	post, err := svc.Create(ctx, "t1", CreateInput{Caption: "hi", Channels: []string{"gbp", "instagram"}})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if post.Status != social.StatusDraft {
		t.Fatalf("expected draft status, got %s", post.Status)
	}
}

func TestCreateScheduleValidation(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "t1", CreateInput{
		Caption:     "hi",
		Channels:    []string{"gbp"},
		ScheduledAt: time.Now().Add(-time.Hour),
	}); err == nil {
		t.Fatalf("expected error for past schedule")
	}

	if _, err := svc.Create(ctx, "t1", CreateInput{
		Caption:  "hi",
		Channels: []string{"gbp"},
		Recur:    "not a cron",
	}); err == nil {
		t.Fatalf("expected error for invalid cron expression")
	}

	post, err := svc.Create(ctx, "t1", CreateInput{
		Caption:  "hi",
		Channels: []string{"gbp"},
		Recur:    "0 9 * * 1",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if post.Status != social.StatusScheduled || post.ScheduledAt.IsZero() {
		t.Fatalf("expected scheduled recurring post, got %+v", post)
	}
}

func TestPublishRecordsRemoteRefs(t *testing.T) {
	gbp := &fakePublisher{ref: "gbp-1"}
	ig := &fakePublisher{ref: "ig-1"}
	svc, _ := newTestService(map[string]Publisher{
		social.ChannelGBP:       gbp,
		social.ChannelInstagram: ig,
	})
	ctx := context.Background()

	post, err := svc.Create(ctx, "t1", CreateInput{Caption: "hi", Channels: []string{"gbp", "instagram"}})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	published, err := svc.Publish(ctx, "t1", post.ID)
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if published.Status != social.StatusPublished || published.PublishedAt.IsZero() {
		t.Fatalf("unexpected post state: %+v", published)
	}
	if published.RemoteRefs["gbp"] != "gbp-1" || published.RemoteRefs["instagram"] != "ig-1" {
		t.Fatalf("unexpected remote refs: %v", published.RemoteRefs)
	}
}

func TestPublishPartialFailureKeepsSuccessfulRefs(t *testing.T) {
	gbp := &fakePublisher{ref: "gbp-1"}
	ig := &fakePublisher{err: errors.New("rate limited")}
	svc, _ := newTestService(map[string]Publisher{
		social.ChannelGBP:       gbp,
		social.ChannelInstagram: ig,
	})
	ctx := context.Background()

	post, err := svc.Create(ctx, "t1", CreateInput{Caption: "hi", Channels: []string{"gbp", "instagram"}})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	failed, err := svc.Publish(ctx, "t1", post.ID)
	if err == nil {
		t.Fatalf("expected publish error")
	}
	if failed.Status != social.StatusFailed || failed.Error == "" {
		t.Fatalf("unexpected failed state: %+v", failed)
	}
	if failed.RemoteRefs["gbp"] != "gbp-1" {
		t.Fatalf("successful ref dropped: %v", failed.RemoteRefs)
	}
	if _, ok := failed.RemoteRefs["instagram"]; ok {
		t.Fatalf("failed channel should have no ref: %v", failed.RemoteRefs)
	}

	// Retry skips the already-published channel.
	ig.err = nil
	ig.ref = "ig-2"
	retried, err := svc.Publish(ctx, "t1", failed.ID)
	if err != nil {
		t.Fatalf("retry Publish returned error: %v", err)
	}
	if gbp.calls != 1 {
		t.Fatalf("expected gbp published once, got %d", gbp.calls)
	}
	if retried.RemoteRefs["instagram"] != "ig-2" || retried.Status != social.StatusPublished {
		t.Fatalf("unexpected retried state: %+v", retried)
	}
}

func TestPublishEnforcesTenantScope(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	post, err := svc.Create(ctx, "t1", CreateInput{Caption: "hi", Channels: []string{"gbp"}})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Publish(ctx, "t2", post.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCalendarWindow(t *testing.T) {
	svc, store := newTestService(nil)
	ctx := context.Background()
	base := time.Now().Add(time.Hour)

	for i, offset := range []time.Duration{0, 24 * time.Hour, 30 * 24 * time.Hour} {
		_, err := svc.Create(ctx, "t1", CreateInput{
			Caption:     "post",
			Channels:    []string{"gbp"},
			ScheduledAt: base.Add(offset),
		})
		if err != nil {
			t.Fatalf("Create %d returned error: %v", i, err)
		}
	}
	_ = store

	week, err := svc.Calendar(ctx, "t1", base.Add(-time.Minute), base.Add(7*24*time.Hour))
	if err != nil {
		t.Fatalf("Calendar returned error: %v", err)
	}
	if len(week) != 2 {
		t.Fatalf("expected 2 posts in week window, got %d", len(week))
	}

	if _, err := svc.Calendar(ctx, "t1", base, base.Add(-time.Hour)); err == nil {
		t.Fatalf("expected error for inverted window")
	}
}

func TestSchedulerTickPublishesDuePosts(t *testing.T) {
	gbp := &fakePublisher{ref: "gbp-1"}
	svc, store := newTestService(map[string]Publisher{social.ChannelGBP: gbp})
	ctx := context.Background()

	post, err := svc.Create(ctx, "t1", CreateInput{
		Caption:     "hi",
		Channels:    []string{"gbp"},
		ScheduledAt: time.Now().Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Move the clock past the schedule.
	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	sched := NewScheduler(svc, time.Minute, nil)
	sched.tick(ctx)

	published, err := store.GetSocialPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetSocialPost returned error: %v", err)
	}
	if published.Status != social.StatusPublished {
		t.Fatalf("expected published, got %s", published.Status)
	}
	if gbp.calls != 1 {
		t.Fatalf("expected one publish call, got %d", gbp.calls)
	}

	// A second tick has nothing to do.
	sched.tick(ctx)
	if gbp.calls != 1 {
		t.Fatalf("second tick republished: %d calls", gbp.calls)
	}
}

func TestSchedulerReschedulesRecurringPosts(t *testing.T) {
	gbp := &fakePublisher{ref: "gbp-1"}
	svc, store := newTestService(map[string]Publisher{social.ChannelGBP: gbp})
	ctx := context.Background()

	post, err := svc.Create(ctx, "t1", CreateInput{
		Caption:  "weekly special",
		Channels: []string{"gbp"},
		Recur:    "0 9 * * 1",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Force the post due and tick.
	svc.now = func() time.Time { return post.ScheduledAt.Add(time.Minute) }
	NewScheduler(svc, time.Minute, nil).tick(ctx)

	next, err := store.GetSocialPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetSocialPost returned error: %v", err)
	}
	if next.Status != social.StatusScheduled {
		t.Fatalf("expected recurring post rescheduled, got %s", next.Status)
	}
	if !next.ScheduledAt.After(post.ScheduledAt) {
		t.Fatalf("expected later schedule: %v vs %v", next.ScheduledAt, post.ScheduledAt)
	}
	if next.PublishedAt.IsZero() {
		t.Fatalf("expected published timestamp recorded")
	}
	if len(next.RemoteRefs) != 0 {
		t.Fatalf("expected refs reset for next occurrence: %v", next.RemoteRefs)
	}
}
