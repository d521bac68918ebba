package events

import (
	"testing"
	"time"
)

func TestHubDeliversToTenantSubscribers(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("t1", 4)
	defer cancel()

	other, cancelOther := hub.Subscribe("t2", 4)
	defer cancelOther()

	hub.Publish(Event{Type: TypeReviewSynced, TenantID: "t1"})

	select {
	case evt := <-ch:
		if evt.Type != TypeReviewSynced || evt.At.IsZero() {
			t.Fatalf("unexpected event %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected event for t1")
	}

	select {
	case evt := <-other:
		t.Fatalf("t2 should not receive t1 events, got %+v", evt)
	default:
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("t1", 1)
	defer cancel()

	hub.Publish(Event{Type: TypePostPublished, TenantID: "t1"})
	hub.Publish(Event{Type: TypePostFailed, TenantID: "t1"})

	evt := <-ch
	if evt.Type != TypePostPublished {
		t.Fatalf("expected first event retained, got %s", evt.Type)
	}
	select {
	case evt := <-ch:
		t.Fatalf("second event should have been dropped, got %+v", evt)
	default:
	}
}

func TestHubCancelRemovesSubscription(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe("t1", 1)
	if hub.SubscriberCount("t1") != 1 {
		t.Fatalf("expected one subscriber")
	}
	cancel()
	cancel() // second cancel is a no-op
	if hub.SubscriberCount("t1") != 0 {
		t.Fatalf("expected zero subscribers after cancel")
	}
}
