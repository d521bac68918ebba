package instagram

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/localpulse/platform/internal/app/domain/instagram"
	"github.com/localpulse/platform/internal/app/storage/memory"
)

type fakeGraph struct {
	media      [][]RemoteMedia
	mediaCalls int
	convs      []RemoteConversation
	sent       []string
	sendErr    error
	refresh    TokenResult
	refreshErr error
}

func (f *fakeGraph) ExchangeCode(context.Context, string) (TokenResult, string, error) {
	return TokenResult{AccessToken: "short"}, "ig-user-1", nil
}

func (f *fakeGraph) LongLivedToken(context.Context, string) (TokenResult, error) {
	return TokenResult{AccessToken: "long", TokenType: "bearer", ExpiresIn: 60 * 24 * time.Hour}, nil
}

func (f *fakeGraph) RefreshToken(context.Context, string) (TokenResult, error) {
	if f.refreshErr != nil {
		return TokenResult{}, f.refreshErr
	}
	return f.refresh, nil
}

func (f *fakeGraph) Profile(context.Context, string) (string, string, error) {
	return "ig-user-1", "cafeaccount", nil
}

func (f *fakeGraph) ListMedia(_ context.Context, _, _, cursor string) ([]RemoteMedia, string, error) {
	page := f.mediaCalls
	f.mediaCalls++
	if page >= len(f.media) {
		return nil, "", nil
	}
	next := ""
	if page < len(f.media)-1 {
		next = "cursor"
	}
	return f.media[page], next, nil
}

func (f *fakeGraph) ListConversations(context.Context, string, string) ([]RemoteConversation, error) {
	return f.convs, nil
}

func (f *fakeGraph) SendMessage(_ context.Context, _, _, recipient, text string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, recipient+":"+text)
	return "mid-1", nil
}

func (f *fakeGraph) PublishMedia(context.Context, string, string, string, string) (string, error) {
	return "media-1", nil
}

func TestConnectStoresLongLivedToken(t *testing.T) {
	store := memory.New()
	svc := New(store, &fakeGraph{}, nil)
	ctx := context.Background()

	conn, err := svc.Connect(ctx, "t1", "oauth-code")
	if err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	if conn.AccessToken != "long" || conn.IGUserID != "ig-user-1" || conn.Username != "cafeaccount" {
		t.Fatalf("unexpected connection: %+v", conn)
	}
	if conn.ExpiresAt.Before(time.Now().Add(50 * 24 * time.Hour)) {
		t.Fatalf("expected long-lived expiry, got %v", conn.ExpiresAt)
	}

	// Reconnect replaces the stored connection instead of duplicating it.
	again, err := svc.Connect(ctx, "t1", "another-code")
	if err != nil {
		t.Fatalf("second Connect returned error: %v", err)
	}
	if again.ID != conn.ID {
		t.Fatalf("expected same connection id, got %s vs %s", again.ID, conn.ID)
	}
	all, err := store.ListConnections(ctx)
	if err != nil {
		t.Fatalf("ListConnections returned error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(all))
	}
}

func TestSyncMediaWalksPages(t *testing.T) {
	store := memory.New()
	graph := &fakeGraph{media: [][]RemoteMedia{
		{{RemoteID: "m1", MediaType: "IMAGE"}, {RemoteID: "m2", MediaType: "VIDEO"}},
		{{RemoteID: "m3", MediaType: "IMAGE"}},
	}}
	svc := New(store, graph, nil)
	ctx := context.Background()

	if _, err := svc.Connect(ctx, "t1", "code"); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}

	total, err := svc.SyncMedia(ctx, "t1")
	if err != nil {
		t.Fatalf("SyncMedia returned error: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 media synced, got %d", total)
	}
	if graph.mediaCalls != 2 {
		t.Fatalf("expected 2 pages fetched, got %d", graph.mediaCalls)
	}

	media, err := svc.Media(ctx, "t1")
	if err != nil {
		t.Fatalf("Media returned error: %v", err)
	}
	if len(media) != 3 {
		t.Fatalf("expected 3 stored media, got %d", len(media))
	}

	conn, err := svc.Connection(ctx, "t1")
	if err != nil {
		t.Fatalf("Connection returned error: %v", err)
	}
	if conn.LastSyncAt.IsZero() {
		t.Fatalf("expected sync time recorded")
	}
}

func TestDisconnectRemovesConversationState(t *testing.T) {
	store := memory.New()
	svc := New(store, &fakeGraph{}, nil)
	ctx := context.Background()

	conn, err := svc.Connect(ctx, "t1", "code")
	if err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	conv, err := store.UpsertConversation(ctx, instagram.Conversation{
		ConnectionID: conn.ID,
		RemoteID:     "conv-1",
		Participant:  "igsid-1",
	})
	if err != nil {
		t.Fatalf("UpsertConversation returned error: %v", err)
	}
	if _, err := store.CreateMessage(ctx, instagram.Message{
		ConversationID: conv.ID,
		Text:           "hello",
	}); err != nil {
		t.Fatalf("CreateMessage returned error: %v", err)
	}

	if err := svc.Disconnect(ctx, "t1"); err != nil {
		t.Fatalf("Disconnect returned error: %v", err)
	}

	convs, err := store.ListConversations(ctx, conn.ID)
	if err != nil {
		t.Fatalf("ListConversations returned error: %v", err)
	}
	if len(convs) != 0 {
		t.Fatalf("expected conversations removed, got %d", len(convs))
	}
	msgs, err := store.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListMessages returned error: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected messages removed, got %d", len(msgs))
	}
}

func TestSendMessageRecordsOutboundDM(t *testing.T) {
	store := memory.New()
	graph := &fakeGraph{convs: []RemoteConversation{
		{RemoteID: "thread-1", ParticipantID: "igsid-9", Participant: "customer"},
	}}
	svc := New(store, graph, nil)
	ctx := context.Background()

	if _, err := svc.Connect(ctx, "t1", "code"); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	convs, err := svc.SyncConversations(ctx, "t1")
	if err != nil {
		t.Fatalf("SyncConversations returned error: %v", err)
	}
	if len(convs) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(convs))
	}

	msg, err := svc.SendMessage(ctx, "t1", convs[0].ID, "hello!")
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if msg.Direction != instagram.DirectionOut || msg.RemoteID != "mid-1" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if len(graph.sent) != 1 || graph.sent[0] != "igsid-9:hello!" {
		t.Fatalf("unexpected send: %v", graph.sent)
	}

	msgs, err := svc.Messages(ctx, "t1", convs[0].ID)
	if err != nil {
		t.Fatalf("Messages returned error: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 stored message, got %d", len(msgs))
	}
}

func TestSendMessageFailureLeavesNoLocalMessage(t *testing.T) {
	store := memory.New()
	graph := &fakeGraph{
		convs:   []RemoteConversation{{RemoteID: "thread-1", ParticipantID: "igsid-9"}},
		sendErr: errors.New("graph unavailable"),
	}
	svc := New(store, graph, nil)
	ctx := context.Background()

	if _, err := svc.Connect(ctx, "t1", "code"); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	convs, err := svc.SyncConversations(ctx, "t1")
	if err != nil {
		t.Fatalf("SyncConversations returned error: %v", err)
	}

	if _, err := svc.SendMessage(ctx, "t1", convs[0].ID, "hello!"); err == nil {
		t.Fatalf("expected send error")
	}
	msgs, err := svc.Messages(ctx, "t1", convs[0].ID)
	if err != nil {
		t.Fatalf("Messages returned error: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected no stored messages, got %d", len(msgs))
	}
}

func TestMessagesEnforcesTenantScope(t *testing.T) {
	store := memory.New()
	graph := &fakeGraph{convs: []RemoteConversation{{RemoteID: "thread-1", ParticipantID: "igsid-9"}}}
	svc := New(store, graph, nil)
	ctx := context.Background()

	if _, err := svc.Connect(ctx, "t1", "code"); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	convs, err := svc.SyncConversations(ctx, "t1")
	if err != nil {
		t.Fatalf("SyncConversations returned error: %v", err)
	}

	if _, err := svc.Messages(ctx, "t2", convs[0].ID); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected for foreign tenant, got %v", err)
	}
}

func TestTokenRefresherRefreshesExpiringTokens(t *testing.T) {
	store := memory.New()
	graph := &fakeGraph{refresh: TokenResult{AccessToken: "fresh", ExpiresIn: 60 * 24 * time.Hour}}
	svc := New(store, graph, nil)
	ctx := context.Background()

	expiring, err := store.CreateConnection(ctx, instagram.Connection{
		TenantID:    "t1",
		IGUserID:    "ig-1",
		AccessToken: "old",
		ExpiresAt:   time.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateConnection returned error: %v", err)
	}
	healthy, err := store.CreateConnection(ctx, instagram.Connection{
		TenantID:    "t2",
		IGUserID:    "ig-2",
		AccessToken: "keep",
		ExpiresAt:   time.Now().Add(40 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateConnection returned error: %v", err)
	}

	NewTokenRefresher(svc, time.Hour, nil).tick(ctx)

	got, err := store.GetConnection(ctx, expiring.ID)
	if err != nil {
		t.Fatalf("GetConnection returned error: %v", err)
	}
	if got.AccessToken != "fresh" {
		t.Fatalf("expected refreshed token, got %q", got.AccessToken)
	}
	kept, err := store.GetConnection(ctx, healthy.ID)
	if err != nil {
		t.Fatalf("GetConnection returned error: %v", err)
	}
	if kept.AccessToken != "keep" {
		t.Fatalf("healthy token should be untouched, got %q", kept.AccessToken)
	}
}

func TestTokenRefresherKeepsOldTokenOnFailure(t *testing.T) {
	store := memory.New()
	graph := &fakeGraph{refreshErr: errors.New("graph down")}
	svc := New(store, graph, nil)
	ctx := context.Background()

	conn, err := store.CreateConnection(ctx, instagram.Connection{
		TenantID:    "t1",
		IGUserID:    "ig-1",
		AccessToken: "old",
		ExpiresAt:   time.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateConnection returned error: %v", err)
	}

	NewTokenRefresher(svc, time.Hour, nil).tick(ctx)

	got, err := store.GetConnection(ctx, conn.ID)
	if err != nil {
		t.Fatalf("GetConnection returned error: %v", err)
	}
	if got.AccessToken != "old" {
		t.Fatalf("expected old token kept, got %q", got.AccessToken)
	}
}
