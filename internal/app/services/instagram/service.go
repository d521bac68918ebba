// Package instagram links tenant Instagram accounts, syncs media and manages
// DM conversations through the Graph API.
package instagram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/localpulse/platform/internal/app/domain/instagram"
	"github.com/localpulse/platform/internal/app/storage"
	"github.com/localpulse/platform/pkg/logger"
)

// ErrForbidden is returned when a connection belongs to a different tenant.
var ErrForbidden = errors.New("connection does not belong to tenant")

// ErrNotConnected is returned when a tenant has no Instagram connection.
var ErrNotConnected = errors.New("tenant has no instagram connection")

// Service manages Instagram connections for tenants.
type Service struct {
	store storage.InstagramStore
	graph GraphClient
	log   *logger.Logger
}

// New constructs an Instagram service. graph may be nil when no app
// credentials are configured; connection operations then report an error.
func New(store storage.InstagramStore, graph GraphClient, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("instagram")
	}
	return &Service{store: store, graph: graph, log: log}
}

// Connect exchanges an OAuth code, upgrades the token to long-lived and
// stores the connection. Reconnecting replaces the stored token.
func (s *Service) Connect(ctx context.Context, tenantID, code string) (instagram.Connection, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return instagram.Connection{}, fmt.Errorf("code is required")
	}
	if s.graph == nil {
		return instagram.Connection{}, fmt.Errorf("instagram client is not configured")
	}

	short, igUserID, err := s.graph.ExchangeCode(ctx, code)
	if err != nil {
		return instagram.Connection{}, fmt.Errorf("exchange code: %w", err)
	}
	long, err := s.graph.LongLivedToken(ctx, short.AccessToken)
	if err != nil {
		return instagram.Connection{}, fmt.Errorf("upgrade token: %w", err)
	}
	profileID, username, err := s.graph.Profile(ctx, long.AccessToken)
	if err != nil {
		return instagram.Connection{}, fmt.Errorf("fetch profile: %w", err)
	}
	if igUserID == "" {
		igUserID = profileID
	}

	conn := instagram.Connection{
		TenantID:    tenantID,
		IGUserID:    igUserID,
		Username:    username,
		AccessToken: long.AccessToken,
		TokenType:   long.TokenType,
		ExpiresAt:   time.Now().UTC().Add(long.ExpiresIn),
	}

	if existing, err := s.store.GetConnectionByTenant(ctx, tenantID); err == nil {
		conn.ID = existing.ID
		conn.CreatedAt = existing.CreatedAt
		conn, err = s.store.UpdateConnection(ctx, conn)
		if err != nil {
			return instagram.Connection{}, err
		}
	} else {
		conn, err = s.store.CreateConnection(ctx, conn)
		if err != nil {
			return instagram.Connection{}, err
		}
	}

	s.log.WithField("tenant_id", tenantID).
		WithField("ig_user_id", conn.IGUserID).
		WithField("username", conn.Username).
		Info("instagram connected")
	return conn, nil
}

// Connection returns a tenant's connection.
func (s *Service) Connection(ctx context.Context, tenantID string) (instagram.Connection, error) {
	conn, err := s.store.GetConnectionByTenant(ctx, tenantID)
	if err != nil {
		return instagram.Connection{}, ErrNotConnected
	}
	return conn, nil
}

// Disconnect removes a tenant's connection.
func (s *Service) Disconnect(ctx context.Context, tenantID string) error {
	conn, err := s.store.GetConnectionByTenant(ctx, tenantID)
	if err != nil {
		return ErrNotConnected
	}
	return s.store.DeleteConnection(ctx, conn.ID)
}

// SyncMedia walks the media edge page by page and upserts every item. It
// returns the number of media objects seen.
func (s *Service) SyncMedia(ctx context.Context, tenantID string) (int, error) {
	conn, err := s.Connection(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	if s.graph == nil {
		return 0, fmt.Errorf("instagram client is not configured")
	}

	now := time.Now().UTC()
	total := 0
	cursor := ""
	for {
		page, next, err := s.graph.ListMedia(ctx, conn.IGUserID, conn.AccessToken, cursor)
		if err != nil {
			return total, fmt.Errorf("list media: %w", err)
		}
		for _, rm := range page {
			media := instagram.Media{
				ConnectionID:  conn.ID,
				RemoteID:      rm.RemoteID,
				MediaType:     rm.MediaType,
				MediaURL:      rm.MediaURL,
				Permalink:     rm.Permalink,
				Caption:       rm.Caption,
				LikeCount:     rm.LikeCount,
				CommentsCount: rm.CommentsCount,
				Timestamp:     rm.Timestamp,
				SyncedAt:      now,
			}
			if _, err := s.store.UpsertMedia(ctx, media); err != nil {
				return total, fmt.Errorf("upsert media %s: %w", rm.RemoteID, err)
			}
			total++
		}
		if next == "" || len(page) == 0 {
			break
		}
		cursor = next
	}

	conn.LastSyncAt = now
	if _, err := s.store.UpdateConnection(ctx, conn); err != nil {
		s.log.WithError(err).WithField("connection_id", conn.ID).Warn("record sync time failed")
	}

	s.log.WithField("tenant_id", tenantID).
		WithField("media", total).
		Info("instagram media synced")
	return total, nil
}

// Media lists the synced media for a tenant.
func (s *Service) Media(ctx context.Context, tenantID string) ([]instagram.Media, error) {
	conn, err := s.Connection(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.store.ListMedia(ctx, conn.ID)
}

// SyncConversations refreshes the DM thread list from the Graph API.
func (s *Service) SyncConversations(ctx context.Context, tenantID string) ([]instagram.Conversation, error) {
	conn, err := s.Connection(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if s.graph == nil {
		return nil, fmt.Errorf("instagram client is not configured")
	}

	remote, err := s.graph.ListConversations(ctx, conn.IGUserID, conn.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	for _, rc := range remote {
		conv := instagram.Conversation{
			ConnectionID:  conn.ID,
			RemoteID:      rc.RemoteID,
			ParticipantID: rc.ParticipantID,
			Participant:   rc.Participant,
			UpdatedTime:   rc.UpdatedTime,
		}
		if _, err := s.store.UpsertConversation(ctx, conv); err != nil {
			return nil, fmt.Errorf("upsert conversation %s: %w", rc.RemoteID, err)
		}
	}
	return s.store.ListConversations(ctx, conn.ID)
}

// Conversations lists the stored DM threads for a tenant.
func (s *Service) Conversations(ctx context.Context, tenantID string) ([]instagram.Conversation, error) {
	conn, err := s.Connection(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.store.ListConversations(ctx, conn.ID)
}

// Messages lists the stored messages of a conversation.
func (s *Service) Messages(ctx context.Context, tenantID, conversationID string) ([]instagram.Message, error) {
	if _, err := s.ownedConversation(ctx, tenantID, conversationID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, conversationID)
}

// SendMessage delivers a DM into a conversation and records the outbound
// message locally once the Graph API accepts it.
func (s *Service) SendMessage(ctx context.Context, tenantID, conversationID, text string) (instagram.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return instagram.Message{}, fmt.Errorf("text is required")
	}
	conv, err := s.ownedConversation(ctx, tenantID, conversationID)
	if err != nil {
		return instagram.Message{}, err
	}
	conn, err := s.Connection(ctx, tenantID)
	if err != nil {
		return instagram.Message{}, err
	}
	if s.graph == nil {
		return instagram.Message{}, fmt.Errorf("instagram client is not configured")
	}

	remoteID, err := s.graph.SendMessage(ctx, conn.IGUserID, conn.AccessToken, conv.ParticipantID, text)
	if err != nil {
		return instagram.Message{}, fmt.Errorf("send message: %w", err)
	}

	msg := instagram.Message{
		ConversationID: conversationID,
		RemoteID:       remoteID,
		Direction:      instagram.DirectionOut,
		Text:           text,
		SentAt:         time.Now().UTC(),
	}
	msg, err = s.store.CreateMessage(ctx, msg)
	if err != nil {
		return instagram.Message{}, err
	}
	s.log.WithField("conversation_id", conversationID).Info("instagram message sent")
	return msg, nil
}

func (s *Service) ownedConversation(ctx context.Context, tenantID, conversationID string) (instagram.Conversation, error) {
	conn, err := s.Connection(ctx, tenantID)
	if err != nil {
		return instagram.Conversation{}, err
	}
	convs, err := s.store.ListConversations(ctx, conn.ID)
	if err != nil {
		return instagram.Conversation{}, err
	}
	for _, conv := range convs {
		if conv.ID == conversationID {
			return conv, nil
		}
	}
	return instagram.Conversation{}, ErrForbidden
}
