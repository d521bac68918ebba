package instagram

import "time"

// Connection holds a tenant's Instagram professional account link and the
// long-lived Graph API token used for all outbound calls.
type Connection struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	IGUserID    string    `json:"ig_user_id"`
	Username    string    `json:"username"`
	AccessToken string    `json:"-"`
	TokenType   string    `json:"token_type,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
	PageID      string    `json:"page_id,omitempty"`
	LastSyncAt  time.Time `json:"last_sync_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Media is a synced Instagram media object.
type Media struct {
	ID            string    `json:"id"`
	ConnectionID  string    `json:"connection_id"`
	RemoteID      string    `json:"remote_id"`
	MediaType     string    `json:"media_type"`
	MediaURL      string    `json:"media_url,omitempty"`
	Permalink     string    `json:"permalink,omitempty"`
	Caption       string    `json:"caption,omitempty"`
	LikeCount     int       `json:"like_count"`
	CommentsCount int       `json:"comments_count"`
	Timestamp     time.Time `json:"timestamp"`
	SyncedAt      time.Time `json:"synced_at"`
}

// Conversation is a DM thread addressed by the participant's IGSID.
type Conversation struct {
	ID            string    `json:"id"`
	ConnectionID  string    `json:"connection_id"`
	RemoteID      string    `json:"remote_id"`
	ParticipantID string    `json:"participant_id"`
	Participant   string    `json:"participant"`
	UpdatedTime   time.Time `json:"updated_time"`
}

// Message directions.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Message is a single DM within a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	RemoteID       string    `json:"remote_id"`
	Direction      string    `json:"direction"`
	Text           string    `json:"text"`
	SentAt         time.Time `json:"sent_at"`
	CreatedAt      time.Time `json:"created_at"`
}
