package review

import "time"

// Review mirrors a Google Business Profile review for a location. RemoteID is
// the full GBP resource name (accounts/{a}/locations/{l}/reviews/{r}).
type Review struct {
	ID             string    `json:"id"`
	LocationID     string    `json:"location_id"`
	RemoteID       string    `json:"remote_id"`
	Author         string    `json:"author"`
	AuthorPhotoURL string    `json:"author_photo_url,omitempty"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment"`
	ReplyComment   string    `json:"reply_comment,omitempty"`
	ReplyUpdatedAt time.Time `json:"reply_updated_at,omitempty"`
	CreateTime     time.Time `json:"create_time"`
	UpdateTime     time.Time `json:"update_time"`
	SyncedAt       time.Time `json:"synced_at"`
}

// Answered reports whether the business has published a reply.
func (r Review) Answered() bool { return r.ReplyComment != "" }

// Request statuses.
const (
	RequestPending   = "pending"
	RequestSent      = "sent"
	RequestClicked   = "clicked"
	RequestCompleted = "completed"
	RequestFailed    = "failed"
)

// Request is an outbound invitation asking a customer to leave a review.
// ShortCode backs the public tracking link.
type Request struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	LocationID   string    `json:"location_id"`
	CustomerName string    `json:"customer_name"`
	Channel      string    `json:"channel"`
	Destination  string    `json:"destination"`
	Status       string    `json:"status"`
	ShortCode    string    `json:"short_code"`
	SentAt       time.Time `json:"sent_at,omitempty"`
	ClickedAt    time.Time `json:"clicked_at,omitempty"`
	CompletedAt  time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
