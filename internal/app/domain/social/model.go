package social

import "time"

// Publish channels.
const (
	ChannelGBP       = "gbp"
	ChannelInstagram = "instagram"
	ChannelFacebook  = "facebook"
)

// Post statuses. A scheduled post is claimed as publishing before any network
// call is made so a concurrent tick cannot pick it up twice.
const (
	StatusDraft      = "draft"
	StatusScheduled  = "scheduled"
	StatusPublishing = "publishing"
	StatusPublished  = "published"
	StatusFailed     = "failed"
)

// Post is a social studio post targeting one or more channels. Recur, when
// set, holds a cron expression; after each publish the post is rescheduled to
// the next occurrence instead of being marked published.
type Post struct {
	ID          string            `json:"id"`
	TenantID    string            `json:"tenant_id"`
	LocationID  string            `json:"location_id"`
	Caption     string            `json:"caption"`
	MediaURLs   []string          `json:"media_urls,omitempty"`
	Channels    []string          `json:"channels"`
	Status      string            `json:"status"`
	ScheduledAt time.Time         `json:"scheduled_at,omitempty"`
	Recur       string            `json:"recur,omitempty"`
	PublishedAt time.Time         `json:"published_at,omitempty"`
	Error       string            `json:"error,omitempty"`
	RemoteRefs  map[string]string `json:"remote_refs,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Targets reports whether the post is addressed to the given channel.
func (p Post) Targets(channel string) bool {
	for _, c := range p.Channels {
		if c == channel {
			return true
		}
	}
	return false
}
