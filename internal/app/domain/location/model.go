package location

import "time"

// Location is a physical business location. A location may be bound to a
// Google Place and, once the profile is verified, to a Google Business
// Profile account/location resource pair.
type Location struct {
	ID                string    `json:"id"`
	TenantID          string    `json:"tenant_id"`
	Name              string    `json:"name"`
	Address           string    `json:"address"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	Phone             string    `json:"phone,omitempty"`
	Website           string    `json:"website,omitempty"`
	Category          string    `json:"category,omitempty"`
	PlaceID           string    `json:"place_id,omitempty"`
	GBPAccountID      string    `json:"gbp_account_id,omitempty"`
	GBPLocationID     string    `json:"gbp_location_id,omitempty"`
	GBPConnected      bool      `json:"gbp_connected"`
	ReviewSyncEnabled bool      `json:"review_sync_enabled"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
