package competitor

import "time"

// Entry is a single ranked business from a local search result set.
type Entry struct {
	PlaceID        string  `json:"place_id"`
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	Rating         float64 `json:"rating"`
	ReviewCount    int     `json:"review_count"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	DistanceMeters float64 `json:"distance_meters"`
	Position       int     `json:"position"`
	PhotoURL       string  `json:"photo_url,omitempty"`
}

// Snapshot captures the competitive ranking for a location and keyword at a
// point in time. Position 0 means the subject did not appear in the results.
type Snapshot struct {
	ID           string    `json:"id"`
	LocationID   string    `json:"location_id"`
	Keyword      string    `json:"keyword"`
	Position     int       `json:"position"`
	TotalResults int       `json:"total_results"`
	Source       string    `json:"source"`
	Entries      []Entry   `json:"entries"`
	TakenAt      time.Time `json:"taken_at"`
	CreatedAt    time.Time `json:"created_at"`
}
