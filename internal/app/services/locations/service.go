// Package locations manages business locations and their Google Place binding.
package locations

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/localpulse/platform/internal/app/domain/location"
	"github.com/localpulse/platform/internal/app/places"
	"github.com/localpulse/platform/internal/app/storage"
	"github.com/localpulse/platform/pkg/logger"
)

// ErrForbidden is returned when a location belongs to a different tenant.
var ErrForbidden = errors.New("location does not belong to tenant")

var gbpLocationPattern = regexp.MustCompile(`^accounts/[^/]+/locations/[^/]+$`)

// Service manages locations for a tenant.
type Service struct {
	store  storage.LocationStore
	places places.Searcher
	log    *logger.Logger
}

// New constructs a location service. The places client may be nil when no
// Google API key is configured; Connect then reports an error.
func New(store storage.LocationStore, searcher places.Searcher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("locations")
	}
	return &Service{store: store, places: searcher, log: log}
}

// CreateInput carries the writable location fields.
type CreateInput struct {
	Name      string
	Address   string
	Latitude  float64
	Longitude float64
	Phone     string
	Website   string
	Category  string
}

// Create adds a location for a tenant.
func (s *Service) Create(ctx context.Context, tenantID string, in CreateInput) (location.Location, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	if tenantID == "" {
		return location.Location{}, fmt.Errorf("tenant_id is required")
	}
	if in.Name == "" {
		return location.Location{}, fmt.Errorf("name is required")
	}
	if in.Address == "" {
		return location.Location{}, fmt.Errorf("address is required")
	}

	loc := location.Location{
		TenantID:  tenantID,
		Name:      in.Name,
		Address:   in.Address,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Phone:     strings.TrimSpace(in.Phone),
		Website:   strings.TrimSpace(in.Website),
		Category:  strings.TrimSpace(in.Category),
	}
	loc, err := s.store.CreateLocation(ctx, loc)
	if err != nil {
		return location.Location{}, err
	}
	s.log.WithField("location_id", loc.ID).
		WithField("tenant_id", tenantID).
		Info("location created")
	return loc, nil
}

// Update modifies the writable fields of a tenant's location.
func (s *Service) Update(ctx context.Context, tenantID, id string, in CreateInput) (location.Location, error) {
	loc, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return location.Location{}, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		loc.Name = name
	}
	if addr := strings.TrimSpace(in.Address); addr != "" {
		loc.Address = addr
	}
	if in.Latitude != 0 || in.Longitude != 0 {
		loc.Latitude = in.Latitude
		loc.Longitude = in.Longitude
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		loc.Phone = phone
	}
	if site := strings.TrimSpace(in.Website); site != "" {
		loc.Website = site
	}
	if cat := strings.TrimSpace(in.Category); cat != "" {
		loc.Category = cat
	}
	return s.store.UpdateLocation(ctx, loc)
}

// Get returns a location, enforcing tenant ownership.
func (s *Service) Get(ctx context.Context, tenantID, id string) (location.Location, error) {
	loc, err := s.store.GetLocation(ctx, id)
	if err != nil {
		return location.Location{}, err
	}
	if loc.TenantID != tenantID {
		return location.Location{}, ErrForbidden
	}
	return loc, nil
}

// List returns all locations for a tenant.
func (s *Service) List(ctx context.Context, tenantID string) ([]location.Location, error) {
	return s.store.ListLocations(ctx, tenantID)
}

// Delete removes a tenant's location.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return err
	}
	return s.store.DeleteLocation(ctx, id)
}

// Connect searches Google Places for candidates matching the location. The
// caller picks a candidate and completes the binding with Bind.
func (s *Service) Connect(ctx context.Context, tenantID, id, query string) ([]places.Place, error) {
	loc, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if s.places == nil {
		return nil, fmt.Errorf("places search is not configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		query = loc.Name + " " + loc.Address
	}
	return s.places.TextSearch(ctx, query, loc.Latitude, loc.Longitude)
}

// BindInput identifies the Google Place and GBP resources to attach.
type BindInput struct {
	PlaceID       string
	GBPAccountID  string
	GBPLocationID string
	ReviewSync    bool
}

// Bind attaches a Google Place and GBP resource pair to a location.
func (s *Service) Bind(ctx context.Context, tenantID, id string, in BindInput) (location.Location, error) {
	loc, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return location.Location{}, err
	}

	in.PlaceID = strings.TrimSpace(in.PlaceID)
	in.GBPAccountID = strings.TrimSpace(in.GBPAccountID)
	in.GBPLocationID = strings.TrimSpace(in.GBPLocationID)
	if in.PlaceID == "" {
		return location.Location{}, fmt.Errorf("place_id is required")
	}

	loc.PlaceID = in.PlaceID
	if in.GBPAccountID != "" || in.GBPLocationID != "" {
		full := in.GBPLocationID
		if !strings.HasPrefix(full, "accounts/") {
			full = in.GBPAccountID + "/" + strings.TrimPrefix(in.GBPLocationID, "/")
		}
		if !gbpLocationPattern.MatchString(full) {
			return location.Location{}, fmt.Errorf("gbp location %q does not match accounts/{account}/locations/{location}", full)
		}
		parts := strings.SplitN(full, "/locations/", 2)
		loc.GBPAccountID = parts[0]
		loc.GBPLocationID = full
		loc.GBPConnected = true
		loc.ReviewSyncEnabled = in.ReviewSync
	}

	// Fill coordinates from place details when the tenant never set them.
	if s.places != nil && loc.Latitude == 0 && loc.Longitude == 0 {
		if place, err := s.places.Details(ctx, in.PlaceID); err == nil {
			loc.Latitude = place.Latitude
			loc.Longitude = place.Longitude
		} else {
			s.log.WithError(err).WithField("place_id", in.PlaceID).Warn("place details lookup failed")
		}
	}

	loc, err = s.store.UpdateLocation(ctx, loc)
	if err != nil {
		return location.Location{}, err
	}
	s.log.WithField("location_id", loc.ID).
		WithField("place_id", loc.PlaceID).
		WithField("gbp_connected", loc.GBPConnected).
		Info("location bound to place")
	return loc, nil
}
