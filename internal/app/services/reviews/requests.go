package reviews

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/localpulse/platform/internal/app/domain/review"
)

// reviewLinkBase is where short-code redirects land when the bound place has
// no write-review URL of its own.
const reviewLinkBase = "https://search.google.com/local/writereview?placeid="

// CreateRequest records an outbound review invitation for a customer.
func (s *Service) CreateRequest(ctx context.Context, tenantID, locationID, customerName, channel, destination string) (review.Request, error) {
	customerName = strings.TrimSpace(customerName)
	channel = strings.ToLower(strings.TrimSpace(channel))
	destination = strings.TrimSpace(destination)

	if customerName == "" {
		return review.Request{}, fmt.Errorf("customer_name is required")
	}
	switch channel {
	case "email":
		if !strings.Contains(destination, "@") {
			return review.Request{}, fmt.Errorf("destination must be an email address")
		}
	case "sms":
		if destination == "" {
			return review.Request{}, fmt.Errorf("destination is required for sms")
		}
	default:
		return review.Request{}, fmt.Errorf("channel must be email or sms")
	}

	loc, err := s.locations.GetLocation(ctx, locationID)
	if err != nil {
		return review.Request{}, err
	}
	if loc.TenantID != tenantID {
		return review.Request{}, ErrForbidden
	}

	req := review.Request{
		TenantID:     tenantID,
		LocationID:   locationID,
		CustomerName: customerName,
		Channel:      channel,
		Destination:  destination,
		Status:       review.RequestPending,
		ShortCode:    shortCode(),
	}
	req, err = s.store.CreateReviewRequest(ctx, req)
	if err != nil {
		return review.Request{}, err
	}
	s.log.WithField("request_id", req.ID).
		WithField("channel", req.Channel).
		Info("review request created")
	return req, nil
}

// ListRequests returns a tenant's review requests.
func (s *Service) ListRequests(ctx context.Context, tenantID string) ([]review.Request, error) {
	return s.store.ListReviewRequests(ctx, tenantID)
}

// UpdateRequestStatus moves a request through its delivery lifecycle.
func (s *Service) UpdateRequestStatus(ctx context.Context, tenantID, requestID, status string) (review.Request, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case review.RequestSent, review.RequestCompleted, review.RequestFailed:
	default:
		return review.Request{}, fmt.Errorf("unknown request status %q", status)
	}

	req, err := s.store.GetReviewRequest(ctx, requestID)
	if err != nil {
		return review.Request{}, err
	}
	if req.TenantID != tenantID {
		return review.Request{}, ErrForbidden
	}

	now := time.Now().UTC()
	req.Status = status
	switch status {
	case review.RequestSent:
		req.SentAt = now
	case review.RequestCompleted:
		req.CompletedAt = now
	}
	return s.store.UpdateReviewRequest(ctx, req)
}

// TrackClick resolves a public short code, marks the request clicked and
// returns the review URL to redirect the customer to.
func (s *Service) TrackClick(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("code is required")
	}

	req, err := s.store.GetReviewRequestByCode(ctx, code)
	if err != nil {
		return "", err
	}

	if req.Status == review.RequestPending || req.Status == review.RequestSent {
		req.Status = review.RequestClicked
		req.ClickedAt = time.Now().UTC()
		if _, err := s.store.UpdateReviewRequest(ctx, req); err != nil {
			s.log.WithError(err).WithField("request_id", req.ID).Warn("record click failed")
		}
	}

	loc, err := s.locations.GetLocation(ctx, req.LocationID)
	if err != nil || loc.PlaceID == "" {
		return "", fmt.Errorf("request %s has no review destination", req.ID)
	}
	return reviewLinkBase + loc.PlaceID, nil
}
