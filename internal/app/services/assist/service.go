// Package assist generates review replies and social captions with an LLM.
package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/localpulse/platform/internal/app/metrics"
	"github.com/localpulse/platform/internal/app/storage"
	"github.com/localpulse/platform/pkg/logger"
)

const maxReplyCandidates = 5

// Service produces AI-assisted content for tenants.
type Service struct {
	tenants   storage.TenantStore
	reviews   storage.ReviewStore
	locations storage.LocationStore
	completer Completer
	log       *logger.Logger
}

// New constructs an assist service. completer may be nil when no API key is
// configured; generation then reports an error.
func New(tenants storage.TenantStore, reviews storage.ReviewStore, locations storage.LocationStore, completer Completer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("assist")
	}
	return &Service{
		tenants:   tenants,
		reviews:   reviews,
		locations: locations,
		completer: completer,
		log:       log,
	}
}

// ReviewReply generates up to n candidate replies for a review. Near-identical
// candidates are dropped; one re-prompt tries to fill the rejected slots.
func (s *Service) ReviewReply(ctx context.Context, tenantID, reviewID, tone string, n int) ([]string, error) {
	tone = normalizeTone(tone)
	if n <= 0 {
		n = 3
	}
	if n > maxReplyCandidates {
		n = maxReplyCandidates
	}
	if s.completer == nil {
		return nil, fmt.Errorf("assist is not configured")
	}

	rev, err := s.reviews.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	loc, err := s.locations.GetLocation(ctx, rev.LocationID)
	if err != nil {
		return nil, err
	}
	if loc.TenantID != tenantID {
		return nil, fmt.Errorf("review does not belong to tenant")
	}

	prompt := replyUserPrompt(rev, loc.Name, tone)
	accepted, err := s.generateDistinct(ctx, replySystemPrompt, prompt, n)
	if err != nil {
		metrics.RecordAssistGeneration("review_reply", false)
		return nil, err
	}
	metrics.RecordAssistGeneration("review_reply", true)
	s.log.WithField("review_id", reviewID).
		WithField("candidates", len(accepted)).
		Info("review replies generated")
	return accepted, nil
}

// Caption generates a social caption for a topic.
func (s *Service) Caption(ctx context.Context, tenantID, topic, tone string, hashtags []string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", fmt.Errorf("topic is required")
	}
	if s.completer == nil {
		return "", fmt.Errorf("assist is not configured")
	}
	if _, err := s.tenants.GetTenant(ctx, tenantID); err != nil {
		return "", err
	}

	out, err := s.completer.Complete(ctx, captionSystemPrompt, captionUserPrompt(topic, normalizeTone(tone), hashtags), 1)
	if err != nil {
		metrics.RecordAssistGeneration("caption", false)
		return "", fmt.Errorf("generate caption: %w", err)
	}
	metrics.RecordAssistGeneration("caption", true)
	return out[0], nil
}

// generateDistinct asks for n completions, discards near-duplicates and
// re-prompts once for the missing slots.
func (s *Service) generateDistinct(ctx context.Context, system, user string, n int) ([]string, error) {
	candidates, err := s.completer.Complete(ctx, system, user, n)
	if err != nil {
		return nil, fmt.Errorf("generate replies: %w", err)
	}

	var accepted []string
	for _, c := range candidates {
		if len(accepted) == n {
			break
		}
		if tooSimilar(c, accepted) {
			continue
		}
		accepted = append(accepted, c)
	}

	if missing := n - len(accepted); missing > 0 {
		retry := user + "\nMake this reply clearly different in wording and structure from earlier drafts."
		more, err := s.completer.Complete(ctx, system, retry, missing)
		if err == nil {
			for _, c := range more {
				if len(accepted) == n {
					break
				}
				if tooSimilar(c, accepted) {
					continue
				}
				accepted = append(accepted, c)
			}
		} else {
			s.log.WithError(err).Warn("reply re-prompt failed")
		}
	}

	if len(accepted) == 0 {
		return nil, fmt.Errorf("no usable completions generated")
	}
	return accepted, nil
}

func normalizeTone(tone string) string {
	tone = strings.ToLower(strings.TrimSpace(tone))
	switch tone {
	case "", "friendly":
		return "friendly"
	case "professional", "apologetic", "playful":
		return tone
	default:
		return "friendly"
	}
}
