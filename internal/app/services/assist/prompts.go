package assist

import (
	"fmt"
	"strings"

	"github.com/localpulse/platform/internal/app/domain/review"
)

const replySystemPrompt = `You write short, professional replies from a local business owner to
Google reviews. Reply in the first person, thank the reviewer by name when a
name is given, address specifics from the review, and never promise refunds
or discounts. Keep replies under 80 words. Output only the reply text.`

const captionSystemPrompt = `You write social media captions for a local business. Keep the caption
punchy and under 2200 characters. Output only the caption text.`

func replyUserPrompt(rev review.Review, businessName, tone string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Business: %s\n", businessName)
	fmt.Fprintf(&b, "Tone: %s\n", tone)
	fmt.Fprintf(&b, "Rating: %d/5\n", rev.Rating)
	if rev.Author != "" {
		fmt.Fprintf(&b, "Reviewer: %s\n", rev.Author)
	}
	if rev.Comment != "" {
		fmt.Fprintf(&b, "Review: %s\n", rev.Comment)
	} else {
		b.WriteString("Review: (rating only, no text)\n")
	}
	b.WriteString("Write a reply to this review.")
	return b.String()
}

func captionUserPrompt(topic, tone string, hashtags []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	fmt.Fprintf(&b, "Tone: %s\n", tone)
	if len(hashtags) > 0 {
		fmt.Fprintf(&b, "Include these hashtags: %s\n", strings.Join(hashtags, " "))
	}
	b.WriteString("Write one caption.")
	return b.String()
}
