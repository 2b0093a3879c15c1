package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"brandintel_server/core/port/out"
)

const enrichSystemPrompt = `You classify commercial email metadata. Analyze the sender and subject and respond with JSON only.

Email types (pick ONE):
- offer: discounts, sales, promotions
- receipt: order confirmations, invoices, shipping
- newsletter: digests, editorial content
- event: invitations, webinars, RSVPs
- announcement: product launches, new arrivals
- transactional: account, security, password emails

Respond with this exact JSON format:
{
  "brand": {"name": "Brand Name", "domain": "brand.com", "is_dtc": true|false},
  "email_type": "offer|receipt|newsletter|event|announcement|transactional",
  "engagement_score": 0.0-1.0,
  "is_promotional": true|false,
  "key_signals": ["signal1", "signal2"]
}

is_dtc is true for direct-to-consumer brands, false for corporate/service/utility senders.
engagement_score estimates how engaging this email is for a shopper (personalized offers score high, boilerplate scores low).`

// ClassifySignal asks the model to refine a deterministic signal. Best
// effort; callers degrade to the deterministic result on any error.
func (c *Client) ClassifySignal(ctx context.Context, req *out.EnrichmentRequest) (*out.EnrichmentResponse, error) {
	userPrompt := fmt.Sprintf("Sender: %s\nDomain: %s\nSubject: %s\n\nExcerpt:\n%s",
		req.Sender, req.Domain, req.Subject, req.Excerpt)

	resp, err := c.CompleteJSON(ctx, enrichSystemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimSuffix(resp, "```")
	resp = strings.TrimSpace(resp)

	var result out.EnrichmentResponse
	if err := json.Unmarshal([]byte(resp), &result); err != nil {
		return nil, fmt.Errorf("failed to parse enrichment response: %w", err)
	}

	return &result, nil
}

var _ out.SignalEnricher = (*Client)(nil)
