package out

import "context"

// EnrichmentRequest is what the external classification collaborator sees:
// sender identity plus a short content excerpt, never the full body.
type EnrichmentRequest struct {
	Sender  string `json:"sender"`
	Domain  string `json:"domain"`
	Subject string `json:"subject"`
	Excerpt string `json:"excerpt"`
}

// EnrichmentBrand is the collaborator's structured guess at brand identity.
type EnrichmentBrand struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
	IsDTC  bool   `json:"is_dtc"`
}

// EnrichmentResponse is the collaborator's refinement of a deterministic
// signal. Best effort only; callers must always have a fallback.
type EnrichmentResponse struct {
	Brand           EnrichmentBrand `json:"brand"`
	EmailType       string          `json:"email_type"`
	EngagementScore float64         `json:"engagement_score"`
	IsPromotional   bool            `json:"is_promotional"`
	KeySignals      []string        `json:"key_signals,omitempty"`
}

// SignalEnricher is the outbound port to the text classification
// collaborator.
type SignalEnricher interface {
	ClassifySignal(ctx context.Context, req *EnrichmentRequest) (*EnrichmentResponse, error)
}
