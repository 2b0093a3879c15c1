package extract

import (
	"context"

	"brandintel_server/core/domain"
)

// Service is the signal extraction entry point: deterministic extraction
// always, model enrichment when enabled and healthy.
type Service struct {
	enricher *Enricher
	enabled  bool
}

// NewService builds the extraction service. enricher may be nil when
// enrichment is disabled.
func NewService(enricher *Enricher, enrichmentOn bool) *Service {
	return &Service{enricher: enricher, enabled: enrichmentOn && enricher != nil}
}

// Extract produces a signal for one email. It never returns an error: the
// deterministic path cannot fail, and enrichment failures fall back to it.
func (s *Service) Extract(ctx context.Context, email *domain.RawEmail) *domain.EmailSignal {
	signal := ExtractDeterministic(email)
	if !s.enabled {
		return signal
	}
	outcome := s.enricher.Enrich(ctx, email, signal)
	return outcome.Signal
}
