package extract

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"brandintel_server/core/domain"
	"brandintel_server/core/port/out"
	"brandintel_server/pkg/logger"
)

// EnrichmentOutcome reports whether the model contributed to a signal.
// Exactly one branch is populated: Enriched with a refined signal, or
// Degraded with the reason the deterministic result was kept.
type EnrichmentOutcome struct {
	Enriched bool
	Signal   *domain.EmailSignal
	Reason   string
}

// Enricher refines deterministic signals through the enrichment
// collaborator, degrading silently when it is slow, broken, or absent.
type Enricher struct {
	client  out.SignalEnricher
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	excerpt int
	log     *logger.Logger
}

// EnricherConfig holds enrichment tuning knobs.
type EnricherConfig struct {
	Timeout        time.Duration
	ExcerptMaxLen  int
	BreakerName    string
	BreakerMaxReqs uint32
}

// NewEnricher wraps the collaborator client. A nil client produces an
// enricher that always degrades, which keeps call sites unconditional.
func NewEnricher(client out.SignalEnricher, cfg EnricherConfig) *Enricher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.ExcerptMaxLen <= 0 {
		cfg.ExcerptMaxLen = 300
	}
	if cfg.BreakerName == "" {
		cfg.BreakerName = "signal-enricher"
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.BreakerName,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &Enricher{
		client:  client,
		breaker: cb,
		timeout: cfg.Timeout,
		excerpt: cfg.ExcerptMaxLen,
		log:     logger.WithField("component", "enricher"),
	}
}

// Enrich refines a deterministic signal. The deterministic signal is never
// discarded: every degradation path returns it unchanged with a reason.
func (e *Enricher) Enrich(ctx context.Context, email *domain.RawEmail, deterministic *domain.EmailSignal) EnrichmentOutcome {
	if e.client == nil {
		return EnrichmentOutcome{Signal: deterministic, Reason: "enrichment disabled"}
	}
	if !deterministic.HasBrand() {
		return EnrichmentOutcome{Signal: deterministic, Reason: "no brand detected"}
	}

	req := &out.EnrichmentRequest{
		Sender:  email.FromEmail,
		Domain:  deterministic.BrandDomain,
		Subject: email.Subject,
		Excerpt: e.excerptOf(email),
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result, err := e.breaker.Execute(func() (interface{}, error) {
		return e.client.ClassifySignal(callCtx, req)
	})
	if err != nil {
		e.log.WithError(err).Debug("enrichment degraded for %s", deterministic.BrandDomain)
		return EnrichmentOutcome{Signal: deterministic, Reason: err.Error()}
	}

	resp, ok := result.(*out.EnrichmentResponse)
	if !ok || resp == nil {
		return EnrichmentOutcome{Signal: deterministic, Reason: "empty enrichment response"}
	}

	return EnrichmentOutcome{Enriched: true, Signal: e.merge(deterministic, resp)}
}

// merge applies the model's refinements on top of the deterministic signal,
// rejecting values that fall outside the known ranges.
func (e *Enricher) merge(base *domain.EmailSignal, resp *out.EnrichmentResponse) *domain.EmailSignal {
	merged := *base
	merged.Enriched = true

	if resp.Brand.Name != "" {
		merged.BrandName = resp.Brand.Name
	}
	if resp.Brand.Domain != "" {
		merged.BrandDomain = resp.Brand.Domain
	}
	merged.IsDTC = resp.Brand.IsDTC

	if et := domain.EmailType(resp.EmailType); et.IsValid() {
		merged.EmailType = et
	}
	if resp.EngagementScore >= 0 && resp.EngagementScore <= 1 {
		merged.EngagementScore = resp.EngagementScore
	}
	if len(resp.KeySignals) > 0 {
		merged.KeySignals = resp.KeySignals
	}

	return &merged
}

func (e *Enricher) excerptOf(email *domain.RawEmail) string {
	text := email.Snippet
	if text == "" && email.Body != nil {
		text = *email.Body
	}
	if len(text) > e.excerpt {
		text = text[:e.excerpt]
	}
	return text
}
