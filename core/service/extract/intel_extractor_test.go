package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"brandintel_server/core/domain"
	"brandintel_server/core/port/out"
)

func mail(from, subject string) *domain.RawEmail {
	return &domain.RawEmail{
		MessageID:  "msg-1",
		FromEmail:  from,
		Subject:    subject,
		ReceivedAt: time.Now(),
	}
}

func TestExtractDeterministic_CommercialSender(t *testing.T) {
	email := mail("hello@buckmason.com", "20% Off Fall Essentials")

	signal := ExtractDeterministic(email)

	if !signal.HasBrand() {
		t.Fatal("expected a brand to be detected")
	}
	if signal.BrandName != "Buckmason" {
		t.Errorf("BrandName = %q, want %q", signal.BrandName, "Buckmason")
	}
	if signal.BrandDomain != "buckmason.com" {
		t.Errorf("BrandDomain = %q, want %q", signal.BrandDomain, "buckmason.com")
	}
	if signal.EmailType != domain.EmailTypeOffer {
		t.Errorf("EmailType = %q, want %q", signal.EmailType, domain.EmailTypeOffer)
	}
	if len(signal.KeySignals) == 0 || signal.KeySignals[0] != "discount" {
		t.Errorf("KeySignals = %v, want discount first", signal.KeySignals)
	}
	if signal.Enriched {
		t.Error("deterministic signal must not be marked enriched")
	}
}

func TestExtractDeterministic_DenylistedSenders(t *testing.T) {
	tests := []struct {
		name string
		from string
	}{
		{"free mail", "friend@gmail.com"},
		{"free mail mixed case", "friend@Gmail.COM"},
		{"os vendor", "no-reply@apple.com"},
		{"social network", "notify@facebookmail.com"},
		{"missing domain", "not-an-address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal := ExtractDeterministic(mail(tt.from, "50% off everything"))
			if signal.HasBrand() {
				t.Errorf("expected no brand for %s, got %q", tt.from, signal.BrandDomain)
			}
		})
	}
}

func TestClassifyEmailType(t *testing.T) {
	tests := []struct {
		subject string
		want    domain.EmailType
	}{
		{"20% Off Fall Essentials", domain.EmailTypeOffer},
		{"Your order has shipped", domain.EmailTypeReceipt},
		{"Order confirmation: 20% off your next purchase", domain.EmailTypeReceipt}, // receipt outranks offer
		{"The Weekly Digest", domain.EmailTypeNewsletter},
		{"You're invited: Fall pop-up RSVP", domain.EmailTypeEvent},
		{"Introducing our new collection", domain.EmailTypeAnnouncement},
		{"Reset your password", domain.EmailTypeTransactional},
		{"Hello there", domain.EmailTypeNewsletter}, // default
		{"", domain.EmailTypeNewsletter},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			if got := ClassifyEmailType(tt.subject); got != tt.want {
				t.Errorf("ClassifyEmailType(%q) = %q, want %q", tt.subject, got, tt.want)
			}
		})
	}
}

func TestDetectKeySignals(t *testing.T) {
	signals := detectKeySignals("Exclusive: 20% off, limited time, free shipping")

	want := []string{"discount", "exclusive", "urgency", "free-shipping"}
	if len(signals) != len(want) {
		t.Fatalf("signals = %v, want %v", signals, want)
	}
	for i := range want {
		if signals[i] != want[i] {
			t.Errorf("signals[%d] = %q, want %q", i, signals[i], want[i])
		}
	}
}

func TestBrandNameFromDomain(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{"buckmason.com", "Buckmason"},
		{"everlane.com", "Everlane"},
		{"shop.example.co.uk", "Shop"},
		{"x.io", "X"},
	}

	for _, tt := range tests {
		if got := brandNameFromDomain(tt.domain); got != tt.want {
			t.Errorf("brandNameFromDomain(%q) = %q, want %q", tt.domain, got, tt.want)
		}
	}
}

// ====================================================================
// Enrichment degradation
// ====================================================================

type stubEnricher struct {
	resp *out.EnrichmentResponse
	err  error
}

func (s *stubEnricher) ClassifySignal(ctx context.Context, req *out.EnrichmentRequest) (*out.EnrichmentResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func TestEnrich_MergesModelRefinements(t *testing.T) {
	enricher := NewEnricher(&stubEnricher{resp: &out.EnrichmentResponse{
		Brand:           out.EnrichmentBrand{Name: "Buck Mason", IsDTC: true},
		EmailType:       "offer",
		EngagementScore: 0.8,
		KeySignals:      []string{"discount", "seasonal"},
	}}, EnricherConfig{})

	email := mail("hello@buckmason.com", "20% Off Fall Essentials")
	base := ExtractDeterministic(email)

	outcome := enricher.Enrich(context.Background(), email, base)

	if !outcome.Enriched {
		t.Fatalf("expected enrichment, got degradation: %s", outcome.Reason)
	}
	sig := outcome.Signal
	if sig.BrandName != "Buck Mason" {
		t.Errorf("BrandName = %q, want refined name", sig.BrandName)
	}
	if sig.BrandDomain != "buckmason.com" {
		t.Errorf("BrandDomain = %q, want deterministic domain kept", sig.BrandDomain)
	}
	if !sig.IsDTC {
		t.Error("expected IsDTC from refinement")
	}
	if sig.EngagementScore != 0.8 {
		t.Errorf("EngagementScore = %v, want 0.8", sig.EngagementScore)
	}
	if !sig.Enriched {
		t.Error("merged signal must be marked enriched")
	}
}

func TestEnrich_DegradesOnError(t *testing.T) {
	enricher := NewEnricher(&stubEnricher{err: errors.New("upstream timeout")}, EnricherConfig{})

	email := mail("hello@buckmason.com", "20% Off Fall Essentials")
	base := ExtractDeterministic(email)

	outcome := enricher.Enrich(context.Background(), email, base)

	if outcome.Enriched {
		t.Fatal("expected degradation on enricher error")
	}
	if outcome.Signal != base {
		t.Error("degraded outcome must return the deterministic signal unchanged")
	}
	if outcome.Reason == "" {
		t.Error("degraded outcome must carry a reason")
	}
}

func TestEnrich_RejectsOutOfRangeValues(t *testing.T) {
	enricher := NewEnricher(&stubEnricher{resp: &out.EnrichmentResponse{
		EmailType:       "spam", // unknown type
		EngagementScore: 3.5,    // out of range
	}}, EnricherConfig{})

	email := mail("hello@buckmason.com", "20% Off Fall Essentials")
	base := ExtractDeterministic(email)

	outcome := enricher.Enrich(context.Background(), email, base)

	if outcome.Signal.EmailType != domain.EmailTypeOffer {
		t.Errorf("EmailType = %q, want deterministic type kept", outcome.Signal.EmailType)
	}
	if outcome.Signal.EngagementScore != 0.5 {
		t.Errorf("EngagementScore = %v, want deterministic default kept", outcome.Signal.EngagementScore)
	}
}

func TestExtractService_EnrichmentDisabled(t *testing.T) {
	svc := NewService(nil, false)

	signal := svc.Extract(context.Background(), mail("hi@everlane.com", "New arrivals"))
	if signal.BrandName != "Everlane" {
		t.Errorf("BrandName = %q, want Everlane", signal.BrandName)
	}
	if signal.Enriched {
		t.Error("enrichment disabled, signal must be deterministic")
	}
}
