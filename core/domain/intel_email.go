package domain

import (
	"strings"
	"time"
)

// EmailType classifies the kind of interaction a brand email represents.
type EmailType string

const (
	EmailTypeOffer         EmailType = "offer"
	EmailTypeReceipt       EmailType = "receipt"
	EmailTypeNewsletter    EmailType = "newsletter"
	EmailTypeEvent         EmailType = "event"
	EmailTypeAnnouncement  EmailType = "announcement"
	EmailTypeTransactional EmailType = "transactional"
)

// KnownEmailTypes lists every email type the engine recognizes.
// The count feeds the diversity sub-score denominator.
var KnownEmailTypes = []EmailType{
	EmailTypeOffer,
	EmailTypeReceipt,
	EmailTypeNewsletter,
	EmailTypeEvent,
	EmailTypeAnnouncement,
	EmailTypeTransactional,
}

// IsValid reports whether t is one of the known email types.
func (t EmailType) IsValid() bool {
	for _, known := range KnownEmailTypes {
		if t == known {
			return true
		}
	}
	return false
}

// RawEmail is the read-only input record supplied by the mail-sync
// collaborator. It is consumed once by the extractor and never persisted.
type RawEmail struct {
	MessageID  string    `json:"message_id"`
	FromEmail  string    `json:"from_email"`
	FromDomain string    `json:"from_domain"`
	Subject    string    `json:"subject"`
	Snippet    string    `json:"snippet"`
	Body       *string   `json:"body,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
	Labels     []string  `json:"labels,omitempty"` // provider category labels, e.g. "promotional"
}

// Domain returns the sender domain, deriving it from the address when the
// collaborator did not supply one.
func (e *RawEmail) Domain() string {
	if e.FromDomain != "" {
		return strings.ToLower(e.FromDomain)
	}
	at := strings.LastIndex(e.FromEmail, "@")
	if at < 0 || at == len(e.FromEmail)-1 {
		return ""
	}
	return strings.ToLower(e.FromEmail[at+1:])
}

// EmailSignal is the extractor's output for a single email. It lives only
// within one batch-processing pass.
type EmailSignal struct {
	BrandName       string    `json:"brand_name"`
	BrandDomain     string    `json:"brand_domain"`
	EmailType       EmailType `json:"email_type"`
	EngagementScore float64   `json:"engagement_score"` // 0.0 - 1.0
	IsDTC           bool      `json:"is_dtc"`
	KeySignals      []string  `json:"key_signals,omitempty"`
	Enriched        bool      `json:"enriched"` // true when the external classifier refined the signal
}

// HasBrand reports whether the extractor detected a commercial sender.
func (s *EmailSignal) HasBrand() bool {
	return s != nil && s.BrandDomain != ""
}

// BrandKey returns the store key for the detected brand: the sender domain,
// falling back to the lower-cased brand name.
func (s *EmailSignal) BrandKey() string {
	if s.BrandDomain != "" {
		return strings.ToLower(s.BrandDomain)
	}
	return strings.ToLower(s.BrandName)
}
