// Package extract turns raw email metadata into typed brand signals.
package extract

import (
	"strings"

	"brandintel_server/core/domain"
)

// =============================================================================
// Non-commercial Domain Denylist
// =============================================================================

// nonCommercialDomains short-circuits extraction to "no brand detected".
// Free mail providers, OS/identity vendors, and social networks send mail,
// but none of it is a commercial brand relationship.
var nonCommercialDomains = map[string]bool{
	// Free mail providers
	"gmail.com":      true,
	"googlemail.com": true,
	"yahoo.com":      true,
	"ymail.com":      true,
	"hotmail.com":    true,
	"outlook.com":    true,
	"live.com":       true,
	"msn.com":        true,
	"aol.com":        true,
	"icloud.com":     true,
	"me.com":         true,
	"mac.com":        true,
	"proton.me":      true,
	"protonmail.com": true,
	"zoho.com":       true,
	"gmx.com":        true,
	"mail.com":       true,

	// OS / identity vendors
	"google.com":          true,
	"apple.com":           true,
	"microsoft.com":       true,
	"accounts.google.com": true,

	// Social networks
	"facebook.com":     true,
	"facebookmail.com": true,
	"instagram.com":    true,
	"twitter.com":      true,
	"x.com":            true,
	"linkedin.com":     true,
	"tiktok.com":       true,
	"pinterest.com":    true,
	"reddit.com":       true,
	"redditmail.com":   true,
	"snapchat.com":     true,
	"discord.com":      true,
}

// IsNonCommercialDomain reports whether the sender domain is on the
// denylist.
func IsNonCommercialDomain(domainName string) bool {
	return nonCommercialDomains[strings.ToLower(domainName)]
}

// AddNonCommercialDomains extends the denylist with operator-supplied
// domains. Called once at startup, before any extraction runs.
func AddNonCommercialDomains(domains []string) {
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			nonCommercialDomains[d] = true
		}
	}
}

// =============================================================================
// Subject Keyword Buckets
// =============================================================================

// typeBucket pairs an email type with the subject keywords that indicate it.
type typeBucket struct {
	emailType domain.EmailType
	keywords  []string
}

// typeBuckets is scanned in order; the first matching bucket wins. The order
// matters: receipt terms outrank offer terms so "your order: 20% off next
// time" still lands on receipt.
var typeBuckets = []typeBucket{
	{domain.EmailTypeReceipt, []string{
		"receipt", "order confirm", "your order", "order #", "invoice",
		"payment received", "has shipped", "shipping confirmation",
		"out for delivery", "delivered", "tracking number", "confirmation",
	}},
	{domain.EmailTypeOffer, []string{
		"% off", "percent off", "discount", "sale", "deal", "save",
		"coupon", "promo", "offer", "free shipping", "clearance",
		"last chance", "flash sale", "bogo",
	}},
	{domain.EmailTypeNewsletter, []string{
		"newsletter", "digest", "weekly", "monthly", "roundup",
		"this week", "edition", "issue #",
	}},
	{domain.EmailTypeEvent, []string{
		"rsvp", "webinar", "event", "invitation", "you're invited",
		"join us", "register now", "save the date",
	}},
	{domain.EmailTypeAnnouncement, []string{
		"new arrival", "new collection", "launch", "introducing",
		"announcing", "now available", "just dropped", "meet the", "new",
	}},
	{domain.EmailTypeTransactional, []string{
		"account", "password", "security", "verify", "sign-in", "sign in",
		"login", "two-factor", "privacy policy", "terms of service",
	}},
}

// ClassifyEmailType scans the subject against the ordered keyword buckets.
// Default is newsletter: a commercial sender with an unrecognizable subject
// is most likely broadcasting content.
func ClassifyEmailType(subject string) domain.EmailType {
	lowered := strings.ToLower(subject)
	for _, bucket := range typeBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(lowered, kw) {
				return bucket.emailType
			}
		}
	}
	return domain.EmailTypeNewsletter
}

// keySignalKeywords maps subject phrases to the free-text signals surfaced
// on the extracted result.
var keySignalKeywords = map[string]string{
	"% off":         "discount",
	"discount":      "discount",
	"sale":          "discount",
	"coupon":        "discount",
	"exclusive":     "exclusive",
	"members only":  "exclusive",
	"just for you":  "personalized",
	"picked for":    "personalized",
	"recommended":   "personalized",
	"limited time":  "urgency",
	"ends tonight":  "urgency",
	"last chance":   "urgency",
	"free shipping": "free-shipping",
}

// detectKeySignals collects the signals present in the subject, first match
// per signal name, in deterministic order.
func detectKeySignals(subject string) []string {
	lowered := strings.ToLower(subject)
	seen := make(map[string]bool)
	var signals []string
	for _, kw := range []string{
		"% off", "discount", "sale", "coupon", "exclusive", "members only",
		"just for you", "picked for", "recommended", "limited time",
		"ends tonight", "last chance", "free shipping",
	} {
		if !strings.Contains(lowered, kw) {
			continue
		}
		name := keySignalKeywords[kw]
		if seen[name] {
			continue
		}
		seen[name] = true
		signals = append(signals, name)
	}
	return signals
}

// =============================================================================
// Deterministic Extraction
// =============================================================================

// brandNameFromDomain derives a display name from the sender domain: the
// segment before the first dot, capitalized. "buckmason.com" -> "Buckmason".
func brandNameFromDomain(domainName string) string {
	segment := domainName
	if i := strings.Index(domainName, "."); i > 0 {
		segment = domainName[:i]
	}
	if segment == "" {
		return ""
	}
	return strings.ToUpper(segment[:1]) + segment[1:]
}

// ExtractDeterministic builds a signal from the email alone, with no
// external call. This path must always be attempted and must never fail.
func ExtractDeterministic(email *domain.RawEmail) *domain.EmailSignal {
	senderDomain := email.Domain()
	if senderDomain == "" || IsNonCommercialDomain(senderDomain) {
		return &domain.EmailSignal{} // no brand detected
	}

	return &domain.EmailSignal{
		BrandName:       brandNameFromDomain(senderDomain),
		BrandDomain:     senderDomain,
		EmailType:       ClassifyEmailType(email.Subject),
		EngagementScore: 0.5,
		KeySignals:      detectKeySignals(email.Subject),
	}
}
