package domain

import (
	"strings"
	"time"
)

// SignalStrength is a coarse bucket summarizing how many signals exist for a
// brand.
type SignalStrength string

const (
	SignalStrengthLow    SignalStrength = "low"    // fewer than 2 emails
	SignalStrengthMedium SignalStrength = "medium" // 2 emails
	SignalStrengthHigh   SignalStrength = "high"   // 3 or more
)

// StrengthForCount maps an observed email count to its signal strength.
func StrengthForCount(emailsReceived int) SignalStrength {
	switch {
	case emailsReceived >= 3:
		return SignalStrengthHigh
	case emailsReceived >= 2:
		return SignalStrengthMedium
	default:
		return SignalStrengthLow
	}
}

// Bounds for the brand quality score. The score never leaves this range,
// even with zero observations.
const (
	QualityScoreMin = 0.10
	QualityScoreMax = 0.95
)

// MaxRecentSubjects bounds the rolling subject list kept for UI display.
const MaxRecentSubjects = 5

// BrandSignalRecord accumulates per-user, per-brand statistics inferred from
// incoming mail. Records are created on the first signal for a brand and only
// ever grow; history is monotonic and recomputed, never deleted.
type BrandSignalRecord struct {
	UserID      string `json:"user_id" bson:"user_id"`
	BrandKey    string `json:"brand_key" bson:"brand_key"`
	DisplayName string `json:"display_name" bson:"display_name"`
	Domain      string `json:"domain" bson:"domain"`

	EmailsReceived int               `json:"emails_received" bson:"emails_received"`
	EmailTypes     map[EmailType]int `json:"email_types" bson:"email_types"`

	FirstReceived time.Time `json:"first_received" bson:"first_received"`
	LastReceived  time.Time `json:"last_received" bson:"last_received"`

	RecentSubjects  []string `json:"recent_subjects,omitempty" bson:"recent_subjects,omitempty"`
	TotalEngagement float64  `json:"total_engagement" bson:"total_engagement"`

	IsDTC bool `json:"is_dtc" bson:"is_dtc"`

	EmailQualityScore float64        `json:"email_quality_score" bson:"email_quality_score"`
	SignalStrength    SignalStrength `json:"signal_strength" bson:"signal_strength"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NewBrandSignalRecord creates an empty record for a brand's first signal.
func NewBrandSignalRecord(userID, brandKey, displayName, domainName string, now time.Time) *BrandSignalRecord {
	return &BrandSignalRecord{
		UserID:            userID,
		BrandKey:          strings.ToLower(brandKey),
		DisplayName:       displayName,
		Domain:            strings.ToLower(domainName),
		EmailTypes:        make(map[EmailType]int),
		EmailQualityScore: QualityScoreMin,
		SignalStrength:    SignalStrengthLow,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Apply folds one extracted signal into the record. Updates are
// order-sensitive only through the first/last timestamps, which are min/max
// against the email's timestamp.
func (r *BrandSignalRecord) Apply(signal *EmailSignal, subject string, receivedAt time.Time) {
	r.EmailsReceived++

	if r.EmailTypes == nil {
		r.EmailTypes = make(map[EmailType]int)
	}
	r.EmailTypes[signal.EmailType]++

	if r.FirstReceived.IsZero() || receivedAt.Before(r.FirstReceived) {
		r.FirstReceived = receivedAt
	}
	if receivedAt.After(r.LastReceived) {
		r.LastReceived = receivedAt
	}

	if subject != "" {
		r.RecentSubjects = append(r.RecentSubjects, subject)
		if len(r.RecentSubjects) > MaxRecentSubjects {
			r.RecentSubjects = r.RecentSubjects[len(r.RecentSubjects)-MaxRecentSubjects:]
		}
	}

	engagement := signal.EngagementScore
	if engagement <= 0 {
		engagement = 0.5
	}
	r.TotalEngagement += engagement

	if signal.IsDTC {
		r.IsDTC = true
	}

	r.SignalStrength = StrengthForCount(r.EmailsReceived)
	r.UpdatedAt = time.Now().UTC()
}

// DistinctEmailTypes returns the number of distinct types observed.
func (r *BrandSignalRecord) DistinctEmailTypes() int {
	count := 0
	for _, n := range r.EmailTypes {
		if n > 0 {
			count++
		}
	}
	return count
}

// AverageEngagement returns the mean engagement estimate over all signals,
// neutral 0.5 when nothing has been observed yet.
func (r *BrandSignalRecord) AverageEngagement() float64 {
	if r.EmailsReceived == 0 {
		return 0.5
	}
	return r.TotalEngagement / float64(r.EmailsReceived)
}
