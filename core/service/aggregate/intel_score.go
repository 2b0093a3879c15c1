// Package aggregate folds per-email signals into per-brand records and
// computes brand quality scores.
package aggregate

import (
	"time"

	"brandintel_server/config"
	"brandintel_server/core/domain"
)

// recency step thresholds, in days since the brand's last email.
const (
	recencyFreshDays  = 7
	recencyRecentDays = 30
	recencyAgingDays  = 90
	recencyStaleDays  = 180
	frequencyCeiling  = 10 // emails at which frequency saturates
)

// FrequencyScore saturates at frequencyCeiling emails.
func FrequencyScore(emailsReceived int) float64 {
	score := float64(emailsReceived) / frequencyCeiling
	if score > 1 {
		return 1
	}
	return score
}

// RecencyScore steps down with the age of the most recent email.
func RecencyScore(lastReceived, now time.Time) float64 {
	if lastReceived.IsZero() {
		return 0.2
	}
	days := now.Sub(lastReceived).Hours() / 24
	switch {
	case days <= recencyFreshDays:
		return 1.0
	case days <= recencyRecentDays:
		return 0.8
	case days <= recencyAgingDays:
		return 0.6
	case days <= recencyStaleDays:
		return 0.4
	default:
		return 0.2
	}
}

// DiversityScore is the fraction of known email types observed.
func DiversityScore(distinctTypes int) float64 {
	score := float64(distinctTypes) / float64(len(domain.KnownEmailTypes))
	if score > 1 {
		return 1
	}
	return score
}

// QualityScore computes the brand's email quality score from the record's
// accumulated statistics. Pure: same record and clock, same score. The
// result is clamped to [0.10, 0.95] so no brand ever reads as certainly
// worthless or certainly perfect.
func QualityScore(record *domain.BrandSignalRecord, weights config.ScoringWeights, now time.Time) float64 {
	score := weights.Frequency*FrequencyScore(record.EmailsReceived) +
		weights.Recency*RecencyScore(record.LastReceived, now) +
		weights.Diversity*DiversityScore(record.DistinctEmailTypes()) +
		weights.AvgEngagement*record.AverageEngagement()

	if score < domain.QualityScoreMin {
		return domain.QualityScoreMin
	}
	if score > domain.QualityScoreMax {
		return domain.QualityScoreMax
	}
	return score
}
