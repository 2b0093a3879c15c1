package aggregate

import (
	"context"
	"sort"
	"sync"
	"time"

	"brandintel_server/config"
	"brandintel_server/core/domain"
	"brandintel_server/core/port/out"
	"brandintel_server/core/service/extract"
	"brandintel_server/pkg/logger"
	"brandintel_server/pkg/ratelimit"
)

// Result summarizes one batch-processing pass. FailedBrands lists the brand
// keys whose upsert failed; callers decide whether to retry those.
type Result struct {
	BrandSignals   map[string]*domain.BrandSignalRecord `json:"brand_signals"`
	ProcessedCount int                                  `json:"processed_count"`
	BrandCount     int                                  `json:"brand_count"`
	FailedBrands   []string                             `json:"failed_brands,omitempty"`
}

// Service drives the extract -> fold -> persist pipeline over incoming mail.
type Service struct {
	extractor *extract.Service
	repo      out.BrandSignalRepository
	pacer     *ratelimit.BatchPacer
	weights   config.ScoringWeights
	batchSize int
	log       *logger.Logger
	now       func() time.Time
}

// NewService builds the aggregation service.
func NewService(extractor *extract.Service, repo out.BrandSignalRepository, pacer *ratelimit.BatchPacer, cfg *config.Config) *Service {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Service{
		extractor: extractor,
		repo:      repo,
		pacer:     pacer,
		weights:   cfg.Scoring,
		batchSize: batchSize,
		log:       logger.WithField("component", "aggregator"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ProcessBatch runs the full pipeline for one user's incoming emails.
// Extraction is concurrent within each batch; batches run sequentially with
// a pacing delay between them. Folding happens after each batch in
// presentation order, so record state is order-independent apart from the
// min/max timestamps, which converge regardless.
//
// The pass is resilient end to end: extraction never fails, and a store
// error on one brand does not abort the others.
func (s *Service) ProcessBatch(ctx context.Context, userID string, emails []*domain.RawEmail) (*Result, error) {
	result := &Result{BrandSignals: make(map[string]*domain.BrandSignalRecord)}
	if len(emails) == 0 {
		return result, nil
	}

	started := s.now()

	for batchStart := 0; batchStart < len(emails); batchStart += s.batchSize {
		batchEnd := batchStart + s.batchSize
		if batchEnd > len(emails) {
			batchEnd = len(emails)
		}
		batch := emails[batchStart:batchEnd]

		signals := s.extractBatch(ctx, batch)

		for i, signal := range signals {
			result.ProcessedCount++
			if !signal.HasBrand() {
				continue
			}
			if err := s.fold(ctx, userID, batch[i], signal, result.BrandSignals); err != nil {
				s.log.WithError(err).Error("failed to fold signal for brand %s", signal.BrandKey())
			}
		}

		if batchEnd < len(emails) {
			if err := s.pacer.WaitBetweenBatches(ctx); err != nil {
				return result, err
			}
		}
	}

	// Persist each brand independently; one failing upsert must not lose
	// the rest of the pass. Failures are reported on the result so the
	// caller can retry them.
	for key, record := range result.BrandSignals {
		if err := s.repo.Put(ctx, record); err != nil {
			s.log.WithError(err).Error("failed to persist brand record %s", key)
			result.FailedBrands = append(result.FailedBrands, key)
		}
	}
	sort.Strings(result.FailedBrands)

	result.BrandCount = len(result.BrandSignals)
	s.log.WithDuration(s.now().Sub(started)).Info(
		"processed %d emails into %d brands for user %s (%d store failures)",
		result.ProcessedCount, result.BrandCount, userID, len(result.FailedBrands))
	return result, nil
}

// extractBatch extracts signals for one batch concurrently, preserving the
// batch's presentation order in the returned slice.
func (s *Service) extractBatch(ctx context.Context, batch []*domain.RawEmail) []*domain.EmailSignal {
	signals := make([]*domain.EmailSignal, len(batch))

	var wg sync.WaitGroup
	for i, email := range batch {
		wg.Add(1)
		go func(idx int, e *domain.RawEmail) {
			defer wg.Done()
			release, err := s.pacer.Acquire(ctx)
			if err != nil {
				signals[idx] = extract.ExtractDeterministic(e)
				return
			}
			defer release()
			signals[idx] = s.extractor.Extract(ctx, e)
		}(i, email)
	}
	wg.Wait()

	return signals
}

// fold merges one signal into the pass's working set, loading the stored
// record on a brand's first appearance.
func (s *Service) fold(ctx context.Context, userID string, email *domain.RawEmail, signal *domain.EmailSignal, working map[string]*domain.BrandSignalRecord) error {
	key := signal.BrandKey()

	record, ok := working[key]
	if !ok {
		stored, err := s.repo.Get(ctx, userID, key)
		if err != nil {
			return err
		}
		if stored != nil {
			record = stored
		} else {
			record = domain.NewBrandSignalRecord(userID, key, signal.BrandName, signal.BrandDomain, s.now())
		}
		working[key] = record
	}

	record.Apply(signal, email.Subject, email.ReceivedAt)
	record.EmailQualityScore = QualityScore(record, s.weights, s.now())
	return nil
}
