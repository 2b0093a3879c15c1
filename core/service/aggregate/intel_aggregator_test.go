package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"brandintel_server/config"
	"brandintel_server/core/domain"
	"brandintel_server/core/port/out"
	"brandintel_server/core/service/extract"
	"brandintel_server/pkg/ratelimit"
)

// memSignalRepo is an in-memory BrandSignalRepository for pipeline tests.
type memSignalRepo struct {
	mu      sync.Mutex
	records map[string]*domain.BrandSignalRecord
	failPut map[string]bool
	puts    int
}

func newMemSignalRepo() *memSignalRepo {
	return &memSignalRepo{records: make(map[string]*domain.BrandSignalRecord), failPut: make(map[string]bool)}
}

func (m *memSignalRepo) key(userID, brandKey string) string { return userID + "/" + brandKey }

func (m *memSignalRepo) Get(ctx context.Context, userID, brandKey string) (*domain.BrandSignalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[m.key(userID, brandKey)]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

func (m *memSignalRepo) Put(ctx context.Context, record *domain.BrandSignalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.failPut[record.BrandKey] {
		return errors.New("store unavailable")
	}
	clone := *record
	m.records[m.key(record.UserID, record.BrandKey)] = &clone
	return nil
}

func (m *memSignalRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.BrandSignalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.BrandSignalRecord
	for _, record := range m.records {
		if record.UserID == userID {
			clone := *record
			result = append(result, &clone)
		}
	}
	return result, nil
}

// timeoutEnricher simulates a collaborator that never answers in time.
type timeoutEnricher struct{}

func (e *timeoutEnricher) ClassifySignal(ctx context.Context, req *out.EnrichmentRequest) (*out.EnrichmentResponse, error) {
	return nil, context.DeadlineExceeded
}

func testConfig() *config.Config {
	cfg, _ := config.Load()
	cfg.BatchDelayMS = 0 // no pacing delay in tests
	return cfg
}

func newTestService(repo out.BrandSignalRepository, enricher out.SignalEnricher) *Service {
	cfg := testConfig()
	var wrapped *extract.Enricher
	if enricher != nil {
		wrapped = extract.NewEnricher(enricher, extract.EnricherConfig{Timeout: 50 * time.Millisecond})
	}
	extractor := extract.NewService(wrapped, enricher != nil)
	pacer := ratelimit.NewBatchPacer(&ratelimit.Config{MaxConcurrent: cfg.MaxConcurrent, BatchDelay: cfg.BatchDelay()})
	return NewService(extractor, repo, pacer, cfg)
}

func brandEmail(domainName, subject string, receivedAt time.Time) *domain.RawEmail {
	return &domain.RawEmail{
		MessageID:  fmt.Sprintf("%s-%s", domainName, subject),
		FromEmail:  "hello@" + domainName,
		Subject:    subject,
		ReceivedAt: receivedAt,
	}
}

func TestProcessBatch_FoldsSignalsPerBrand(t *testing.T) {
	repo := newMemSignalRepo()
	svc := newTestService(repo, nil)
	now := time.Now().UTC()

	emails := []*domain.RawEmail{
		brandEmail("buckmason.com", "20% Off Fall Essentials", now.Add(-time.Hour)),
		brandEmail("buckmason.com", "Your order has shipped", now.Add(-2*time.Hour)),
		brandEmail("everlane.com", "The Weekly Digest", now.Add(-3*time.Hour)),
		brandEmail("gmail.com", "lunch tomorrow?", now), // denylisted, no brand
	}

	result, err := svc.ProcessBatch(context.Background(), "user-1", emails)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}

	if result.ProcessedCount != 4 {
		t.Errorf("ProcessedCount = %d, want 4", result.ProcessedCount)
	}
	if result.BrandCount != 2 {
		t.Errorf("BrandCount = %d, want 2", result.BrandCount)
	}

	buck := result.BrandSignals["buckmason.com"]
	if buck == nil {
		t.Fatal("missing buckmason.com record")
	}
	if buck.EmailsReceived != 2 {
		t.Errorf("EmailsReceived = %d, want 2", buck.EmailsReceived)
	}
	if buck.SignalStrength != domain.SignalStrengthMedium {
		t.Errorf("SignalStrength = %q, want medium", buck.SignalStrength)
	}
	if buck.EmailTypes[domain.EmailTypeOffer] != 1 || buck.EmailTypes[domain.EmailTypeReceipt] != 1 {
		t.Errorf("EmailTypes = %v, want one offer and one receipt", buck.EmailTypes)
	}
	if buck.EmailQualityScore < domain.QualityScoreMin || buck.EmailQualityScore > domain.QualityScoreMax {
		t.Errorf("EmailQualityScore = %v out of range", buck.EmailQualityScore)
	}

	// Folded records must be persisted.
	stored, err := repo.Get(context.Background(), "user-1", "buckmason.com")
	if err != nil || stored == nil {
		t.Fatalf("stored record missing: %v", err)
	}
	if stored.EmailsReceived != 2 {
		t.Errorf("stored EmailsReceived = %d, want 2", stored.EmailsReceived)
	}
}

func TestProcessBatch_AllEnrichmentTimeouts(t *testing.T) {
	repo := newMemSignalRepo()
	enricher := &timeoutEnricher{}
	svc := newTestService(repo, enricher)
	now := time.Now().UTC()

	emails := make([]*domain.RawEmail, 0, 10)
	for i := 0; i < 10; i++ {
		emails = append(emails, brandEmail(fmt.Sprintf("brand%d.com", i), "New arrivals just dropped", now))
	}

	result, err := svc.ProcessBatch(context.Background(), "user-1", emails)
	if err != nil {
		t.Fatalf("ProcessBatch must not fail on enrichment timeouts: %v", err)
	}

	if result.ProcessedCount != 10 {
		t.Errorf("ProcessedCount = %d, want 10", result.ProcessedCount)
	}
	if result.BrandCount != 10 {
		t.Errorf("BrandCount = %d, want 10 deterministic brands", result.BrandCount)
	}
	for key, record := range result.BrandSignals {
		if record.EmailsReceived != 1 {
			t.Errorf("record %s EmailsReceived = %d, want 1", key, record.EmailsReceived)
		}
	}
}

func TestProcessBatch_GrowsExistingRecords(t *testing.T) {
	repo := newMemSignalRepo()
	svc := newTestService(repo, nil)
	now := time.Now().UTC()

	first := []*domain.RawEmail{brandEmail("allbirds.com", "New arrivals", now.Add(-48 * time.Hour))}
	if _, err := svc.ProcessBatch(context.Background(), "user-1", first); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	second := []*domain.RawEmail{
		brandEmail("allbirds.com", "30% off sale", now.Add(-time.Hour)),
		brandEmail("allbirds.com", "Your order has shipped", now),
	}
	result, err := svc.ProcessBatch(context.Background(), "user-1", second)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	record := result.BrandSignals["allbirds.com"]
	if record.EmailsReceived != 3 {
		t.Errorf("EmailsReceived = %d, want 3 across passes", record.EmailsReceived)
	}
	if record.SignalStrength != domain.SignalStrengthHigh {
		t.Errorf("SignalStrength = %q, want high at 3 emails", record.SignalStrength)
	}
	if !record.FirstReceived.Equal(now.Add(-48 * time.Hour)) {
		t.Errorf("FirstReceived = %v, want earliest email kept", record.FirstReceived)
	}
}

func TestProcessBatch_PartialStoreFailure(t *testing.T) {
	repo := newMemSignalRepo()
	repo.failPut["brokenbrand.com"] = true
	svc := newTestService(repo, nil)
	now := time.Now().UTC()

	emails := []*domain.RawEmail{
		brandEmail("brokenbrand.com", "Sale today", now),
		brandEmail("goodbrand.com", "Sale today", now),
	}

	result, err := svc.ProcessBatch(context.Background(), "user-1", emails)
	if err != nil {
		t.Fatalf("ProcessBatch must tolerate a per-brand store failure: %v", err)
	}
	if result.BrandCount != 2 {
		t.Errorf("BrandCount = %d, want 2 in the in-memory result", result.BrandCount)
	}
	if len(result.FailedBrands) != 1 || result.FailedBrands[0] != "brokenbrand.com" {
		t.Errorf("FailedBrands = %v, want [brokenbrand.com]", result.FailedBrands)
	}

	stored, _ := repo.Get(context.Background(), "user-1", "goodbrand.com")
	if stored == nil {
		t.Error("healthy brand must still be persisted")
	}
}

func TestProcessBatch_TotalStoreOutage(t *testing.T) {
	repo := newMemSignalRepo()
	repo.failPut["brokenbrand.com"] = true
	repo.failPut["otherbrand.com"] = true
	svc := newTestService(repo, nil)
	now := time.Now().UTC()

	emails := []*domain.RawEmail{
		brandEmail("brokenbrand.com", "Sale today", now),
		brandEmail("otherbrand.com", "Sale today", now),
	}

	result, err := svc.ProcessBatch(context.Background(), "user-1", emails)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}

	// Every upsert failed; the result must say so, not look like success.
	if len(result.FailedBrands) != result.BrandCount {
		t.Fatalf("FailedBrands = %v with BrandCount = %d, want every brand reported failed",
			result.FailedBrands, result.BrandCount)
	}
	if result.FailedBrands[0] != "brokenbrand.com" || result.FailedBrands[1] != "otherbrand.com" {
		t.Errorf("FailedBrands = %v, want sorted brand keys", result.FailedBrands)
	}
}

func TestProcessBatch_Empty(t *testing.T) {
	svc := newTestService(newMemSignalRepo(), nil)

	result, err := svc.ProcessBatch(context.Background(), "user-1", nil)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if result.ProcessedCount != 0 || result.BrandCount != 0 {
		t.Errorf("empty input must yield empty result, got %+v", result)
	}
}
