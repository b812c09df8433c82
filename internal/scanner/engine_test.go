package scanner

import (
	"context"
	"testing"
	"time"

	"lead-dedup-service/internal/matcher"
	"lead-dedup-service/internal/models"
	mocks "lead-dedup-service/internal/testing"
	errs "lead-dedup-service/pkg/errors"
	"lead-dedup-service/pkg/logging"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	lg, err := logging.NewLogger(logging.LogConfig{Output: "stderr", Format: "text"})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return lg
}

func strPtr(s string) *string { return &s }

func newTestEngine(t *testing.T, repo *mocks.MockRepository) (*Engine, *mocks.MemoryEventStore) {
	t.Helper()
	store := &mocks.MemoryEventStore{}
	eng := NewEngine(repo, matcher.NewDefault(), matcher.NewDefaultSelector(), store, testLogger(t))
	return eng, store
}

func lead(id int64, name string, created time.Time) models.Lead {
	return models.Lead{ID: id, CompanyName: name, CreatedAt: created}
}

func TestScanForDuplicates_FindsMatchingPairs(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := mocks.NewMockRepository(
		lead(1, "Kinderhilfe e.V.", base),
		lead(2, "Kinderhilfe", base.Add(24*time.Hour)),
		lead(3, "Zeta Logistik GmbH", base.Add(48*time.Hour)),
	)
	eng, _ := newTestEngine(t, repo)

	matches, stats := eng.ScanForDuplicates(context.Background())
	if len(matches) != 1 {
		t.Fatalf("expected exactly one match, got %d: %+v", len(matches), matches)
	}
	m := matches[0]
	if m.LeadA != 1 || m.LeadB != 2 {
		t.Errorf("expected pair (1,2), got (%d,%d)", m.LeadA, m.LeadB)
	}
	if m.Score != 100 {
		t.Errorf("expected score 100 for identical normalized names, got %d", m.Score)
	}
	if stats.LeadCount != 3 || stats.PairCount != 3 {
		t.Errorf("expected 3 leads and 3 pairs, got %+v", stats)
	}
	if stats.MatchCount != 1 {
		t.Errorf("expected MatchCount 1, got %d", stats.MatchCount)
	}
}

func TestScanForDuplicates_PairOrderingInvariant(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// Lead 9 is created before lead 4, so it comes first in the scan, but
	// the reported pair must still have the smaller id first.
	repo := mocks.NewMockRepository(
		lead(9, "Musterfirma GmbH", base),
		lead(4, "Musterfirma", base.Add(time.Hour)),
	)
	eng, _ := newTestEngine(t, repo)

	matches, _ := eng.ScanForDuplicates(context.Background())
	if len(matches) != 1 {
		t.Fatalf("expected one match, got %d", len(matches))
	}
	if matches[0].LeadA != 4 || matches[0].LeadB != 9 {
		t.Errorf("expected (4,9), got (%d,%d)", matches[0].LeadA, matches[0].LeadB)
	}
}

func TestScanForDuplicates_SuggestedMaster(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rich := lead(1, "Musterfirma", base)
	rich.Confidence = 0.9
	rich.Website = strPtr("musterfirma.de")
	poor := lead(2, "Musterfirma GmbH", base.Add(time.Hour))
	poor.Confidence = 0.2

	repo := mocks.NewMockRepository(rich, poor)
	eng, _ := newTestEngine(t, repo)

	matches, _ := eng.ScanForDuplicates(context.Background())
	if len(matches) != 1 {
		t.Fatalf("expected one match, got %d", len(matches))
	}
	if matches[0].SuggestedMasterID != 1 {
		t.Errorf("expected lead 1 as suggested master, got %d", matches[0].SuggestedMasterID)
	}
}

func TestScanForDuplicates_DeletedLeadsExcluded(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	deleted := lead(2, "Kinderhilfe", base.Add(time.Hour))
	deleted.IsDeleted = true

	repo := mocks.NewMockRepository(lead(1, "Kinderhilfe e.V.", base), deleted)
	eng, _ := newTestEngine(t, repo)

	matches, stats := eng.ScanForDuplicates(context.Background())
	if len(matches) != 0 {
		t.Errorf("soft-deleted leads must not participate, got %+v", matches)
	}
	if stats.LeadCount != 1 {
		t.Errorf("expected 1 active lead, got %d", stats.LeadCount)
	}
}

func TestScanForDuplicates_StoreFailureYieldsEmptyResult(t *testing.T) {
	repo := mocks.NewMockRepository()
	repo.ErrList = errs.NewDB("test", "connection lost", nil)
	eng, _ := newTestEngine(t, repo)

	matches, stats := eng.ScanForDuplicates(context.Background())
	if matches == nil {
		t.Fatal("expected empty slice, not nil")
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches on store failure, got %+v", matches)
	}
	if stats.MatchCount != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestScanForDuplicates_RecordsEventAndStats(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := mocks.NewMockRepository(
		lead(1, "Alpha GmbH", base),
		lead(2, "Alpha", base.Add(time.Hour)),
	)
	eng, store := newTestEngine(t, repo)

	_, stats := eng.ScanForDuplicates(context.Background())
	if stats.RunID == "" {
		t.Error("expected a non-empty run id")
	}

	types := store.AppendedTypes()
	if len(types) != 1 || types[0] != "lead.scan.completed" {
		t.Errorf("expected one scan event, got %v", types)
	}

	last := eng.LastScan()
	if last == nil || last.RunID != stats.RunID {
		t.Errorf("LastScan must return the latest run, got %+v", last)
	}
}

func TestCheckBeforeImport(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := mocks.NewMockRepository(
		lead(1, "Kinderhilfe Berlin e.V.", base),
		lead(2, "Zeta Logistik GmbH", base.Add(time.Hour)),
	)
	eng, _ := newTestEngine(t, repo)

	got, err := eng.CheckBeforeImport(context.Background(), []string{
		"Kinderhilfe Berlin",
		"Completely New Org",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hits, ok := got["Kinderhilfe Berlin"]
	if !ok || len(hits) != 1 {
		t.Fatalf("expected one collision for 'Kinderhilfe Berlin', got %+v", got)
	}
	if hits[0].ExistingID != 1 {
		t.Errorf("expected collision with lead 1, got %d", hits[0].ExistingID)
	}
	if hits[0].Similarity <= 0.8 {
		t.Errorf("collision similarity must exceed 0.8, got %v", hits[0].Similarity)
	}

	if _, ok := got["Completely New Org"]; ok {
		t.Errorf("unrelated name must not be reported: %+v", got)
	}
}

func TestCheckBeforeImport_StoreFailure(t *testing.T) {
	repo := mocks.NewMockRepository()
	repo.ErrList = errs.NewDB("test", "connection lost", nil)
	eng, _ := newTestEngine(t, repo)

	if _, err := eng.CheckBeforeImport(context.Background(), []string{"Anything"}); err == nil {
		t.Error("expected error when the lead store is unavailable")
	}
}
