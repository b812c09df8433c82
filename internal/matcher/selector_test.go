package matcher

import (
	"testing"
	"time"

	"lead-dedup-service/internal/models"
)

func TestSelectMaster_HigherConfidenceWins(t *testing.T) {
	s := NewDefaultSelector()

	a := lead(1, "Alpha")
	a.Confidence = 0.9
	b := lead(2, "Alpha")
	b.Confidence = 0.3

	if got := s.SelectMaster(a, b); got != 1 {
		t.Errorf("expected lead 1 (higher confidence), got %d", got)
	}
	if got := s.SelectMaster(b, a); got != 1 {
		t.Errorf("selection must not depend on argument order, got %d", got)
	}
}

func TestSelectMaster_FieldCompletenessBeatsSmallConfidenceGap(t *testing.T) {
	s := NewDefaultSelector()

	// 0.1 confidence gap is worth 10 points; three extra populated fields
	// are worth 30.
	a := lead(1, "Alpha")
	a.Confidence = 0.8
	b := lead(2, "Alpha")
	b.Confidence = 0.7
	b.Website = strPtr("alpha.de")
	b.Email = strPtr("info@alpha.de")
	b.Phone = strPtr("030 1234567")

	if got := s.SelectMaster(a, b); got != 2 {
		t.Errorf("expected lead 2 (more complete), got %d", got)
	}
}

func TestSelectMaster_LeadershipBonus(t *testing.T) {
	s := NewDefaultSelector()

	a := lead(1, "Alpha")
	a.Confidence = 0.5
	a.Website = strPtr("alpha.de")
	b := lead(2, "Alpha")
	b.Confidence = 0.5
	b.Leadership = []models.Person{{Name: "Anna Muster", Role: "Vorstand"}}

	// Leadership (20) outweighs one populated field (10).
	if got := s.SelectMaster(a, b); got != 2 {
		t.Errorf("expected lead 2 (leadership bonus), got %d", got)
	}
}

func TestSelectMaster_OlderLeadBreaksTie(t *testing.T) {
	s := NewDefaultSelector()

	a := lead(1, "Alpha")
	a.Confidence = 0.5
	a.CreatedAt = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	b := lead(2, "Alpha")
	b.Confidence = 0.5
	b.CreatedAt = time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)

	if got := s.SelectMaster(a, b); got != 2 {
		t.Errorf("expected older lead 2 on equal quality, got %d", got)
	}
	if got := s.SelectMaster(b, a); got != 2 {
		t.Errorf("tie-break must not depend on argument order, got %d", got)
	}
}

func TestSelectMaster_ExactTieFirstArgumentWins(t *testing.T) {
	s := NewDefaultSelector()

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := lead(7, "Alpha")
	a.Confidence = 0.5
	a.CreatedAt = ts
	b := lead(9, "Alpha")
	b.Confidence = 0.5
	b.CreatedAt = ts

	if got := s.SelectMaster(a, b); got != 7 {
		t.Errorf("on exact tie the first argument wins, got %d", got)
	}
	if got := s.SelectMaster(b, a); got != 9 {
		t.Errorf("on exact tie the first argument wins, got %d", got)
	}
}

func TestSelectMaster_EmptyStringFieldsDoNotCount(t *testing.T) {
	s := NewDefaultSelector()

	a := lead(1, "Alpha")
	a.Confidence = 0.5
	a.Website = strPtr("")
	a.Email = strPtr("")
	b := lead(2, "Alpha")
	b.Confidence = 0.5
	b.Website = strPtr("alpha.de")

	if got := s.SelectMaster(a, b); got != 2 {
		t.Errorf("empty strings must not count as populated, got %d", got)
	}
}

func TestSelectMaster_Deterministic(t *testing.T) {
	s := NewDefaultSelector()

	a := lead(1, "Alpha")
	a.Confidence = 0.6
	a.Website = strPtr("alpha.de")
	b := lead(2, "Alpha")
	b.Confidence = 0.55
	b.Leadership = []models.Person{{Name: "Max Muster"}}

	first := s.SelectMaster(a, b)
	for i := 0; i < 10; i++ {
		if got := s.SelectMaster(a, b); got != first {
			t.Fatalf("selection changed between runs: %d vs %d", first, got)
		}
	}
}
