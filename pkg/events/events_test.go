package events

import (
	"encoding/json"
	"testing"
	"time"
)

func mustPayload(t *testing.T, e Event) []byte {
	t.Helper()
	b, err := e.MarshalData()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return b
}

func TestReplay_MergedAwayLead(t *testing.T) {
	op := "m.mustermann"
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	away := LeadMergedAway{
		Base:     Base{Ts: ts, LID: 7, Op: &op},
		MasterID: 3,
	}
	stored := []StoredEvent{
		{
			Seq:      1,
			LeadID:   7,
			Type:     away.Type(),
			Ts:       ts,
			Operator: &op,
			Payload:  mustPayload(t, away),
		},
	}

	st := Replay(7, stored)
	if !st.Merged {
		t.Fatal("replayed state must show the lead as merged")
	}
	if st.MergedInto == nil || *st.MergedInto != 3 {
		t.Errorf("MergedInto = %v, want 3", st.MergedInto)
	}
	if st.LastOperator == nil || *st.LastOperator != op {
		t.Errorf("LastOperator = %v, want %q", st.LastOperator, op)
	}
	if st.LastMergedAt == nil || !st.LastMergedAt.Equal(ts) {
		t.Errorf("LastMergedAt = %v, want %v", st.LastMergedAt, ts)
	}
}

func TestReplay_MasterAccumulatesAbsorbedIDs(t *testing.T) {
	ts1 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ts2 := ts1.Add(48 * time.Hour)

	first := LeadsMerged{Base: Base{Ts: ts1, LID: 3}, MergedIDs: []int64{7, 9}}
	second := LeadsMerged{Base: Base{Ts: ts2, LID: 3}, MergedIDs: []int64{11}}

	stored := []StoredEvent{
		{Seq: 1, LeadID: 3, Type: first.Type(), Ts: ts1, Payload: mustPayload(t, first)},
		{Seq: 2, LeadID: 3, Type: second.Type(), Ts: ts2, Payload: mustPayload(t, second)},
	}

	st := Replay(3, stored)
	if st.Merged {
		t.Error("a master lead is not itself merged away")
	}
	want := []int64{7, 9, 11}
	if len(st.AbsorbedIDs) != len(want) {
		t.Fatalf("AbsorbedIDs = %v, want %v", st.AbsorbedIDs, want)
	}
	for i := range want {
		if st.AbsorbedIDs[i] != want[i] {
			t.Errorf("AbsorbedIDs = %v, want %v", st.AbsorbedIDs, want)
			break
		}
	}
	if !st.LastUpdated.Equal(ts2) {
		t.Errorf("LastUpdated = %v, want %v", st.LastUpdated, ts2)
	}
}

func TestReplay_EmptyHistory(t *testing.T) {
	st := Replay(5, nil)
	if st.Merged || st.MergedInto != nil || len(st.AbsorbedIDs) != 0 {
		t.Errorf("empty history must yield a zero state, got %+v", st)
	}
	if st.LeadID != 5 {
		t.Errorf("LeadID = %d, want 5", st.LeadID)
	}
}

func TestEventPayloadsRoundTrip(t *testing.T) {
	ev := DuplicateScanCompleted{
		Base:       Base{Ts: time.Now(), LID: 0},
		RunID:      "run-1",
		LeadCount:  12,
		PairCount:  66,
		MatchCount: 2,
		DurationMs: 37,
	}
	b := mustPayload(t, ev)

	var decoded DuplicateScanCompleted
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.RunID != ev.RunID || decoded.PairCount != ev.PairCount {
		t.Errorf("round trip mismatch: %+v vs %+v", decoded, ev)
	}
}
