package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event is the base interface for all lead-related audit events.
// Keep payloads small, use JSON-friendly fields.
// Why: Enables replay and audit without coupling to DB schema.
type Event interface {
	Type() string
	LeadID() int64
	Timestamp() time.Time
	Operator() *string
	MarshalData() ([]byte, error)
}

// Base contains common event metadata. LID 0 means the event is not tied
// to a single lead (scan runs, import checks).
type Base struct {
	Ts  time.Time `json:"ts"`
	LID int64     `json:"lead_id"`
	Op  *string   `json:"operator,omitempty"`
}

func (b Base) Timestamp() time.Time { return b.Ts }
func (b Base) LeadID() int64        { return b.LID }
func (b Base) Operator() *string    { return b.Op }

// --- Concrete events ---

const (
	TypeScanCompleted  = "lead.scan.completed"
	TypeImportChecked  = "lead.import.checked"
	TypeMergeCompleted = "lead.merge.completed"
	TypeMergedAway     = "lead.merged_away"
)

// DuplicateScanCompleted is emitted once per pairwise scan run.
type DuplicateScanCompleted struct {
	Base
	RunID      string `json:"run_id"`
	LeadCount  int    `json:"lead_count"`
	PairCount  int    `json:"pair_count"`
	MatchCount int    `json:"match_count"`
	DurationMs int64  `json:"duration_ms"`
}

func (e DuplicateScanCompleted) Type() string                 { return TypeScanCompleted }
func (e DuplicateScanCompleted) MarshalData() ([]byte, error) { return json.Marshal(e) }

// ImportChecked records a pre-import name check and how many of the
// candidate names collided with existing leads.
type ImportChecked struct {
	Base
	NameCount  int `json:"name_count"`
	Collisions int `json:"collisions"`
}

func (e ImportChecked) Type() string                 { return TypeImportChecked }
func (e ImportChecked) MarshalData() ([]byte, error) { return json.Marshal(e) }

// LeadsMerged is appended on the master lead after a successful merge.
type LeadsMerged struct {
	Base
	MergedIDs []int64 `json:"merged_ids"`
}

func (e LeadsMerged) Type() string                 { return TypeMergeCompleted }
func (e LeadsMerged) MarshalData() ([]byte, error) { return json.Marshal(e) }

// LeadMergedAway is appended on each soft-deleted duplicate so its history
// points at the surviving master.
type LeadMergedAway struct {
	Base
	MasterID int64 `json:"master_id"`
}

func (e LeadMergedAway) Type() string                 { return TypeMergedAway }
func (e LeadMergedAway) MarshalData() ([]byte, error) { return json.Marshal(e) }

// EventStore defines persistence and replay.
// Implementations must guarantee ordering per lead.
type EventStore interface {
	Append(ctx context.Context, ev ...Event) error
	ListByLead(ctx context.Context, leadID int64) ([]StoredEvent, error)
	ReplayLead(ctx context.Context, leadID int64) (*RebuiltState, error)
}

// StoredEvent is a durable representation.
// Seq is a monotonic order within the DB (BIGINT AUTO_INCREMENT).
type StoredEvent struct {
	Seq      int64     `json:"seq"`
	LeadID   int64     `json:"lead_id"`
	Type     string    `json:"type"`
	Ts       time.Time `json:"ts"`
	Operator *string   `json:"operator,omitempty"`
	Payload  []byte    `json:"payload"` // original JSON
}

// RebuiltState is the result of replay for a lead.
// Intentionally small: merge outcome only. UIs can still show full
// history by listing events.
type RebuiltState struct {
	LeadID       int64      `json:"lead_id"`
	Merged       bool       `json:"merged"`
	MergedInto   *int64     `json:"merged_into,omitempty"`
	AbsorbedIDs  []int64    `json:"absorbed_ids,omitempty"`
	LastUpdated  time.Time  `json:"last_updated"`
	LastOperator *string    `json:"last_operator,omitempty"`
	LastMergedAt *time.Time `json:"last_merged_at,omitempty"`
}

// Replay applies events in order and rebuilds state.
func Replay(leadID int64, events []StoredEvent) *RebuiltState {
	st := &RebuiltState{LeadID: leadID}
	for _, se := range events {
		st.LastUpdated = se.Ts
		if se.Operator != nil {
			st.LastOperator = se.Operator
		}
		switch se.Type {
		case TypeMergeCompleted:
			var ev LeadsMerged
			_ = json.Unmarshal(se.Payload, &ev)
			st.AbsorbedIDs = append(st.AbsorbedIDs, ev.MergedIDs...)
			ts := se.Ts
			st.LastMergedAt = &ts
		case TypeMergedAway:
			var ev LeadMergedAway
			_ = json.Unmarshal(se.Payload, &ev)
			st.Merged = true
			mi := ev.MasterID
			st.MergedInto = &mi
			ts := se.Ts
			st.LastMergedAt = &ts
		}
	}
	return st
}
