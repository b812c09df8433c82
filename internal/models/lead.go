package models

import (
	"time"
)

// Lead is one organization record under consideration for outreach.
// Nullable columns map to pointer fields; leadership and tags are JSON columns.
type Lead struct {
	ID            int64      `json:"id" db:"id"`
	CompanyName   string     `json:"company_name" db:"company_name"`
	Website       *string    `json:"website" db:"website"`
	Email         *string    `json:"email" db:"email"`
	Phone         *string    `json:"phone" db:"phone"`
	Address       *string    `json:"address" db:"address"`
	LinkedinURL   *string    `json:"linkedin_url" db:"linkedin_url"`
	Industry      *string    `json:"industry" db:"industry"`
	ActivityField *string    `json:"activity_field" db:"activity_field"`
	Confidence    float64    `json:"confidence" db:"confidence"`
	Leadership    []Person   `json:"leadership" db:"leadership"`
	Tags          []string   `json:"tags" db:"tags"`
	Notes         string     `json:"notes" db:"notes"`
	IsDeleted     bool       `json:"is_deleted" db:"is_deleted"`
	DeletedAt     *time.Time `json:"deleted_at" db:"deleted_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at" db:"updated_at"`
}

// Person is a leadership entry (board member, CEO, chair, ...).
type Person struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// DuplicateMatch is the transient result of comparing two leads.
// LeadA < LeadB by construction so a pair never appears twice.
// It is recomputed on every scan and never persisted.
type DuplicateMatch struct {
	LeadA             int64    `json:"lead_a"`
	LeadB             int64    `json:"lead_b"`
	Score             int      `json:"score"`
	Reasons           []string `json:"reasons"`
	SuggestedMasterID int64    `json:"suggested_master_id"`
}

// ImportMatch is one hit from the pre-import duplicate check.
type ImportMatch struct {
	ExistingID   int64   `json:"existing_id"`
	ExistingName string  `json:"existing_name"`
	Similarity   float64 `json:"similarity"`
}

// MergeResult reports the outcome of a merge operation. Message is
// human-readable and safe to display; it never carries internal errors.
type MergeResult struct {
	Success   bool    `json:"success"`
	MasterID  int64   `json:"master_id"`
	MergedIDs []int64 `json:"merged_ids,omitempty"`
	Message   string  `json:"message"`
}

// LeadUpdate is a partial update: only non-nil fields are written.
// Notes replaces the whole column; callers append before updating.
type LeadUpdate struct {
	Website       *string
	Email         *string
	Phone         *string
	Address       *string
	LinkedinURL   *string
	Industry      *string
	ActivityField *string
	Tags          []string
	Leadership    []Person
	Notes         *string
}

// LeadStats contains corpus counts for the stats API.
type LeadStats struct {
	Active  int `json:"active"`
	Deleted int `json:"deleted"`
	Total   int `json:"total"`
}
