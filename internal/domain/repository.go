package domain

import (
	"context"

	"lead-dedup-service/internal/models"
)

// LeadRepository defines data access for lead records.
// GetLeadByIDCtx returns (nil, nil) when the lead does not exist so callers
// can distinguish a miss from a store failure.
type LeadRepository interface {
	ListActiveLeadsCtx(ctx context.Context) ([]models.Lead, error)
	GetLeadByIDCtx(ctx context.Context, leadID int64) (*models.Lead, error)
	GetLeadStatisticsCtx(ctx context.Context) (*models.LeadStats, error)

	// UpdateLeadFieldsCtx applies a partial update; only non-nil fields of
	// upd are written.
	UpdateLeadFieldsCtx(ctx context.Context, leadID int64, upd models.LeadUpdate) error

	// SoftDeleteLeadsCtx marks the given leads deleted and appends note to
	// each lead's notes. Applied in one statement across the full id set.
	SoftDeleteLeadsCtx(ctx context.Context, leadIDs []int64, note string) error
}

// Repository aggregates the repos required by services. Kept as a separate
// name so additional repositories can join without touching call sites.
type Repository interface {
	LeadRepository
}
