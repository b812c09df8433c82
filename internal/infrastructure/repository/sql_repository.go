package repository

import (
	"context"

	"lead-dedup-service/internal/domain"
	"lead-dedup-service/internal/models"
	"lead-dedup-service/pkg/database"
)

// SQLRepository adapts the database layer to the domain repository
// interfaces. It stays thin on purpose; query logic lives in pkg/database.
type SQLRepository struct {
	db *database.DB
}

var _ domain.Repository = (*SQLRepository)(nil)

func NewSQLRepository(db *database.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) ListActiveLeadsCtx(ctx context.Context) ([]models.Lead, error) {
	return r.db.ListActiveLeadsCtx(ctx)
}

func (r *SQLRepository) GetLeadByIDCtx(ctx context.Context, leadID int64) (*models.Lead, error) {
	return r.db.GetLeadByIDCtx(ctx, leadID)
}

func (r *SQLRepository) GetLeadStatisticsCtx(ctx context.Context) (*models.LeadStats, error) {
	return r.db.GetLeadStatisticsCtx(ctx)
}

func (r *SQLRepository) UpdateLeadFieldsCtx(ctx context.Context, leadID int64, upd models.LeadUpdate) error {
	return r.db.UpdateLeadFieldsCtx(ctx, leadID, upd)
}

func (r *SQLRepository) SoftDeleteLeadsCtx(ctx context.Context, leadIDs []int64, note string) error {
	return r.db.SoftDeleteLeadsCtx(ctx, leadIDs, note)
}
