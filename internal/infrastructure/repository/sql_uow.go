package repository

import (
	"context"
	"database/sql"

	"lead-dedup-service/internal/domain"
	"lead-dedup-service/internal/models"
	"lead-dedup-service/pkg/database"
	errs "lead-dedup-service/pkg/errors"
)

// SQLUnitOfWorkFactory creates transaction-backed units of work.
type SQLUnitOfWorkFactory struct {
	db *database.DB
}

var _ domain.UnitOfWorkFactory = (*SQLUnitOfWorkFactory)(nil)

func NewSQLUnitOfWorkFactory(db *database.DB) *SQLUnitOfWorkFactory {
	return &SQLUnitOfWorkFactory{db: db}
}

// Begin opens a transaction and returns a UnitOfWork bound to it.
func (f *SQLUnitOfWorkFactory) Begin(ctx context.Context) (domain.UnitOfWork, error) {
	uow := &SQLUnitOfWork{db: f.db}
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	return uow, nil
}

// SQLUnitOfWork runs lead writes inside one *sql.Tx. Reads that need no
// transactional view go through the plain connection.
type SQLUnitOfWork struct {
	db     *database.DB
	tx     *sql.Tx
	closed bool
}

var _ domain.UnitOfWork = (*SQLUnitOfWork)(nil)

func (u *SQLUnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return errs.NewDB("uow.Begin", "transaction already started", nil)
	}
	tx, err := u.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return errs.NewDB("uow.Begin", "failed to begin transaction", err)
	}
	u.tx = tx
	return nil
}

func (u *SQLUnitOfWork) Commit() error {
	if u.tx == nil || u.closed {
		return errs.NewDB("uow.Commit", "no open transaction", nil)
	}
	u.closed = true
	if err := u.tx.Commit(); err != nil {
		return errs.NewDB("uow.Commit", "failed to commit transaction", err)
	}
	return nil
}

// Rollback is safe to defer; after Commit it is a no-op.
func (u *SQLUnitOfWork) Rollback() error {
	if u.tx == nil || u.closed {
		return nil
	}
	u.closed = true
	if err := u.tx.Rollback(); err != nil {
		return errs.NewDB("uow.Rollback", "failed to rollback transaction", err)
	}
	return nil
}

func (u *SQLUnitOfWork) ListActiveLeadsCtx(ctx context.Context) ([]models.Lead, error) {
	return u.db.ListActiveLeadsCtx(ctx)
}

func (u *SQLUnitOfWork) GetLeadByIDCtx(ctx context.Context, leadID int64) (*models.Lead, error) {
	return u.db.GetLeadByIDCtx(ctx, leadID)
}

func (u *SQLUnitOfWork) GetLeadStatisticsCtx(ctx context.Context) (*models.LeadStats, error) {
	return u.db.GetLeadStatisticsCtx(ctx)
}

func (u *SQLUnitOfWork) UpdateLeadFieldsCtx(ctx context.Context, leadID int64, upd models.LeadUpdate) error {
	if u.tx == nil || u.closed {
		return errs.NewDB("uow.UpdateLeadFieldsCtx", "no open transaction", nil)
	}
	return u.db.UpdateLeadFieldsTx(ctx, u.tx, leadID, upd)
}

func (u *SQLUnitOfWork) SoftDeleteLeadsCtx(ctx context.Context, leadIDs []int64, note string) error {
	if u.tx == nil || u.closed {
		return errs.NewDB("uow.SoftDeleteLeadsCtx", "no open transaction", nil)
	}
	return u.db.SoftDeleteLeadsTx(ctx, u.tx, leadIDs, note)
}
