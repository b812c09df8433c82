package domain

import "context"

// UnitOfWork coordinates a set of repository operations within a single
// database transaction. The merge executor relies on it so the master
// update and the duplicate soft-deletes commit or roll back together.
//
// Typical usage:
//  uow, err := factory.Begin(ctx)
//  if err != nil { ... }
//  defer uow.Rollback()
//  if err := uow.UpdateLeadFieldsCtx(ctx, id, upd); err != nil { ... }
//  if err := uow.SoftDeleteLeadsCtx(ctx, ids, note); err != nil { ... }
//  if err := uow.Commit(); err != nil { ... }
//
// NOTE: Keep the transaction as short as possible.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	LeadRepository
}

// UnitOfWorkFactory starts new UnitOfWork instances.
// A returned UnitOfWork is already begun; Begin may be a no-op.
// Keeping Begin on UnitOfWork allows reusing implementations in tests.
type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}
