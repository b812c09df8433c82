package merger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lead-dedup-service/internal/domain"
	"lead-dedup-service/internal/models"
	errs "lead-dedup-service/pkg/errors"
	"lead-dedup-service/pkg/events"
	"lead-dedup-service/pkg/logging"
)

// Executor merges duplicate leads into a master record. The master update
// and the duplicate soft-deletes run in one transaction; a failure anywhere
// leaves every lead untouched.
type Executor struct {
	repo   domain.LeadRepository
	uowf   domain.UnitOfWorkFactory
	store  events.EventStore
	logger *logging.ComponentLogger
}

func NewExecutor(repo domain.LeadRepository, uowf domain.UnitOfWorkFactory, store events.EventStore, logger *logging.Logger) *Executor {
	return &Executor{
		repo:   repo,
		uowf:   uowf,
		store:  store,
		logger: logger.WithComponent("merger"),
	}
}

// Merge folds duplicateIDs into masterID. Scalar contact fields on the
// master stay as they are; empty ones are filled from the duplicates in the
// order given, first non-empty value wins. Tags are unioned, leadership is
// deduplicated by case-insensitive person name with the first occurrence
// keeping its casing and role. Duplicates are soft-deleted, never dropped.
//
// The result is always well-formed; failures come back with Success false
// and a message that is safe to show operators.
func (ex *Executor) Merge(ctx context.Context, masterID int64, duplicateIDs []int64, operator *string) models.MergeResult {
	if len(duplicateIDs) == 0 {
		return models.MergeResult{
			Success:  false,
			MasterID: masterID,
			Message:  "no duplicate leads provided",
		}
	}

	master, err := ex.repo.GetLeadByIDCtx(ctx, masterID)
	if err != nil {
		return ex.fail(masterID, "failed to load master lead", err)
	}
	if master == nil || master.IsDeleted {
		return models.MergeResult{
			Success:  false,
			MasterID: masterID,
			Message:  "master lead not found",
		}
	}

	duplicates := make([]models.Lead, 0, len(duplicateIDs))
	for _, id := range duplicateIDs {
		if id == masterID {
			return models.MergeResult{
				Success:  false,
				MasterID: masterID,
				Message:  fmt.Sprintf("lead %d cannot be merged into itself", id),
			}
		}
		dup, err := ex.repo.GetLeadByIDCtx(ctx, id)
		if err != nil {
			return ex.fail(masterID, fmt.Sprintf("failed to load lead %d", id), err)
		}
		if dup == nil || dup.IsDeleted {
			return models.MergeResult{
				Success:  false,
				MasterID: masterID,
				Message:  fmt.Sprintf("duplicate lead %d not found", id),
			}
		}
		duplicates = append(duplicates, *dup)
	}

	upd := buildMergeUpdate(*master, duplicates)

	uow, err := ex.uowf.Begin(ctx)
	if err != nil {
		return ex.fail(masterID, "failed to start merge transaction", err)
	}
	defer uow.Rollback()

	if err := uow.UpdateLeadFieldsCtx(ctx, masterID, upd); err != nil {
		return ex.fail(masterID, "failed to update master lead", err)
	}
	if err := uow.SoftDeleteLeadsCtx(ctx, duplicateIDs, fmt.Sprintf("Merged into lead #%d", masterID)); err != nil {
		return ex.fail(masterID, "failed to archive duplicate leads", err)
	}
	if err := uow.Commit(); err != nil {
		return ex.fail(masterID, "failed to commit merge", err)
	}

	ex.logger.Info("leads merged",
		logging.LeadID(masterID),
		logging.Int("merged_count", len(duplicateIDs)))

	ex.recordEvents(ctx, masterID, duplicateIDs, operator)

	return models.MergeResult{
		Success:   true,
		MasterID:  masterID,
		MergedIDs: duplicateIDs,
		Message:   fmt.Sprintf("merged %d lead(s) into lead #%d", len(duplicateIDs), masterID),
	}
}

func (ex *Executor) fail(masterID int64, msg string, err error) models.MergeResult {
	ex.logger.Error(msg, err, logging.LeadID(masterID))
	if errs.Is(err, errs.ErrValidation) {
		return models.MergeResult{Success: false, MasterID: masterID, Message: msg}
	}
	// DB detail stays in the log, not in the operator-facing message.
	return models.MergeResult{Success: false, MasterID: masterID, Message: "merge failed, no changes were applied"}
}

func (ex *Executor) recordEvents(ctx context.Context, masterID int64, duplicateIDs []int64, operator *string) {
	if ex.store == nil {
		return
	}
	now := time.Now()
	evs := make([]events.Event, 0, len(duplicateIDs)+1)
	evs = append(evs, events.LeadsMerged{
		Base:      events.Base{Ts: now, LID: masterID, Op: operator},
		MergedIDs: duplicateIDs,
	})
	for _, id := range duplicateIDs {
		evs = append(evs, events.LeadMergedAway{
			Base:     events.Base{Ts: now, LID: id, Op: operator},
			MasterID: masterID,
		})
	}
	if err := ex.store.Append(ctx, evs...); err != nil {
		ex.logger.Warn("failed to record merge events", logging.LeadID(masterID), logging.String("error", err.Error()))
	}
}

// buildMergeUpdate computes the partial update for the master. Only fields
// that actually change become non-nil so the SQL layer touches nothing else.
func buildMergeUpdate(master models.Lead, duplicates []models.Lead) models.LeadUpdate {
	var upd models.LeadUpdate

	coalesce := func(current *string, pick func(models.Lead) *string) *string {
		if current != nil && *current != "" {
			return nil
		}
		for _, d := range duplicates {
			if v := pick(d); v != nil && *v != "" {
				val := *v
				return &val
			}
		}
		return nil
	}

	upd.Website = coalesce(master.Website, func(l models.Lead) *string { return l.Website })
	upd.Email = coalesce(master.Email, func(l models.Lead) *string { return l.Email })
	upd.Phone = coalesce(master.Phone, func(l models.Lead) *string { return l.Phone })
	upd.Address = coalesce(master.Address, func(l models.Lead) *string { return l.Address })
	upd.LinkedinURL = coalesce(master.LinkedinURL, func(l models.Lead) *string { return l.LinkedinURL })
	upd.Industry = coalesce(master.Industry, func(l models.Lead) *string { return l.Industry })
	upd.ActivityField = coalesce(master.ActivityField, func(l models.Lead) *string { return l.ActivityField })

	if tags := unionTags(master, duplicates); len(tags) != len(master.Tags) {
		upd.Tags = tags
	}
	if leadership := mergeLeadership(master, duplicates); len(leadership) != len(master.Leadership) {
		upd.Leadership = leadership
	}

	ids := make([]string, len(duplicates))
	for i, d := range duplicates {
		ids[i] = fmt.Sprintf("#%d", d.ID)
	}
	note := fmt.Sprintf("Absorbed duplicate lead(s) %s", strings.Join(ids, ", "))
	notes := master.Notes
	if notes == "" {
		notes = note
	} else {
		notes = notes + "\n" + note
	}
	upd.Notes = &notes

	return upd
}

// unionTags keeps the master's tags in order and appends unseen tags from
// the duplicates. Tag comparison is exact; tags are already normalized at
// import time.
func unionTags(master models.Lead, duplicates []models.Lead) []string {
	seen := make(map[string]bool, len(master.Tags))
	out := make([]string, 0, len(master.Tags))
	for _, t := range master.Tags {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, d := range duplicates {
		for _, t := range d.Tags {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// mergeLeadership unions leadership lists, deduplicating by lowercased
// person name. The first occurrence wins, so the master's entries keep
// their casing and role even when a duplicate lists the same person.
func mergeLeadership(master models.Lead, duplicates []models.Lead) []models.Person {
	seen := make(map[string]bool, len(master.Leadership))
	out := make([]models.Person, 0, len(master.Leadership))

	add := func(p models.Person) {
		key := strings.ToLower(p.Name)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, p)
	}

	for _, p := range master.Leadership {
		add(p)
	}
	for _, d := range duplicates {
		for _, p := range d.Leadership {
			add(p)
		}
	}
	return out
}
