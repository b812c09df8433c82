package testing

import (
	"context"
	"sort"
	"sync"
	"time"

	"lead-dedup-service/internal/domain"
	"lead-dedup-service/internal/models"
	errs "lead-dedup-service/pkg/errors"
	"lead-dedup-service/pkg/events"
)

// MockRepository is an in-memory lead store for tests. Error injection via
// the Err* fields; each applies to every call of that method.
type MockRepository struct {
	mu    sync.Mutex
	leads map[int64]models.Lead

	ErrList       error
	ErrGet        error
	ErrStats      error
	ErrUpdate     error
	ErrSoftDelete error

	UpdateCalls     []int64
	SoftDeleteCalls [][]int64
}

var _ domain.Repository = (*MockRepository)(nil)

func NewMockRepository(leads ...models.Lead) *MockRepository {
	m := &MockRepository{leads: make(map[int64]models.Lead)}
	for _, l := range leads {
		m.leads[l.ID] = l
	}
	return m
}

// Lead returns a copy of the stored lead for assertions.
func (m *MockRepository) Lead(id int64) (models.Lead, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	return l, ok
}

func (m *MockRepository) ListActiveLeadsCtx(ctx context.Context) ([]models.Lead, error) {
	if m.ErrList != nil {
		return nil, m.ErrList
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Lead
	for _, l := range m.leads {
		if !l.IsDeleted {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MockRepository) GetLeadByIDCtx(ctx context.Context, leadID int64) (*models.Lead, error) {
	if m.ErrGet != nil {
		return nil, m.ErrGet
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.leads[leadID]
	if !ok {
		return nil, nil
	}
	cp := l
	return &cp, nil
}

func (m *MockRepository) GetLeadStatisticsCtx(ctx context.Context) (*models.LeadStats, error) {
	if m.ErrStats != nil {
		return nil, m.ErrStats
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &models.LeadStats{}
	for _, l := range m.leads {
		if l.IsDeleted {
			stats.Deleted++
		} else {
			stats.Active++
		}
	}
	stats.Total = stats.Active + stats.Deleted
	return stats, nil
}

func (m *MockRepository) UpdateLeadFieldsCtx(ctx context.Context, leadID int64, upd models.LeadUpdate) error {
	if m.ErrUpdate != nil {
		return m.ErrUpdate
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls = append(m.UpdateCalls, leadID)
	l, ok := m.leads[leadID]
	if !ok {
		return errs.NewDB("mock.UpdateLeadFieldsCtx", "lead not found", nil)
	}

	setIf := func(dst **string, v *string) {
		if v != nil {
			val := *v
			*dst = &val
		}
	}
	setIf(&l.Website, upd.Website)
	setIf(&l.Email, upd.Email)
	setIf(&l.Phone, upd.Phone)
	setIf(&l.Address, upd.Address)
	setIf(&l.LinkedinURL, upd.LinkedinURL)
	setIf(&l.Industry, upd.Industry)
	setIf(&l.ActivityField, upd.ActivityField)
	if upd.Tags != nil {
		l.Tags = append([]string(nil), upd.Tags...)
	}
	if upd.Leadership != nil {
		l.Leadership = append([]models.Person(nil), upd.Leadership...)
	}
	if upd.Notes != nil {
		l.Notes = *upd.Notes
	}
	now := time.Now()
	l.UpdatedAt = &now

	m.leads[leadID] = l
	return nil
}

func (m *MockRepository) SoftDeleteLeadsCtx(ctx context.Context, leadIDs []int64, note string) error {
	if m.ErrSoftDelete != nil {
		return m.ErrSoftDelete
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SoftDeleteCalls = append(m.SoftDeleteCalls, append([]int64(nil), leadIDs...))
	now := time.Now()
	for _, id := range leadIDs {
		l, ok := m.leads[id]
		if !ok {
			return errs.NewDB("mock.SoftDeleteLeadsCtx", "lead not found", nil)
		}
		l.IsDeleted = true
		l.DeletedAt = &now
		if l.Notes == "" {
			l.Notes = note
		} else {
			l.Notes = l.Notes + "\n" + note
		}
		l.UpdatedAt = &now
		m.leads[id] = l
	}
	return nil
}

// MockUnitOfWork layers transaction semantics over a MockRepository.
// Writes buffer until Commit; Rollback discards them.
type MockUnitOfWork struct {
	repo    *MockRepository
	pending []func() error

	Committed  bool
	RolledBack bool

	ErrBegin  error
	ErrCommit error
}

var _ domain.UnitOfWork = (*MockUnitOfWork)(nil)

func (u *MockUnitOfWork) Begin(ctx context.Context) error { return u.ErrBegin }

func (u *MockUnitOfWork) Commit() error {
	if u.ErrCommit != nil {
		return u.ErrCommit
	}
	for _, apply := range u.pending {
		if err := apply(); err != nil {
			return err
		}
	}
	u.pending = nil
	u.Committed = true
	return nil
}

func (u *MockUnitOfWork) Rollback() error {
	if u.Committed {
		return nil
	}
	u.pending = nil
	u.RolledBack = true
	return nil
}

func (u *MockUnitOfWork) ListActiveLeadsCtx(ctx context.Context) ([]models.Lead, error) {
	return u.repo.ListActiveLeadsCtx(ctx)
}

func (u *MockUnitOfWork) GetLeadByIDCtx(ctx context.Context, leadID int64) (*models.Lead, error) {
	return u.repo.GetLeadByIDCtx(ctx, leadID)
}

func (u *MockUnitOfWork) GetLeadStatisticsCtx(ctx context.Context) (*models.LeadStats, error) {
	return u.repo.GetLeadStatisticsCtx(ctx)
}

func (u *MockUnitOfWork) UpdateLeadFieldsCtx(ctx context.Context, leadID int64, upd models.LeadUpdate) error {
	if u.repo.ErrUpdate != nil {
		return u.repo.ErrUpdate
	}
	u.pending = append(u.pending, func() error {
		return u.repo.UpdateLeadFieldsCtx(ctx, leadID, upd)
	})
	return nil
}

func (u *MockUnitOfWork) SoftDeleteLeadsCtx(ctx context.Context, leadIDs []int64, note string) error {
	if u.repo.ErrSoftDelete != nil {
		return u.repo.ErrSoftDelete
	}
	u.pending = append(u.pending, func() error {
		return u.repo.SoftDeleteLeadsCtx(ctx, leadIDs, note)
	})
	return nil
}

// MockUnitOfWorkFactory hands out units of work over one shared repository.
type MockUnitOfWorkFactory struct {
	Repo     *MockRepository
	ErrBegin error

	mu   sync.Mutex
	Made []*MockUnitOfWork
}

var _ domain.UnitOfWorkFactory = (*MockUnitOfWorkFactory)(nil)

func NewMockUnitOfWorkFactory(repo *MockRepository) *MockUnitOfWorkFactory {
	return &MockUnitOfWorkFactory{Repo: repo}
}

func (f *MockUnitOfWorkFactory) Begin(ctx context.Context) (domain.UnitOfWork, error) {
	if f.ErrBegin != nil {
		return nil, f.ErrBegin
	}
	uow := &MockUnitOfWork{repo: f.Repo}
	f.mu.Lock()
	f.Made = append(f.Made, uow)
	f.mu.Unlock()
	return uow, nil
}

// MemoryEventStore records appended events in memory, ordered per lead.
type MemoryEventStore struct {
	mu        sync.Mutex
	Events    []events.Event
	ErrAppend error
}

var _ events.EventStore = (*MemoryEventStore)(nil)

func (s *MemoryEventStore) Append(ctx context.Context, ev ...events.Event) error {
	if s.ErrAppend != nil {
		return s.ErrAppend
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, ev...)
	return nil
}

func (s *MemoryEventStore) ListByLead(ctx context.Context, leadID int64) ([]events.StoredEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []events.StoredEvent
	for i, e := range s.Events {
		if e.LeadID() != leadID {
			continue
		}
		payload, err := e.MarshalData()
		if err != nil {
			return nil, err
		}
		out = append(out, events.StoredEvent{
			Seq:      int64(i + 1),
			LeadID:   e.LeadID(),
			Type:     e.Type(),
			Ts:       e.Timestamp(),
			Operator: e.Operator(),
			Payload:  payload,
		})
	}
	return out, nil
}

func (s *MemoryEventStore) ReplayLead(ctx context.Context, leadID int64) (*events.RebuiltState, error) {
	evs, err := s.ListByLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	return events.Replay(leadID, evs), nil
}

// AppendedTypes lists recorded event types in order, for assertions.
func (s *MemoryEventStore) AppendedTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.Events))
	for _, e := range s.Events {
		out = append(out, e.Type())
	}
	return out
}
