// Package memory is an in-process entity store with the same constraints as
// the Postgres schema: compound uniqueness keys, foreign keys and
// all-or-nothing transactions. Transactions are serialized by one mutex.
package memory

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kirinyoku/tixcore/internal/domain"
	"github.com/kirinyoku/tixcore/internal/repository"
)

type state struct {
	seq          int64
	categories   map[int64]domain.Category
	events       map[int64]domain.Event
	sections     map[int64]domain.Section
	tickets      map[int64]domain.Ticket
	transactions map[int64]domain.Transaction
}

func (s *state) clone() *state {
	return &state{
		seq:          s.seq,
		categories:   maps.Clone(s.categories),
		events:       maps.Clone(s.events),
		sections:     maps.Clone(s.sections),
		tickets:      maps.Clone(s.tickets),
		transactions: maps.Clone(s.transactions),
	}
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: &state{
		categories:   map[int64]domain.Category{},
		events:       map[int64]domain.Event{},
		sections:     map[int64]domain.Section{},
		tickets:      map[int64]domain.Ticket{},
		transactions: map[int64]domain.Transaction{},
	}}
}

// WithinTx runs fn with exclusive access to the store. If fn fails every
// write it made is discarded.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, repos{st: func() *state { return work }, lock: noLock}); err != nil {
		return err
	}

	s.st = work
	return nil
}

func (s *Store) repos() repos {
	return repos{st: func() *state { return s.st }, lock: s.lockFn}
}

func (s *Store) lockFn() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

func noLock() func() { return func() {} }

func (s *Store) Categories() repository.CategoryRepo     { return s.repos().Categories() }
func (s *Store) Events() repository.EventRepo             { return s.repos().Events() }
func (s *Store) Sections() repository.SectionRepo         { return s.repos().Sections() }
func (s *Store) Tickets() repository.TicketRepo           { return s.repos().Tickets() }
func (s *Store) Transactions() repository.TransactionRepo { return s.repos().Transactions() }

// SeedTicket stores t as-is, assigning an ID when t.ID is zero.
func (s *Store) SeedTicket(t domain.Ticket) domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == 0 {
		t.ID = s.st.nextID()
	}
	s.st.tickets[t.ID] = t
	return t
}

// SeedTransaction stores tx as-is, assigning an ID when tx.ID is zero.
func (s *Store) SeedTransaction(tx domain.Transaction) domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID == 0 {
		tx.ID = s.st.nextID()
	}
	s.st.transactions[tx.ID] = tx
	return tx
}

type repos struct {
	st   func() *state
	lock func() func()
}

func (r repos) Categories() repository.CategoryRepo     { return categoryRepo(r) }
func (r repos) Events() repository.EventRepo             { return eventRepo(r) }
func (r repos) Sections() repository.SectionRepo         { return sectionRepo(r) }
func (r repos) Tickets() repository.TicketRepo           { return ticketRepo(r) }
func (r repos) Transactions() repository.TransactionRepo { return transactionRepo(r) }

type categoryRepo repos

func (r categoryRepo) Get(_ context.Context, id int64) (*domain.Category, error) {
	defer r.lock()()

	c, ok := r.st().categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r categoryRepo) GetByName(_ context.Context, name string) (*domain.Category, error) {
	defer r.lock()()

	for _, c := range r.st().categories {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r categoryRepo) List(context.Context) ([]domain.Category, error) {
	defer r.lock()()

	out := make([]domain.Category, 0, len(r.st().categories))
	for _, c := range r.st().categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r categoryRepo) Create(_ context.Context, c *domain.Category) (int64, error) {
	defer r.lock()()

	st := r.st()
	if categoryNameTaken(st, c.Name, 0) {
		return 0, repository.ErrConflict
	}

	cp := *c
	cp.ID = st.nextID()
	st.categories[cp.ID] = cp
	return cp.ID, nil
}

func (r categoryRepo) Update(_ context.Context, c *domain.Category) error {
	defer r.lock()()

	st := r.st()
	if _, ok := st.categories[c.ID]; !ok {
		return repository.ErrNotFound
	}
	if categoryNameTaken(st, c.Name, c.ID) {
		return repository.ErrConflict
	}

	st.categories[c.ID] = *c
	return nil
}

func (r categoryRepo) Delete(_ context.Context, id int64) error {
	defer r.lock()()

	st := r.st()
	if _, ok := st.categories[id]; !ok {
		return repository.ErrNotFound
	}
	for _, e := range st.events {
		if e.CategoryID == id {
			return repository.ErrReferenced
		}
	}

	delete(st.categories, id)
	return nil
}

func categoryNameTaken(st *state, name string, except int64) bool {
	for _, c := range st.categories {
		if c.ID != except && c.Name == name {
			return true
		}
	}
	return false
}

type eventRepo repos

func (r eventRepo) Get(_ context.Context, id int64) (*domain.Event, error) {
	defer r.lock()()

	e, ok := r.st().events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r eventRepo) List(_ context.Context, f repository.EventFilter) ([]domain.Event, error) {
	defer r.lock()()

	var out []domain.Event
	for _, e := range r.st().events {
		if matchEvent(e, f) {
			out = append(out, e)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Time != b.Time {
			return a.Time.Before(b.Time)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func matchEvent(e domain.Event, f repository.EventFilter) bool {
	d := domain.CivilDate(e.Date)
	day := func(t *time.Time) time.Time { return domain.CivilDate(*t) }

	switch {
	case f.CategoryID != 0 && e.CategoryID != f.CategoryID:
		return false
	case f.Status != "" && e.Status != f.Status:
		return false
	case f.On != nil && !d.Equal(day(f.On)):
		return false
	case f.After != nil && !d.After(day(f.After)):
		return false
	case f.From != nil && d.Before(day(f.From)):
		return false
	case f.To != nil && d.After(day(f.To)):
		return false
	}
	return true
}

func (r eventRepo) ExistsByKey(_ context.Context, name string, date time.Time, t domain.TimeOfDay) (bool, error) {
	defer r.lock()()

	return eventKeyTaken(r.st(), name, date, t, 0), nil
}

func eventKeyTaken(st *state, name string, date time.Time, t domain.TimeOfDay, except int64) bool {
	for _, e := range st.events {
		if e.ID != except &&
			strings.EqualFold(e.Name, name) &&
			domain.CivilDate(e.Date).Equal(domain.CivilDate(date)) &&
			e.Time == t {
			return true
		}
	}
	return false
}

func (r eventRepo) Create(_ context.Context, e *domain.Event) (int64, error) {
	defer r.lock()()

	st := r.st()
	if _, ok := st.categories[e.CategoryID]; !ok {
		return 0, repository.ErrReferenced
	}
	if eventKeyTaken(st, e.Name, e.Date, e.Time, 0) {
		return 0, repository.ErrConflict
	}

	cp := *e
	cp.ID = st.nextID()
	cp.Date = domain.CivilDate(cp.Date)
	st.events[cp.ID] = cp
	return cp.ID, nil
}

func (r eventRepo) Update(_ context.Context, e *domain.Event) error {
	defer r.lock()()

	st := r.st()
	if _, ok := st.events[e.ID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := st.categories[e.CategoryID]; !ok {
		return repository.ErrReferenced
	}
	if eventKeyTaken(st, e.Name, e.Date, e.Time, e.ID) {
		return repository.ErrConflict
	}

	cp := *e
	cp.Date = domain.CivilDate(cp.Date)
	st.events[e.ID] = cp
	return nil
}

func (r eventRepo) Delete(_ context.Context, id int64) error {
	defer r.lock()()

	st := r.st()
	if _, ok := st.events[id]; !ok {
		return repository.ErrNotFound
	}
	for _, s := range st.sections {
		if s.EventID == id {
			return repository.ErrReferenced
		}
	}
	for _, t := range st.tickets {
		if t.EventID == id {
			return repository.ErrReferenced
		}
	}

	delete(st.events, id)
	return nil
}

type sectionRepo repos

func (r sectionRepo) Get(_ context.Context, id int64) (*domain.Section, error) {
	defer r.lock()()

	s, ok := r.st().sections[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r sectionRepo) List(_ context.Context, f repository.SectionFilter) ([]domain.Section, error) {
	defer r.lock()()

	var out []domain.Section
	for _, s := range r.st().sections {
		if f.EventID != 0 && s.EventID != f.EventID {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].EventID != out[j].EventID {
			return out[i].EventID < out[j].EventID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r sectionRepo) ExistsByKey(_ context.Context, name string, eventID int64) (bool, error) {
	defer r.lock()()

	return sectionKeyTaken(r.st(), name, eventID, 0), nil
}

func sectionKeyTaken(st *state, name string, eventID, except int64) bool {
	for _, s := range st.sections {
		if s.ID != except && s.EventID == eventID && strings.EqualFold(s.Name, name) {
			return true
		}
	}
	return false
}

func (r sectionRepo) Create(_ context.Context, s *domain.Section) (int64, error) {
	defer r.lock()()

	st := r.st()
	if _, ok := st.events[s.EventID]; !ok {
		return 0, repository.ErrReferenced
	}
	if sectionKeyTaken(st, s.Name, s.EventID, 0) {
		return 0, repository.ErrConflict
	}

	cp := *s
	cp.ID = st.nextID()
	st.sections[cp.ID] = cp
	return cp.ID, nil
}

func (r sectionRepo) Update(_ context.Context, s *domain.Section) error {
	defer r.lock()()

	st := r.st()
	if _, ok := st.sections[s.ID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := st.events[s.EventID]; !ok {
		return repository.ErrReferenced
	}
	if sectionKeyTaken(st, s.Name, s.EventID, s.ID) {
		return repository.ErrConflict
	}

	st.sections[s.ID] = *s
	return nil
}

func (r sectionRepo) Delete(_ context.Context, id int64) error {
	defer r.lock()()

	st := r.st()
	if _, ok := st.sections[id]; !ok {
		return repository.ErrNotFound
	}
	for _, t := range st.tickets {
		if t.SectionID == id {
			return repository.ErrReferenced
		}
	}

	delete(st.sections, id)
	return nil
}

type ticketRepo repos

func (r ticketRepo) ListByEvent(_ context.Context, eventID int64) ([]domain.Ticket, error) {
	defer r.lock()()

	var out []domain.Ticket
	for _, t := range r.st().tickets {
		if t.EventID == eventID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type transactionRepo repos

func (r transactionRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.Transaction, error) {
	defer r.lock()()

	var out []domain.Transaction
	for _, tx := range r.st().transactions {
		if tx.TicketID == ticketID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
