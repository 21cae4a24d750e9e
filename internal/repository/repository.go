package repository

import (
	"context"
	"time"

	"github.com/kirinyoku/tixcore/internal/domain"
)

type EventFilter struct {
	CategoryID int64
	Status     domain.EventStatus
	On         *time.Time
	After      *time.Time
	From, To   *time.Time
}

type SectionFilter struct {
	EventID int64
	Status  domain.SectionStatus
}

type CategoryRepo interface {
	Get(ctx context.Context, id int64) (*domain.Category, error)
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	Create(ctx context.Context, c *domain.Category) (int64, error)
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id int64) error
}

type EventRepo interface {
	Get(ctx context.Context, id int64) (*domain.Event, error)
	// List returns events matching every non-zero filter field, ordered by
	// date then time.
	List(ctx context.Context, f EventFilter) ([]domain.Event, error)
	// ExistsByKey matches name case-insensitively.
	ExistsByKey(ctx context.Context, name string, date time.Time, t domain.TimeOfDay) (bool, error)
	Create(ctx context.Context, e *domain.Event) (int64, error)
	Update(ctx context.Context, e *domain.Event) error
	Delete(ctx context.Context, id int64) error
}

type SectionRepo interface {
	Get(ctx context.Context, id int64) (*domain.Section, error)
	List(ctx context.Context, f SectionFilter) ([]domain.Section, error)
	// ExistsByKey matches name case-insensitively within one event.
	ExistsByKey(ctx context.Context, name string, eventID int64) (bool, error)
	Create(ctx context.Context, s *domain.Section) (int64, error)
	Update(ctx context.Context, s *domain.Section) error
	Delete(ctx context.Context, id int64) error
}

type TicketRepo interface {
	ListByEvent(ctx context.Context, eventID int64) ([]domain.Ticket, error)
}

type TransactionRepo interface {
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.Transaction, error)
}

// Repos groups the repositories bound to one database handle, either the
// pool or an open transaction.
type Repos interface {
	Categories() CategoryRepo
	Events() EventRepo
	Sections() SectionRepo
	Tickets() TicketRepo
	Transactions() TransactionRepo
}

// Store is the entity store. WithinTx runs fn against repositories bound to
// one transaction; fn's error rolls everything back.
type Store interface {
	Repos
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repos) error) error
}
