package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/tixcore/internal/clock"
	"github.com/kirinyoku/tixcore/internal/domain"
	"github.com/kirinyoku/tixcore/internal/repository"
	redisrepo "github.com/kirinyoku/tixcore/internal/repository/redis"
)

type Config struct {
	EventSummaryTTL  time.Duration
	EventSectionsTTL time.Duration
	// Location defines the calendar day used as "today". Defaults to UTC.
	Location *time.Location
}

// Service serves read models. Single events and per-event section lists go
// through the cache when one is configured; everything else reads the store.
type Service struct {
	store repository.Store
	cache *redisrepo.Cache
	clock clock.Clock
	cfg   Config
}

func New(store repository.Store, cache *redisrepo.Cache, clk clock.Clock, cfg Config) *Service {
	if cfg.EventSummaryTTL <= 0 {
		cfg.EventSummaryTTL = 60 * time.Second
	}

	if cfg.EventSectionsTTL <= 0 {
		cfg.EventSectionsTTL = cfg.EventSummaryTTL
	}

	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	if clk == nil {
		clk = clock.Real()
	}

	return &Service{
		store: store,
		cache: cache,
		clock: clk,
		cfg:   cfg,
	}
}

// GetEvent retrieves an event by its ID, utilizing a caching layer to improve performance.
//
// Returns:
//   - *domain.Event: the retrieved event.
//   - error: *domain.NotFoundError if the event is not found.
func (s *Service) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "service.query.GetEvent"

	load := func(ctx context.Context) (domain.Event, error) {
		e, err := s.store.Events().Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.Event{}, &domain.NotFoundError{Entity: "Event", ID: id}
			}
			return domain.Event{}, err
		}
		return *e, nil
	}

	var (
		event domain.Event
		err   error
	)
	if s.cache != nil {
		event, err = redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeyEventSummary(id), s.cfg.EventSummaryTTL, load)
	} else {
		event, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &event, nil
}

func (s *Service) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return s.listEvents(ctx, "service.query.ListEvents", repository.EventFilter{})
}

// EventsByCategory lists the events of a category. The category must exist.
func (s *Service) EventsByCategory(ctx context.Context, categoryID int64) ([]domain.Event, error) {
	const op = "service.query.EventsByCategory"

	if _, err := s.store.Categories().Get(ctx, categoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, &domain.NotFoundError{Entity: "Category", ID: categoryID})
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.listEvents(ctx, op, repository.EventFilter{CategoryID: categoryID})
}

// EventsByStatus lists events by their stored status.
func (s *Service) EventsByStatus(ctx context.Context, status domain.EventStatus) ([]domain.Event, error) {
	const op = "service.query.EventsByStatus"

	if !status.Valid() {
		return nil, fmt.Errorf("%s: %w", op,
			domain.NewValidationError("status", fmt.Sprintf("Invalid event status: %s", status)))
	}

	return s.listEvents(ctx, op, repository.EventFilter{Status: status})
}

func (s *Service) EventsOnDate(ctx context.Context, date time.Time) ([]domain.Event, error) {
	d := domain.CivilDate(date)
	return s.listEvents(ctx, "service.query.EventsOnDate", repository.EventFilter{On: &d})
}

// UpcomingEvents lists events dated strictly after today.
func (s *Service) UpcomingEvents(ctx context.Context) ([]domain.Event, error) {
	today := clock.Today(s.clock, s.cfg.Location)
	return s.listEvents(ctx, "service.query.UpcomingEvents", repository.EventFilter{After: &today})
}

// EventsBetween lists events dated within [start, end], ordered by date and
// time. Each returned status is re-derived against today for display; the
// stored rows are not touched.
func (s *Service) EventsBetween(ctx context.Context, start, end *time.Time) ([]domain.Event, error) {
	const op = "service.query.EventsBetween"

	if start == nil || end == nil {
		return nil, fmt.Errorf("%s: %w", op,
			domain.NewValidationError("range", "Start and end dates must not be null"))
	}

	from, to := domain.CivilDate(*start), domain.CivilDate(*end)
	if to.Before(from) {
		return nil, fmt.Errorf("%s: %w", op,
			domain.NewValidationError("range", "End date cannot be before start date"))
	}

	events, err := s.listEvents(ctx, op, repository.EventFilter{From: &from, To: &to})
	if err != nil {
		return nil, err
	}

	today := clock.Today(s.clock, s.cfg.Location)
	for i := range events {
		events[i].Status = domain.DeriveEventStatus(events[i].Date, events[i].Status, today)
	}

	return events, nil
}

func (s *Service) listEvents(ctx context.Context, op string, f repository.EventFilter) ([]domain.Event, error) {
	events, err := s.store.Events().List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

func (s *Service) ListSections(ctx context.Context) ([]domain.Section, error) {
	const op = "service.query.ListSections"

	secs, err := s.store.Sections().List(ctx, repository.SectionFilter{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return secs, nil
}

func (s *Service) GetSection(ctx context.Context, id int64) (*domain.Section, error) {
	const op = "service.query.GetSection"

	sec, err := s.store.Sections().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, &domain.NotFoundError{Entity: "Section", ID: id})
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sec, nil
}

// SectionsByEvent lists the sections of an event, through the cache when
// configured. The event must exist.
func (s *Service) SectionsByEvent(ctx context.Context, eventID int64) ([]domain.Section, error) {
	const op = "service.query.SectionsByEvent"

	load := func(ctx context.Context) ([]domain.Section, error) {
		if err := s.requireEvent(ctx, eventID); err != nil {
			return nil, err
		}
		return s.store.Sections().List(ctx, repository.SectionFilter{EventID: eventID})
	}

	var (
		secs []domain.Section
		err  error
	)
	if s.cache != nil {
		secs, err = redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeyEventSections(eventID), s.cfg.EventSectionsTTL, load)
	} else {
		secs, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return secs, nil
}

func (s *Service) SectionsByStatus(ctx context.Context, status domain.SectionStatus) ([]domain.Section, error) {
	const op = "service.query.SectionsByStatus"

	if !status.Valid() {
		return nil, fmt.Errorf("%s: %w", op,
			domain.NewValidationError("status", fmt.Sprintf("Invalid section status: %s", status)))
	}

	secs, err := s.store.Sections().List(ctx, repository.SectionFilter{Status: status})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return secs, nil
}

// TicketsByEvent lists the tickets issued for an event.
func (s *Service) TicketsByEvent(ctx context.Context, eventID int64) ([]domain.Ticket, error) {
	const op = "service.query.TicketsByEvent"

	if err := s.requireEvent(ctx, eventID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tickets, err := s.store.Tickets().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tickets, nil
}

func (s *Service) TransactionsByTicket(ctx context.Context, ticketID int64) ([]domain.Transaction, error) {
	const op = "service.query.TransactionsByTicket"

	txs, err := s.store.Transactions().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return txs, nil
}

func (s *Service) requireEvent(ctx context.Context, id int64) error {
	if _, err := s.store.Events().Get(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &domain.NotFoundError{Entity: "Event", ID: id}
		}
		return err
	}

	return nil
}
