package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kirinyoku/tixcore/internal/clock"
	"github.com/kirinyoku/tixcore/internal/domain"
	"github.com/kirinyoku/tixcore/internal/metrics"
	"github.com/kirinyoku/tixcore/internal/pipeline"
	"github.com/kirinyoku/tixcore/internal/repository"
	"github.com/kirinyoku/tixcore/internal/uow"
)

const (
	maxNameLen     = 100
	maxLocationLen = 150
)

// Cache drops cached read models of an event.
type Cache interface {
	InvalidateEvent(ctx context.Context, eventID int64) error
}

// Publisher announces committed event changes.
type Publisher interface {
	PublishEventChanged(ctx context.Context, eventID int64) error
}

type Config struct {
	// Location defines the calendar day used as "today". Defaults to UTC.
	Location *time.Location
}

// Service is the event lifecycle engine.
type Service struct {
	store   repository.Store
	uow     *uow.UoW
	cache   Cache
	pubsub  Publisher
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *slog.Logger
	cfg     Config
}

func New(
	store repository.Store,
	cache Cache,
	pubsub Publisher,
	clk clock.Clock,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	if clk == nil {
		clk = clock.Real()
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Service{
		store:   store,
		uow:     uow.NewUoW(store),
		cache:   cache,
		pubsub:  pubsub,
		clock:   clk,
		metrics: m,
		logger:  logger.With("component", "event"),
		cfg:     cfg,
	}
}

// CreateEvent validates f and stores a new event whose status is derived
// from its date.
//
// Returns:
//   - *domain.ValidationError for missing or out-of-range fields,
//     *domain.DuplicateError if (name, date, time) is taken.
//   - *domain.NotFoundError if the category does not exist.
func (s *Service) CreateEvent(ctx context.Context, f domain.EventFields) (_ *domain.Event, err error) {
	const op = "service.event.CreateEvent"

	defer func() { s.metrics.ObserveMutation("event", "create", err) }()

	var ev domain.Event

	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Repos, after func(uow.AfterCommit)) error {
		ev = domain.Event{}

		return pipeline.New().
			Add(pipeline.Required, func(context.Context) error {
				return requireFields(f)
			}).
			Add(pipeline.Resolve, func(ctx context.Context) error {
				return resolveCategory(ctx, tx, f.CategoryID)
			}).
			Add(pipeline.Rules, func(context.Context) error {
				return checkRules(f)
			}).
			Add(pipeline.Duplicates, func(ctx context.Context) error {
				return s.checkDuplicate(ctx, tx, f)
			}).
			Add(pipeline.Derive, func(context.Context) error {
				ev = apply(ev, f)

				status := f.Status
				if status == "" {
					status = domain.EventActive
				}
				ev.Status = s.derive(ev, status)

				return nil
			}).
			Add(pipeline.Persist, func(ctx context.Context) error {
				id, err := tx.Events().Create(ctx, &ev)
				if err != nil {
					return persistErr(err, f.CategoryID)
				}
				ev.ID = id

				after(s.changed(ev.ID))
				return nil
			}).
			Run(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.InfoContext(ctx, "event created", "id", ev.ID, "name", ev.Name, "status", ev.Status)

	return &ev, nil
}

// UpdateEvent replaces every field of event id with f and re-derives its
// status. The duplicate check only runs when name, date or time changes;
// names compare case-insensitively. An empty f.Status keeps the stored one.
func (s *Service) UpdateEvent(ctx context.Context, id int64, f domain.EventFields) (_ *domain.Event, err error) {
	const op = "service.event.UpdateEvent"

	defer func() { s.metrics.ObserveMutation("event", "update", err) }()

	var ev domain.Event

	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Repos, after func(uow.AfterCommit)) error {
		var existing *domain.Event

		return pipeline.New().
			Add(pipeline.Required, func(context.Context) error {
				return requireFields(f)
			}).
			Add(pipeline.Resolve, func(ctx context.Context) error {
				var err error
				if existing, err = getEvent(ctx, tx, id); err != nil {
					return err
				}
				return resolveCategory(ctx, tx, f.CategoryID)
			}).
			Add(pipeline.Rules, func(context.Context) error {
				return checkRules(f)
			}).
			Add(pipeline.Duplicates, func(ctx context.Context) error {
				if !keyChanged(*existing, f) {
					return nil
				}
				return s.checkDuplicate(ctx, tx, f)
			}).
			Add(pipeline.Derive, func(context.Context) error {
				ev = apply(*existing, f)

				status := f.Status
				if status == "" {
					status = existing.Status
				}
				ev.Status = s.derive(ev, status)

				return nil
			}).
			Add(pipeline.Persist, func(ctx context.Context) error {
				if err := tx.Events().Update(ctx, &ev); err != nil {
					return persistErr(err, f.CategoryID)
				}

				after(s.changed(ev.ID))
				return nil
			}).
			Run(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.InfoContext(ctx, "event updated", "id", ev.ID, "status", ev.Status)

	return &ev, nil
}

// CancelEvent sets the status of event id to CANCELLED without consulting
// its date. A completed event cannot be cancelled.
func (s *Service) CancelEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "service.event.CancelEvent"

	ev, err := s.override(ctx, "cancel", id, domain.EventCancelled, func(cur domain.EventStatus) error {
		if cur == domain.EventCompleted {
			return &domain.IllegalStateError{Message: "Cannot cancel a completed event"}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.InfoContext(ctx, "event cancelled", "id", id)

	return ev, nil
}

// CompleteEvent sets the status of event id to COMPLETED without consulting
// its date. A cancelled event cannot be completed.
func (s *Service) CompleteEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "service.event.CompleteEvent"

	ev, err := s.override(ctx, "complete", id, domain.EventCompleted, func(cur domain.EventStatus) error {
		if cur == domain.EventCancelled {
			return &domain.IllegalStateError{Message: "Cannot complete a cancelled event"}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.InfoContext(ctx, "event completed", "id", id)

	return ev, nil
}

func (s *Service) override(
	ctx context.Context,
	operation string,
	id int64,
	to domain.EventStatus,
	allowed func(cur domain.EventStatus) error,
) (_ *domain.Event, err error) {
	defer func() { s.metrics.ObserveMutation("event", operation, err) }()

	var ev *domain.Event

	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Repos, after func(uow.AfterCommit)) error {
		return pipeline.New().
			Add(pipeline.Resolve, func(ctx context.Context) error {
				var err error
				ev, err = getEvent(ctx, tx, id)
				return err
			}).
			Add(pipeline.Rules, func(context.Context) error {
				return allowed(ev.Status)
			}).
			Add(pipeline.Persist, func(ctx context.Context) error {
				ev.Status = to
				if err := tx.Events().Update(ctx, ev); err != nil {
					return persistErr(err, ev.CategoryID)
				}

				after(s.changed(id))
				return nil
			}).
			Run(ctx)
	})
	if err != nil {
		return nil, err
	}

	return ev, nil
}

// UpdateCapacity changes only the capacity of event id. Neither the other
// field rules nor status derivation run.
func (s *Service) UpdateCapacity(ctx context.Context, id int64, capacity int) (_ *domain.Event, err error) {
	const op = "service.event.UpdateCapacity"

	defer func() { s.metrics.ObserveMutation("event", "capacity", err) }()

	var ev *domain.Event

	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Repos, after func(uow.AfterCommit)) error {
		return pipeline.New().
			Add(pipeline.Required, func(context.Context) error {
				if capacity <= 0 {
					return domain.NewValidationError("capacity", "Capacity must be greater than 0")
				}
				return nil
			}).
			Add(pipeline.Resolve, func(ctx context.Context) error {
				var err error
				ev, err = getEvent(ctx, tx, id)
				return err
			}).
			Add(pipeline.Persist, func(ctx context.Context) error {
				ev.Capacity = capacity
				if err := tx.Events().Update(ctx, ev); err != nil {
					return persistErr(err, ev.CategoryID)
				}

				after(s.changed(id))
				return nil
			}).
			Run(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.InfoContext(ctx, "event capacity updated", "id", id, "capacity", capacity)

	return ev, nil
}

// DeleteEvent removes event id. Sections and tickets are not cascaded; if the
// store still holds rows that reference the event the delete is refused with
// an IllegalStateError.
func (s *Service) DeleteEvent(ctx context.Context, id int64) (err error) {
	const op = "service.event.DeleteEvent"

	defer func() { s.metrics.ObserveMutation("event", "delete", err) }()

	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Repos, after func(uow.AfterCommit)) error {
		return pipeline.New().
			Add(pipeline.Resolve, func(ctx context.Context) error {
				_, err := getEvent(ctx, tx, id)
				return err
			}).
			Add(pipeline.Persist, func(ctx context.Context) error {
				if err := tx.Events().Delete(ctx, id); err != nil {
					switch {
					case errors.Is(err, repository.ErrNotFound):
						return &domain.NotFoundError{Entity: "Event", ID: id}
					case errors.Is(err, repository.ErrReferenced):
						return &domain.IllegalStateError{
							Message: fmt.Sprintf("Cannot delete event %d while sections or tickets reference it", id),
						}
					}
					return err
				}

				after(s.changed(id))
				return nil
			}).
			Run(ctx)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.logger.InfoContext(ctx, "event deleted", "id", id)

	return nil
}

// derive runs status derivation against today in the configured location.
func (s *Service) derive(ev domain.Event, current domain.EventStatus) domain.EventStatus {
	status := domain.DeriveEventStatus(ev.Date, current, clock.Today(s.clock, s.cfg.Location))

	if status == domain.EventCompleted && current != domain.EventCompleted {
		s.logger.Info("event date is in the past, status set to COMPLETED",
			"date", ev.Date.Format(time.DateOnly), "name", ev.Name)
	}

	s.metrics.ObserveDerivedStatus(status)

	return status
}

func (s *Service) changed(eventID int64) uow.AfterCommit {
	return func(ctx context.Context) {
		if s.cache != nil {
			if err := s.cache.InvalidateEvent(ctx, eventID); err != nil {
				s.logger.WarnContext(ctx, "cache invalidation failed", "event_id", eventID, "error", err)
			}
		}

		if s.pubsub != nil {
			if err := s.pubsub.PublishEventChanged(ctx, eventID); err != nil {
				s.logger.WarnContext(ctx, "publish event change failed", "event_id", eventID, "error", err)
			}
		}
	}
}

func (s *Service) checkDuplicate(ctx context.Context, tx repository.Repos, f domain.EventFields) error {
	exists, err := tx.Events().ExistsByKey(ctx, f.Name, domain.CivilDate(*f.Date), *f.Time)
	if err != nil {
		return err
	}

	if exists {
		return duplicate()
	}

	return nil
}

func requireFields(f domain.EventFields) error {
	switch {
	case strings.TrimSpace(f.Name) == "":
		return domain.NewValidationError("name", "Event name is required")
	case f.Date == nil:
		return domain.NewValidationError("date", "Event date is required")
	case f.Time == nil:
		return domain.NewValidationError("time", "Event time is required")
	case strings.TrimSpace(f.Location) == "":
		return domain.NewValidationError("location", "Event location is required")
	case f.CategoryID <= 0:
		return domain.NewValidationError("category", "Category is required")
	case f.Status != "" && !f.Status.Valid():
		return domain.NewValidationError("status", fmt.Sprintf("Invalid event status: %s", f.Status))
	}

	return nil
}

func checkRules(f domain.EventFields) error {
	switch {
	case f.Capacity <= 0:
		return domain.NewValidationError("capacity", "Event capacity must be greater than 0")
	case utf8.RuneCountInString(f.Name) > maxNameLen:
		return domain.NewValidationError("name", "Event name cannot exceed 100 characters")
	case utf8.RuneCountInString(f.Location) > maxLocationLen:
		return domain.NewValidationError("location", "Event location cannot exceed 150 characters")
	}

	return nil
}

func keyChanged(existing domain.Event, f domain.EventFields) bool {
	return !strings.EqualFold(existing.Name, f.Name) ||
		!existing.Date.Equal(domain.CivilDate(*f.Date)) ||
		existing.Time != *f.Time
}

func apply(ev domain.Event, f domain.EventFields) domain.Event {
	ev.Name = f.Name
	ev.Date = domain.CivilDate(*f.Date)
	ev.Time = *f.Time
	ev.Location = f.Location
	ev.Capacity = f.Capacity
	ev.Description = f.Description
	ev.Image = f.Image
	ev.CategoryID = f.CategoryID

	return ev
}

func getEvent(ctx context.Context, tx repository.Repos, id int64) (*domain.Event, error) {
	ev, err := tx.Events().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &domain.NotFoundError{Entity: "Event", ID: id}
		}
		return nil, err
	}

	return ev, nil
}

func resolveCategory(ctx context.Context, tx repository.Repos, id int64) error {
	if _, err := tx.Categories().Get(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &domain.NotFoundError{Entity: "Category", ID: id}
		}
		return err
	}

	return nil
}

// persistErr maps backstop violations raised by the store on write.
func persistErr(err error, categoryID int64) error {
	switch {
	case errors.Is(err, repository.ErrConflict):
		return duplicate()
	case errors.Is(err, repository.ErrReferenced):
		return &domain.NotFoundError{Entity: "Category", ID: categoryID}
	}

	return err
}

func duplicate() error {
	return &domain.DuplicateError{
		Entity:  "event",
		Message: "An event with this name, date, and time already exists",
	}
}
