package section

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/kirinyoku/tixcore/internal/domain"
	"github.com/kirinyoku/tixcore/internal/metrics"
	"github.com/kirinyoku/tixcore/internal/pipeline"
	"github.com/kirinyoku/tixcore/internal/repository"
	"github.com/kirinyoku/tixcore/internal/uow"
)

const (
	maxNameLen    = 100
	maxTotalSeats = 10_000
)

type Cache interface {
	InvalidateSections(ctx context.Context, eventID int64) error
}

type Publisher interface {
	PublishSectionChanged(ctx context.Context, eventID, sectionID int64) error
}

// Service is the section consistency engine. Every section rule that depends
// on the parent event reads the event inside the same transaction as the
// write.
type Service struct {
	store   repository.Store
	uow     *uow.UoW
	cache   Cache
	pubsub  Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(store repository.Store, cache Cache, pubsub Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Service{
		store:   store,
		uow:     uow.NewUoW(store),
		cache:   cache,
		pubsub:  pubsub,
		metrics: m,
		logger:  logger.With("component", "section"),
	}
}

// CreateSection validates f against its parent event and stores a new
// section. Status defaults to ACTIVE. The activation guard of UpdateSection
// does not apply here.
//
// Returns:
//   - *domain.ValidationError for bad fields or more than 10,000 seats,
//     *domain.DuplicateError if the event already has a section of that name.
//   - *domain.NotFoundError if the event does not exist.
//   - *domain.IllegalStateError if the event is cancelled or completed.
func (s *Service) CreateSection(ctx context.Context, f domain.SectionFields) (_ *domain.Section, err error) {
	const op = "service.section.CreateSection"

	defer func() { s.metrics.ObserveMutation("section", "create", err) }()

	var sec domain.Section

	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Repos, after func(uow.AfterCommit)) error {
		var parent *domain.Event

		return pipeline.New().
			Add(pipeline.Required, func(context.Context) error {
				return requireFields(f)
			}).
			Add(pipeline.Resolve, func(ctx context.Context) error {
				var err error
				parent, err = getEvent(ctx, tx, f.EventID)
				return err
			}).
			Add(pipeline.Rules, func(context.Context) error {
				return checkRules(f, parent)
			}).
			Add(pipeline.Duplicates, func(ctx context.Context) error {
				return checkDuplicate(ctx, tx, f)
			}).
			Add(pipeline.Persist, func(ctx context.Context) error {
				sec = domain.Section{
					Name:      f.Name,
					RowCount:  f.RowCount,
					SeatCount: f.SeatCount,
					Status:    f.Status,
					EventID:   f.EventID,
				}
				if sec.Status == "" {
					sec.Status = domain.SectionActive
				}

				id, err := tx.Sections().Create(ctx, &sec)
				if err != nil {
					return persistErr(err, f.EventID)
				}
				sec.ID = id

				after(s.changed(sec.EventID, sec.ID))
				return nil
			}).
			Run(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.InfoContext(ctx, "section created", "id", sec.ID, "event_id", sec.EventID, "name", sec.Name)

	return &sec, nil
}

// UpdateSection replaces the fields of section id with f. An empty f.Status
// keeps the stored status. Moving an INACTIVE section to ACTIVE requires the
// parent event to be ACTIVE.
func (s *Service) UpdateSection(ctx context.Context, id int64, f domain.SectionFields) (_ *domain.Section, err error) {
	const op = "service.section.UpdateSection"

	defer func() { s.metrics.ObserveMutation("section", "update", err) }()

	var (
		sec       domain.Section
		prevEvent int64
	)

	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Repos, after func(uow.AfterCommit)) error {
		var (
			existing *domain.Section
			parent   *domain.Event
		)

		return pipeline.New().
			Add(pipeline.Required, func(context.Context) error {
				return requireFields(f)
			}).
			Add(pipeline.Resolve, func(ctx context.Context) error {
				var err error
				if existing, err = getSection(ctx, tx, id); err != nil {
					return err
				}
				parent, err = getEvent(ctx, tx, f.EventID)
				return err
			}).
			Add(pipeline.Rules, func(context.Context) error {
				if err := checkRules(f, parent); err != nil {
					return err
				}

				if existing.Status == domain.SectionInactive &&
					f.Status == domain.SectionActive &&
					parent.Status != domain.EventActive {
					return &domain.IllegalStateError{
						Message: "Cannot activate section because parent event is not ACTIVE",
					}
				}

				return nil
			}).
			Add(pipeline.Duplicates, func(ctx context.Context) error {
				if strings.EqualFold(existing.Name, f.Name) && existing.EventID == f.EventID {
					return nil
				}
				return checkDuplicate(ctx, tx, f)
			}).
			Add(pipeline.Persist, func(ctx context.Context) error {
				prevEvent = existing.EventID

				sec = *existing
				sec.Name = f.Name
				sec.RowCount = f.RowCount
				sec.SeatCount = f.SeatCount
				sec.EventID = f.EventID
				if f.Status != "" {
					sec.Status = f.Status
				}

				if err := tx.Sections().Update(ctx, &sec); err != nil {
					return persistErr(err, f.EventID)
				}

				after(s.changed(sec.EventID, sec.ID))
				if prevEvent != sec.EventID {
					after(s.changed(prevEvent, sec.ID))
				}
				return nil
			}).
			Run(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.InfoContext(ctx, "section updated", "id", sec.ID, "event_id", sec.EventID, "status", sec.Status)

	return &sec, nil
}

// DeleteSection removes section id. It fails with an IllegalStateError while
// tickets still reference the section.
func (s *Service) DeleteSection(ctx context.Context, id int64) (err error) {
	const op = "service.section.DeleteSection"

	defer func() { s.metrics.ObserveMutation("section", "delete", err) }()

	var eventID int64

	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Repos, after func(uow.AfterCommit)) error {
		return pipeline.New().
			Add(pipeline.Resolve, func(ctx context.Context) error {
				sec, err := getSection(ctx, tx, id)
				if err != nil {
					return err
				}
				eventID = sec.EventID
				return nil
			}).
			Add(pipeline.Persist, func(ctx context.Context) error {
				if err := tx.Sections().Delete(ctx, id); err != nil {
					switch {
					case errors.Is(err, repository.ErrNotFound):
						return &domain.NotFoundError{Entity: "Section", ID: id}
					case errors.Is(err, repository.ErrReferenced):
						return &domain.IllegalStateError{
							Message: fmt.Sprintf("Cannot delete section %d while tickets reference it", id),
						}
					}
					return err
				}

				after(s.changed(eventID, id))
				return nil
			}).
			Run(ctx)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.logger.InfoContext(ctx, "section deleted", "id", id)

	return nil
}

func (s *Service) changed(eventID, sectionID int64) uow.AfterCommit {
	return func(ctx context.Context) {
		if s.cache != nil {
			if err := s.cache.InvalidateSections(ctx, eventID); err != nil {
				s.logger.WarnContext(ctx, "cache invalidation failed", "event_id", eventID, "error", err)
			}
		}

		if s.pubsub != nil {
			if err := s.pubsub.PublishSectionChanged(ctx, eventID, sectionID); err != nil {
				s.logger.WarnContext(ctx, "publish section change failed", "section_id", sectionID, "error", err)
			}
		}
	}
}

func requireFields(f domain.SectionFields) error {
	switch {
	case strings.TrimSpace(f.Name) == "":
		return domain.NewValidationError("name", "Section name is required")
	case f.RowCount <= 0:
		return domain.NewValidationError("rowCount", "Row count is required and must be > 0")
	case f.SeatCount <= 0:
		return domain.NewValidationError("seatCount", "Seat count is required and must be > 0")
	case f.EventID <= 0:
		return domain.NewValidationError("event", "Event is required for section")
	case f.Status != "" && !f.Status.Valid():
		return domain.NewValidationError("status", fmt.Sprintf("Invalid section status: %s", f.Status))
	}

	return nil
}

func checkRules(f domain.SectionFields, parent *domain.Event) error {
	switch {
	case utf8.RuneCountInString(f.Name) > maxNameLen:
		return domain.NewValidationError("name", "Name cannot exceed 100 chars")
	case f.RowCount > maxTotalSeats/f.SeatCount:
		return domain.NewValidationError("seats", "Total seats cannot exceed 10,000")
	case parent.Status.Terminal():
		return &domain.IllegalStateError{
			Message: "Cannot create/update sections for cancelled or completed events",
		}
	}

	return nil
}

func checkDuplicate(ctx context.Context, tx repository.Repos, f domain.SectionFields) error {
	exists, err := tx.Sections().ExistsByKey(ctx, f.Name, f.EventID)
	if err != nil {
		return err
	}

	if exists {
		return duplicate()
	}

	return nil
}

func getSection(ctx context.Context, tx repository.Repos, id int64) (*domain.Section, error) {
	sec, err := tx.Sections().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &domain.NotFoundError{Entity: "Section", ID: id}
		}
		return nil, err
	}

	return sec, nil
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

func persistErr(err error, eventID int64) error {
	switch {
	case errors.Is(err, repository.ErrConflict):
		return duplicate()
	case errors.Is(err, repository.ErrReferenced):
		return &domain.NotFoundError{Entity: "Event", ID: eventID}
	}

	return err
}

func duplicate() error {
	return &domain.DuplicateError{
		Entity:  "section",
		Message: "Section with this name already exists for this event",
	}
}
