package category

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

const maxNameLen = 100

type Service struct {
	store   repository.Store
	uow     *uow.UoW
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(store repository.Store, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Service{
		store:   store,
		uow:     uow.NewUoW(store),
		metrics: m,
		logger:  logger.With("component", "category"),
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	const op = "service.category.List"

	cats, err := s.store.Categories().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cats, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Category, error) {
	const op = "service.category.Get"

	c, err := s.store.Categories().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, &domain.NotFoundError{Entity: "Category", ID: id})
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

// GetByName looks a category up by its exact name.
func (s *Service) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	const op = "service.category.GetByName"

	c, err := s.store.Categories().GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, &domain.NotFoundError{Entity: "Category", Name: name})
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

func (s *Service) Create(ctx context.Context, name string) (_ *domain.Category, err error) {
	const op = "service.category.Create"

	defer func() { s.metrics.ObserveMutation("category", "create", err) }()

	var c domain.Category

	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Repos, _ func(uow.AfterCommit)) error {
		return pipeline.New().
			Add(pipeline.Required, func(context.Context) error {
				return checkName(name)
			}).
			Add(pipeline.Duplicates, func(ctx context.Context) error {
				_, err := tx.Categories().GetByName(ctx, name)
				switch {
				case err == nil:
					return &domain.DuplicateError{
						Entity:  "category",
						Message: fmt.Sprintf("Category with name '%s' already exists", name),
					}
				case errors.Is(err, repository.ErrNotFound):
					return nil
				}
				return err
			}).
			Add(pipeline.Persist, func(ctx context.Context) error {
				c = domain.Category{Name: name}

				id, err := tx.Categories().Create(ctx, &c)
				if err != nil {
					if errors.Is(err, repository.ErrConflict) {
						return &domain.DuplicateError{
							Entity:  "category",
							Message: fmt.Sprintf("Category with name '%s' already exists", name),
						}
					}
					return err
				}
				c.ID = id

				return nil
			}).
			Run(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.InfoContext(ctx, "category created", "id", c.ID, "name", c.Name)

	return &c, nil
}

// Update renames category id. The new name may equal the current one.
func (s *Service) Update(ctx context.Context, id int64, name string) (_ *domain.Category, err error) {
	const op = "service.category.Update"

	defer func() { s.metrics.ObserveMutation("category", "update", err) }()

	var c domain.Category

	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Repos, _ func(uow.AfterCommit)) error {
		return pipeline.New().
			Add(pipeline.Resolve, func(ctx context.Context) error {
				if _, err := tx.Categories().Get(ctx, id); err != nil {
					if errors.Is(err, repository.ErrNotFound) {
						return &domain.NotFoundError{Entity: "Category", ID: id}
					}
					return err
				}
				return nil
			}).
			Add(pipeline.Required, func(context.Context) error {
				return checkName(name)
			}).
			Add(pipeline.Duplicates, func(ctx context.Context) error {
				other, err := tx.Categories().GetByName(ctx, name)
				switch {
				case err == nil && other.ID != id:
					return duplicateOther()
				case err == nil, errors.Is(err, repository.ErrNotFound):
					return nil
				}
				return err
			}).
			Add(pipeline.Persist, func(ctx context.Context) error {
				c = domain.Category{ID: id, Name: name}

				if err := tx.Categories().Update(ctx, &c); err != nil {
					if errors.Is(err, repository.ErrConflict) {
						return duplicateOther()
					}
					return err
				}
				return nil
			}).
			Run(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.InfoContext(ctx, "category updated", "id", id, "name", name)

	return &c, nil
}

// Delete removes category id. It fails with an IllegalStateError while
// events still reference it.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	const op = "service.category.Delete"

	defer func() { s.metrics.ObserveMutation("category", "delete", err) }()

	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Repos, _ func(uow.AfterCommit)) error {
		err := tx.Categories().Delete(ctx, id)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return &domain.NotFoundError{Entity: "Category", ID: id}
		case errors.Is(err, repository.ErrReferenced):
			return &domain.IllegalStateError{
				Message: fmt.Sprintf("Cannot delete category %d while events reference it", id),
			}
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.logger.InfoContext(ctx, "category deleted", "id", id)

	return nil
}

func checkName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return domain.NewValidationError("name", "Category name is required")
	case utf8.RuneCountInString(name) > maxNameLen:
		return domain.NewValidationError("name", "Category name cannot exceed 100 characters")
	}

	return nil
}

func duplicateOther() error {
	return &domain.DuplicateError{
		Entity:  "category",
		Message: "Another category with the same name already exists",
	}
}
