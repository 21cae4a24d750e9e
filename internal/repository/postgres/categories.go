package postgres

import (
	"context"
	"fmt"

	"github.com/kirinyoku/tixcore/internal/domain"
	"github.com/kirinyoku/tixcore/internal/repository"
)

type CategoryRepo struct {
	db DB
}

func (r *CategoryRepo) Get(ctx context.Context, id int64) (*domain.Category, error) {
	const op = "postgres.CategoryRepo.Get"

	var c domain.Category
	err := r.db.QueryRow(ctx,
		`SELECT id, name FROM categories WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &c, nil
}

func (r *CategoryRepo) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	const op = "postgres.CategoryRepo.GetByName"

	var c domain.Category
	err := r.db.QueryRow(ctx,
		`SELECT id, name FROM categories WHERE name = $1`,
		name,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &c, nil
}

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	const op = "postgres.CategoryRepo.List"

	rows, err := r.db.Query(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) (int64, error) {
	const op = "postgres.CategoryRepo.Create"

	var id int64
	if err := r.db.QueryRow(ctx,
		`INSERT INTO categories(name) VALUES ($1) RETURNING id`,
		c.Name,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (r *CategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	const op = "postgres.CategoryRepo.Update"

	tag, err := r.db.Exec(ctx,
		`UPDATE categories SET name = $2 WHERE id = $1`,
		c.ID, c.Name,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	const op = "postgres.CategoryRepo.Delete"

	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
