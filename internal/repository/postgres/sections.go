package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/kirinyoku/tixcore/internal/domain"
	"github.com/kirinyoku/tixcore/internal/repository"
)

const sectionColumns = `id, name, row_count, seat_count, status, event_id`

type SectionRepo struct {
	db DB
}

func (r *SectionRepo) Get(ctx context.Context, id int64) (*domain.Section, error) {
	const op = "postgres.SectionRepo.Get"

	s, err := scanSection(r.db.QueryRow(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return s, nil
}

func (r *SectionRepo) List(ctx context.Context, f repository.SectionFilter) ([]domain.Section, error) {
	const op = "postgres.SectionRepo.List"

	var (
		where []string
		args  []any
	)

	if f.EventID != 0 {
		args = append(args, f.EventID)
		where = append(where, fmt.Sprintf("event_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	sql := `SELECT ` + sectionColumns + ` FROM sections`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY event_id, id`

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Section
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *SectionRepo) ExistsByKey(ctx context.Context, name string, eventID int64) (bool, error) {
	const op = "postgres.SectionRepo.ExistsByKey"

	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM sections WHERE lower(name) = lower($1) AND event_id = $2
		 )`,
		name, eventID,
	).Scan(&exists)
	if err != nil {
		return false, wrapDBErr(op, err)
	}

	return exists, nil
}

func (r *SectionRepo) Create(ctx context.Context, s *domain.Section) (int64, error) {
	const op = "postgres.SectionRepo.Create"

	var id int64
	if err := r.db.QueryRow(ctx,
		`INSERT INTO sections(name, row_count, seat_count, status, event_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		s.Name, s.RowCount, s.SeatCount, string(s.Status), s.EventID,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (r *SectionRepo) Update(ctx context.Context, s *domain.Section) error {
	const op = "postgres.SectionRepo.Update"

	tag, err := r.db.Exec(ctx,
		`UPDATE sections
		 SET name = $2, row_count = $3, seat_count = $4, status = $5, event_id = $6
		 WHERE id = $1`,
		s.ID, s.Name, s.RowCount, s.SeatCount, string(s.Status), s.EventID,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *SectionRepo) Delete(ctx context.Context, id int64) error {
	const op = "postgres.SectionRepo.Delete"

	tag, err := r.db.Exec(ctx, `DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func scanSection(row pgx.Row) (*domain.Section, error) {
	var (
		s      domain.Section
		status string
	)

	if err := row.Scan(&s.ID, &s.Name, &s.RowCount, &s.SeatCount, &status, &s.EventID); err != nil {
		return nil, err
	}

	s.Status = domain.SectionStatus(status)

	return &s, nil
}
