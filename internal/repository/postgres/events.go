package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kirinyoku/tixcore/internal/domain"
	"github.com/kirinyoku/tixcore/internal/repository"
)

const eventColumns = `id, name, date, time, location, capacity, status,
		COALESCE(description, ''), COALESCE(image, ''), category_id`

type EventRepo struct {
	db DB
}

// Get retrieves an event by its ID.
//
// Returns:
//   - *domain.Event: the event when found.
//   - error: repository.ErrNotFound if the event is not found.
func (r *EventRepo) Get(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "postgres.EventRepo.Get"

	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return e, nil
}

// List lists events matching the filter, ordered by date and time.
func (r *EventRepo) List(ctx context.Context, f repository.EventFilter) ([]domain.Event, error) {
	const op = "postgres.EventRepo.List"

	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.CategoryID != 0 {
		add("category_id = $%d", f.CategoryID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.On != nil {
		add("date = $%d", domain.CivilDate(*f.On))
	}
	if f.After != nil {
		add("date > $%d", domain.CivilDate(*f.After))
	}
	if f.From != nil {
		add("date >= $%d", domain.CivilDate(*f.From))
	}
	if f.To != nil {
		add("date <= $%d", domain.CivilDate(*f.To))
	}

	sql := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY date, time, id`

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *EventRepo) ExistsByKey(
	ctx context.Context,
	name string,
	date time.Time,
	t domain.TimeOfDay,
) (bool, error) {
	const op = "postgres.EventRepo.ExistsByKey"

	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM events
			WHERE lower(name) = lower($1) AND date = $2 AND time = $3
		 )`,
		name, domain.CivilDate(date), pgTime(t),
	).Scan(&exists)
	if err != nil {
		return false, wrapDBErr(op, err)
	}

	return exists, nil
}

// Create inserts an event.
//
// Returns:
//   - int64: the new event ID.
//   - error: repository.ErrConflict if (name, date, time) is already taken.
func (r *EventRepo) Create(ctx context.Context, e *domain.Event) (int64, error) {
	const op = "postgres.EventRepo.Create"

	var id int64
	if err := r.db.QueryRow(ctx,
		`INSERT INTO events(name, date, time, location, capacity, status, description, image, category_id)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9)
		 RETURNING id`,
		e.Name, domain.CivilDate(e.Date), pgTime(e.Time), e.Location, e.Capacity,
		string(e.Status), e.Description, e.Image, e.CategoryID,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (r *EventRepo) Update(ctx context.Context, e *domain.Event) error {
	const op = "postgres.EventRepo.Update"

	tag, err := r.db.Exec(ctx,
		`UPDATE events
		 SET name = $2, date = $3, time = $4, location = $5, capacity = $6, status = $7,
		     description = NULLIF($8, ''), image = NULLIF($9, ''), category_id = $10
		 WHERE id = $1`,
		e.ID, e.Name, domain.CivilDate(e.Date), pgTime(e.Time), e.Location, e.Capacity,
		string(e.Status), e.Description, e.Image, e.CategoryID,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// Delete removes an event.
//
// Returns:
//   - error: repository.ErrNotFound if there is no such event.
//   - error: repository.ErrReferenced if sections or tickets still point at it.
func (r *EventRepo) Delete(ctx context.Context, id int64) error {
	const op = "postgres.EventRepo.Delete"

	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var (
		e      domain.Event
		t      pgtype.Time
		status string
	)

	if err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Date,
		&t,
		&e.Location,
		&e.Capacity,
		&status,
		&e.Description,
		&e.Image,
		&e.CategoryID,
	); err != nil {
		return nil, err
	}

	e.Date = domain.CivilDate(e.Date)
	e.Time = domain.TimeOfDayFromMicros(t.Microseconds)
	e.Status = domain.EventStatus(status)

	return &e, nil
}

func pgTime(t domain.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: t.Micros(), Valid: true}
}
