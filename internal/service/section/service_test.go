package section

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kirinyoku/tixcore/internal/domain"
	"github.com/kirinyoku/tixcore/internal/repository"
	"github.com/kirinyoku/tixcore/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type change struct{ event, section int64 }

type notifier struct {
	mu          sync.Mutex
	invalidated []int64
	published   []change
}

func (n *notifier) InvalidateSections(_ context.Context, eventID int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.invalidated = append(n.invalidated, eventID)
	return nil
}

func (n *notifier) PublishSectionChanged(_ context.Context, eventID, sectionID int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, change{eventID, sectionID})
	return nil
}

type fixture struct {
	svc   *Service
	store *memory.Store
	notes *notifier
	cat   int64
}

func setup(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	cat, err := store.Categories().Create(context.Background(), &domain.Category{Name: "Sport"})
	require.NoError(t, err)

	notes := &notifier{}
	return &fixture{
		svc:   New(store, notes, notes, nil, nil),
		store: store,
		notes: notes,
		cat:   cat,
	}
}

// event stores an event with the given status directly, bypassing derivation.
func (f *fixture) event(t *testing.T, name string, status domain.EventStatus) int64 {
	t.Helper()

	id, err := f.store.Events().Create(context.Background(), &domain.Event{
		Name:       name,
		Date:       time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		Time:       domain.TimeOfDay{Hour: 18},
		Location:   "Arena",
		Capacity:   5000,
		Status:     status,
		CategoryID: f.cat,
	})
	require.NoError(t, err)
	return id
}

func fields(name string, rows, seats int, eventID int64) domain.SectionFields {
	return domain.SectionFields{Name: name, RowCount: rows, SeatCount: seats, EventID: eventID}
}

func TestCreateSection(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ev := f.event(t, "Final", domain.EventActive)

	sec, err := f.svc.CreateSection(ctx, fields("A", 10, 20, ev))
	require.NoError(t, err)

	assert.NotZero(t, sec.ID)
	assert.Equal(t, domain.SectionActive, sec.Status)
	assert.Equal(t, 200, sec.TotalSeats())
	assert.Equal(t, []int64{ev}, f.notes.invalidated)
	assert.Equal(t, []change{{ev, sec.ID}}, f.notes.published)

	in := fields("B", 1, 1, ev)
	in.Status = domain.SectionClosed
	sec, err = f.svc.CreateSection(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, domain.SectionClosed, sec.Status)
}

func TestCreateSection_SeatLimit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ev := f.event(t, "Final", domain.EventActive)

	_, err := f.svc.CreateSection(ctx, fields("A", 101, 100, ev))
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Total seats cannot exceed 10,000", ve.Message)

	_, err = f.svc.CreateSection(ctx, fields("A", 100, 100, ev))
	assert.NoError(t, err)

	_, err = f.svc.CreateSection(ctx, fields("B", 1_000_000, 1_000_000, ev))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateSection_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   func(ev int64) domain.SectionFields
		msg  string
	}{
		{"blank name", func(ev int64) domain.SectionFields { return fields(" ", 1, 1, ev) }, "Section name is required"},
		{"zero rows", func(ev int64) domain.SectionFields { return fields("A", 0, 1, ev) }, "Row count is required and must be > 0"},
		{"negative seats", func(ev int64) domain.SectionFields { return fields("A", 1, -1, ev) }, "Seat count is required and must be > 0"},
		{"no event", func(int64) domain.SectionFields { return fields("A", 1, 1, 0) }, "Event is required for section"},
		{"long name", func(ev int64) domain.SectionFields { return fields(strings.Repeat("x", 101), 1, 1, ev) }, "Name cannot exceed 100 chars"},
		{"bad status", func(ev int64) domain.SectionFields {
			in := fields("A", 1, 1, ev)
			in.Status = "OPEN"
			return in
		}, "Invalid section status: OPEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			ev := f.event(t, "Final", domain.EventActive)

			_, err := f.svc.CreateSection(context.Background(), tt.in(ev))

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.msg, ve.Message)

			list, err := f.store.Sections().List(context.Background(), repository.SectionFilter{})
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestCreateSection_ParentEvent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateSection(ctx, fields("A", 1, 1, 777))
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Event not found with ID: 777", nf.Error())

	for _, st := range []domain.EventStatus{domain.EventCancelled, domain.EventCompleted} {
		ev := f.event(t, string(st), st)

		_, err := f.svc.CreateSection(ctx, fields("A", 1, 1, ev))
		var ise *domain.IllegalStateError
		require.ErrorAs(t, err, &ise, st)
		assert.Equal(t, "Cannot create/update sections for cancelled or completed events", ise.Message)
	}

	// Activation is only guarded on update.
	ev := f.event(t, "Soon", domain.EventUpcoming)
	in := fields("A", 1, 1, ev)
	in.Status = domain.SectionActive
	_, err = f.svc.CreateSection(ctx, in)
	assert.NoError(t, err)
}

func TestCreateSection_DuplicatePerEvent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ev1 := f.event(t, "One", domain.EventActive)
	ev2 := f.event(t, "Two", domain.EventActive)

	_, err := f.svc.CreateSection(ctx, fields("Balcony", 1, 1, ev1))
	require.NoError(t, err)

	_, err = f.svc.CreateSection(ctx, fields("balcony", 2, 2, ev1))
	var de *domain.DuplicateError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Section with this name already exists for this event", de.Message)

	_, err = f.svc.CreateSection(ctx, fields("Balcony", 1, 1, ev2))
	assert.NoError(t, err)
}

func TestUpdateSection_ActivationGuard(t *testing.T) {
	tests := []struct {
		parent  domain.EventStatus
		wantErr bool
	}{
		{domain.EventActive, false},
		{domain.EventUpcoming, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.parent), func(t *testing.T) {
			f := setup(t)
			ctx := context.Background()
			ev := f.event(t, "Final", tt.parent)

			in := fields("A", 5, 5, ev)
			in.Status = domain.SectionInactive
			sec, err := f.svc.CreateSection(ctx, in)
			require.NoError(t, err)

			in.Status = domain.SectionActive
			updated, err := f.svc.UpdateSection(ctx, sec.ID, in)

			if tt.wantErr {
				var ise *domain.IllegalStateError
				require.ErrorAs(t, err, &ise)
				assert.Equal(t, "Cannot activate section because parent event is not ACTIVE", ise.Message)

				stored, err := f.store.Sections().Get(ctx, sec.ID)
				require.NoError(t, err)
				assert.Equal(t, domain.SectionInactive, stored.Status)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, domain.SectionActive, updated.Status)
		})
	}
}

func TestUpdateSection_OnlyInactiveToActiveIsGuarded(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ev := f.event(t, "Later", domain.EventUpcoming)

	in := fields("A", 5, 5, ev)
	in.Status = domain.SectionClosed
	sec, err := f.svc.CreateSection(ctx, in)
	require.NoError(t, err)

	in.Status = domain.SectionActive
	_, err = f.svc.UpdateSection(ctx, sec.ID, in)
	assert.NoError(t, err)
}

func TestUpdateSection(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ev := f.event(t, "Final", domain.EventActive)

	a, err := f.svc.CreateSection(ctx, fields("A", 5, 5, ev))
	require.NoError(t, err)
	_, err = f.svc.CreateSection(ctx, fields("B", 5, 5, ev))
	require.NoError(t, err)

	t.Run("missing section", func(t *testing.T) {
		_, err := f.svc.UpdateSection(ctx, 999, fields("A", 1, 1, ev))
		var nf *domain.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "Section not found with ID: 999", nf.Error())
	})

	t.Run("same name is not a duplicate of itself", func(t *testing.T) {
		updated, err := f.svc.UpdateSection(ctx, a.ID, fields("a", 10, 10, ev))
		require.NoError(t, err)
		assert.Equal(t, 100, updated.TotalSeats())
		assert.Equal(t, domain.SectionActive, updated.Status)
	})

	t.Run("rename onto sibling fails", func(t *testing.T) {
		_, err := f.svc.UpdateSection(ctx, a.ID, fields("b", 1, 1, ev))
		assert.ErrorIs(t, err, domain.ErrDuplicate)
	})

	t.Run("seat limit applies", func(t *testing.T) {
		_, err := f.svc.UpdateSection(ctx, a.ID, fields("A", 200, 51, ev))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("terminal parent rejects update", func(t *testing.T) {
		done := f.event(t, "Done", domain.EventCompleted)
		_, err := f.svc.UpdateSection(ctx, a.ID, fields("A", 1, 1, done))
		assert.ErrorIs(t, err, domain.ErrIllegalState)
	})

	t.Run("move to another event", func(t *testing.T) {
		other := f.event(t, "Other", domain.EventActive)
		f.notes.invalidated = nil

		moved, err := f.svc.UpdateSection(ctx, a.ID, fields("B", 1, 1, other))
		require.NoError(t, err)
		assert.Equal(t, other, moved.EventID)
		assert.ElementsMatch(t, []int64{other, ev}, f.notes.invalidated)
	})
}

func TestDeleteSection(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ev := f.event(t, "Final", domain.EventActive)

	sec, err := f.svc.CreateSection(ctx, fields("A", 5, 5, ev))
	require.NoError(t, err)

	err = f.svc.DeleteSection(ctx, 999)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Section not found with ID: 999", nf.Error())

	ticket := f.store.SeedTicket(domain.Ticket{
		Status:    domain.TicketValid,
		Price:     decimal.RequireFromString("49.90"),
		SectionID: sec.ID,
		EventID:   ev,
	})

	err = f.svc.DeleteSection(ctx, sec.ID)
	assert.ErrorIs(t, err, domain.ErrIllegalState)
	require.NotZero(t, ticket.ID)

	other, err := f.svc.CreateSection(ctx, fields("B", 5, 5, ev))
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteSection(ctx, other.ID))

	_, err = f.store.Sections().Get(ctx, other.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
