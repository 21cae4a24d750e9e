package category

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kirinyoku/tixcore/internal/domain"
	"github.com/kirinyoku/tixcore/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryLifecycle(t *testing.T) {
	store := memory.NewStore()
	svc := New(store, nil, nil)
	ctx := context.Background()

	jazz, err := svc.Create(ctx, "Jazz")
	require.NoError(t, err)
	rock, err := svc.Create(ctx, "Rock")
	require.NoError(t, err)

	got, err := svc.GetByName(ctx, "Jazz")
	require.NoError(t, err)
	assert.Equal(t, jazz.ID, got.ID)

	_, err = svc.GetByName(ctx, "Blues")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Category with name 'Blues' not found", nf.Error())

	_, err = svc.Create(ctx, "Jazz")
	var de *domain.DuplicateError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Category with name 'Jazz' already exists", de.Message)

	// Renaming to its own name is allowed.
	_, err = svc.Update(ctx, jazz.ID, "Jazz")
	require.NoError(t, err)

	_, err = svc.Update(ctx, jazz.ID, "Rock")
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Another category with the same name already exists", de.Message)

	updated, err := svc.Update(ctx, rock.ID, "Rock & Roll")
	require.NoError(t, err)
	assert.Equal(t, "Rock & Roll", updated.Name)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, svc.Delete(ctx, rock.ID))
	_, err = svc.Get(ctx, rock.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCategoryValidation(t *testing.T) {
	svc := New(memory.NewStore(), nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "  ")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Category name is required", ve.Message)

	_, err = svc.Create(ctx, strings.Repeat("c", 101))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Update(ctx, 42, "Opera")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.Delete(ctx, 42)
	require.ErrorAs(t, err, new(*domain.NotFoundError))
}

func TestDeleteReferencedCategory(t *testing.T) {
	store := memory.NewStore()
	svc := New(store, nil, nil)
	ctx := context.Background()

	c, err := svc.Create(ctx, "Theatre")
	require.NoError(t, err)

	_, err = store.Events().Create(ctx, &domain.Event{
		Name:       "Hamlet",
		Date:       time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		Location:   "Globe",
		Capacity:   10,
		Status:     domain.EventUpcoming,
		CategoryID: c.ID,
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrIllegalState)

	_, err = svc.Get(ctx, c.ID)
	assert.NoError(t, err)
}
