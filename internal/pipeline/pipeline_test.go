package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_OrdersStages(t *testing.T) {
	var got []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			got = append(got, name)
			return nil
		}
	}

	err := New().
		Add(Persist, record("persist")).
		Add(Duplicates, record("dup")).
		Add(Required, record("required-1")).
		Add(Rules, record("rules")).
		Add(Required, record("required-2")).
		Add(Derive, record("derive")).
		Add(Resolve, record("resolve")).
		Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"required-1", "required-2", "resolve", "rules", "dup", "derive", "persist"}, got)
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	persisted := false

	err := New().
		Add(Persist, func(context.Context) error { persisted = true; return nil }).
		Add(Rules, func(context.Context) error { return boom }).
		Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, persisted)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, Rules, perr.Stage)
	assert.Equal(t, "rules: boom", err.Error())
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := New().Add(Required, func(context.Context) error { called = true; return nil }).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
