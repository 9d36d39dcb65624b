package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancelExecution(t *testing.T) {
	cm := NewCancelManager()
	ctx, cancel := context.WithCancelCause(context.Background())
	cm.AddExecution("exec-1", cancel)

	assert.Equal(t, []string{"exec-1"}, cm.GetActiveExecutions())
	assert.True(t, cm.CancelExecution("exec-1"))
	assert.ErrorIs(t, context.Cause(ctx), ErrStopped)
	assert.Empty(t, cm.GetActiveExecutions())

	assert.False(t, cm.CancelExecution("exec-1"))
	assert.False(t, cm.CancelExecution("never-registered"))
}

func TestRemoveExecution(t *testing.T) {
	cm := NewCancelManager()
	ctx, cancel := context.WithCancelCause(context.Background())
	cm.AddExecution("exec-1", cancel)
	cm.RemoveExecution("exec-1")
	cm.RemoveExecution("exec-1")

	assert.False(t, cm.CancelExecution("exec-1"))
	assert.NoError(t, ctx.Err())
}

func TestCancelAll(t *testing.T) {
	cm := NewCancelManager()
	var contexts []context.Context
	for _, id := range []string{"a", "b", "c"} {
		ctx, cancel := context.WithCancelCause(context.Background())
		cm.AddExecution(id, cancel)
		contexts = append(contexts, ctx)
	}

	cause := errors.New("going away")
	assert.Equal(t, 3, cm.CancelAll(cause))
	for _, ctx := range contexts {
		assert.ErrorIs(t, context.Cause(ctx), cause)
	}
	assert.Zero(t, cm.CancelAll(cause))
}
