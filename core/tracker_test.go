package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPendingCallsEmpty(t *testing.T) {
	p := NewPendingCalls()
	assert.Equal(t, UnknownInput, p.TakeForDisplay("call_1"))
	assert.Equal(t, UnknownInput, p.TakeForDisplay(""))
}

func TestPendingCallsKeyed(t *testing.T) {
	p := NewPendingCalls()
	p.Set("a", `{"q":"one"}`)
	p.Set("b", `{"q":"two"}`)
	assert.Equal(t, 2, p.Len())

	assert.Equal(t, `{"q":"one"}`, p.TakeForDisplay("a"))
	assert.Equal(t, `{"q":"two"}`, p.TakeForDisplay("b"))
	assert.Zero(t, p.Len())
}

func TestPendingCallsOverwrite(t *testing.T) {
	p := NewPendingCalls()
	p.Set("a", "first")
	p.Set("a", "second")
	assert.Equal(t, "second", p.TakeForDisplay("a"))
}

func TestPendingCallsFallsBackToLast(t *testing.T) {
	p := NewPendingCalls()
	p.Set("a", "first")
	p.Set("", "latest")

	assert.Equal(t, "latest", p.TakeForDisplay("missing"))
	assert.Equal(t, "latest", p.TakeForDisplay(""))
	assert.Equal(t, "first", p.TakeForDisplay("a"))
	// A released keyed entry falls back too.
	assert.Equal(t, "latest", p.TakeForDisplay("a"))
}
