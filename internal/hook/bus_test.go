package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFireOrder(t *testing.T) {
	b := NewBus()
	var got []string
	rec := func(s string) Func {
		return func(context.Context, ...any) error { got = append(got, s); return nil }
	}

	b.On("e", rec("default-1"))
	b.OnPriority("e", 1, rec("early"))
	b.On("e", rec("default-2"))
	b.OnPriority("e", 99, rec("late"))

	require.NoError(t, b.Fire(context.Background(), "e"))
	assert.Equal(t, []string{"early", "default-1", "default-2", "late"}, got)
}

func TestFireJoinsErrors(t *testing.T) {
	b := NewBus()
	e1, e2 := errors.New("one"), errors.New("two")
	ran := 0
	b.On("e", func(context.Context, ...any) error { ran++; return e1 })
	b.On("e", func(context.Context, ...any) error { ran++; return nil })
	b.On("e", func(context.Context, ...any) error { ran++; return e2 })

	err := b.Fire(context.Background(), "e")
	assert.Equal(t, 3, ran)
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)
}

func TestFirePassesArgs(t *testing.T) {
	b := NewBus()
	var seen []any
	b.On("e", func(_ context.Context, args ...any) error { seen = args; return nil })

	require.NoError(t, b.Fire(context.Background(), "e", "a", 2))
	assert.Equal(t, []any{"a", 2}, seen)
}

func TestHasAndUnknownEvent(t *testing.T) {
	b := NewBus()
	assert.False(t, b.Has(Init))
	assert.NoError(t, b.Fire(context.Background(), Init))

	b.On(Init, func(context.Context, ...any) error { return nil })
	assert.True(t, b.Has(Init))
}

func TestFireCanceled(t *testing.T) {
	b := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	ran := 0
	b.On("e", func(context.Context, ...any) error { ran++; cancel(); return nil })
	b.On("e", func(context.Context, ...any) error { ran++; return nil })

	err := b.Fire(ctx, "e")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, ran)
}

func TestRegisterDuringFire(t *testing.T) {
	b := NewBus()
	b.On("e", func(context.Context, ...any) error {
		b.On("e", func(context.Context, ...any) error { return nil })
		return nil
	})
	require.NoError(t, b.Fire(context.Background(), "e"))
	assert.True(t, b.Has("e"))
}
