package engine

import (
	"context"
	"testing"

	ierr "github.com/openroam/pricing/internal/errors"
	"github.com/openroam/pricing/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlmanac_ConstantFacts(t *testing.T) {
	ctx := context.Background()
	a := NewAlmanac(logger.GetLogger())
	a.AddFact("group", "Europe Unlimited")

	value, err := a.FactValue(ctx, "group")
	require.NoError(t, err)
	assert.Equal(t, "Europe Unlimited", value)
	assert.True(t, a.HasFact("group"))
	assert.False(t, a.HasFact("missing"))
}

func TestAlmanac_ResolverMemoized(t *testing.T) {
	ctx := context.Background()
	a := NewAlmanac(logger.GetLogger())

	calls := 0
	a.AddResolver("expensive", func(ctx context.Context, a *Almanac) (any, error) {
		calls++
		return 42, nil
	})

	for i := 0; i < 3; i++ {
		value, err := a.FactValue(ctx, "expensive")
		require.NoError(t, err)
		assert.Equal(t, 42, value)
	}
	assert.Equal(t, 1, calls)
}

func TestAlmanac_ResolverDAG(t *testing.T) {
	ctx := context.Background()
	a := NewAlmanac(logger.GetLogger())

	a.AddFact("base", 10)
	a.AddResolver("doubled", func(ctx context.Context, a *Almanac) (any, error) {
		base, err := a.FactValue(ctx, "base")
		if err != nil {
			return nil, err
		}
		return base.(int) * 2, nil
	})
	a.AddResolver("quadrupled", func(ctx context.Context, a *Almanac) (any, error) {
		doubled, err := a.FactValue(ctx, "doubled")
		if err != nil {
			return nil, err
		}
		return doubled.(int) * 2, nil
	})

	value, err := a.FactValue(ctx, "quadrupled")
	require.NoError(t, err)
	assert.Equal(t, 40, value)
}

func TestAlmanac_CycleDetection(t *testing.T) {
	ctx := context.Background()
	a := NewAlmanac(logger.GetLogger())

	a.AddResolver("a", func(ctx context.Context, al *Almanac) (any, error) {
		return al.FactValue(ctx, "b")
	})
	a.AddResolver("b", func(ctx context.Context, al *Almanac) (any, error) {
		return al.FactValue(ctx, "a")
	})

	_, err := a.FactValue(ctx, "a")
	require.Error(t, err)
}

func TestAlmanac_UnknownFact(t *testing.T) {
	ctx := context.Background()
	a := NewAlmanac(logger.GetLogger())

	_, err := a.FactValue(ctx, "ghost")
	require.Error(t, err)
	assert.True(t, ierr.IsNotFound(err))
}

func TestAlmanac_ResolverErrorClassification(t *testing.T) {
	ctx := context.Background()
	a := NewAlmanac(logger.GetLogger())

	a.AddResolver("broken", func(ctx context.Context, a *Almanac) (any, error) {
		return nil, ierr.NewError("backend exploded").Mark(ierr.ErrDatabase)
	})
	a.AddResolver("selection", func(ctx context.Context, a *Almanac) (any, error) {
		return nil, ierr.NewError("no bundle satisfies the requested duration").Mark(ierr.ErrNotFound)
	})

	// Generic failures are wrapped as system errors
	_, err := a.FactValue(ctx, "broken")
	require.Error(t, err)
	assert.True(t, ierr.IsSystem(err))
	assert.False(t, ierr.IsNotFound(err))

	// Already-classified not-found errors pass through unchanged
	_, err = a.FactValue(ctx, "selection")
	require.Error(t, err)
	assert.True(t, ierr.IsNotFound(err))
}

func TestAlmanac_NilFactValueIsNotAnError(t *testing.T) {
	ctx := context.Background()
	a := NewAlmanac(logger.GetLogger())
	a.AddFact("previousBundle", nil)

	value, err := a.FactValue(ctx, "previousBundle")
	require.NoError(t, err)
	assert.Nil(t, value)
}
