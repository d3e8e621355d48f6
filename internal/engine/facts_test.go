package engine

import (
	"context"
	"testing"
	"time"

	"github.com/openroam/pricing/internal/domain/bundle"
	ierr "github.com/openroam/pricing/internal/errors"
	"github.com/openroam/pricing/internal/logger"
	"github.com/openroam/pricing/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBundle(id string, validityDays int, price float64) *bundle.Bundle {
	return &bundle.Bundle{
		ID:           id,
		GroupName:    "Standard Unlimited Essential",
		Countries:    []string{"US"},
		ValidityDays: validityDays,
		Price:        decimal.NewFromFloat(price),
		Currency:     "USD",
	}
}

func TestSelectBundle(t *testing.T) {
	catalog := []*bundle.Bundle{
		testBundle("b30", 30, 15.00),
		testBundle("b7", 7, 5.00),
		testBundle("b10", 10, 7.00),
	}

	t.Run("exact match wins", func(t *testing.T) {
		selected, err := SelectBundle(catalog, 7)
		require.NoError(t, err)
		assert.Equal(t, "b7", selected.ID)
	})

	t.Run("smallest sufficient upgrade", func(t *testing.T) {
		selected, err := SelectBundle(catalog, 8)
		require.NoError(t, err)
		assert.Equal(t, "b10", selected.ID)
	})

	t.Run("no candidate is a hard stop", func(t *testing.T) {
		_, err := SelectBundle(catalog, 45)
		require.Error(t, err)
		assert.True(t, ierr.IsNotFound(err))
	})

	t.Run("empty catalog", func(t *testing.T) {
		_, err := SelectBundle(nil, 7)
		require.Error(t, err)
		assert.True(t, ierr.IsNotFound(err))
	})
}

func TestPreviousBundle(t *testing.T) {
	b7 := testBundle("b7", 7, 5.00)
	b10 := testBundle("b10", 10, 7.00)
	b30 := testBundle("b30", 30, 15.00)
	catalog := []*bundle.Bundle{b30, b7, b10}

	assert.Equal(t, b10, PreviousBundle(catalog, b30))
	assert.Equal(t, b7, PreviousBundle(catalog, b10))
	assert.Nil(t, PreviousBundle(catalog, b7))
}

func TestRegisterBundleFacts(t *testing.T) {
	ctx := context.Background()
	catalog := []*bundle.Bundle{
		testBundle("b7", 7, 5.00),
		testBundle("b10", 10, 7.00),
	}

	a := NewAlmanac(logger.GetLogger())
	RegisterBundleFacts(a, catalog, 8)

	selected, err := a.FactValue(ctx, FactSelectedBundle)
	require.NoError(t, err)
	assert.Equal(t, "b10", selected.(*bundle.Bundle).ID)

	unused, err := a.FactValue(ctx, FactUnusedDays)
	require.NoError(t, err)
	assert.Equal(t, 2, unused)

	exact, err := a.FactValue(ctx, FactIsExactMatch)
	require.NoError(t, err)
	assert.Equal(t, false, exact)

	previous, err := a.FactValue(ctx, FactPreviousBundle)
	require.NoError(t, err)
	assert.Equal(t, "b7", previous.(*bundle.Bundle).ID)
}

func TestRegisterRequestFacts(t *testing.T) {
	ctx := context.Background()
	facts := &types.RequestFacts{
		Group:         "Standard Unlimited Essential",
		RequestedDays: 7,
		Country:       "US",
		PaymentMethod: types.PaymentMethodIsraeliCard,
		CouponCode:    "SUMMER10",
	}

	// 2026-01-02 is a Friday
	now := time.Date(2026, 1, 2, 14, 30, 0, 0, time.UTC)

	a := NewAlmanac(logger.GetLogger())
	RegisterRequestFacts(a, facts, now)

	group, err := a.FactValue(ctx, FactGroup)
	require.NoError(t, err)
	assert.Equal(t, "Standard Unlimited Essential", group)

	hasCoupon, err := a.FactValue(ctx, FactHasCoupon)
	require.NoError(t, err)
	assert.Equal(t, true, hasCoupon)

	quantity, err := a.FactValue(ctx, FactQuantity)
	require.NoError(t, err)
	assert.Equal(t, 1, quantity)

	hour, err := a.FactValue(ctx, FactHourOfDay)
	require.NoError(t, err)
	assert.Equal(t, 14, hour)

	weekend, err := a.FactValue(ctx, FactIsWeekend)
	require.NoError(t, err)
	assert.Equal(t, true, weekend)
}
