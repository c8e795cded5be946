package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusValid(t *testing.T) {
	for _, s := range []OrderStatus{StatusBasket, StatusNew, StatusConfirmed, StatusAssembled, StatusSent, StatusDelivered, StatusCanceled} {
		assert.True(t, s.Valid(), "status %q should be valid", s)
	}
	assert.False(t, OrderStatus("shipped").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{StatusBasket, StatusNew, true},
		{StatusBasket, StatusConfirmed, false},
		{StatusBasket, StatusCanceled, true},
		{StatusNew, StatusConfirmed, true},
		{StatusNew, StatusSent, true}, // forward stages may be skipped
		{StatusConfirmed, StatusAssembled, true},
		{StatusAssembled, StatusSent, true},
		{StatusSent, StatusDelivered, true},
		{StatusSent, StatusConfirmed, false}, // no moving backward
		{StatusDelivered, StatusNew, false},
		{StatusDelivered, StatusCanceled, false},
		{StatusCanceled, StatusNew, false},
		{StatusCanceled, StatusCanceled, false},
		{StatusConfirmed, StatusCanceled, true},
		{StatusNew, StatusBasket, false},
		{StatusNew, OrderStatus("bogus"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCanceled.Terminal())
	assert.False(t, StatusBasket.Terminal())
	assert.False(t, StatusSent.Terminal())
}
