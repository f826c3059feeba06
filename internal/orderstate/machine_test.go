package orderstate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sudooom.storefront/internal/model"
	appErrors "sudooom.storefront/pkg/errors"
)

func TestCanTransition_Table(t *testing.T) {
	allowed := map[[2]model.OrderStatus]bool{
		{model.OrderStatusPending, model.OrderStatusConfirmed}:  true,
		{model.OrderStatusPending, model.OrderStatusShipping}:   true,
		{model.OrderStatusPending, model.OrderStatusCancel}:     true,
		{model.OrderStatusConfirmed, model.OrderStatusShipping}: true,
		{model.OrderStatusConfirmed, model.OrderStatusCancel}:   true,
		{model.OrderStatusShipping, model.OrderStatusCompleted}: true,
	}

	// every one of the 25 pairs has a defined answer
	for _, from := range model.OrderStatuses {
		for _, to := range model.OrderStatuses {
			want := allowed[[2]model.OrderStatus{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_TerminalStates(t *testing.T) {
	for _, next := range model.OrderStatuses {
		assert.False(t, CanTransition(model.OrderStatusCompleted, next), "completed -> %s", next)
		assert.False(t, CanTransition(model.OrderStatusCancel, next), "cancel -> %s", next)
	}
	assert.True(t, IsTerminal(model.OrderStatusCompleted))
	assert.True(t, IsTerminal(model.OrderStatusCancel))
	assert.False(t, IsTerminal(model.OrderStatusShipping))
	assert.False(t, IsTerminal(model.OrderStatus("lost")))
}

func TestCanTransition_NoSelfLoop(t *testing.T) {
	for _, s := range model.OrderStatuses {
		assert.False(t, CanTransition(s, s), "%s -> %s", s, s)
	}
}

func TestCanTransition_KnownBadPaths(t *testing.T) {
	tests := []struct {
		name     string
		from, to model.OrderStatus
	}{
		{"cannot cancel once shipped", model.OrderStatusShipping, model.OrderStatusCancel},
		{"shipping cannot go back", model.OrderStatusShipping, model.OrderStatusPending},
		{"completed is final", model.OrderStatusCompleted, model.OrderStatusPending},
		{"unknown current", model.OrderStatus("refunded"), model.OrderStatusPending},
		{"unknown next", model.OrderStatusPending, model.OrderStatus("refunded")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, CanTransition(tt.from, tt.to))
		})
	}
}

func TestNext_ReturnsCopy(t *testing.T) {
	next := Next(model.OrderStatusPending)
	assert.Equal(t, []model.OrderStatus{model.OrderStatusConfirmed, model.OrderStatusShipping, model.OrderStatusCancel}, next)

	next[0] = model.OrderStatusCompleted
	assert.True(t, CanTransition(model.OrderStatusPending, model.OrderStatusConfirmed))
	assert.Empty(t, Next(model.OrderStatusCancel))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(model.OrderStatusConfirmed, model.OrderStatusShipping))

	err := Validate(model.OrderStatusShipping, model.OrderStatusCancel)
	assert.True(t, appErrors.Is(err, appErrors.ErrTransitionNotAllowed))
	assert.Contains(t, appErrors.GetMessage(err), "shipping to cancel")

	err = Validate(model.OrderStatus(""), model.OrderStatusCancel)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnknownStatus))
}
