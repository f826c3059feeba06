// Package orderstate holds the order status transition table.
// The backend enforces the same rules; this check only saves a round-trip.
package orderstate

import (
	"sudooom.storefront/internal/model"
	appErrors "sudooom.storefront/pkg/errors"
)

// Table maps a status to the statuses it may move to.
type Table map[model.OrderStatus][]model.OrderStatus

// transitions shipping cannot be cancelled; completed and cancel are terminal.
var transitions = Table{
	model.OrderStatusPending:   {model.OrderStatusConfirmed, model.OrderStatusShipping, model.OrderStatusCancel},
	model.OrderStatusConfirmed: {model.OrderStatusShipping, model.OrderStatusCancel},
	model.OrderStatusShipping:  {model.OrderStatusCompleted},
	model.OrderStatusCompleted: nil,
	model.OrderStatusCancel:    nil,
}

// CanTransition reports whether current may move to next.
// Defined for every pair; unknown statuses and self transitions are false.
func CanTransition(current, next model.OrderStatus) bool {
	return transitions.allows(current, next)
}

// Next returns the statuses reachable from current in one step.
func Next(current model.OrderStatus) []model.OrderStatus {
	allowed := transitions[current]
	out := make([]model.OrderStatus, len(allowed))
	copy(out, allowed)
	return out
}

// IsTerminal reports whether status has no outgoing transitions.
func IsTerminal(status model.OrderStatus) bool {
	return status.Valid() && len(transitions[status]) == 0
}

// Validate is CanTransition as an error.
func Validate(current, next model.OrderStatus) error {
	if !current.Valid() || !next.Valid() {
		return appErrors.ErrUnknownStatus
	}
	if !CanTransition(current, next) {
		return appErrors.ErrTransitionNotAllowed.WithMessage(
			"Cannot change order status from " + string(current) + " to " + string(next))
	}
	return nil
}

// Default returns a copy of the client-side table.
func Default() Table {
	out := make(Table, len(transitions))
	for from, to := range transitions {
		out[from] = append([]model.OrderStatus(nil), to...)
	}
	return out
}

func (t Table) allows(current, next model.OrderStatus) bool {
	if current == next {
		return false
	}
	for _, s := range t[current] {
		if s == next {
			return true
		}
	}
	return false
}
