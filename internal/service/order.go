package service

import (
	"context"
	"log/slog"

	"sudooom.storefront/internal/metrics"
	"sudooom.storefront/internal/model"
	"sudooom.storefront/internal/notify"
	"sudooom.storefront/internal/orderstate"
	"sudooom.storefront/internal/querycache"
	appErrors "sudooom.storefront/pkg/errors"
)

// OrderService order status changes: local guard first, then the backend,
// whose answer wins.
type OrderService struct {
	api     OrderAPI
	inv     querycache.Invalidator
	toaster notify.Toaster
	logger  *slog.Logger
}

// NewOrderService creates an OrderService. inv may be nil.
func NewOrderService(api OrderAPI, inv querycache.Invalidator, toaster notify.Toaster, logger *slog.Logger) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	if toaster == nil {
		toaster = notify.NewLogToaster(logger)
	}
	return &OrderService{
		api:     api,
		inv:     inv,
		toaster: toaster,
		logger:  logger.With("component", "orders"),
	}
}

// UpdateStatus moves order orderID from current to next.
//
// An illegal transition is rejected locally without a request and returns
// ErrTransitionNotAllowed. A backend refusal returns ErrTransitionRejected
// wrapping the cause. Transport failures are returned as they are. Every
// outcome shows a toast.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, current, next model.OrderStatus) (*model.Order, error) {
	if err := orderstate.Validate(current, next); err != nil {
		metrics.ObserveTransition(metrics.OutcomeLocalRejected)
		s.logger.Info("Transition rejected locally", "order_id", orderID, "from", current, "to", next)
		s.toaster.Show(notify.Toast{Level: notify.LevelError, Title: "Order " + orderID, Body: appErrors.GetMessage(err)})
		return nil, err
	}

	order, err := s.api.UpdateOrderStatus(ctx, orderID, next)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrRequestRejected) || appErrors.Is(err, appErrors.ErrUnauthorized) {
			metrics.ObserveTransition(metrics.OutcomeRemoteRejected)
			s.logger.Warn("Transition rejected by server", "order_id", orderID, "from", current, "to", next, "error", err)
			rejected := appErrors.ErrTransitionRejected.Wrap(err)
			if msg := appErrors.GetMessage(err); msg != appErrors.ErrRequestRejected.Message {
				rejected = rejected.WithMessage(msg)
			}
			s.toaster.Show(notify.Toast{Level: notify.LevelError, Title: "Order " + orderID, Body: rejected.Message})
			return nil, rejected
		}

		metrics.ObserveTransition(metrics.OutcomeFailed)
		s.logger.Error("Order status update failed", "order_id", orderID, "error", err)
		s.toaster.Show(notify.Toast{Level: notify.LevelError, Title: "Order " + orderID, Body: appErrors.GetMessage(err)})
		return nil, err
	}

	if order.Status == "" {
		order.Status = next
	}
	metrics.ObserveTransition(metrics.OutcomeApplied)
	s.logger.Info("Order status updated", "order_id", orderID, "from", current, "to", order.Status)
	s.toaster.Show(notify.Toast{
		Level: notify.LevelSuccess,
		Title: "Order " + orderID,
		Body:  "Status changed to " + string(order.Status),
	})
	if s.inv != nil {
		s.inv.Invalidate(ctx, querycache.OrdersKey())
	}
	return order, nil
}
