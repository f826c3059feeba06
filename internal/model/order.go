package model

import (
	"fmt"
	"strings"
)

// OrderStatus order lifecycle tag
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipping  OrderStatus = "shipping"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancel    OrderStatus = "cancel"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipping,
	OrderStatusCompleted,
	OrderStatusCancel,
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseOrderStatus parses a status name, case-insensitively.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown order status %q", raw)
	}
	return s, nil
}

// Order order projection returned by the backend
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId,omitempty"`
	Status    OrderStatus `json:"status"`
	Total     float64     `json:"total,omitempty"`
	CreatedAt Timestamp   `json:"createdAt"`
	UpdatedAt Timestamp   `json:"updatedAt"`
}

// UpdateOrderStatusRequest body of the status update call
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}
