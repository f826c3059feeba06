package api

import (
	"context"
	"net/http"
	"net/url"

	"sudooom.storefront/internal/model"
)

// UpdateOrderStatus asks the backend to move an order to status. The backend
// re-validates the transition and its answer is final.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	var order model.Order
	path := "/orders/" + url.PathEscape(orderID) + "/status"
	if err := c.do(ctx, http.MethodPatch, path, nil, model.UpdateOrderStatusRequest{Status: status}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
