package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"sudooom.storefront/internal/model"
)

func (c *Client) ListNotifications(ctx context.Context, page, pageSize int) (*model.Page[model.Notification], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))

	var out model.Page[model.Notification]
	if err := c.do(ctx, http.MethodGet, "/notifications", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/notifications/"+url.PathEscape(id)+"/read", nil, struct{}{}, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPatch, "/notifications/read-all", nil, struct{}{}, nil)
}

func (c *Client) GetUnreadNotificationCount(ctx context.Context) (*model.UnreadCount, error) {
	var out model.UnreadCount
	if err := c.do(ctx, http.MethodGet, "/notifications/unread-count", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
