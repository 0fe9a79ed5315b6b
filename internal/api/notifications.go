package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/a2ztrade/storekit/internal/models"
)

// NotificationList is the notification center snapshot.
type NotificationList struct {
	UnreadCount   int
	Notifications []models.Notification
}

// Notifications fetches the user's notifications with the unread counter.
func (c *Client) Notifications(ctx context.Context) (*NotificationList, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/notifications", nil, nil, "")
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apiError(status, body, true)
	}

	list := &NotificationList{
		UnreadCount: int(gjson.GetBytes(body, "unreadCount").Int()),
	}

	raw := gjson.GetBytes(body, "data")
	if raw.Exists() && raw.IsArray() {
		if err := json.Unmarshal([]byte(raw.Raw), &list.Notifications); err != nil {
			return nil, &Error{Kind: KindUnknown, StatusCode: status, Message: msgServerError, Err: err}
		}
	}
	return list, nil
}

// MarkNotificationRead flags one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	payload := struct {
		ID string `json:"notificationId"`
	}{ID: id}

	body, status, err := c.doJSON(ctx, http.MethodPatch, "/notifications", nil, payload)
	if err != nil {
		return err
	}
	if status >= 400 {
		return apiError(status, body, true)
	}
	return nil
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	payload := struct {
		ID string `json:"notificationId"`
	}{ID: id}

	body, status, err := c.doJSON(ctx, http.MethodDelete, "/notifications", nil, payload)
	if err != nil {
		return err
	}
	if status >= 400 {
		return apiError(status, body, true)
	}
	return nil
}
