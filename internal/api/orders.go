package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/a2ztrade/storekit/internal/models"
)

// CreateOrderRequest is everything the checkout flow sends to place an
// order. ClientReference is generated client-side so the same submission
// can be recognized if the transport retry resends it.
type CreateOrderRequest struct {
	Address         models.Address
	Payment         models.Payment
	Lines           []models.CartLine
	ClientReference string
}

// multipartBody flattens the order into a multipart form: address and
// payment fields as plain parts, cart lines as one JSON part, and the
// optional receipt image as a file part.
func (r CreateOrderRequest) multipartBody() ([]byte, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := map[string]string{
		"firstName":        r.Address.FirstName,
		"lastName":         r.Address.LastName,
		"phone":            r.Address.Phone,
		"city":             r.Address.City,
		"area":             r.Address.Area,
		"street":           r.Address.Street,
		"building":         r.Address.Building,
		"floor":            r.Address.Floor,
		"apartment":        r.Address.Apartment,
		"paymentStatus":    r.Payment.Status,
		"paymentMethod":    r.Payment.Method,
		"paymentSubMethod": r.Payment.SubMethod,
		"operationId":      r.Payment.OperationID,
		"clientReference":  r.ClientReference,
		"totalPrice":       models.CartTotal(r.Lines).String(),
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	items, err := json.Marshal(r.Lines)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode cart lines: %w", err)
	}
	if err := w.WriteField("items", string(items)); err != nil {
		return nil, "", err
	}

	if len(r.Payment.ReceiptImage) > 0 {
		name := r.Payment.ReceiptImageName
		if name == "" {
			name = "receipt"
		}
		part, err := w.CreateFormFile("receiptImage", name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(r.Payment.ReceiptImage); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// CreateOrder submits the order as a multipart request and returns the
// server-issued order id.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (string, error) {
	body, contentType, err := req.multipartBody()
	if err != nil {
		return "", fmt.Errorf("failed to build order payload: %w", err)
	}

	respBody, status, err := c.do(ctx, http.MethodPost, "/orders", nil, body, contentType)
	if err != nil {
		return "", err
	}
	if status >= 400 {
		return "", apiError(status, respBody, true)
	}

	orderID := gjson.GetBytes(respBody, "data.orderId").String()
	if orderID == "" {
		orderID = gjson.GetBytes(respBody, "orderId").String()
	}
	if orderID == "" {
		return "", &Error{Kind: KindUnknown, StatusCode: status, Message: msgServerError, Err: fmt.Errorf("order response has no order id")}
	}
	return orderID, nil
}

// ListOrders fetches the authenticated user's order history.
func (c *Client) ListOrders(ctx context.Context) ([]models.Order, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/users/orders", nil, nil, "")
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apiError(status, body, true)
	}

	raw := gjson.GetBytes(body, "data")
	if !raw.Exists() || !raw.IsArray() {
		return nil, nil
	}

	var orders []models.Order
	if err := json.Unmarshal([]byte(raw.Raw), &orders); err != nil {
		return nil, &Error{Kind: KindUnknown, StatusCode: status, Message: msgServerError, Err: err}
	}
	return orders, nil
}
