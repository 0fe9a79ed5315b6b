package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment method identifiers accepted by the backend.
const (
	PaymentMethodCash     = "cash"
	PaymentMethodTransfer = "transfer"
	PaymentMethodWallet   = "wallet"
)

// Payment status values for a submitted order.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// CartLine is one product position in the cart being checked out.
type CartLine struct {
	ProductID string          `json:"product"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
}

// Subtotal is UnitPrice multiplied by Quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Payment describes how an order is paid: method, optional sub-method
// (e.g. a specific wallet), the external operation id for transfers, and an
// optional receipt image uploaded alongside the order.
type Payment struct {
	Status      string `json:"paymentStatus"`
	Method      string `json:"paymentMethod"`
	SubMethod   string `json:"paymentSubMethod,omitempty"`
	OperationID string `json:"operationId,omitempty"`

	// ReceiptImage is sent as a multipart file part, not as JSON.
	ReceiptImage     []byte `json:"-"`
	ReceiptImageName string `json:"-"`
}

// Order is an order as returned by the backend.
type Order struct {
	ID          string          `json:"_id"`
	OrderID     string          `json:"orderId"`
	Status      string          `json:"status"`
	Total       decimal.Decimal `json:"totalPrice"`
	Lines       []CartLine      `json:"items"`
	Address     Address         `json:"address"`
	PaymentInfo Payment         `json:"payment"`
	CreatedAt   time.Time       `json:"createdAt,omitzero"`
}

// CartTotal sums the subtotals of all lines.
func CartTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
