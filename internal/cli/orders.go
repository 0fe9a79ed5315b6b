package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/a2ztrade/storekit/internal/models"
)

// Orders prints the order history.
func (a *App) Orders(ctx context.Context) error {
	orders, err := a.account.Orders(ctx)
	if err != nil {
		a.printErr(err)
		return err
	}

	if len(orders) == 0 {
		fmt.Fprintln(a.out, "No orders yet.")
		return nil
	}
	for _, o := range orders {
		fmt.Fprintf(a.out, "%s  %-12s  %s\n", o.OrderID, o.Status, o.Total.StringFixed(2))
	}
	return nil
}

// Add puts a product line into the cart: add <product-id> <name> <qty> <price>.
func (a *App) Add(ctx context.Context, args []string) error {
	if len(args) < 4 {
		fmt.Fprintln(a.out, "Usage: add <product-id> <name> <qty> <unit-price>")
		return nil
	}

	qty, err := strconv.Atoi(args[len(args)-2])
	if err != nil || qty <= 0 {
		fmt.Fprintln(a.out, "quantity must be a positive number")
		return nil
	}
	price, err := decimal.NewFromString(args[len(args)-1])
	if err != nil {
		fmt.Fprintln(a.out, "unit price must be a number")
		return nil
	}

	name := ""
	for _, part := range args[1 : len(args)-2] {
		if name != "" {
			name += " "
		}
		name += part
	}

	a.cart = append(a.cart, models.CartLine{
		ProductID: args[0],
		Name:      name,
		Quantity:  qty,
		UnitPrice: price,
	})
	fmt.Fprintf(a.out, "Added %dx %s\n", qty, name)
	return nil
}

// Cart prints the current cart and its total.
func (a *App) Cart(ctx context.Context) error {
	if len(a.cart) == 0 {
		fmt.Fprintln(a.out, "Cart is empty.")
		return nil
	}
	for _, l := range a.cart {
		fmt.Fprintf(a.out, "%dx %-30s %s\n", l.Quantity, l.Name, l.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(a.out, "Total: %s\n", models.CartTotal(a.cart).StringFixed(2))
	return nil
}

// Checkout walks the user through address and payment selection, then
// submits the order.
func (a *App) Checkout(ctx context.Context) error {
	if len(a.cart) == 0 {
		fmt.Fprintln(a.out, "Cart is empty, add something first.")
		return nil
	}

	user := a.session.User(ctx)
	if user == nil || len(user.Addresses) == 0 {
		fmt.Fprintln(a.out, "No saved addresses; add one in your profile first.")
		return nil
	}

	for i, addr := range user.Addresses {
		fmt.Fprintf(a.out, "%d. %s, %s, %s\n", i+1, addr.City, addr.Area, addr.Street)
	}
	choice, err := GetSimpleText(a.reader, "Pick a delivery address", a.out)
	if err != nil {
		return err
	}
	idx, err := strconv.Atoi(choice)
	if err != nil || idx < 1 || idx > len(user.Addresses) {
		fmt.Fprintln(a.out, "invalid address choice")
		return nil
	}

	method, err := GetSimpleText(a.reader, "Payment method (cash/transfer/wallet)", a.out)
	if err != nil {
		return err
	}
	payment := models.Payment{Status: models.PaymentStatusPending, Method: method}
	if method == models.PaymentMethodTransfer {
		if payment.OperationID, err = GetSimpleText(a.reader, "Transfer operation id", a.out); err != nil {
			return err
		}
	}

	flow := a.newCheckout()
	flow.SelectAddress(user.Addresses[idx-1])
	flow.SelectPayment(payment)

	orderID, err := flow.Submit(ctx)
	if err != nil {
		fmt.Fprintln(a.out, flow.FailureMessage())
		return err
	}

	a.cart = nil
	fmt.Fprintf(a.out, "Order placed: %s\n", orderID)
	return nil
}
