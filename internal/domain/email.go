package domain

import (
	"fmt"
	"strings"
)

type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	// OrderID and UserID tag the message for delivery records.
	OrderID string `json:"order_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

func OrderConfirmationEmail(store string, o *Order) Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", o.ShippingAddress.FirstName)
	fmt.Fprintf(&b, "Thank you for shopping with %s. We have received your order %s.\n\n", store, o.OrderNumber)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "  %s (%s) x %d  %s\n", it.Name, it.Pack, it.Quantity,
			it.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "\nItems: %s\n", o.ItemsPrice.StringFixed(2))
	fmt.Fprintf(&b, "Shipping: %s\n", o.ShippingPrice.StringFixed(2))
	fmt.Fprintf(&b, "Tax: %s\n", o.TaxPrice.StringFixed(2))
	fmt.Fprintf(&b, "Total: %s\n\n", o.TotalPrice.StringFixed(2))
	fmt.Fprintf(&b, "We will let you know when it ships.\n\n%s\n", store)

	return Email{
		To:      o.ShippingAddress.Email,
		Subject: fmt.Sprintf("Your %s Order Confirmation (#%s)", store, o.OrderNumber),
		Text:    b.String(),
		OrderID: o.OrderNumber,
		UserID:  o.UserID,
	}
}

func OrderStatusEmail(store string, o *Order) Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", o.ShippingAddress.FirstName)
	fmt.Fprintf(&b, "The status of your order %s has been updated to: %s.\n", o.OrderNumber, o.Status)
	switch o.Status {
	case OrderStatusShipped:
		b.WriteString("It is now on its way to you!\n")
	case OrderStatusDelivered:
		b.WriteString("Your order has been delivered. Enjoy!\n")
	}
	fmt.Fprintf(&b, "\n%s\n", store)

	return Email{
		To:      o.ShippingAddress.Email,
		Subject: fmt.Sprintf("Your %s Order Status Update (#%s)", store, o.OrderNumber),
		Text:    b.String(),
		OrderID: o.OrderNumber,
		UserID:  o.UserID,
	}
}
