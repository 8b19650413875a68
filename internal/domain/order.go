package domain

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ParseOrderStatus accepts only the exact status spellings.
func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, st := range orderStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not one of Pending, Processing, Shipped, Delivered or Cancelled", ErrInvalidStatus, s)
}

// Notifies reports whether moving into this status emails the customer.
func (s OrderStatus) Notifies() bool {
	return s == OrderStatusShipped || s == OrderStatusDelivered || s == OrderStatusCancelled
}

// OrderLine has the same shape as CartLine and is never modified after
// the order is created.
type OrderLine struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
	Pack      string          `json:"pack"`
	Image     string          `json:"image"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

const DefaultCountry = "India"

type ShippingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Apartment string `json:"apartment,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

var (
	zipPattern   = regexp.MustCompile(`^\d{6}$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
)

// Normalize trims every field and fills in the default country.
func (a ShippingAddress) Normalize() ShippingAddress {
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.LastName = strings.TrimSpace(a.LastName)
	a.Address = strings.TrimSpace(a.Address)
	a.Apartment = strings.TrimSpace(a.Apartment)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.ZipCode = strings.TrimSpace(a.ZipCode)
	a.Country = strings.TrimSpace(a.Country)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	if a.Country == "" {
		a.Country = DefaultCountry
	}
	return a
}

// Validate expects a normalized address.
func (a ShippingAddress) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"first name", a.FirstName},
		{"last name", a.LastName},
		{"address", a.Address},
		{"city", a.City},
		{"state", a.State},
		{"zip code", a.ZipCode},
		{"phone", a.Phone},
		{"email", a.Email},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidShippingAddress, r.field)
		}
	}
	if !zipPattern.MatchString(a.ZipCode) {
		return fmt.Errorf("%w: zip code must be 6 digits", ErrInvalidShippingAddress)
	}
	if !phonePattern.MatchString(a.Phone) {
		return fmt.Errorf("%w: phone number must be 10 digits", ErrInvalidShippingAddress)
	}
	if addr, err := mail.ParseAddress(a.Email); err != nil || addr.Address != a.Email {
		return fmt.Errorf("%w: email is not a valid address", ErrInvalidShippingAddress)
	}
	return nil
}

func (a ShippingAddress) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

const PaymentStatusSucceeded = "succeeded"

type PaymentResult struct {
	ID           string `json:"id,omitempty"`
	Status       string `json:"status,omitempty"`
	UpdateTime   string `json:"update_time,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
}

type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_id"`
	UserID          string          `json:"user_id"`
	Items           []OrderLine     `json:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentResult   *PaymentResult  `json:"payment_result,omitempty"`
	ItemsPrice      decimal.Decimal `json:"items_price"`
	ShippingPrice   decimal.Decimal `json:"shipping_price"`
	TaxPrice        decimal.Decimal `json:"tax_price"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	IsPaid          bool            `json:"is_paid"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	Status          OrderStatus     `json:"order_status"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type PlaceOrderRequest struct {
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentResult   *PaymentResult  `json:"payment_result,omitempty"`
}

// Validate normalizes the request in place and checks it.
func (r *PlaceOrderRequest) Validate() error {
	r.ShippingAddress = r.ShippingAddress.Normalize()
	if err := r.ShippingAddress.Validate(); err != nil {
		return err
	}
	r.PaymentMethod = strings.TrimSpace(r.PaymentMethod)
	if r.PaymentMethod == "" {
		return fmt.Errorf("%w: payment method is required", ErrInvalidPaymentMethod)
	}
	return nil
}

// NewOrder builds a Pending order from already snapshotted lines. The
// payment result is copied so the caller's value cannot leak into it.
func NewOrder(userID, orderNumber string, lines []OrderLine, req PlaceOrderRequest, prices Prices) *Order {
	now := time.Now().UTC()

	order := &Order{
		ID:              uuid.NewString(),
		OrderNumber:     orderNumber,
		UserID:          userID,
		Items:           lines,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      prices.Items,
		ShippingPrice:   prices.Shipping,
		TaxPrice:        prices.Tax,
		TotalPrice:      prices.Total,
		Status:          OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if req.PaymentResult != nil {
		pr := *req.PaymentResult
		if pr.EmailAddress == "" {
			pr.EmailAddress = req.ShippingAddress.Email
		}
		order.PaymentResult = &pr
		if pr.Status == PaymentStatusSucceeded {
			order.IsPaid = true
			order.PaidAt = &now
		}
	}
	return order
}

// UpdateStatus applies a status change. Delivered always restamps
// DeliveredAt. It returns the previous status.
func (o *Order) UpdateStatus(status OrderStatus) OrderStatus {
	prev := o.Status
	now := time.Now().UTC()
	o.Status = status
	if status == OrderStatusDelivered {
		o.DeliveredAt = &now
	}
	o.UpdatedAt = now
	return prev
}

// VisibleTo reports whether the identity may read this order.
func (o *Order) VisibleTo(id Identity) bool {
	return id.IsAdmin() || o.UserID == id.UserID
}
