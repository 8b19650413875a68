package handlers

import (
	"strings"

	"github.com/jsm-masala/storefront/internal/domain"
)

type AddToCartRequest struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type ShippingAddressRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	Apartment string `json:"apartment"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// PaymentResultRequest is the payment provider's confirmation as relayed
// by the client.
type PaymentResultRequest struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	UpdateTime string `json:"update_time"`
	Payer      *struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer,omitempty"`
}

type PlaceOrderRequest struct {
	ShippingAddress ShippingAddressRequest `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	PaymentResult   *PaymentResultRequest  `json:"paymentResult,omitempty"`
}

func (r PlaceOrderRequest) toDomain() domain.PlaceOrderRequest {
	a := r.ShippingAddress
	req := domain.PlaceOrderRequest{
		ShippingAddress: domain.ShippingAddress{
			FirstName: a.FirstName,
			LastName:  a.LastName,
			Address:   a.Address,
			Apartment: a.Apartment,
			City:      a.City,
			State:     a.State,
			ZipCode:   a.ZipCode,
			Country:   a.Country,
			Phone:     a.Phone,
			Email:     a.Email,
		},
		PaymentMethod: r.PaymentMethod,
	}

	if pr := r.PaymentResult; pr != nil {
		req.PaymentResult = &domain.PaymentResult{
			ID:         pr.ID,
			Status:     strings.TrimSpace(pr.Status),
			UpdateTime: pr.UpdateTime,
		}
		if pr.Payer != nil {
			req.PaymentResult.EmailAddress = strings.TrimSpace(pr.Payer.EmailAddress)
		}
	}
	return req
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type SetStockRequest struct {
	Stock *int `json:"stock"`
}
