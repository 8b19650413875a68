package domain

import "github.com/shopspring/decimal"

var (
	FreeShippingThreshold = decimal.NewFromInt(500)
	FlatShippingFee       = decimal.NewFromInt(50)
	TaxRate               = decimal.RequireFromString("0.05")
)

type Prices struct {
	Items    decimal.Decimal `json:"items_price"`
	Shipping decimal.Decimal `json:"shipping_price"`
	Tax      decimal.Decimal `json:"tax_price"`
	Total    decimal.Decimal `json:"total_price"`
}

// CalculatePrices derives shipping, tax and total from the items subtotal.
// Orders strictly above the threshold ship free.
func CalculatePrices(itemsPrice decimal.Decimal) Prices {
	shipping := FlatShippingFee
	if itemsPrice.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := itemsPrice.Mul(TaxRate).Round(2)
	total := itemsPrice.Add(shipping).Add(tax).Round(2)

	return Prices{
		Items:    itemsPrice,
		Shipping: shipping,
		Tax:      tax,
		Total:    total,
	}
}
