package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine keeps its own copy of price and display fields taken when the
// line was first added.
type CartLine struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
	Pack      string          `json:"pack"`
	Image     string          `json:"image"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	ID        string
	UserID    string
	Items     []CartLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewCart(userID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		Items:     []CartLine{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Line returns the index of the line for (productID, variantID), or -1.
func (c *Cart) Line(productID, variantID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID && it.VariantID == variantID {
			return i
		}
	}
	return -1
}

// LineByVariant returns the index of the first line holding variantID, or -1.
func (c *Cart) LineByVariant(variantID string) int {
	for i, it := range c.Items {
		if it.VariantID == variantID {
			return i
		}
	}
	return -1
}

func (c *Cart) RemoveAt(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.UpdatedAt = time.Now().UTC()
}

func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (c *Cart) TotalItems() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// SnapshotLines deep-copies the cart lines into order lines.
func (c *Cart) SnapshotLines() []OrderLine {
	lines := make([]OrderLine, len(c.Items))
	for i, it := range c.Items {
		lines[i] = OrderLine(it)
	}
	return lines
}

type CartView struct {
	ID         *string         `json:"id"`
	UserID     string          `json:"user_id"`
	Items      []CartLine      `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	TotalItems int             `json:"total_items"`
}

func (c *Cart) View() CartView {
	items := make([]CartLine, len(c.Items))
	copy(items, c.Items)
	id := c.ID
	return CartView{
		ID:         &id,
		UserID:     c.UserID,
		Items:      items,
		TotalPrice: c.TotalPrice(),
		TotalItems: c.TotalItems(),
	}
}

// EmptyCartView is returned for users who have no stored cart.
func EmptyCartView(userID string) CartView {
	return CartView{
		UserID:     userID,
		Items:      []CartLine{},
		TotalPrice: decimal.Zero,
	}
}
