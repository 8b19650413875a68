package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultImagePath is snapshotted onto cart lines for products without images.
const DefaultImagePath = "/images/placeholder.jpg"

type Variant struct {
	ID    string           `json:"id"`
	Pack  string           `json:"pack"`
	Price decimal.Decimal  `json:"price"`
	MRP   *decimal.Decimal `json:"mrp,omitempty"`
	Stock int              `json:"stock"`
}

// StockDecrement is one line of a batched stock decrement.
type StockDecrement struct {
	ProductID string
	VariantID string
	Quantity  int
}

type ProductImage struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

type Product struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Slug             string         `json:"slug"`
	ShortDescription string         `json:"short_description,omitempty"`
	Description      string         `json:"description,omitempty"`
	CategoryID       string         `json:"category_id"`
	Variants         []Variant      `json:"variants"`
	Images           []ProductImage `json:"images"`
	Tags             []string       `json:"tags"`
	Rating           float64        `json:"rating"`
	ReviewsCount     int            `json:"reviews_count"`
	IsFeatured       bool           `json:"is_featured"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Variant returns the variant with the given id.
func (p *Product) Variant(variantID string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == variantID {
			return v, true
		}
	}
	return Variant{}, false
}

// PrimaryImage is the image captured on cart lines.
func (p *Product) PrimaryImage() string {
	if len(p.Images) > 0 && p.Images[0].URL != "" {
		return p.Images[0].URL
	}
	return DefaultImagePath
}

// OutOfStock reports whether every variant has no stock left.
func (p *Product) OutOfStock() bool {
	for _, v := range p.Variants {
		if v.Stock > 0 {
			return false
		}
	}
	return true
}

var slugStrip = regexp.MustCompile(`[^\w-]+`)

// Slugify lowercases the name, turns spaces into hyphens and drops
// everything that is not a word character or hyphen.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	return slugStrip.ReplaceAllString(s, "")
}

type VariantInput struct {
	Pack  string           `json:"pack"`
	Price decimal.Decimal  `json:"price"`
	MRP   *decimal.Decimal `json:"mrp,omitempty"`
	Stock int              `json:"stock"`
}

type CreateProductRequest struct {
	Name             string         `json:"name"`
	ShortDescription string         `json:"short_description"`
	Description      string         `json:"description"`
	CategoryID       string         `json:"category_id"`
	Variants         []VariantInput `json:"variants"`
	Images           []ProductImage `json:"images"`
	Tags             []string       `json:"tags"`
	IsFeatured       bool           `json:"is_featured"`
}

func (r CreateProductRequest) Validate() error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if len(name) > 100 {
		return fmt.Errorf("%w: product name cannot exceed 100 characters", ErrInvalidInput)
	}
	if Slugify(name) == "" {
		return fmt.Errorf("%w: product name must contain letters or digits", ErrInvalidInput)
	}
	if strings.TrimSpace(r.CategoryID) == "" {
		return fmt.Errorf("%w: product must belong to a category", ErrInvalidInput)
	}
	if len(r.Variants) == 0 {
		return fmt.Errorf("%w: product must have at least one variant", ErrInvalidInput)
	}
	for i, v := range r.Variants {
		if strings.TrimSpace(v.Pack) == "" {
			return fmt.Errorf("%w: variant %d: pack size is required", ErrInvalidInput, i)
		}
		if v.Price.IsNegative() {
			return fmt.Errorf("%w: variant %d: price cannot be negative", ErrInvalidInput, i)
		}
		if v.MRP != nil && v.MRP.LessThan(v.Price) {
			return fmt.Errorf("%w: variant %d: mrp (%s) must be greater than or equal to the selling price",
				ErrInvalidInput, i, v.MRP.String())
		}
		if v.Stock < 0 {
			return fmt.Errorf("%w: variant %d: stock cannot be negative", ErrInvalidInput, i)
		}
	}
	return nil
}

// NewProduct builds a product with fresh ids and a derived slug.
func NewProduct(r CreateProductRequest) *Product {
	now := time.Now().UTC()

	variants := make([]Variant, len(r.Variants))
	for i, v := range r.Variants {
		variants[i] = Variant{
			ID:    uuid.NewString(),
			Pack:  strings.TrimSpace(v.Pack),
			Price: v.Price,
			MRP:   v.MRP,
			Stock: v.Stock,
		}
	}

	images := r.Images
	if images == nil {
		images = []ProductImage{}
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}

	return &Product{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(r.Name),
		Slug:             Slugify(r.Name),
		ShortDescription: strings.TrimSpace(r.ShortDescription),
		Description:      strings.TrimSpace(r.Description),
		CategoryID:       strings.TrimSpace(r.CategoryID),
		Variants:         variants,
		Images:           images,
		Tags:             tags,
		IsFeatured:       r.IsFeatured,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// VariantUpdate keeps the variant id when ID names an existing variant
// and adds a new variant when ID is empty.
type VariantUpdate struct {
	ID string `json:"id,omitempty"`
	VariantInput
}

// UpdateProductRequest is a partial update. Nil fields keep the current
// value; a non-nil Variants list replaces the whole variant set.
type UpdateProductRequest struct {
	Name             *string         `json:"name"`
	ShortDescription *string         `json:"short_description"`
	Description      *string         `json:"description"`
	CategoryID       *string         `json:"category_id"`
	Variants         []VariantUpdate `json:"variants"`
	Images           []ProductImage  `json:"images"`
	Tags             []string        `json:"tags"`
	IsFeatured       *bool           `json:"is_featured"`
}

// Apply validates the update against p and writes it in place. A name
// change re-derives the slug. Variants dropped from the list are removed.
func (r UpdateProductRequest) Apply(p *Product) error {
	next := CreateProductRequest{
		Name:             p.Name,
		ShortDescription: p.ShortDescription,
		Description:      p.Description,
		CategoryID:       p.CategoryID,
		Images:           p.Images,
		Tags:             p.Tags,
		IsFeatured:       p.IsFeatured,
	}
	if r.Name != nil {
		next.Name = *r.Name
	}
	if r.ShortDescription != nil {
		next.ShortDescription = *r.ShortDescription
	}
	if r.Description != nil {
		next.Description = *r.Description
	}
	if r.CategoryID != nil {
		next.CategoryID = *r.CategoryID
	}
	if r.Images != nil {
		next.Images = r.Images
	}
	if r.Tags != nil {
		next.Tags = r.Tags
	}
	if r.IsFeatured != nil {
		next.IsFeatured = *r.IsFeatured
	}

	variants := p.Variants
	if r.Variants != nil {
		var err error
		if variants, err = r.mergeVariants(p); err != nil {
			return err
		}
	}
	next.Variants = make([]VariantInput, len(variants))
	for i, v := range variants {
		next.Variants[i] = VariantInput{Pack: v.Pack, Price: v.Price, MRP: v.MRP, Stock: v.Stock}
	}
	if err := next.Validate(); err != nil {
		return err
	}

	p.Name = strings.TrimSpace(next.Name)
	p.Slug = Slugify(next.Name)
	p.ShortDescription = strings.TrimSpace(next.ShortDescription)
	p.Description = strings.TrimSpace(next.Description)
	p.CategoryID = strings.TrimSpace(next.CategoryID)
	p.Images = next.Images
	p.Tags = next.Tags
	p.IsFeatured = next.IsFeatured
	p.Variants = variants
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r UpdateProductRequest) mergeVariants(p *Product) ([]Variant, error) {
	seen := make(map[string]bool, len(r.Variants))
	out := make([]Variant, 0, len(r.Variants))
	for i, u := range r.Variants {
		id := strings.TrimSpace(u.ID)
		if id == "" {
			id = uuid.NewString()
		} else if _, ok := p.Variant(id); !ok {
			return nil, fmt.Errorf("%w: variant %d: unknown variant id %q", ErrInvalidInput, i, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: variant %d: duplicate variant id %q", ErrInvalidInput, i, id)
		}
		seen[id] = true
		out = append(out, Variant{
			ID:    id,
			Pack:  strings.TrimSpace(u.Pack),
			Price: u.Price,
			MRP:   u.MRP,
			Stock: u.Stock,
		})
	}
	return out, nil
}

// Sort orders accepted by product listing.
const (
	SortNewest    = "newest-desc"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortRating    = "rating-desc"
)

type ProductFilter struct {
	CategoryID string
	Featured   bool
	Search     string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       string
	Page       int
	Limit      int
}

// Normalize clamps paging to sane bounds.
func (f *ProductFilter) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 12
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	switch f.Sort {
	case SortPriceAsc, SortPriceDesc, SortRating, SortNewest:
	default:
		f.Sort = SortNewest
	}
}

func (f ProductFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type PageMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func NewPageMeta(page, limit, total int) PageMeta {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return PageMeta{Page: page, Limit: limit, Total: total, TotalPages: pages}
}
