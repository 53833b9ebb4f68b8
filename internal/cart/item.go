package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// LineKey is the identity of a cart line. Two lines are the same entry only when
// product, size and color all match.
type LineKey struct {
	ProductID string
	Size      string
	Color     string
}

// String renders the key as productId|size|color.
func (k LineKey) String() string {
	return strings.Join([]string{k.ProductID, k.Size, k.Color}, "|")
}

// LineItem is one entry of a cart. Display fields are captured when the line is
// first added and are not re-synced with the catalog afterwards.
type LineItem struct {
	ProductID     string          `json:"productId"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	ImageURL      string          `json:"imageUrl"`
	Brand         string          `json:"brand"`
	SelectedSize  string          `json:"selectedSize"`
	SelectedColor string          `json:"selectedColor"`
	Quantity      int             `json:"quantity"`
}

func (i LineItem) Key() LineKey {
	return LineKey{ProductID: i.ProductID, Size: i.SelectedSize, Color: i.SelectedColor}
}

// LineTotal is UnitPrice multiplied by Quantity.
func (i LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Product is the catalog data a line is built from.
type Product struct {
	ID     string
	Name   string
	Price  decimal.Decimal
	Brand  string
	Images []string
}

func (p Product) firstImage(placeholder string) string {
	for _, img := range p.Images {
		if strings.TrimSpace(img) != "" {
			return img
		}
	}
	return placeholder
}
