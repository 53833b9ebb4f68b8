package orders

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/glowhaus/storefront-backend/internal/cart"
	"github.com/glowhaus/storefront-backend/pkg/config"
)

// Pricing holds the shipping rule applied at checkout.
type Pricing struct {
	FlatFee       decimal.Decimal
	FreeThreshold decimal.Decimal
}

// NewPricing parses the checkout settings.
func NewPricing(cfg config.CheckoutConfig) (Pricing, error) {
	fee, err := decimal.NewFromString(cfg.ShippingFlatFee)
	if err != nil {
		return Pricing{}, fmt.Errorf("parse shipping flat fee: %w", err)
	}
	threshold, err := decimal.NewFromString(cfg.ShippingFreeThreshold)
	if err != nil {
		return Pricing{}, fmt.Errorf("parse shipping free threshold: %w", err)
	}
	if fee.IsNegative() || threshold.IsNegative() {
		return Pricing{}, fmt.Errorf("shipping settings must not be negative")
	}
	return Pricing{FlatFee: fee.Round(2), FreeThreshold: threshold.Round(2)}, nil
}

// ShippingFee is free at or above the threshold; a zero threshold disables free shipping.
func (p Pricing) ShippingFee(subtotal decimal.Decimal) decimal.Decimal {
	if p.FreeThreshold.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeThreshold) {
		return decimal.Zero
	}
	return p.FlatFee
}

// Totals returns subtotal, shipping and grand total for the lines.
func (p Pricing) Totals(lines []cart.LineItem) (subtotal, shipping, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal())
	}
	subtotal = subtotal.Round(2)
	shipping = p.ShippingFee(subtotal)
	return subtotal, shipping, subtotal.Add(shipping)
}
