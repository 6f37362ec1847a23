// Package pricing computes the charged unit price of a product variant
// from its linked sale campaigns.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront-backend/internal/domains/catalog/model"
)

var oneHundred = decimal.NewFromInt(100)

// BestSale returns the running sale with the highest discount percent,
// or nil when none applies. Sales outside their window, inactive, or
// without a positive discount percent are ignored. Ties keep the first
// sale in the variant's sale list.
func BestSale(variant *model.ProductVariant, now time.Time) *model.Sale {
	var best *model.Sale
	for i := range variant.Sales {
		sale := &variant.Sales[i]
		if !sale.IsRunningAt(now) || !sale.HasDiscount() {
			continue
		}
		if best == nil || sale.DiscountPercent.GreaterThan(*best.DiscountPercent) {
			best = sale
		}
	}
	return best
}

// EffectivePrice returns the unit price to charge for the variant at the
// given instant, alongside the list price and the applied discount
// percent. With no running sale the charged price equals the list price
// and the discount percent is zero. The discounted price is rounded
// half-up to two decimal places.
func EffectivePrice(variant *model.ProductVariant, now time.Time) (charged, original, discountPercent decimal.Decimal) {
	original = variant.Price

	sale := BestSale(variant, now)
	if sale == nil {
		return original, original, decimal.Zero
	}

	discountPercent = *sale.DiscountPercent
	charged = original.Mul(oneHundred.Sub(discountPercent)).Div(oneHundred).Round(2)
	return charged, original, discountPercent
}
