package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"storefront-backend/internal/domains/catalog/model"
)

func pct(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func sale(name string, percent *decimal.Decimal, start, end *time.Time, active bool) model.Sale {
	return model.Sale{
		Name:            name,
		DiscountPercent: percent,
		StartDate:       start,
		EndDate:         end,
		IsActive:        active,
	}
}

func TestBestSale(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name     string
		sales    []model.Sale
		wantName string
		wantNil  bool
	}{
		{
			name:    "no sales",
			sales:   nil,
			wantNil: true,
		},
		{
			name: "single running sale",
			sales: []model.Sale{
				sale("spring", pct("20"), &past, &future, true),
			},
			wantName: "spring",
		},
		{
			name: "picks highest discount",
			sales: []model.Sale{
				sale("small", pct("10"), &past, &future, true),
				sale("big", pct("30"), &past, &future, true),
				sale("mid", pct("20"), &past, &future, true),
			},
			wantName: "big",
		},
		{
			name: "tie keeps first",
			sales: []model.Sale{
				sale("first", pct("25"), &past, &future, true),
				sale("second", pct("25"), &past, &future, true),
			},
			wantName: "first",
		},
		{
			name: "expired sale ignored",
			sales: []model.Sale{
				sale("expired", pct("50"), nil, &past, true),
				sale("running", pct("10"), &past, &future, true),
			},
			wantName: "running",
		},
		{
			name: "future sale ignored",
			sales: []model.Sale{
				sale("upcoming", pct("50"), &future, nil, true),
			},
			wantNil: true,
		},
		{
			name: "inactive sale ignored",
			sales: []model.Sale{
				sale("disabled", pct("50"), &past, &future, false),
			},
			wantNil: true,
		},
		{
			name: "sale without discount percent ignored",
			sales: []model.Sale{
				sale("no-percent", nil, &past, &future, true),
			},
			wantNil: true,
		},
		{
			name: "open-ended window applies",
			sales: []model.Sale{
				sale("forever", pct("15"), nil, nil, true),
			},
			wantName: "forever",
		},
		{
			name: "window start is inclusive",
			sales: []model.Sale{
				sale("starts-now", pct("15"), &now, &future, true),
			},
			wantName: "starts-now",
		},
		{
			name: "window end is exclusive",
			sales: []model.Sale{
				sale("ends-now", pct("15"), &past, &now, true),
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			variant := &model.ProductVariant{Sales: tt.sales}
			got := BestSale(variant, now)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			assert.NotNil(t, got)
			assert.Equal(t, tt.wantName, got.Name)
		})
	}
}

func TestEffectivePrice(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name        string
		price       string
		sales       []model.Sale
		wantCharged string
		wantPercent string
	}{
		{
			name:        "no sale charges list price",
			price:       "100",
			sales:       nil,
			wantCharged: "100",
			wantPercent: "0",
		},
		{
			name:  "twenty percent off one hundred",
			price: "100",
			sales: []model.Sale{
				sale("spring", pct("20"), &past, &future, true),
			},
			wantCharged: "80",
			wantPercent: "20",
		},
		{
			name:  "rounds half up to two decimals",
			price: "10.01",
			sales: []model.Sale{
				sale("half", pct("50"), &past, &future, true),
			},
			// 10.01 * 0.5 = 5.005, rounds up
			wantCharged: "5.01",
			wantPercent: "50",
		},
		{
			name:  "fractional discount",
			price: "99.99",
			sales: []model.Sale{
				sale("odd", pct("33"), &past, &future, true),
			},
			// 99.99 * 0.67 = 66.9933
			wantCharged: "66.99",
			wantPercent: "33",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			variant := &model.ProductVariant{
				Price: decimal.RequireFromString(tt.price),
				Sales: tt.sales,
			}
			charged, original, percent := EffectivePrice(variant, now)
			assert.True(t, decimal.RequireFromString(tt.wantCharged).Equal(charged),
				"charged = %s, want %s", charged, tt.wantCharged)
			assert.True(t, variant.Price.Equal(original))
			assert.True(t, decimal.RequireFromString(tt.wantPercent).Equal(percent),
				"percent = %s, want %s", percent, tt.wantPercent)
		})
	}
}
