package promo

import (
	"testing"

	"promo-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculator_Discount_Percentage(t *testing.T) {
	calc := NewCalculator()

	tests := []struct {
		name        string
		value       float64
		maxDiscount float64
		orderAmount float64
		expected    float64
	}{
		{name: "Uncapped", value: 10, maxDiscount: 0, orderAmount: 50, expected: 5.00},
		{name: "Cap applies", value: 10, maxDiscount: 3, orderAmount: 100, expected: 3.00},
		{name: "Cap not reached", value: 10, maxDiscount: 20, orderAmount: 100, expected: 10.00},
		{name: "Full discount", value: 100, maxDiscount: 0, orderAmount: 42.50, expected: 42.50},
		{name: "Zero percent", value: 0, maxDiscount: 0, orderAmount: 100, expected: 0},
		{name: "Rounds to two decimals", value: 15, maxDiscount: 0, orderAmount: 33.33, expected: 5.00},
		{name: "Rounds fractional cents", value: 5, maxDiscount: 0, orderAmount: 10.25, expected: 0.51},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &model.Promotion{
				DiscountType:  model.DiscountPercentage,
				DiscountValue: tt.value,
				MaxDiscount:   tt.maxDiscount,
			}
			order := &model.OrderContext{OrderAmount: tt.orderAmount}

			got, err := calc.Discount(p, order)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCalculator_Discount_Fixed(t *testing.T) {
	calc := NewCalculator()

	p := &model.Promotion{
		DiscountType:   model.DiscountFixed,
		DiscountValue:  5,
		MinOrderAmount: 20,
	}

	got, err := calc.Discount(p, &model.OrderContext{OrderAmount: 25})
	require.NoError(t, err)
	assert.Equal(t, 5.00, got)

	// A fixed discount is not capped by the order subtotal.
	got, err = calc.Discount(p, &model.OrderContext{OrderAmount: 3})
	require.NoError(t, err)
	assert.Equal(t, 5.00, got)
}

func TestCalculator_Discount_BOGO(t *testing.T) {
	calc := NewCalculator()

	tests := []struct {
		name     string
		items    []string
		lines    []model.OrderLine
		expected float64
	}{
		{
			name:     "Odd quantity discounts floor of pairs",
			items:    []string{"42"},
			lines:    []model.OrderLine{{ItemID: "42", Quantity: 5, UnitPrice: 8}},
			expected: 16.00,
		},
		{
			name:     "Even quantity",
			items:    []string{"42"},
			lines:    []model.OrderLine{{ItemID: "42", Quantity: 4, UnitPrice: 8}},
			expected: 16.00,
		},
		{
			name:     "Single unit yields nothing",
			items:    []string{"42"},
			lines:    []model.OrderLine{{ItemID: "42", Quantity: 1, UnitPrice: 8}},
			expected: 0,
		},
		{
			name:  "Multiple applicable items accumulate",
			items: []string{"42", "7"},
			lines: []model.OrderLine{
				{ItemID: "42", Quantity: 2, UnitPrice: 8},
				{ItemID: "7", Quantity: 3, UnitPrice: 4},
				{ItemID: "9", Quantity: 6, UnitPrice: 100},
			},
			expected: 12.00,
		},
		{
			name:     "Empty applicable items yields zero",
			items:    nil,
			lines:    []model.OrderLine{{ItemID: "42", Quantity: 4, UnitPrice: 8}},
			expected: 0,
		},
		{
			name:     "No matching lines",
			items:    []string{"42"},
			lines:    []model.OrderLine{{ItemID: "9", Quantity: 4, UnitPrice: 8}},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &model.Promotion{
				DiscountType:    model.DiscountBOGO,
				ApplicableItems: tt.items,
			}
			order := &model.OrderContext{Items: tt.lines}

			got, err := calc.Discount(p, order)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCalculator_Discount_UnknownType(t *testing.T) {
	calc := NewCalculator()

	p := &model.Promotion{DiscountType: "happy_hour"}

	got, err := calc.Discount(p, &model.OrderContext{OrderAmount: 100})

	require.Error(t, err)
	assert.Equal(t, model.ErrInvalidDiscountType, err)
	assert.Equal(t, 0.0, got)
}

func TestCalculator_Discount_NeverNegative(t *testing.T) {
	calc := NewCalculator()

	// A malformed negative value must still clamp to zero.
	p := &model.Promotion{DiscountType: model.DiscountFixed, DiscountValue: -10}

	got, err := calc.Discount(p, &model.OrderContext{OrderAmount: 100})

	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}
