package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

func TestSumItemsIsExact(t *testing.T) {
	items := []OrderItem{
		{Category: enums.CategoryFruits, Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(50)},
		{Category: enums.CategoryVegetables, Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(40)},
		{Category: enums.CategoryDairy, Quantity: decimal.RequireFromString("0.1"), Price: decimal.RequireFromString("0.2")},
	}
	assert.True(t, SumItems(items).Equal(decimal.RequireFromString("140.02")))
}

func TestOrderCategoriesDeduplicates(t *testing.T) {
	order := Order{Items: []OrderItem{
		{Category: enums.CategoryFruits},
		{Category: enums.CategoryMeat},
		{Category: enums.CategoryFruits},
	}}
	assert.Equal(t, []enums.Category{enums.CategoryFruits, enums.CategoryMeat}, order.Categories())
}

func TestAmountsMarshalAsNumbers(t *testing.T) {
	b, err := json.Marshal(OrderItem{Quantity: decimal.NewFromInt(2), Price: decimal.RequireFromString("12.5")})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"price":12.5`)
	assert.Contains(t, string(b), `"quantity":2`)
	assert.NotContains(t, string(b), "orderId")
}
