package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// Product is a catalog entry. Base prices are in rupees.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    enums.Category  `json:"category"`
	Unit        string          `json:"unit"`
	BasePrice   decimal.Decimal `json:"basePrice"`
	Description string          `json:"description"`
	IsActive    bool            `json:"isActive"`
}

func product(id, name string, category enums.Category, unit string, price int64, description string) Product {
	return Product{
		ID:          id,
		Name:        name,
		Category:    category,
		Unit:        unit,
		BasePrice:   decimal.NewFromInt(price),
		Description: description,
		IsActive:    true,
	}
}

var defaultProducts = []Product{
	product("f1", "Apple", enums.CategoryFruits, "kg", 120, "Fresh red apples"),
	product("f2", "Banana", enums.CategoryFruits, "dozen", 60, "Ripe yellow bananas"),
	product("f3", "Orange", enums.CategoryFruits, "kg", 100, "Juicy oranges"),
	product("f4", "Mango", enums.CategoryFruits, "kg", 200, "Sweet mangoes"),
	product("f5", "Grapes", enums.CategoryFruits, "kg", 180, "Fresh grapes"),
	product("f6", "Watermelon", enums.CategoryFruits, "piece", 150, "Sweet watermelon"),

	product("v1", "Tomato", enums.CategoryVegetables, "kg", 40, "Fresh tomatoes"),
	product("v2", "Onion", enums.CategoryVegetables, "kg", 35, "Red onions"),
	product("v3", "Potato", enums.CategoryVegetables, "kg", 30, "Fresh potatoes"),
	product("v4", "Carrot", enums.CategoryVegetables, "kg", 45, "Orange carrots"),
	product("v5", "Cabbage", enums.CategoryVegetables, "piece", 25, "Fresh cabbage"),
	product("v6", "Cauliflower", enums.CategoryVegetables, "piece", 35, "Fresh cauliflower"),
	product("v7", "Spinach", enums.CategoryVegetables, "bunch", 20, "Fresh spinach"),
	product("v8", "Bell Pepper", enums.CategoryVegetables, "kg", 80, "Colorful bell peppers"),

	product("m1", "Chicken Breast", enums.CategoryMeat, "kg", 280, "Boneless chicken breast"),
	product("m2", "Chicken Whole", enums.CategoryMeat, "kg", 220, "Whole chicken"),
	product("m3", "Mutton", enums.CategoryMeat, "kg", 650, "Fresh mutton"),
	product("m4", "Fish", enums.CategoryMeat, "kg", 350, "Fresh fish"),
	product("m5", "Eggs", enums.CategoryMeat, "dozen", 90, "Fresh eggs"),

	product("d1", "Milk", enums.CategoryDairy, "liter", 60, "Fresh milk"),
	product("d2", "Butter", enums.CategoryDairy, "500g", 250, "Creamy butter"),
	product("d3", "Cheese", enums.CategoryDairy, "200g", 180, "Processed cheese"),
	product("d4", "Yogurt", enums.CategoryDairy, "500g", 70, "Fresh yogurt"),
	product("d5", "Cream", enums.CategoryDairy, "250ml", 120, "Fresh cream"),
	product("d6", "Paneer", enums.CategoryDairy, "200g", 150, "Fresh paneer"),

	product("g1", "Rice", enums.CategoryGrains, "kg", 80, "Basmati rice"),
	product("g2", "Wheat Flour", enums.CategoryGrains, "kg", 45, "Whole wheat flour"),
	product("g3", "Lentils", enums.CategoryGrains, "kg", 120, "Mixed lentils"),

	product("s1", "Turmeric", enums.CategorySpices, "100g", 35, "Turmeric powder"),
	product("s2", "Cumin", enums.CategorySpices, "100g", 45, "Cumin seeds"),
	product("s3", "Coriander", enums.CategorySpices, "100g", 30, "Coriander powder"),
	product("s4", "Garam Masala", enums.CategorySpices, "100g", 55, "Mixed spices"),
	product("s5", "Red Chili", enums.CategorySpices, "100g", 40, "Red chili powder"),
}
