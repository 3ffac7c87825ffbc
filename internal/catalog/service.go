// Package catalog serves the fixed product list and the vendors' own
// listings, and fills in product details on order lines.
package catalog

import (
	"context"
	"strings"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
)

// Service exposes the catalog read side.
type Service interface {
	ListProducts(category string) ([]Product, error)
	GetProduct(id string) (*Product, error)
	Categories() []CategoryDTO
	ListVendorListings(ctx context.Context, category string) ([]Listing, error)
	ResolveItem(input ItemInput) (models.OrderItem, error)
}

type vendorSource interface {
	ListByRole(ctx context.Context, role enums.Role, activeOnly bool) ([]models.User, error)
}

type service struct {
	products []Product
	byID     map[string]Product
	vendors  vendorSource
}

// NewService builds the catalog over the default product list.
func NewService(vendors vendorSource) (Service, error) {
	if vendors == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "vendor source required")
	}
	return newService(defaultProducts, vendors), nil
}

func newService(products []Product, vendors vendorSource) *service {
	byID := make(map[string]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &service{products: products, byID: byID, vendors: vendors}
}

// Lookup returns a default catalog product without a service instance.
func Lookup(id string) (Product, bool) {
	for _, p := range defaultProducts {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func (s *service) ListProducts(category string) ([]Product, error) {
	filter, err := parseOptionalCategory(category)
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if !p.IsActive {
			continue
		}
		if filter != "" && p.Category != filter {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *service) GetProduct(id string) (*Product, error) {
	p, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

func (s *service) Categories() []CategoryDTO {
	cats := enums.Categories()
	out := make([]CategoryDTO, 0, len(cats))
	for _, c := range cats {
		dto := CategoryDTO{Value: c, Label: categoryLabels[c]}
		if sub, ok := c.VendorSubRole(); ok {
			dto.VendorSubRole = sub
		}
		out = append(out, dto)
	}
	return out
}

// ListVendorListings returns the in-stock inventory of every active vendor.
func (s *service) ListVendorListings(ctx context.Context, category string) ([]Listing, error) {
	filter, err := parseOptionalCategory(category)
	if err != nil {
		return nil, err
	}
	vendors, err := s.vendors.ListByRole(ctx, enums.RoleVendor, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}

	listings := []Listing{}
	for _, vendor := range vendors {
		for _, item := range vendor.Inventory {
			if !item.InStock {
				continue
			}
			if filter != "" && item.Category != filter {
				continue
			}
			listings = append(listings, Listing{
				VendorID:   vendor.ID,
				VendorName: vendor.Name,
				Item:       item,
			})
		}
	}
	return listings, nil
}

// ResolveItem builds an order line from input, taking name, unit, category
// and price from the catalog where the caller left them out. Quantity must
// be positive and price non-negative.
func (s *service) ResolveItem(input ItemInput) (models.OrderItem, error) {
	productID := strings.TrimSpace(input.ProductID)
	if productID == "" {
		return models.OrderItem{}, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	if !input.Quantity.IsPositive() {
		return models.OrderItem{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}

	item := models.OrderItem{
		ProductID:   productID,
		ProductName: strings.TrimSpace(input.ProductName),
		Unit:        strings.TrimSpace(input.Unit),
		Quantity:    input.Quantity,
		Category:    enums.Category(strings.TrimSpace(input.Category)),
	}
	if input.Price != nil {
		item.Price = *input.Price
	}

	if p, ok := s.byID[productID]; ok {
		if item.ProductName == "" {
			item.ProductName = p.Name
		}
		if item.Unit == "" {
			item.Unit = p.Unit
		}
		if item.Category == "" {
			item.Category = p.Category
		}
		if input.Price == nil {
			item.Price = p.BasePrice
		}
	}

	if item.ProductName == "" || item.Unit == "" {
		return models.OrderItem{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown product "+productID)
	}
	if !item.Category.IsValid() {
		return models.OrderItem{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid category for product "+productID)
	}
	if input.Price == nil && !s.known(productID) {
		return models.OrderItem{}, pkgerrors.New(pkgerrors.CodeValidation, "price is required for product "+productID)
	}
	if item.Price.IsNegative() {
		return models.OrderItem{}, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	return item, nil
}

func (s *service) known(productID string) bool {
	_, ok := s.byID[productID]
	return ok
}

func parseOptionalCategory(value string) (enums.Category, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	category, err := enums.ParseCategory(value)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}
	return category, nil
}

var categoryLabels = map[enums.Category]string{
	enums.CategoryFruits:     "Fruits",
	enums.CategoryVegetables: "Vegetables",
	enums.CategoryMeat:       "Meat",
	enums.CategoryDairy:      "Dairy",
	enums.CategoryGrains:     "Grains",
	enums.CategorySpices:     "Spices",
}
