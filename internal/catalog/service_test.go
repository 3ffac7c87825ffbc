package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
)

type fakeVendors struct {
	listFn func(ctx context.Context, role enums.Role, activeOnly bool) ([]models.User, error)
}

func (f fakeVendors) ListByRole(ctx context.Context, role enums.Role, activeOnly bool) ([]models.User, error) {
	if f.listFn != nil {
		return f.listFn(ctx, role, activeOnly)
	}
	return nil, nil
}

func newTestService(t *testing.T, vendors fakeVendors) Service {
	t.Helper()
	svc, err := NewService(vendors)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestListProductsFiltersByCategory(t *testing.T) {
	svc := newTestService(t, fakeVendors{})

	all, err := svc.ListProducts("")
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(all) != 33 {
		t.Fatalf("expected 33 products, got %d", len(all))
	}

	dairy, err := svc.ListProducts("dairy")
	if err != nil {
		t.Fatalf("list dairy: %v", err)
	}
	if len(dairy) != 6 {
		t.Fatalf("expected 6 dairy products, got %d", len(dairy))
	}
	for _, p := range dairy {
		if p.Category != enums.CategoryDairy {
			t.Fatalf("unexpected category %s", p.Category)
		}
	}

	if _, err := svc.ListProducts("toys"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetProduct(t *testing.T) {
	svc := newTestService(t, fakeVendors{})

	p, err := svc.GetProduct("m3")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if p.Name != "Mutton" || !p.BasePrice.Equal(decimal.NewFromInt(650)) {
		t.Fatalf("unexpected product %+v", p)
	}
	if _, err := svc.GetProduct("zz"); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCategoriesCarryVendorSubRole(t *testing.T) {
	cats := newTestService(t, fakeVendors{}).Categories()
	if len(cats) != 6 {
		t.Fatalf("expected 6 categories, got %d", len(cats))
	}
	for _, c := range cats {
		if c.Value == enums.CategorySpices && c.VendorSubRole != enums.SubRoleVeggiesVendor {
			t.Fatalf("spices should route to veggies vendors, got %s", c.VendorSubRole)
		}
	}
}

func TestResolveItemFillsFromCatalog(t *testing.T) {
	svc := newTestService(t, fakeVendors{})

	item, err := svc.ResolveItem(ItemInput{ProductID: "f1", Quantity: decimal.NewFromInt(2)})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if item.ProductName != "Apple" || item.Unit != "kg" || item.Category != enums.CategoryFruits {
		t.Fatalf("unexpected item %+v", item)
	}
	if !item.Price.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected base price, got %s", item.Price)
	}

	price := decimal.RequireFromString("50")
	item, err = svc.ResolveItem(ItemInput{ProductID: "f1", Quantity: decimal.NewFromInt(2), Price: &price})
	if err != nil {
		t.Fatalf("resolve with price: %v", err)
	}
	if !item.Price.Equal(price) {
		t.Fatalf("expected explicit price, got %s", item.Price)
	}
}

func TestResolveItemRejectsBadInput(t *testing.T) {
	svc := newTestService(t, fakeVendors{})
	negative := decimal.NewFromInt(-1)
	price := decimal.NewFromInt(10)

	cases := map[string]ItemInput{
		"missing product":   {Quantity: decimal.NewFromInt(1)},
		"zero quantity":     {ProductID: "f1"},
		"negative price":    {ProductID: "f1", Quantity: decimal.NewFromInt(1), Price: &negative},
		"unknown product":   {ProductID: "x1", Quantity: decimal.NewFromInt(1)},
		"custom no price":   {ProductID: "x1", ProductName: "Saffron", Unit: "g", Category: "spices", Quantity: decimal.NewFromInt(1)},
		"custom bad categ.": {ProductID: "x1", ProductName: "Saffron", Unit: "g", Category: "gold", Quantity: decimal.NewFromInt(1), Price: &price},
	}
	for name, input := range cases {
		if _, err := svc.ResolveItem(input); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}

	item, err := svc.ResolveItem(ItemInput{ProductID: "x1", ProductName: "Saffron", Unit: "g", Category: "spices", Quantity: decimal.NewFromInt(1), Price: &price})
	if err != nil {
		t.Fatalf("custom item: %v", err)
	}
	if item.Category != enums.CategorySpices {
		t.Fatalf("unexpected category %s", item.Category)
	}
}

func TestListVendorListingsSkipsOutOfStock(t *testing.T) {
	vendorID := uuid.New()
	vendors := fakeVendors{listFn: func(ctx context.Context, role enums.Role, activeOnly bool) ([]models.User, error) {
		if role != enums.RoleVendor || !activeOnly {
			t.Fatalf("unexpected query role=%s active=%v", role, activeOnly)
		}
		return []models.User{{
			ID:   vendorID,
			Name: "Fresh Fruits",
			Inventory: []models.VendorInventoryItem{
				{ID: "1", ProductID: "f1", Name: "Apple", Category: enums.CategoryFruits, InStock: true},
				{ID: "2", ProductID: "f2", Name: "Banana", Category: enums.CategoryFruits, InStock: false},
				{ID: "3", ProductID: "d1", Name: "Milk", Category: enums.CategoryDairy, InStock: true},
			},
		}}, nil
	}}
	svc := newTestService(t, vendors)

	listings, err := svc.ListVendorListings(context.Background(), "fruits")
	if err != nil {
		t.Fatalf("listings: %v", err)
	}
	if len(listings) != 1 || listings[0].Item.ProductID != "f1" || listings[0].VendorID != vendorID {
		t.Fatalf("unexpected listings %+v", listings)
	}
}

func TestListVendorListingsWrapsErrors(t *testing.T) {
	svc := newTestService(t, fakeVendors{listFn: func(context.Context, enums.Role, bool) ([]models.User, error) {
		return nil, errors.New("db down")
	}})
	if _, err := svc.ListVendorListings(context.Background(), ""); !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
