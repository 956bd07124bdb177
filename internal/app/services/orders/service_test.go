package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/commercekit/service-layer/internal/app/domain/customer"
	"github.com/commercekit/service-layer/internal/app/domain/order"
	"github.com/commercekit/service-layer/internal/app/domain/paymentprofile"
	"github.com/commercekit/service-layer/internal/app/domain/product"
	"github.com/commercekit/service-layer/internal/app/domain/session"
	"github.com/commercekit/service-layer/internal/app/services/listing"
	"github.com/commercekit/service-layer/internal/app/storage"
	"github.com/commercekit/service-layer/internal/app/storage/memory"
	"github.com/commercekit/service-layer/internal/validation"
	"github.com/commercekit/service-layer/pkg/logger"
)

type fixture struct {
	svc      *Service
	store    *memory.Store
	customer customer.Customer
	profile  paymentprofile.Profile
	boots    product.Product
	shirt    product.Product
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	cust, err := store.CreateCustomer(ctx, customer.Customer{Name: "Alice Smith", Email: "alice@mail.com"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	profile, err := store.CreatePaymentProfile(ctx, paymentprofile.Profile{
		UserID:        "3dd20cb3-2f17-4b0a-b6a9-9e0a70f0f0aa",
		PaymentMethod: paymentprofile.MethodPhone,
		Data:          map[string]any{"countryCode": "55", "areaCode": "11", "number": "987654321"},
	})
	if err != nil {
		t.Fatalf("CreatePaymentProfile: %v", err)
	}
	boots, err := store.CreateProduct(ctx, product.Product{Name: "Black Boots", Category: product.CategoryShoes, Price: 12000})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	shirt, err := store.CreateProduct(ctx, product.Product{Name: "Blue Shirt", Category: product.CategoryClothes, Price: 4000})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	return fixture{
		svc:      New(store, store, store, store, logger.NewNop()),
		store:    store,
		customer: cust,
		profile:  profile,
		boots:    boots,
		shirt:    shirt,
	}
}

func listingRequest(filters string) listing.Request {
	return listing.Request{Filters: filters}
}

func validationItems(t *testing.T, err error) []validation.Item {
	t.Helper()
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	return verr.Items
}

func TestCreateComputesTotals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, session.Session{UserID: "3dd20cb3-2f17-4b0a-b6a9-9e0a70f0f0aa"}, map[string]any{
		"customerId":       f.customer.ID,
		"paymentProfileId": f.profile.ID,
		"orderItems": []any{
			map[string]any{"productId": f.boots.ID, "quantity": float64(2)},
			map[string]any{"productId": f.shirt.ID, "quantity": float64(3)},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created.Status != order.StatusAwaitingPayment {
		t.Fatalf("status = %q", created.Status)
	}
	if created.TotalValue != 2*12000+3*4000 {
		t.Fatalf("totalValue = %d", created.TotalValue)
	}
	if len(created.Items) != 2 {
		t.Fatalf("items = %d", len(created.Items))
	}
	for _, item := range created.Items {
		if item.OrderID != created.ID {
			t.Fatal("item not linked to order")
		}
		if item.ProductID == f.boots.ID && (item.UnitValue != 12000 || item.TotalValue != 24000) {
			t.Fatalf("boots item values: %+v", item)
		}
	}
}

func TestCreateRejectsDuplicateProducts(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), session.Session{}, map[string]any{
		"customerId":       f.customer.ID,
		"paymentProfileId": f.profile.ID,
		"orderItems": []any{
			map[string]any{"productId": f.boots.ID, "quantity": float64(1)},
			map[string]any{"productId": f.boots.ID, "quantity": float64(2)},
		},
	})
	items := validationItems(t, err)
	if len(items) != 1 || items[0].Field != "orderItems" || items[0].Rule != "distinct" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestCreateRejectsMissingItems(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), session.Session{}, map[string]any{
		"customerId":       f.customer.ID,
		"paymentProfileId": f.profile.ID,
	})
	items := validationItems(t, err)
	if len(items) != 1 || items[0].Field != "orderItems" || items[0].Rule != "required" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestCreateRejectsUnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), session.Session{}, map[string]any{
		"customerId":       f.customer.ID,
		"paymentProfileId": f.profile.ID,
		"orderItems": []any{
			map[string]any{"productId": f.boots.ID, "quantity": float64(1)},
			map[string]any{"productId": "7d4a2a2e-1111-4e5f-9f3a-2b8a1c3d4e5f", "quantity": float64(1)},
		},
	})
	items := validationItems(t, err)
	if len(items) != 1 || items[0].Field != "orderItems.1.productId" || items[0].Rule != "exists" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestCreateRejectsUnknownCustomer(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), session.Session{}, map[string]any{
		"customerId":       "7d4a2a2e-1111-4e5f-9f3a-2b8a1c3d4e5f",
		"paymentProfileId": f.profile.ID,
		"orderItems": []any{
			map[string]any{"productId": f.boots.ID, "quantity": float64(1)},
		},
	})
	items := validationItems(t, err)
	if len(items) != 1 || items[0].Field != "customerId" || items[0].Rule != "exists" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestShowJoinsItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, session.Session{}, map[string]any{
		"customerId":       f.customer.ID,
		"paymentProfileId": f.profile.ID,
		"orderItems": []any{
			map[string]any{"productId": f.boots.ID, "quantity": float64(1)},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	shown, err := f.svc.Show(ctx, created.ID)
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if len(shown.Items) != 1 || shown.Items[0].ProductID != f.boots.ID {
		t.Fatalf("unexpected items: %+v", shown.Items)
	}
}

func TestRemoveOrderAndItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, session.Session{}, map[string]any{
		"customerId":       f.customer.ID,
		"paymentProfileId": f.profile.ID,
		"orderItems": []any{
			map[string]any{"productId": f.boots.ID, "quantity": float64(1)},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.svc.Remove(ctx, session.Session{}, created.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if _, err := f.svc.Show(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Show after remove err = %v, want ErrNotFound", err)
	}

	items, _ := f.store.FindByOrderItems(ctx, []storage.Filter{{"orderId": created.ID}})
	if len(items) != 0 {
		t.Fatalf("items survived removal: %+v", items)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.Create(ctx, session.Session{}, map[string]any{
		"customerId":       f.customer.ID,
		"paymentProfileId": f.profile.ID,
		"status":           "PAID",
		"orderItems": []any{
			map[string]any{"productId": f.boots.ID, "quantity": float64(1)},
		},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	page, err := f.svc.List(ctx, listingRequest(`["=", "status", "PAID"]`))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 1 || page[0].Status != order.StatusPaid {
		t.Fatalf("unexpected page: %+v", page)
	}

	page, err = f.svc.List(ctx, listingRequest(`["=", "status", "NOT_PAID"]`))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("expected empty page, got %+v", page)
	}
}
