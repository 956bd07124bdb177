package storage

import (
	"context"
	"errors"

	"github.com/commercekit/service-layer/internal/app/domain/customer"
	"github.com/commercekit/service-layer/internal/app/domain/order"
	"github.com/commercekit/service-layer/internal/app/domain/paymentprofile"
	"github.com/commercekit/service-layer/internal/app/domain/product"
	"github.com/commercekit/service-layer/internal/app/domain/user"
	"github.com/commercekit/service-layer/internal/validation"
)

// ErrNotFound is returned when a targeted record does not exist or is soft
// deleted.
var ErrNotFound = errors.New("record not found")

// Filter is one conjunction of field=value conditions; a FindBy call matches
// records satisfying any of its filters.
type Filter map[string]any

// ListQuery selects a page of records. Filters, when set, is a parsed
// list-filter expression whose fields have already been validated.
type ListQuery struct {
	Page    int
	PerPage int
	OrderBy string
	Order   string
	Filters *validation.FilterNode
}

// UserStore persists user records.
type UserStore interface {
	FindByUsers(ctx context.Context, filters []Filter) ([]user.User, error)
	ListUsers(ctx context.Context, q ListQuery) ([]user.User, error)
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	RemoveUser(ctx context.Context, id, deleteUserID string) (user.User, error)
}

// CustomerStore persists customer records.
type CustomerStore interface {
	FindByCustomers(ctx context.Context, filters []Filter) ([]customer.Customer, error)
	ListCustomers(ctx context.Context, q ListQuery) ([]customer.Customer, error)
	CreateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error)
	UpdateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error)
	RemoveCustomer(ctx context.Context, id, deleteUserID string) (customer.Customer, error)
}

// ProductStore persists product records.
type ProductStore interface {
	FindByProducts(ctx context.Context, filters []Filter) ([]product.Product, error)
	ListProducts(ctx context.Context, q ListQuery) ([]product.Product, error)
	CreateProduct(ctx context.Context, p product.Product) (product.Product, error)
	UpdateProduct(ctx context.Context, p product.Product) (product.Product, error)
	RemoveProduct(ctx context.Context, id, deleteUserID string) (product.Product, error)
}

// OrderStore persists orders and their items. CreateOrder writes the order
// and its items together; RemoveOrder soft deletes the items as well.
type OrderStore interface {
	FindByOrders(ctx context.Context, filters []Filter) ([]order.Order, error)
	ListOrders(ctx context.Context, q ListQuery) ([]order.Order, error)
	CreateOrder(ctx context.Context, o order.Order, items []order.Item) (order.Order, []order.Item, error)
	RemoveOrder(ctx context.Context, id, deleteUserID string) (order.Order, error)

	FindByOrderItems(ctx context.Context, filters []Filter) ([]order.Item, error)
}

// PaymentProfileStore persists payment profiles.
type PaymentProfileStore interface {
	FindByPaymentProfiles(ctx context.Context, filters []Filter) ([]paymentprofile.Profile, error)
	ListPaymentProfiles(ctx context.Context, q ListQuery) ([]paymentprofile.Profile, error)
	CreatePaymentProfile(ctx context.Context, p paymentprofile.Profile) (paymentprofile.Profile, error)
	UpdatePaymentProfile(ctx context.Context, p paymentprofile.Profile) (paymentprofile.Profile, error)
	RemovePaymentProfile(ctx context.Context, id, deleteUserID string) (paymentprofile.Profile, error)
}
