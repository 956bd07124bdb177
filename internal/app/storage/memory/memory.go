// Package memory is an in-memory implementation of the storage interfaces.
// It is safe for concurrent use and is primarily intended for tests and
// local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/commercekit/service-layer/internal/app/domain/customer"
	"github.com/commercekit/service-layer/internal/app/domain/order"
	"github.com/commercekit/service-layer/internal/app/domain/paymentprofile"
	"github.com/commercekit/service-layer/internal/app/domain/product"
	"github.com/commercekit/service-layer/internal/app/domain/user"
	"github.com/commercekit/service-layer/internal/app/storage"
)

// Store holds every entity collection behind one lock.
type Store struct {
	mu         sync.RWMutex
	users      []user.User
	customers  []customer.Customer
	products   []product.Product
	orders     []order.Order
	orderItems []order.Item
	profiles   []paymentprofile.Profile
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.CustomerStore = (*Store)(nil)
var _ storage.ProductStore = (*Store)(nil)
var _ storage.OrderStore = (*Store)(nil)
var _ storage.PaymentProfileStore = (*Store)(nil)

// New creates an empty store.
func New() *Store { return &Store{} }

type record interface {
	Reference() map[string]any
	Deleted() bool
}

// matchFilters implements FindBy semantics: any filter may match, and every
// key of a filter must equal the record's value.
func matchFilters(ref map[string]any, filters []storage.Filter) bool {
	for _, filter := range filters {
		matched := true
		for key, want := range filter {
			if ref[key] != want {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func findRecords[T record](items []T, filters []storage.Filter) []T {
	var out []T
	for _, item := range items {
		if item.Deleted() {
			continue
		}
		if matchFilters(item.Reference(), filters) {
			out = append(out, item)
		}
	}
	return out
}

func listRecords[T record](items []T, q storage.ListQuery) []T {
	var out []T
	for _, item := range items {
		if item.Deleted() {
			continue
		}
		if q.Filters.Matches(item.Reference()) {
			out = append(out, item)
		}
	}

	if q.OrderBy != "" {
		desc := q.Order == "desc"
		sort.SliceStable(out, func(i, j int) bool {
			a := stringValue(out[i].Reference()[q.OrderBy])
			b := stringValue(out[j].Reference()[q.OrderBy])
			if desc {
				return a > b
			}
			return a < b
		})
	}

	page, perPage := q.Page, q.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	start := (page - 1) * perPage
	if start >= len(out) {
		return nil
	}
	end := start + perPage
	if end > len(out) {
		end = len(out)
	}
	return out[start:end]
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return ""
}

func now() *time.Time {
	t := time.Now().UTC()
	return &t
}

// Users -----------------------------------------------------------------------

func (s *Store) FindByUsers(_ context.Context, filters []storage.Filter) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findRecords(s.users, filters), nil
}

func (s *Store) ListUsers(_ context.Context, q storage.ListQuery) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRecords(s.users, q), nil
}

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	s.users = append(s.users, u)
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.users {
		if existing.ID != u.ID || existing.Deleted() {
			continue
		}
		u.CreatedAt = existing.CreatedAt
		u.CreateUserID = existing.CreateUserID
		u.UpdatedAt = now()
		s.users[i] = u
		return u, nil
	}
	return user.User{}, storage.ErrNotFound
}

func (s *Store) RemoveUser(_ context.Context, id, deleteUserID string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.users {
		if existing.ID != id || existing.Deleted() {
			continue
		}
		existing.DeleteUserID = deleteUserID
		existing.DeletedAt = now()
		s.users[i] = existing
		return existing, nil
	}
	return user.User{}, storage.ErrNotFound
}

// Customers -------------------------------------------------------------------

func (s *Store) FindByCustomers(_ context.Context, filters []storage.Filter) ([]customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findRecords(s.customers, filters), nil
}

func (s *Store) ListCustomers(_ context.Context, q storage.ListQuery) ([]customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRecords(s.customers, q), nil
}

func (s *Store) CreateCustomer(_ context.Context, c customer.Customer) (customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	s.customers = append(s.customers, c)
	return c, nil
}

func (s *Store) UpdateCustomer(_ context.Context, c customer.Customer) (customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.customers {
		if existing.ID != c.ID || existing.Deleted() {
			continue
		}
		c.CreatedAt = existing.CreatedAt
		c.CreateUserID = existing.CreateUserID
		c.UpdatedAt = now()
		s.customers[i] = c
		return c, nil
	}
	return customer.Customer{}, storage.ErrNotFound
}

func (s *Store) RemoveCustomer(_ context.Context, id, deleteUserID string) (customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.customers {
		if existing.ID != id || existing.Deleted() {
			continue
		}
		existing.DeleteUserID = deleteUserID
		existing.DeletedAt = now()
		s.customers[i] = existing
		return existing, nil
	}
	return customer.Customer{}, storage.ErrNotFound
}

// Products --------------------------------------------------------------------

func (s *Store) FindByProducts(_ context.Context, filters []storage.Filter) ([]product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findRecords(s.products, filters), nil
}

func (s *Store) ListProducts(_ context.Context, q storage.ListQuery) ([]product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRecords(s.products, q), nil
}

func (s *Store) CreateProduct(_ context.Context, p product.Product) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	s.products = append(s.products, p)
	return p, nil
}

func (s *Store) UpdateProduct(_ context.Context, p product.Product) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.products {
		if existing.ID != p.ID || existing.Deleted() {
			continue
		}
		p.CreatedAt = existing.CreatedAt
		p.CreateUserID = existing.CreateUserID
		p.UpdatedAt = now()
		s.products[i] = p
		return p, nil
	}
	return product.Product{}, storage.ErrNotFound
}

func (s *Store) RemoveProduct(_ context.Context, id, deleteUserID string) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.products {
		if existing.ID != id || existing.Deleted() {
			continue
		}
		existing.DeleteUserID = deleteUserID
		existing.DeletedAt = now()
		s.products[i] = existing
		return existing, nil
	}
	return product.Product{}, storage.ErrNotFound
}

// Orders ----------------------------------------------------------------------

func (s *Store) FindByOrders(_ context.Context, filters []storage.Filter) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findRecords(s.orders, filters), nil
}

func (s *Store) ListOrders(_ context.Context, q storage.ListQuery) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRecords(s.orders, q), nil
}

func (s *Store) CreateOrder(_ context.Context, o order.Order, items []order.Item) (order.Order, []order.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = uuid.NewString()
	o.CreatedAt = time.Now().UTC()
	s.orders = append(s.orders, o)

	created := make([]order.Item, 0, len(items))
	for _, item := range items {
		item.ID = uuid.NewString()
		item.OrderID = o.ID
		item.CreateUserID = o.CreateUserID
		item.CreatedAt = o.CreatedAt
		s.orderItems = append(s.orderItems, item)
		created = append(created, item)
	}
	return o, created, nil
}

func (s *Store) RemoveOrder(_ context.Context, id, deleteUserID string) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.orders {
		if existing.ID != id || existing.Deleted() {
			continue
		}
		existing.DeleteUserID = deleteUserID
		existing.DeletedAt = now()
		s.orders[i] = existing
		for j, item := range s.orderItems {
			if item.OrderID == id && !item.Deleted() {
				item.DeleteUserID = deleteUserID
				item.DeletedAt = existing.DeletedAt
				s.orderItems[j] = item
			}
		}
		return existing, nil
	}
	return order.Order{}, storage.ErrNotFound
}

func (s *Store) FindByOrderItems(_ context.Context, filters []storage.Filter) ([]order.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findRecords(s.orderItems, filters), nil
}

// Payment profiles ------------------------------------------------------------

func (s *Store) FindByPaymentProfiles(_ context.Context, filters []storage.Filter) ([]paymentprofile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findRecords(s.profiles, filters), nil
}

func (s *Store) ListPaymentProfiles(_ context.Context, q storage.ListQuery) ([]paymentprofile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRecords(s.profiles, q), nil
}

func (s *Store) CreatePaymentProfile(_ context.Context, p paymentprofile.Profile) (paymentprofile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	s.profiles = append(s.profiles, p)
	return p, nil
}

func (s *Store) UpdatePaymentProfile(_ context.Context, p paymentprofile.Profile) (paymentprofile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.profiles {
		if existing.ID != p.ID || existing.Deleted() {
			continue
		}
		p.CreatedAt = existing.CreatedAt
		p.CreateUserID = existing.CreateUserID
		p.UpdatedAt = now()
		s.profiles[i] = p
		return p, nil
	}
	return paymentprofile.Profile{}, storage.ErrNotFound
}

func (s *Store) RemovePaymentProfile(_ context.Context, id, deleteUserID string) (paymentprofile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.profiles {
		if existing.ID != id || existing.Deleted() {
			continue
		}
		existing.DeleteUserID = deleteUserID
		existing.DeletedAt = now()
		s.profiles[i] = existing
		return existing, nil
	}
	return paymentprofile.Profile{}, storage.ErrNotFound
}
