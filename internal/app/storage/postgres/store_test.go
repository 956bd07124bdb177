package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/commercekit/service-layer/internal/app/domain/customer"
	"github.com/commercekit/service-layer/internal/app/storage"
	"github.com/commercekit/service-layer/internal/validation"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func customerRows(c customer.Customer) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email",
		"create_user_id", "update_user_id", "delete_user_id", "created_at", "updated_at", "deleted_at",
	}).AddRow(c.ID, c.Name, c.Email, nil, nil, nil, c.CreatedAt, nil, nil)
}

func TestFindByCustomersQuery(t *testing.T) {
	store, mock := newMock(t)

	want := customer.Customer{Name: "Alice Smith", Email: "alice@mail.com"}
	want.ID = "cust-1"
	want.CreatedAt = time.Now().UTC()

	mock.ExpectQuery("SELECT id, name, email, create_user_id, update_user_id, delete_user_id, created_at, updated_at, deleted_at FROM customers WHERE deleted_at IS NULL AND ((email = $1))").
		WithArgs("alice@mail.com").
		WillReturnRows(customerRows(want))

	found, err := store.FindByCustomers(context.Background(), []storage.Filter{{"email": "alice@mail.com"}})
	if err != nil {
		t.Fatalf("FindByCustomers: %v", err)
	}
	if len(found) != 1 || found[0].Email != want.Email {
		t.Fatalf("unexpected result: %+v", found)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFindByMultipleFiltersBecomeDisjunction(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("SELECT id, name, email, create_user_id, update_user_id, delete_user_id, created_at, updated_at, deleted_at FROM customers WHERE deleted_at IS NULL AND ((email = $1) OR (id = $2))").
		WithArgs("alice@mail.com", "cust-2").
		WillReturnRows(customerRows(customer.Customer{}))

	_, err := store.FindByCustomers(context.Background(), []storage.Filter{
		{"email": "alice@mail.com"},
		{"id": "cust-2"},
	})
	if err != nil {
		t.Fatalf("FindByCustomers: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListCustomersTranslatesFilterTree(t *testing.T) {
	store, mock := newMock(t)

	node, _, err := validation.ParseFilters(
		`["&", [":", "name", "ali"], ["in", "email", ["a@mail.com", "b@mail.com"]]]`,
		[]string{"name", "email"})
	if err != nil {
		t.Fatalf("ParseFilters: %v", err)
	}

	mock.ExpectQuery("SELECT id, name, email, create_user_id, update_user_id, delete_user_id, created_at, updated_at, deleted_at FROM customers WHERE deleted_at IS NULL AND (name::text ILIKE '%' || $1 || '%' AND email IN ($2, $3)) ORDER BY name DESC LIMIT 30 OFFSET 30").
		WithArgs("ali", "a@mail.com", "b@mail.com").
		WillReturnRows(customerRows(customer.Customer{}))

	_, err = store.ListCustomers(context.Background(), storage.ListQuery{
		Page: 2, PerPage: 30, OrderBy: "name", Order: "desc", Filters: node,
	})
	if err != nil {
		t.Fatalf("ListCustomers: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListDefaultsPagination(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("SELECT id, name, email, create_user_id, update_user_id, delete_user_id, created_at, updated_at, deleted_at FROM customers WHERE deleted_at IS NULL ORDER BY created_at ASC LIMIT 20 OFFSET 0").
		WillReturnRows(customerRows(customer.Customer{}))

	if _, err := store.ListCustomers(context.Background(), storage.ListQuery{}); err != nil {
		t.Fatalf("ListCustomers: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateCustomerInsert(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("INSERT INTO customers (id, name, email, create_user_id, created_at) VALUES ($1, $2, $3, $4, $5)").
		WithArgs(sqlmock.AnyArg(), "Alice Smith", "alice@mail.com", "admin-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c := customer.Customer{Name: "Alice Smith", Email: "alice@mail.com"}
	c.CreateUserID = "admin-1"
	created, err := store.CreateCustomer(context.Background(), c)
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and createdAt, got %+v", created.Fields)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateMissingCustomerReturnsNotFound(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("UPDATE customers SET name = $1, email = $2, update_user_id = $3, updated_at = $4 WHERE id = $5 AND deleted_at IS NULL RETURNING id, name, email, create_user_id, update_user_id, delete_user_id, created_at, updated_at, deleted_at").
		WithArgs("Alice Smith", "alice@mail.com", nil, sqlmock.AnyArg(), "missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	c := customer.Customer{Name: "Alice Smith", Email: "alice@mail.com"}
	c.ID = "missing"
	_, err := store.UpdateCustomer(context.Background(), c)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRemoveOrderDeletesItemsInOneTransaction(t *testing.T) {
	store, mock := newMock(t)

	orderRow := sqlmock.NewRows([]string{
		"id", "customer_id", "payment_profile_id", "status", "total_value",
		"create_user_id", "update_user_id", "delete_user_id", "created_at", "updated_at", "deleted_at",
	}).AddRow("ord-1", "cust-1", "pay-1", "AWAITING_PAYMENT", int64(100), nil, nil, "admin-1", time.Now().UTC(), nil, time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE orders SET delete_user_id = $1, deleted_at = $2 WHERE id = $3 AND deleted_at IS NULL RETURNING id, customer_id, payment_profile_id, status, total_value, create_user_id, update_user_id, delete_user_id, created_at, updated_at, deleted_at").
		WithArgs("admin-1", sqlmock.AnyArg(), "ord-1").
		WillReturnRows(orderRow)
	mock.ExpectExec("UPDATE order_items SET delete_user_id = $1, deleted_at = $2 WHERE order_id = $3 AND deleted_at IS NULL").
		WithArgs("admin-1", sqlmock.AnyArg(), "ord-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	removed, err := store.RemoveOrder(context.Background(), "ord-1", "admin-1")
	if err != nil {
		t.Fatalf("RemoveOrder: %v", err)
	}
	if removed.DeleteUserID != "admin-1" || removed.DeletedAt == nil {
		t.Fatalf("expected delete stamps, got %+v", removed.Fields)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFindByRejectsUnknownFilterField(t *testing.T) {
	store, mock := newMock(t)

	_, err := store.FindByCustomers(context.Background(), []storage.Filter{{"passwordHash": "x"}})
	if err == nil {
		t.Fatal("expected an error for an unmapped filter field")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
