// Package postgres implements the storage interfaces over database/sql.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/commercekit/service-layer/internal/app/domain/audit"
	"github.com/commercekit/service-layer/internal/app/domain/customer"
	"github.com/commercekit/service-layer/internal/app/domain/order"
	"github.com/commercekit/service-layer/internal/app/domain/paymentprofile"
	"github.com/commercekit/service-layer/internal/app/domain/product"
	"github.com/commercekit/service-layer/internal/app/domain/user"
	"github.com/commercekit/service-layer/internal/app/storage"
	"github.com/commercekit/service-layer/internal/validation"
)

// Store is a PostgreSQL-backed implementation of every entity store.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.CustomerStore = (*Store)(nil)
var _ storage.ProductStore = (*Store)(nil)
var _ storage.OrderStore = (*Store)(nil)
var _ storage.PaymentProfileStore = (*Store)(nil)

// New wraps an open database handle.
func New(db *sql.DB) *Store { return &Store{db: db} }

const auditColumns = "create_user_id, update_user_id, delete_user_id, created_at, updated_at, deleted_at"

// Per-entity maps from reference field names to columns. Anything missing
// here cannot be filtered or ordered on.
var (
	auditFieldColumns = map[string]string{
		"id":           "id",
		"createUserId": "create_user_id",
		"updateUserId": "update_user_id",
		"createdAt":    "created_at",
		"updatedAt":    "updated_at",
	}

	userColumns           = withAuditFields(map[string]string{"name": "name", "email": "email"})
	customerColumns       = withAuditFields(map[string]string{"name": "name", "email": "email"})
	productColumns        = withAuditFields(map[string]string{"name": "name", "category": "category", "price": "price"})
	orderColumns          = withAuditFields(map[string]string{"customerId": "customer_id", "paymentProfileId": "payment_profile_id", "status": "status", "totalValue": "total_value"})
	orderItemColumns      = withAuditFields(map[string]string{"orderId": "order_id", "productId": "product_id", "quantity": "quantity"})
	paymentProfileColumns = withAuditFields(map[string]string{"userId": "user_id", "paymentMethod": "payment_method"})
)

func withAuditFields(cols map[string]string) map[string]string {
	for field, column := range auditFieldColumns {
		cols[field] = column
	}
	return cols
}

// errUnknownColumn marks filter fields without a column mapping. Callers are
// expected to have validated fields already, so this surfaces a wiring bug.
var errUnknownColumn = errors.New("no column for filter field")

// whereFilters renders []Filter as (a AND b) OR (c AND d) with bound args.
func whereFilters(filters []storage.Filter, cols map[string]string, args *[]any) (string, error) {
	var groups []string
	for _, filter := range filters {
		keys := make([]string, 0, len(filter))
		for key := range filter {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		var conds []string
		for _, key := range keys {
			column, ok := cols[key]
			if !ok {
				return "", fmt.Errorf("%w: %s", errUnknownColumn, key)
			}
			*args = append(*args, filter[key])
			conds = append(conds, fmt.Sprintf("%s = $%d", column, len(*args)))
		}
		if len(conds) == 0 {
			continue
		}
		groups = append(groups, "("+strings.Join(conds, " AND ")+")")
	}
	if len(groups) == 0 {
		return "FALSE", nil
	}
	return "(" + strings.Join(groups, " OR ") + ")", nil
}

// whereNode renders a parsed list-filter tree as a WHERE fragment.
func whereNode(n *validation.FilterNode, cols map[string]string, args *[]any) (string, error) {
	if n == nil {
		return "", nil
	}
	if !n.IsLeaf() {
		joiner := " AND "
		if n.Op == "|" {
			joiner = " OR "
		}
		var parts []string
		for _, child := range n.Children {
			part, err := whereNode(child, cols, args)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		return "(" + strings.Join(parts, joiner) + ")", nil
	}

	column, ok := cols[n.Field]
	if !ok {
		return "", fmt.Errorf("%w: %s", errUnknownColumn, n.Field)
	}

	switch n.Op {
	case "in":
		placeholders := make([]string, 0, len(n.Values))
		for _, value := range n.Values {
			*args = append(*args, value)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(*args)))
		}
		if len(placeholders) == 0 {
			return "FALSE", nil
		}
		return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")), nil
	case ":":
		*args = append(*args, n.Values[0])
		return fmt.Sprintf("%s::text ILIKE '%%' || $%d || '%%'", column, len(*args)), nil
	case "!:":
		*args = append(*args, n.Values[0])
		return fmt.Sprintf("%s::text NOT ILIKE '%%' || $%d || '%%'", column, len(*args)), nil
	case "=", "!=", ">", ">=", "<", "<=":
		*args = append(*args, n.Values[0])
		return fmt.Sprintf("%s %s $%d", column, n.Op, len(*args)), nil
	}
	return "", fmt.Errorf("%w: operator %s", errUnknownColumn, n.Op)
}

// listClause renders ORDER BY / LIMIT / OFFSET with the query's defaults.
func listClause(q storage.ListQuery, cols map[string]string) string {
	orderColumn := "created_at"
	if column, ok := cols[q.OrderBy]; ok {
		orderColumn = column
	}
	direction := "ASC"
	if q.Order == "desc" {
		direction = "DESC"
	}
	page, perPage := q.Page, q.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	return fmt.Sprintf(" ORDER BY %s %s LIMIT %d OFFSET %d", orderColumn, direction, perPage, (page-1)*perPage)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAudit(f *audit.Fields, createUser, updateUser, deleteUser *sql.NullString, updatedAt, deletedAt *sql.NullTime) {
	f.CreateUserID = createUser.String
	f.UpdateUserID = updateUser.String
	f.DeleteUserID = deleteUser.String
	if updatedAt.Valid {
		t := updatedAt.Time
		f.UpdatedAt = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		f.DeletedAt = &t
	}
}

func now() time.Time { return time.Now().UTC() }

// Users -----------------------------------------------------------------------

const userSelect = "SELECT id, name, email, password_hash, roles, " + auditColumns + " FROM users"

func scanUser(row rowScanner) (user.User, error) {
	var u user.User
	var roles pq.StringArray
	var createUser, updateUser, deleteUser sql.NullString
	var updatedAt, deletedAt sql.NullTime
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &roles,
		&createUser, &updateUser, &deleteUser, &u.CreatedAt, &updatedAt, &deletedAt)
	if err != nil {
		return user.User{}, err
	}
	scanAudit(&u.Fields, &createUser, &updateUser, &deleteUser, &updatedAt, &deletedAt)
	for _, role := range roles {
		u.Roles = append(u.Roles, user.Role(role))
	}
	return u, nil
}

func (s *Store) queryUsers(ctx context.Context, query string, args []any) ([]user.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) FindByUsers(ctx context.Context, filters []storage.Filter) ([]user.User, error) {
	var args []any
	where, err := whereFilters(filters, userColumns, &args)
	if err != nil {
		return nil, err
	}
	return s.queryUsers(ctx, userSelect+" WHERE deleted_at IS NULL AND "+where, args)
}

func (s *Store) ListUsers(ctx context.Context, q storage.ListQuery) ([]user.User, error) {
	var args []any
	query := userSelect + " WHERE deleted_at IS NULL"
	if where, err := whereNode(q.Filters, userColumns, &args); err != nil {
		return nil, err
	} else if where != "" {
		query += " AND " + where
	}
	return s.queryUsers(ctx, query+listClause(q, userColumns), args)
}

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	u.ID = uuid.NewString()
	u.CreatedAt = now()
	roles := make(pq.StringArray, 0, len(u.Roles))
	for _, role := range u.Roles {
		roles = append(roles, string(role))
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash, roles, create_user_id, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		u.ID, u.Name, u.Email, u.PasswordHash, roles, nullable(u.CreateUserID), u.CreatedAt)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	roles := make(pq.StringArray, 0, len(u.Roles))
	for _, role := range u.Roles {
		roles = append(roles, string(role))
	}
	row := s.db.QueryRowContext(ctx,
		"UPDATE users SET name = $1, email = $2, password_hash = $3, roles = $4, update_user_id = $5, updated_at = $6 WHERE id = $7 AND deleted_at IS NULL RETURNING "+selectList(userSelect),
		u.Name, u.Email, u.PasswordHash, roles, nullable(u.UpdateUserID), now(), u.ID)
	updated, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, storage.ErrNotFound
	}
	return updated, err
}

func (s *Store) RemoveUser(ctx context.Context, id, deleteUserID string) (user.User, error) {
	row := s.db.QueryRowContext(ctx,
		"UPDATE users SET delete_user_id = $1, deleted_at = $2 WHERE id = $3 AND deleted_at IS NULL RETURNING "+selectList(userSelect),
		nullable(deleteUserID), now(), id)
	removed, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, storage.ErrNotFound
	}
	return removed, err
}

// Customers -------------------------------------------------------------------

const customerSelect = "SELECT id, name, email, " + auditColumns + " FROM customers"

func scanCustomer(row rowScanner) (customer.Customer, error) {
	var c customer.Customer
	var createUser, updateUser, deleteUser sql.NullString
	var updatedAt, deletedAt sql.NullTime
	err := row.Scan(&c.ID, &c.Name, &c.Email,
		&createUser, &updateUser, &deleteUser, &c.CreatedAt, &updatedAt, &deletedAt)
	if err != nil {
		return customer.Customer{}, err
	}
	scanAudit(&c.Fields, &createUser, &updateUser, &deleteUser, &updatedAt, &deletedAt)
	return c, nil
}

func (s *Store) queryCustomers(ctx context.Context, query string, args []any) ([]customer.Customer, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []customer.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) FindByCustomers(ctx context.Context, filters []storage.Filter) ([]customer.Customer, error) {
	var args []any
	where, err := whereFilters(filters, customerColumns, &args)
	if err != nil {
		return nil, err
	}
	return s.queryCustomers(ctx, customerSelect+" WHERE deleted_at IS NULL AND "+where, args)
}

func (s *Store) ListCustomers(ctx context.Context, q storage.ListQuery) ([]customer.Customer, error) {
	var args []any
	query := customerSelect + " WHERE deleted_at IS NULL"
	if where, err := whereNode(q.Filters, customerColumns, &args); err != nil {
		return nil, err
	} else if where != "" {
		query += " AND " + where
	}
	return s.queryCustomers(ctx, query+listClause(q, customerColumns), args)
}

func (s *Store) CreateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = now()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO customers (id, name, email, create_user_id, created_at) VALUES ($1, $2, $3, $4, $5)",
		c.ID, c.Name, c.Email, nullable(c.CreateUserID), c.CreatedAt)
	if err != nil {
		return customer.Customer{}, err
	}
	return c, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error) {
	row := s.db.QueryRowContext(ctx,
		"UPDATE customers SET name = $1, email = $2, update_user_id = $3, updated_at = $4 WHERE id = $5 AND deleted_at IS NULL RETURNING "+selectList(customerSelect),
		c.Name, c.Email, nullable(c.UpdateUserID), now(), c.ID)
	updated, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return customer.Customer{}, storage.ErrNotFound
	}
	return updated, err
}

func (s *Store) RemoveCustomer(ctx context.Context, id, deleteUserID string) (customer.Customer, error) {
	row := s.db.QueryRowContext(ctx,
		"UPDATE customers SET delete_user_id = $1, deleted_at = $2 WHERE id = $3 AND deleted_at IS NULL RETURNING "+selectList(customerSelect),
		nullable(deleteUserID), now(), id)
	removed, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return customer.Customer{}, storage.ErrNotFound
	}
	return removed, err
}

// Products --------------------------------------------------------------------

const productSelect = "SELECT id, name, category, image, price, description, " + auditColumns + " FROM products"

func scanProduct(row rowScanner) (product.Product, error) {
	var p product.Product
	var image, description sql.NullString
	var createUser, updateUser, deleteUser sql.NullString
	var updatedAt, deletedAt sql.NullTime
	err := row.Scan(&p.ID, &p.Name, &p.Category, &image, &p.Price, &description,
		&createUser, &updateUser, &deleteUser, &p.CreatedAt, &updatedAt, &deletedAt)
	if err != nil {
		return product.Product{}, err
	}
	p.Image = image.String
	p.Description = description.String
	scanAudit(&p.Fields, &createUser, &updateUser, &deleteUser, &updatedAt, &deletedAt)
	return p, nil
}

func (s *Store) queryProducts(ctx context.Context, query string, args []any) ([]product.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) FindByProducts(ctx context.Context, filters []storage.Filter) ([]product.Product, error) {
	var args []any
	where, err := whereFilters(filters, productColumns, &args)
	if err != nil {
		return nil, err
	}
	return s.queryProducts(ctx, productSelect+" WHERE deleted_at IS NULL AND "+where, args)
}

func (s *Store) ListProducts(ctx context.Context, q storage.ListQuery) ([]product.Product, error) {
	var args []any
	query := productSelect + " WHERE deleted_at IS NULL"
	if where, err := whereNode(q.Filters, productColumns, &args); err != nil {
		return nil, err
	} else if where != "" {
		query += " AND " + where
	}
	return s.queryProducts(ctx, query+listClause(q, productColumns), args)
}

func (s *Store) CreateProduct(ctx context.Context, p product.Product) (product.Product, error) {
	p.ID = uuid.NewString()
	p.CreatedAt = now()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO products (id, name, category, image, price, description, create_user_id, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		p.ID, p.Name, p.Category, nullable(p.Image), p.Price, nullable(p.Description), nullable(p.CreateUserID), p.CreatedAt)
	if err != nil {
		return product.Product{}, err
	}
	return p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p product.Product) (product.Product, error) {
	row := s.db.QueryRowContext(ctx,
		"UPDATE products SET name = $1, category = $2, image = $3, price = $4, description = $5, update_user_id = $6, updated_at = $7 WHERE id = $8 AND deleted_at IS NULL RETURNING "+selectList(productSelect),
		p.Name, p.Category, nullable(p.Image), p.Price, nullable(p.Description), nullable(p.UpdateUserID), now(), p.ID)
	updated, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return product.Product{}, storage.ErrNotFound
	}
	return updated, err
}

func (s *Store) RemoveProduct(ctx context.Context, id, deleteUserID string) (product.Product, error) {
	row := s.db.QueryRowContext(ctx,
		"UPDATE products SET delete_user_id = $1, deleted_at = $2 WHERE id = $3 AND deleted_at IS NULL RETURNING "+selectList(productSelect),
		nullable(deleteUserID), now(), id)
	removed, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return product.Product{}, storage.ErrNotFound
	}
	return removed, err
}

// Orders ----------------------------------------------------------------------

const orderSelect = "SELECT id, customer_id, payment_profile_id, status, total_value, " + auditColumns + " FROM orders"
const orderItemSelect = "SELECT id, order_id, product_id, quantity, unit_value, total_value, " + auditColumns + " FROM order_items"

func scanOrder(row rowScanner) (order.Order, error) {
	var o order.Order
	var createUser, updateUser, deleteUser sql.NullString
	var updatedAt, deletedAt sql.NullTime
	err := row.Scan(&o.ID, &o.CustomerID, &o.PaymentProfileID, &o.Status, &o.TotalValue,
		&createUser, &updateUser, &deleteUser, &o.CreatedAt, &updatedAt, &deletedAt)
	if err != nil {
		return order.Order{}, err
	}
	scanAudit(&o.Fields, &createUser, &updateUser, &deleteUser, &updatedAt, &deletedAt)
	return o, nil
}

func scanOrderItem(row rowScanner) (order.Item, error) {
	var i order.Item
	var createUser, updateUser, deleteUser sql.NullString
	var updatedAt, deletedAt sql.NullTime
	err := row.Scan(&i.ID, &i.OrderID, &i.ProductID, &i.Quantity, &i.UnitValue, &i.TotalValue,
		&createUser, &updateUser, &deleteUser, &i.CreatedAt, &updatedAt, &deletedAt)
	if err != nil {
		return order.Item{}, err
	}
	scanAudit(&i.Fields, &createUser, &updateUser, &deleteUser, &updatedAt, &deletedAt)
	return i, nil
}

func (s *Store) queryOrders(ctx context.Context, query string, args []any) ([]order.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) FindByOrders(ctx context.Context, filters []storage.Filter) ([]order.Order, error) {
	var args []any
	where, err := whereFilters(filters, orderColumns, &args)
	if err != nil {
		return nil, err
	}
	return s.queryOrders(ctx, orderSelect+" WHERE deleted_at IS NULL AND "+where, args)
}

func (s *Store) ListOrders(ctx context.Context, q storage.ListQuery) ([]order.Order, error) {
	var args []any
	query := orderSelect + " WHERE deleted_at IS NULL"
	if where, err := whereNode(q.Filters, orderColumns, &args); err != nil {
		return nil, err
	} else if where != "" {
		query += " AND " + where
	}
	return s.queryOrders(ctx, query+listClause(q, orderColumns), args)
}

func (s *Store) CreateOrder(ctx context.Context, o order.Order, items []order.Item) (order.Order, []order.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return order.Order{}, nil, err
	}
	defer tx.Rollback()

	o.ID = uuid.NewString()
	o.CreatedAt = now()
	_, err = tx.ExecContext(ctx,
		"INSERT INTO orders (id, customer_id, payment_profile_id, status, total_value, create_user_id, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		o.ID, o.CustomerID, o.PaymentProfileID, o.Status, o.TotalValue, nullable(o.CreateUserID), o.CreatedAt)
	if err != nil {
		return order.Order{}, nil, err
	}

	created := make([]order.Item, 0, len(items))
	for _, item := range items {
		item.ID = uuid.NewString()
		item.OrderID = o.ID
		item.CreateUserID = o.CreateUserID
		item.CreatedAt = o.CreatedAt
		_, err = tx.ExecContext(ctx,
			"INSERT INTO order_items (id, order_id, product_id, quantity, unit_value, total_value, create_user_id, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
			item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitValue, item.TotalValue, nullable(item.CreateUserID), item.CreatedAt)
		if err != nil {
			return order.Order{}, nil, err
		}
		created = append(created, item)
	}

	if err := tx.Commit(); err != nil {
		return order.Order{}, nil, err
	}
	return o, created, nil
}

func (s *Store) RemoveOrder(ctx context.Context, id, deleteUserID string) (order.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return order.Order{}, err
	}
	defer tx.Rollback()

	deletedAt := now()
	row := tx.QueryRowContext(ctx,
		"UPDATE orders SET delete_user_id = $1, deleted_at = $2 WHERE id = $3 AND deleted_at IS NULL RETURNING "+selectList(orderSelect),
		nullable(deleteUserID), deletedAt, id)
	removed, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, storage.ErrNotFound
	}
	if err != nil {
		return order.Order{}, err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE order_items SET delete_user_id = $1, deleted_at = $2 WHERE order_id = $3 AND deleted_at IS NULL",
		nullable(deleteUserID), deletedAt, id)
	if err != nil {
		return order.Order{}, err
	}

	if err := tx.Commit(); err != nil {
		return order.Order{}, err
	}
	return removed, nil
}

func (s *Store) FindByOrderItems(ctx context.Context, filters []storage.Filter) ([]order.Item, error) {
	var args []any
	where, err := whereFilters(filters, orderItemColumns, &args)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, orderItemSelect+" WHERE deleted_at IS NULL AND "+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.Item
	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Payment profiles ------------------------------------------------------------

const paymentProfileSelect = "SELECT id, user_id, payment_method, data, " + auditColumns + " FROM payment_profiles"

func scanPaymentProfile(row rowScanner) (paymentprofile.Profile, error) {
	var p paymentprofile.Profile
	var data []byte
	var createUser, updateUser, deleteUser sql.NullString
	var updatedAt, deletedAt sql.NullTime
	err := row.Scan(&p.ID, &p.UserID, &p.PaymentMethod, &data,
		&createUser, &updateUser, &deleteUser, &p.CreatedAt, &updatedAt, &deletedAt)
	if err != nil {
		return paymentprofile.Profile{}, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p.Data); err != nil {
			return paymentprofile.Profile{}, err
		}
	}
	scanAudit(&p.Fields, &createUser, &updateUser, &deleteUser, &updatedAt, &deletedAt)
	return p, nil
}

func (s *Store) queryPaymentProfiles(ctx context.Context, query string, args []any) ([]paymentprofile.Profile, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []paymentprofile.Profile
	for rows.Next() {
		p, err := scanPaymentProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) FindByPaymentProfiles(ctx context.Context, filters []storage.Filter) ([]paymentprofile.Profile, error) {
	var args []any
	where, err := whereFilters(filters, paymentProfileColumns, &args)
	if err != nil {
		return nil, err
	}
	return s.queryPaymentProfiles(ctx, paymentProfileSelect+" WHERE deleted_at IS NULL AND "+where, args)
}

func (s *Store) ListPaymentProfiles(ctx context.Context, q storage.ListQuery) ([]paymentprofile.Profile, error) {
	var args []any
	query := paymentProfileSelect + " WHERE deleted_at IS NULL"
	if where, err := whereNode(q.Filters, paymentProfileColumns, &args); err != nil {
		return nil, err
	} else if where != "" {
		query += " AND " + where
	}
	return s.queryPaymentProfiles(ctx, query+listClause(q, paymentProfileColumns), args)
}

func (s *Store) CreatePaymentProfile(ctx context.Context, p paymentprofile.Profile) (paymentprofile.Profile, error) {
	data, err := json.Marshal(p.Data)
	if err != nil {
		return paymentprofile.Profile{}, err
	}
	p.ID = uuid.NewString()
	p.CreatedAt = now()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO payment_profiles (id, user_id, payment_method, data, create_user_id, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		p.ID, p.UserID, p.PaymentMethod, data, nullable(p.CreateUserID), p.CreatedAt)
	if err != nil {
		return paymentprofile.Profile{}, err
	}
	return p, nil
}

func (s *Store) UpdatePaymentProfile(ctx context.Context, p paymentprofile.Profile) (paymentprofile.Profile, error) {
	data, err := json.Marshal(p.Data)
	if err != nil {
		return paymentprofile.Profile{}, err
	}
	row := s.db.QueryRowContext(ctx,
		"UPDATE payment_profiles SET user_id = $1, payment_method = $2, data = $3, update_user_id = $4, updated_at = $5 WHERE id = $6 AND deleted_at IS NULL RETURNING "+selectList(paymentProfileSelect),
		p.UserID, p.PaymentMethod, data, nullable(p.UpdateUserID), now(), p.ID)
	updated, err := scanPaymentProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return paymentprofile.Profile{}, storage.ErrNotFound
	}
	return updated, err
}

func (s *Store) RemovePaymentProfile(ctx context.Context, id, deleteUserID string) (paymentprofile.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		"UPDATE payment_profiles SET delete_user_id = $1, deleted_at = $2 WHERE id = $3 AND deleted_at IS NULL RETURNING "+selectList(paymentProfileSelect),
		nullable(deleteUserID), now(), id)
	removed, err := scanPaymentProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return paymentprofile.Profile{}, storage.ErrNotFound
	}
	return removed, err
}

// selectList extracts the column list of a "SELECT cols FROM table" constant
// so RETURNING clauses stay in sync with the scanners.
func selectList(selectStmt string) string {
	cols := strings.TrimPrefix(selectStmt, "SELECT ")
	if idx := strings.Index(cols, " FROM "); idx >= 0 {
		cols = cols[:idx]
	}
	return cols
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
