// Package orders implements the order use cases. Order totals are computed
// server-side from the product prices at order time.
package orders

import (
	"context"

	"github.com/commercekit/service-layer/internal/app/domain/order"
	"github.com/commercekit/service-layer/internal/app/domain/session"
	"github.com/commercekit/service-layer/internal/app/services/listing"
	"github.com/commercekit/service-layer/internal/app/services/payload"
	"github.com/commercekit/service-layer/internal/app/storage"
	"github.com/commercekit/service-layer/internal/validation"
	"github.com/commercekit/service-layer/pkg/logger"
)

// Order shape bounds.
const (
	MaxOrderItems   = 10
	MaxItemQuantity = 10
)

// Service manages orders and their items.
type Service struct {
	store           storage.OrderStore
	customers       storage.CustomerStore
	products        storage.ProductStore
	paymentProfiles storage.PaymentProfileStore
	log             *logger.Logger
}

// New constructs an order service.
func New(store storage.OrderStore, customers storage.CustomerStore, products storage.ProductStore, paymentProfiles storage.PaymentProfileStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("orders")
	}
	return &Service{store: store, customers: customers, products: products, paymentProfiles: paymentProfiles, log: log}
}

func idRules() []validation.Rule {
	return []validation.Rule{validation.Required(), validation.String(), validation.Regex(validation.PatternUUIDV4)}
}

func statuses() []any {
	out := make([]any, 0, len(order.Statuses))
	for _, status := range order.Statuses {
		out = append(out, string(status))
	}
	return out
}

func createSchema() validation.Schema {
	return validation.Schema{
		"customerId":       idRules(),
		"paymentProfileId": idRules(),
		"status":           {validation.String(), validation.In(statuses()...)},
		"orderItems": {
			validation.Required(),
			validation.Array(validation.Object(validation.Schema{
				"productId": {validation.Required(), validation.String(), validation.Regex(validation.PatternUUIDV4)},
				"quantity":  {validation.Required(), validation.Integer(), validation.Min(1), validation.Max(MaxItemQuantity)},
			})),
			validation.Distinct("productId"),
			validation.Length(1, MaxOrderItems),
		},
	}
}

func crossSchema() validation.Schema {
	return validation.Schema{
		"customerId": {validation.Exists("customers", []validation.Prop{{ModelKey: "customerId", DataKey: "id"}})},
		"paymentProfileId": {validation.Exists("paymentProfiles", []validation.Prop{{ModelKey: "paymentProfileId", DataKey: "id"}})},
		"orderItems": {
			validation.Array(validation.Object(validation.Schema{
				"productId": {validation.Exists("products", []validation.Prop{{ModelKey: "productId", DataKey: "id"}})},
			})),
		},
	}
}

var orderByFields = []any{"status", "totalValue", "createdAt", "updatedAt"}

func filterSchema() validation.Schema {
	return validation.Schema{
		"customerId":       {validation.Array(validation.String(), validation.Regex(validation.PatternUUIDV4))},
		"paymentProfileId": {validation.Array(validation.String(), validation.Regex(validation.PatternUUIDV4))},
		"status":           {validation.Array(validation.String(), validation.In(statuses()...))},
		"totalValue":       {validation.Array(validation.Integer(), validation.Min(1))},
		"createUserId":     {validation.Array(validation.String(), validation.Regex(validation.PatternUUIDV4))},
		"updateUserId":     {validation.Array(validation.String(), validation.Regex(validation.PatternUUIDV4))},
		"createdAt":        {validation.Array(validation.String(), validation.Date())},
		"updatedAt":        {validation.Array(validation.String(), validation.Date())},
	}
}

type itemRequest struct {
	productID string
	quantity  int
}

func itemRequests(model map[string]any) []itemRequest {
	arr, _ := model["orderItems"].([]any)
	out := make([]itemRequest, 0, len(arr))
	for _, raw := range arr {
		item, _ := raw.(map[string]any)
		out = append(out, itemRequest{
			productID: payload.String(item, "productId"),
			quantity:  int(payload.Int64(item, "quantity")),
		})
	}
	return out
}

// Create validates the order, checks the referenced customer, payment
// profile and products exist, computes totals and persists order plus items.
func (s *Service) Create(ctx context.Context, sess session.Session, req map[string]any) (order.Order, error) {
	model := payload.Pick(req, "customerId", "paymentProfileId", "status", "orderItems")

	empty := validation.Data{"customers": {}, "paymentProfiles": {}, "products": {}}
	if err := validation.Validate(createSchema(), model, empty); err != nil {
		return order.Order{}, err
	}

	items := itemRequests(model)

	foundCustomers, err := s.customers.FindByCustomers(ctx, []storage.Filter{{"id": payload.String(model, "customerId")}})
	if err != nil {
		return order.Order{}, err
	}
	foundProfiles, err := s.paymentProfiles.FindByPaymentProfiles(ctx, []storage.Filter{{"id": payload.String(model, "paymentProfileId")}})
	if err != nil {
		return order.Order{}, err
	}
	productFilters := make([]storage.Filter, 0, len(items))
	for _, item := range items {
		productFilters = append(productFilters, storage.Filter{"id": item.productID})
	}
	foundProducts, err := s.products.FindByProducts(ctx, productFilters)
	if err != nil {
		return order.Order{}, err
	}

	data := validation.Data{
		"customers":       payload.References(foundCustomers),
		"paymentProfiles": payload.References(foundProfiles),
		"products":        payload.References(foundProducts),
	}
	if err := validation.Validate(crossSchema(), model, data); err != nil {
		return order.Order{}, err
	}

	prices := make(map[string]int64, len(foundProducts))
	for _, p := range foundProducts {
		prices[p.ID] = p.Price
	}

	record := order.Order{
		CustomerID:       payload.String(model, "customerId"),
		PaymentProfileID: payload.String(model, "paymentProfileId"),
		Status:           order.StatusAwaitingPayment,
	}
	if status := payload.String(model, "status"); status != "" {
		record.Status = order.Status(status)
	}
	record.CreateUserID = sess.UserID

	orderItems := make([]order.Item, 0, len(items))
	for _, item := range items {
		unitValue := prices[item.productID]
		totalValue := unitValue * int64(item.quantity)
		record.TotalValue += totalValue
		orderItems = append(orderItems, order.Item{
			ProductID:  item.productID,
			Quantity:   item.quantity,
			UnitValue:  unitValue,
			TotalValue: totalValue,
		})
	}

	created, createdItems, err := s.store.CreateOrder(ctx, record, orderItems)
	if err != nil {
		return order.Order{}, err
	}
	created.Items = createdItems
	s.log.WithField("order_id", created.ID).
		WithField("customer_id", created.CustomerID).
		Info("order created")
	return created, nil
}

// Show fetches one order with its items.
func (s *Service) Show(ctx context.Context, id string) (order.Order, error) {
	model := map[string]any{"id": id}
	if err := validation.Validate(validation.Schema{"id": idRules()}, model, validation.Data{}); err != nil {
		return order.Order{}, err
	}
	found, err := s.store.FindByOrders(ctx, []storage.Filter{{"id": id}})
	if err != nil {
		return order.Order{}, err
	}
	if len(found) == 0 {
		return order.Order{}, storage.ErrNotFound
	}
	result := found[0]
	items, err := s.store.FindByOrderItems(ctx, []storage.Filter{{"orderId": id}})
	if err != nil {
		return order.Order{}, err
	}
	result.Items = items
	return result, nil
}

// List returns a validated, filtered page of orders.
func (s *Service) List(ctx context.Context, req listing.Request) ([]order.Order, error) {
	filters := filterSchema()
	if err := validation.Validate(listing.Schema(orderByFields, filters), req.Model(), validation.Data{}); err != nil {
		return nil, err
	}
	query, err := listing.Query(req, filters)
	if err != nil {
		return nil, err
	}
	return s.store.ListOrders(ctx, query)
}

// Remove soft deletes an order and its items.
func (s *Service) Remove(ctx context.Context, sess session.Session, id string) (order.Order, error) {
	model := map[string]any{"id": id}
	if err := validation.Validate(validation.Schema{"id": idRules()}, model, validation.Data{}); err != nil {
		return order.Order{}, err
	}
	removed, err := s.store.RemoveOrder(ctx, id, sess.UserID)
	if err != nil {
		return order.Order{}, err
	}
	s.log.WithField("order_id", removed.ID).Info("order removed")
	return removed, nil
}
