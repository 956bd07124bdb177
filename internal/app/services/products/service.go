// Package products implements the product use cases.
package products

import (
	"context"

	"github.com/commercekit/service-layer/internal/app/domain/product"
	"github.com/commercekit/service-layer/internal/app/domain/session"
	"github.com/commercekit/service-layer/internal/app/services/listing"
	"github.com/commercekit/service-layer/internal/app/services/payload"
	"github.com/commercekit/service-layer/internal/app/storage"
	"github.com/commercekit/service-layer/internal/validation"
	"github.com/commercekit/service-layer/pkg/logger"
)

// MaxPrice bounds product prices, stored in cents.
const MaxPrice = 999_999_999_999

// Service manages product records.
type Service struct {
	store storage.ProductStore
	log   *logger.Logger
}

// New constructs a product service.
func New(store storage.ProductStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("products")
	}
	return &Service{store: store, log: log}
}

func idRules() []validation.Rule {
	return []validation.Rule{validation.Required(), validation.String(), validation.Regex(validation.PatternUUIDV4)}
}

func categories() []any {
	out := make([]any, 0, len(product.Categories))
	for _, category := range product.Categories {
		out = append(out, string(category))
	}
	return out
}

func fieldSchema(required bool) validation.Schema {
	schema := validation.Schema{
		"name":        {validation.String(), validation.Length(6, 255)},
		"category":    {validation.String(), validation.In(categories()...)},
		"image":       {validation.String(), validation.Regex(validation.PatternURL)},
		"price":       {validation.Integer(), validation.Min(1), validation.Max(MaxPrice)},
		"description": {validation.String(), validation.Length(0, 500)},
	}
	if required {
		for _, field := range []string{"name", "category", "price"} {
			schema[field] = append([]validation.Rule{validation.Required()}, schema[field]...)
		}
	}
	return schema
}

var orderByFields = []any{"name", "category", "price", "createdAt", "updatedAt"}

func filterSchema() validation.Schema {
	return validation.Schema{
		"name":         {validation.Array(validation.String(), validation.Length(6, 255))},
		"category":     {validation.Array(validation.String(), validation.In(categories()...))},
		"price":        {validation.Array(validation.Integer(), validation.Min(1), validation.Max(MaxPrice))},
		"createUserId": {validation.Array(validation.String(), validation.Regex(validation.PatternUUIDV4))},
		"updateUserId": {validation.Array(validation.String(), validation.Regex(validation.PatternUUIDV4))},
		"createdAt":    {validation.Array(validation.String(), validation.Date())},
		"updatedAt":    {validation.Array(validation.String(), validation.Date())},
	}
}

// Create registers a product. Products carry no cross-reference rules, so a
// single structural validation suffices.
func (s *Service) Create(ctx context.Context, sess session.Session, req map[string]any) (product.Product, error) {
	model := payload.Pick(req, "name", "category", "image", "price", "description")

	if err := validation.Validate(fieldSchema(true), model, validation.Data{}); err != nil {
		return product.Product{}, err
	}

	record := product.Product{
		Name:        payload.String(model, "name"),
		Category:    product.Category(payload.String(model, "category")),
		Image:       payload.String(model, "image"),
		Price:       payload.Int64(model, "price"),
		Description: payload.String(model, "description"),
	}
	record.CreateUserID = sess.UserID

	created, err := s.store.CreateProduct(ctx, record)
	if err != nil {
		return product.Product{}, err
	}
	s.log.WithField("product_id", created.ID).Info("product created")
	return created, nil
}

// Show fetches one product by id.
func (s *Service) Show(ctx context.Context, id string) (product.Product, error) {
	model := map[string]any{"id": id}
	if err := validation.Validate(validation.Schema{"id": idRules()}, model, validation.Data{}); err != nil {
		return product.Product{}, err
	}
	found, err := s.store.FindByProducts(ctx, []storage.Filter{{"id": id}})
	if err != nil {
		return product.Product{}, err
	}
	if len(found) == 0 {
		return product.Product{}, storage.ErrNotFound
	}
	return found[0], nil
}

// List returns a validated, filtered page of products.
func (s *Service) List(ctx context.Context, req listing.Request) ([]product.Product, error) {
	filters := filterSchema()
	if err := validation.Validate(listing.Schema(orderByFields, filters), req.Model(), validation.Data{}); err != nil {
		return nil, err
	}
	query, err := listing.Query(req, filters)
	if err != nil {
		return nil, err
	}
	return s.store.ListProducts(ctx, query)
}

// Update patches the given fields, keeping the rest of the record.
func (s *Service) Update(ctx context.Context, sess session.Session, id string, req map[string]any) (product.Product, error) {
	model := payload.Pick(req, "name", "category", "image", "price", "description")
	model["id"] = id

	schema := fieldSchema(false)
	schema["id"] = idRules()
	if err := validation.Validate(schema, model, validation.Data{}); err != nil {
		return product.Product{}, err
	}

	found, err := s.store.FindByProducts(ctx, []storage.Filter{{"id": id}})
	if err != nil {
		return product.Product{}, err
	}
	if len(found) == 0 {
		return product.Product{}, storage.ErrNotFound
	}

	updated := found[0]
	if _, ok := model["name"]; ok {
		updated.Name = payload.String(model, "name")
	}
	if _, ok := model["category"]; ok {
		updated.Category = product.Category(payload.String(model, "category"))
	}
	if _, ok := model["image"]; ok {
		updated.Image = payload.String(model, "image")
	}
	if _, ok := model["price"]; ok {
		updated.Price = payload.Int64(model, "price")
	}
	if _, ok := model["description"]; ok {
		updated.Description = payload.String(model, "description")
	}
	updated.UpdateUserID = sess.UserID

	saved, err := s.store.UpdateProduct(ctx, updated)
	if err != nil {
		return product.Product{}, err
	}
	s.log.WithField("product_id", saved.ID).Info("product updated")
	return saved, nil
}

// Remove soft deletes a product.
func (s *Service) Remove(ctx context.Context, sess session.Session, id string) (product.Product, error) {
	model := map[string]any{"id": id}
	if err := validation.Validate(validation.Schema{"id": idRules()}, model, validation.Data{}); err != nil {
		return product.Product{}, err
	}
	removed, err := s.store.RemoveProduct(ctx, id, sess.UserID)
	if err != nil {
		return product.Product{}, err
	}
	s.log.WithField("product_id", removed.ID).Info("product removed")
	return removed, nil
}
