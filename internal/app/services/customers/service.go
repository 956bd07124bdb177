// Package customers implements the customer use cases.
package customers

import (
	"context"

	"github.com/commercekit/service-layer/internal/app/domain/customer"
	"github.com/commercekit/service-layer/internal/app/domain/session"
	"github.com/commercekit/service-layer/internal/app/services/listing"
	"github.com/commercekit/service-layer/internal/app/services/payload"
	"github.com/commercekit/service-layer/internal/app/storage"
	"github.com/commercekit/service-layer/internal/validation"
	"github.com/commercekit/service-layer/pkg/logger"
)

// Service manages customer records.
type Service struct {
	store storage.CustomerStore
	log   *logger.Logger
}

// New constructs a customer service.
func New(store storage.CustomerStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("customers")
	}
	return &Service{store: store, log: log}
}

func idRules() []validation.Rule {
	return []validation.Rule{validation.Required(), validation.String(), validation.Regex(validation.PatternUUIDV4)}
}

func fieldSchema(required bool) validation.Schema {
	schema := validation.Schema{
		"name":  {validation.String(), validation.Regex(validation.PatternName), validation.Length(6, 100)},
		"email": {validation.String(), validation.Regex(validation.PatternEmail), validation.Length(6, 100)},
	}
	if required {
		for field := range schema {
			schema[field] = append([]validation.Rule{validation.Required()}, schema[field]...)
		}
	}
	return schema
}

func uniqueEmail(ignoreSelf bool) []validation.Rule {
	props := []validation.Prop{{ModelKey: "email", DataKey: "email"}}
	if ignoreSelf {
		return []validation.Rule{validation.Unique("customers", props, validation.Prop{ModelKey: "id", DataKey: "id"})}
	}
	return []validation.Rule{validation.Unique("customers", props)}
}

var orderByFields = []any{"name", "email", "createdAt", "updatedAt"}

func filterSchema() validation.Schema {
	return validation.Schema{
		"name":         {validation.Array(validation.String(), validation.Regex(validation.PatternName), validation.Length(6, 100))},
		"email":        {validation.Array(validation.String(), validation.Regex(validation.PatternEmail), validation.Length(6, 100))},
		"createUserId": {validation.Array(validation.String(), validation.Regex(validation.PatternUUIDV4))},
		"updateUserId": {validation.Array(validation.String(), validation.Regex(validation.PatternUUIDV4))},
		"createdAt":    {validation.Array(validation.String(), validation.Date())},
		"updatedAt":    {validation.Array(validation.String(), validation.Date())},
	}
}

// Create registers a customer after checking email uniqueness.
func (s *Service) Create(ctx context.Context, sess session.Session, req map[string]any) (customer.Customer, error) {
	model := payload.Pick(req, "name", "email")

	if err := validation.Validate(fieldSchema(true), model, validation.Data{"customers": {}}); err != nil {
		return customer.Customer{}, err
	}

	found, err := s.store.FindByCustomers(ctx, []storage.Filter{{"email": payload.String(model, "email")}})
	if err != nil {
		return customer.Customer{}, err
	}
	crossSchema := validation.Schema{"email": uniqueEmail(false)}
	if err := validation.Validate(crossSchema, model, validation.Data{"customers": payload.References(found)}); err != nil {
		return customer.Customer{}, err
	}

	record := customer.Customer{
		Name:  payload.String(model, "name"),
		Email: payload.String(model, "email"),
	}
	record.CreateUserID = sess.UserID

	created, err := s.store.CreateCustomer(ctx, record)
	if err != nil {
		return customer.Customer{}, err
	}
	s.log.WithField("customer_id", created.ID).Info("customer created")
	return created, nil
}

// Show fetches one customer by id.
func (s *Service) Show(ctx context.Context, id string) (customer.Customer, error) {
	model := map[string]any{"id": id}
	if err := validation.Validate(validation.Schema{"id": idRules()}, model, validation.Data{}); err != nil {
		return customer.Customer{}, err
	}
	found, err := s.store.FindByCustomers(ctx, []storage.Filter{{"id": id}})
	if err != nil {
		return customer.Customer{}, err
	}
	if len(found) == 0 {
		return customer.Customer{}, storage.ErrNotFound
	}
	return found[0], nil
}

// List returns a validated, filtered page of customers.
func (s *Service) List(ctx context.Context, req listing.Request) ([]customer.Customer, error) {
	filters := filterSchema()
	if err := validation.Validate(listing.Schema(orderByFields, filters), req.Model(), validation.Data{}); err != nil {
		return nil, err
	}
	query, err := listing.Query(req, filters)
	if err != nil {
		return nil, err
	}
	return s.store.ListCustomers(ctx, query)
}

// Update patches the given fields, keeping the rest of the record.
func (s *Service) Update(ctx context.Context, sess session.Session, id string, req map[string]any) (customer.Customer, error) {
	model := payload.Pick(req, "name", "email")
	model["id"] = id

	schema := fieldSchema(false)
	schema["id"] = idRules()
	if err := validation.Validate(schema, model, validation.Data{"customers": {}}); err != nil {
		return customer.Customer{}, err
	}

	filters := []storage.Filter{{"id": id}}
	if email := payload.String(model, "email"); email != "" {
		filters = append(filters, storage.Filter{"email": email})
	}
	found, err := s.store.FindByCustomers(ctx, filters)
	if err != nil {
		return customer.Customer{}, err
	}
	var existing *customer.Customer
	for i := range found {
		if found[i].ID == id {
			existing = &found[i]
			break
		}
	}
	if existing == nil {
		return customer.Customer{}, storage.ErrNotFound
	}

	crossSchema := validation.Schema{"email": uniqueEmail(true)}
	if err := validation.Validate(crossSchema, model, validation.Data{"customers": payload.References(found)}); err != nil {
		return customer.Customer{}, err
	}

	updated := *existing
	if _, ok := model["name"]; ok {
		updated.Name = payload.String(model, "name")
	}
	if _, ok := model["email"]; ok {
		updated.Email = payload.String(model, "email")
	}
	updated.UpdateUserID = sess.UserID

	saved, err := s.store.UpdateCustomer(ctx, updated)
	if err != nil {
		return customer.Customer{}, err
	}
	s.log.WithField("customer_id", saved.ID).Info("customer updated")
	return saved, nil
}

// Remove soft deletes a customer.
func (s *Service) Remove(ctx context.Context, sess session.Session, id string) (customer.Customer, error) {
	model := map[string]any{"id": id}
	if err := validation.Validate(validation.Schema{"id": idRules()}, model, validation.Data{}); err != nil {
		return customer.Customer{}, err
	}
	removed, err := s.store.RemoveCustomer(ctx, id, sess.UserID)
	if err != nil {
		return customer.Customer{}, err
	}
	s.log.WithField("customer_id", removed.ID).Info("customer removed")
	return removed, nil
}
