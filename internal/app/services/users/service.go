// Package users implements the user use cases: sanitize, validate, fetch
// reference rows, cross-validate, persist, shape the response.
package users

import (
	"context"

	"github.com/commercekit/service-layer/internal/app/domain/session"
	"github.com/commercekit/service-layer/internal/app/domain/user"
	"github.com/commercekit/service-layer/internal/app/services/listing"
	"github.com/commercekit/service-layer/internal/app/services/payload"
	"github.com/commercekit/service-layer/internal/app/storage"
	"github.com/commercekit/service-layer/internal/crypto"
	"github.com/commercekit/service-layer/internal/validation"
	"github.com/commercekit/service-layer/pkg/logger"
)

// Service manages user records.
type Service struct {
	store  storage.UserStore
	hasher crypto.Hasher
	log    *logger.Logger
}

// New constructs a user service.
func New(store storage.UserStore, hasher crypto.Hasher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{store: store, hasher: hasher, log: log}
}

func idRules() []validation.Rule {
	return []validation.Rule{validation.Required(), validation.String(), validation.Regex(validation.PatternUUIDV4)}
}

func fieldSchema(required bool) validation.Schema {
	schema := validation.Schema{
		"name":     {validation.String(), validation.Regex(validation.PatternName), validation.Length(6, 100)},
		"email":    {validation.String(), validation.Regex(validation.PatternEmail), validation.Length(6, 100)},
		"password": {validation.String(), validation.Regex(validation.PatternPassword), validation.Length(6, 20)},
		"roles": {
			validation.Array(validation.String(), validation.In("admin", "moderator")),
			validation.Distinct(),
		},
	}
	if required {
		for _, field := range []string{"name", "email", "password"} {
			schema[field] = append([]validation.Rule{validation.Required()}, schema[field]...)
		}
	}
	return schema
}

func uniqueEmail(ignoreSelf bool) []validation.Rule {
	props := []validation.Prop{{ModelKey: "email", DataKey: "email"}}
	if ignoreSelf {
		return []validation.Rule{validation.Unique("users", props, validation.Prop{ModelKey: "id", DataKey: "id"})}
	}
	return []validation.Rule{validation.Unique("users", props)}
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

// Create registers a user after checking email uniqueness.
func (s *Service) Create(ctx context.Context, sess session.Session, req map[string]any) (user.External, error) {
	model := payload.Pick(req, "name", "email", "password", "roles")

	if err := validation.Validate(fieldSchema(true), model, validation.Data{"users": {}}); err != nil {
		return user.External{}, err
	}

	found, err := s.store.FindByUsers(ctx, []storage.Filter{{"email": payload.String(model, "email")}})
	if err != nil {
		return user.External{}, err
	}
	crossSchema := validation.Schema{"email": uniqueEmail(false)}
	if err := validation.Validate(crossSchema, model, validation.Data{"users": payload.References(found)}); err != nil {
		return user.External{}, err
	}

	hash, err := s.hasher.Hash(payload.String(model, "password"))
	if err != nil {
		return user.External{}, err
	}

	record := user.User{
		Name:         payload.String(model, "name"),
		Email:        payload.String(model, "email"),
		PasswordHash: hash,
	}
	for _, role := range payload.Strings(model, "roles") {
		record.Roles = append(record.Roles, user.Role(role))
	}
	record.CreateUserID = sess.UserID

	created, err := s.store.CreateUser(ctx, record)
	if err != nil {
		return user.External{}, err
	}
	s.log.WithField("user_id", created.ID).Info("user created")
	return created.External(), nil
}

// Show fetches one user by id.
func (s *Service) Show(ctx context.Context, id string) (user.External, error) {
	model := map[string]any{"id": id}
	if err := validation.Validate(validation.Schema{"id": idRules()}, model, validation.Data{}); err != nil {
		return user.External{}, err
	}
	found, err := s.store.FindByUsers(ctx, []storage.Filter{{"id": id}})
	if err != nil {
		return user.External{}, err
	}
	if len(found) == 0 {
		return user.External{}, storage.ErrNotFound
	}
	return found[0].External(), nil
}

// List returns a validated, filtered page of users.
func (s *Service) List(ctx context.Context, req listing.Request) ([]user.External, error) {
	filters := filterSchema()
	if err := validation.Validate(listing.Schema(orderByFields, filters), req.Model(), validation.Data{}); err != nil {
		return nil, err
	}
	query, err := listing.Query(req, filters)
	if err != nil {
		return nil, err
	}
	found, err := s.store.ListUsers(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]user.External, 0, len(found))
	for _, u := range found {
		out = append(out, u.External())
	}
	return out, nil
}

// Update patches the given fields, keeping the rest of the record.
func (s *Service) Update(ctx context.Context, sess session.Session, id string, req map[string]any) (user.External, error) {
	model := payload.Pick(req, "name", "email", "password", "roles")
	model["id"] = id

	schema := fieldSchema(false)
	schema["id"] = idRules()
	if err := validation.Validate(schema, model, validation.Data{"users": {}}); err != nil {
		return user.External{}, err
	}

	filters := []storage.Filter{{"id": id}}
	if email := payload.String(model, "email"); email != "" {
		filters = append(filters, storage.Filter{"email": email})
	}
	found, err := s.store.FindByUsers(ctx, filters)
	if err != nil {
		return user.External{}, err
	}
	var existing *user.User
	for i := range found {
		if found[i].ID == id {
			existing = &found[i]
			break
		}
	}
	if existing == nil {
		return user.External{}, storage.ErrNotFound
	}

	crossSchema := validation.Schema{"email": uniqueEmail(true)}
	if err := validation.Validate(crossSchema, model, validation.Data{"users": payload.References(found)}); err != nil {
		return user.External{}, err
	}

	updated := *existing
	if _, ok := model["name"]; ok {
		updated.Name = payload.String(model, "name")
	}
	if _, ok := model["email"]; ok {
		updated.Email = payload.String(model, "email")
	}
	if _, ok := model["password"]; ok {
		hash, err := s.hasher.Hash(payload.String(model, "password"))
		if err != nil {
			return user.External{}, err
		}
		updated.PasswordHash = hash
	}
	if _, ok := model["roles"]; ok {
		updated.Roles = nil
		for _, role := range payload.Strings(model, "roles") {
			updated.Roles = append(updated.Roles, user.Role(role))
		}
	}
	updated.UpdateUserID = sess.UserID

	saved, err := s.store.UpdateUser(ctx, updated)
	if err != nil {
		return user.External{}, err
	}
	s.log.WithField("user_id", saved.ID).Info("user updated")
	return saved.External(), nil
}

// Remove soft deletes a user.
func (s *Service) Remove(ctx context.Context, sess session.Session, id string) (user.External, error) {
	model := map[string]any{"id": id}
	if err := validation.Validate(validation.Schema{"id": idRules()}, model, validation.Data{}); err != nil {
		return user.External{}, err
	}
	removed, err := s.store.RemoveUser(ctx, id, sess.UserID)
	if err != nil {
		return user.External{}, err
	}
	s.log.WithField("user_id", removed.ID).Info("user removed")
	return removed.External(), nil
}
