// Package paymentprofiles implements the payment profile use cases. Card
// numbers and cvv are hashed before validation and persistence; the derived
// firstSix/lastFour digits feed the uniqueness check so raw numbers are never
// compared or stored.
package paymentprofiles

import (
	"context"

	"github.com/commercekit/service-layer/internal/app/domain/paymentprofile"
	"github.com/commercekit/service-layer/internal/app/domain/session"
	"github.com/commercekit/service-layer/internal/app/services/listing"
	"github.com/commercekit/service-layer/internal/app/services/payload"
	"github.com/commercekit/service-layer/internal/app/storage"
	"github.com/commercekit/service-layer/internal/crypto"
	"github.com/commercekit/service-layer/internal/validation"
	"github.com/commercekit/service-layer/pkg/logger"
)

// Service manages payment profile records.
type Service struct {
	store  storage.PaymentProfileStore
	users  storage.UserStore
	hasher crypto.Hasher
	log    *logger.Logger
}

// New constructs a payment profile service.
func New(store storage.PaymentProfileStore, users storage.UserStore, hasher crypto.Hasher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("paymentprofiles")
	}
	return &Service{store: store, users: users, hasher: hasher, log: log}
}

func idRules() []validation.Rule {
	return []validation.Rule{validation.Required(), validation.String(), validation.Regex(validation.PatternUUIDV4)}
}

func methods() []any {
	out := make([]any, 0, len(paymentprofile.Methods))
	for _, method := range paymentprofile.Methods {
		out = append(out, string(method))
	}
	return out
}

func cardDataSchema() validation.Schema {
	return validation.Schema{
		paymentprofile.DataType: {
			validation.Required(), validation.String(), validation.In("CREDIT", "DEBIT"),
		},
		paymentprofile.DataBrand: {
			validation.Required(), validation.String(), validation.Length(1, 15),
		},
		paymentprofile.DataHolderName: {
			validation.Required(), validation.String(), validation.Length(1, 15),
		},
		paymentprofile.DataNumber: {
			validation.Required(), validation.IntegerString(), validation.Length(16, 16),
		},
		paymentprofile.DataCVV: {
			validation.Required(), validation.IntegerString(), validation.Length(3, 3),
		},
		paymentprofile.DataExpiryMonth: {
			validation.Required(), validation.IntegerString(), validation.Min(1), validation.Max(12),
		},
		paymentprofile.DataExpiryYear: {
			validation.Required(), validation.IntegerString(), validation.Min(1), validation.Max(9999),
		},
	}
}

func phoneDataSchema() validation.Schema {
	return validation.Schema{
		paymentprofile.DataCountryCode: {
			validation.Required(), validation.IntegerString(), validation.Length(1, 4),
		},
		paymentprofile.DataAreaCode: {
			validation.Required(), validation.IntegerString(), validation.Length(1, 4),
		},
		paymentprofile.DataNumber: {
			validation.Required(), validation.IntegerString(), validation.Length(1, 10),
		},
	}
}

func dataRules(method string) []validation.Rule {
	rules := []validation.Rule{validation.Required()}
	switch paymentprofile.Method(method) {
	case paymentprofile.MethodCard:
		rules = append(rules, validation.Object(cardDataSchema()))
	case paymentprofile.MethodPhone:
		rules = append(rules, validation.Object(phoneDataSchema()))
	}
	return rules
}

func uniqueData(method string, ignoreSelf bool) []validation.Rule {
	var props []validation.Prop
	switch paymentprofile.Method(method) {
	case paymentprofile.MethodCard:
		props = []validation.Prop{
			{ModelKey: "data.type", DataKey: "data.type"},
			{ModelKey: "data.brand", DataKey: "data.brand"},
			{ModelKey: "data.firstSix", DataKey: "data.firstSix"},
			{ModelKey: "data.lastFour", DataKey: "data.lastFour"},
			{ModelKey: "data.expiryMonth", DataKey: "data.expiryMonth"},
			{ModelKey: "data.expiryYear", DataKey: "data.expiryYear"},
		}
	case paymentprofile.MethodPhone:
		props = []validation.Prop{
			{ModelKey: "data.countryCode", DataKey: "data.countryCode"},
			{ModelKey: "data.areaCode", DataKey: "data.areaCode"},
			{ModelKey: "data.number", DataKey: "data.number"},
		}
	default:
		return nil
	}
	if ignoreSelf {
		return []validation.Rule{validation.Unique("paymentProfiles", props, validation.Prop{ModelKey: "id", DataKey: "id"})}
	}
	return []validation.Rule{validation.Unique("paymentProfiles", props)}
}

var orderByFields = []any{"paymentMethod", "createdAt", "updatedAt"}

func filterSchema() validation.Schema {
	return validation.Schema{
		"userId":        {validation.Array(validation.String(), validation.Regex(validation.PatternUUIDV4))},
		"paymentMethod": {validation.Array(validation.String(), validation.In(methods()...))},
		"createUserId":  {validation.Array(validation.String(), validation.Regex(validation.PatternUUIDV4))},
		"updateUserId":  {validation.Array(validation.String(), validation.Regex(validation.PatternUUIDV4))},
		"createdAt":     {validation.Array(validation.String(), validation.Date())},
		"updatedAt":     {validation.Array(validation.String(), validation.Date())},
	}
}

// sanitize keeps the variant's own data keys so stray fields never reach
// validation or storage.
func sanitize(req map[string]any) map[string]any {
	model := payload.Pick(req, "userId", "paymentMethod", "data")
	data, ok := model["data"].(map[string]any)
	if !ok {
		return model
	}
	switch paymentprofile.Method(payload.String(model, "paymentMethod")) {
	case paymentprofile.MethodCard:
		model["data"] = payload.Pick(data,
			paymentprofile.DataType, paymentprofile.DataBrand, paymentprofile.DataHolderName,
			paymentprofile.DataNumber, paymentprofile.DataCVV,
			paymentprofile.DataExpiryMonth, paymentprofile.DataExpiryYear)
	case paymentprofile.MethodPhone:
		model["data"] = payload.Pick(data,
			paymentprofile.DataCountryCode, paymentprofile.DataAreaCode, paymentprofile.DataNumber)
	}
	return model
}

// hashSecrets replaces the card number and cvv with their hashes and derives
// firstSix/lastFour. Phone data passes through unchanged.
func (s *Service) hashSecrets(model map[string]any) error {
	if paymentprofile.Method(payload.String(model, "paymentMethod")) != paymentprofile.MethodCard {
		return nil
	}
	data, ok := model["data"].(map[string]any)
	if !ok {
		return nil
	}
	number := payload.String(data, paymentprofile.DataNumber)
	cvv := payload.String(data, paymentprofile.DataCVV)

	numberHash, err := s.hasher.Hash(number)
	if err != nil {
		return err
	}
	cvvHash, err := s.hasher.Hash(cvv)
	if err != nil {
		return err
	}
	data[paymentprofile.DataNumber] = numberHash
	data[paymentprofile.DataCVV] = cvvHash
	if len(number) == 16 {
		data[paymentprofile.DataFirstSix] = number[:6]
		data[paymentprofile.DataLastFour] = number[12:]
	}
	return nil
}

func structuralSchema(model map[string]any, withID bool) validation.Schema {
	schema := validation.Schema{
		"userId": idRules(),
		"paymentMethod": {
			validation.Required(), validation.String(), validation.In(methods()...),
		},
		"data": dataRules(payload.String(model, "paymentMethod")),
	}
	if withID {
		schema["id"] = idRules()
	}
	return schema
}

// Create registers a payment profile for a user.
func (s *Service) Create(ctx context.Context, sess session.Session, req map[string]any) (paymentprofile.External, error) {
	model := sanitize(req)

	empty := validation.Data{"users": {}, "paymentProfiles": {}}
	if err := validation.Validate(structuralSchema(model, false), model, empty); err != nil {
		return paymentprofile.External{}, err
	}

	userID := payload.String(model, "userId")
	foundUsers, err := s.users.FindByUsers(ctx, []storage.Filter{{"id": userID}})
	if err != nil {
		return paymentprofile.External{}, err
	}
	foundProfiles, err := s.store.FindByPaymentProfiles(ctx, []storage.Filter{{"userId": userID}})
	if err != nil {
		return paymentprofile.External{}, err
	}

	if err := s.hashSecrets(model); err != nil {
		return paymentprofile.External{}, err
	}

	method := payload.String(model, "paymentMethod")
	crossSchema := validation.Schema{
		"userId": {validation.Exists("users", []validation.Prop{{ModelKey: "userId", DataKey: "id"}})},
		"data":   uniqueData(method, false),
	}
	data := validation.Data{
		"users":           payload.References(foundUsers),
		"paymentProfiles": payload.References(foundProfiles),
	}
	if err := validation.Validate(crossSchema, model, data); err != nil {
		return paymentprofile.External{}, err
	}

	record := paymentprofile.Profile{
		UserID:        userID,
		PaymentMethod: paymentprofile.Method(method),
		Data:          payload.Object(model, "data"),
	}
	record.CreateUserID = sess.UserID

	created, err := s.store.CreatePaymentProfile(ctx, record)
	if err != nil {
		return paymentprofile.External{}, err
	}
	s.log.WithField("payment_profile_id", created.ID).
		WithField("user_id", created.UserID).
		Info("payment profile created")
	return created.External(), nil
}

// Show fetches one payment profile by id.
func (s *Service) Show(ctx context.Context, id string) (paymentprofile.External, error) {
	model := map[string]any{"id": id}
	if err := validation.Validate(validation.Schema{"id": idRules()}, model, validation.Data{}); err != nil {
		return paymentprofile.External{}, err
	}
	found, err := s.store.FindByPaymentProfiles(ctx, []storage.Filter{{"id": id}})
	if err != nil {
		return paymentprofile.External{}, err
	}
	if len(found) == 0 {
		return paymentprofile.External{}, storage.ErrNotFound
	}
	return found[0].External(), nil
}

// List returns a validated, filtered page of payment profiles.
func (s *Service) List(ctx context.Context, req listing.Request) ([]paymentprofile.External, error) {
	filters := filterSchema()
	if err := validation.Validate(listing.Schema(orderByFields, filters), req.Model(), validation.Data{}); err != nil {
		return nil, err
	}
	query, err := listing.Query(req, filters)
	if err != nil {
		return nil, err
	}
	found, err := s.store.ListPaymentProfiles(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]paymentprofile.External, 0, len(found))
	for _, profile := range found {
		out = append(out, profile.External())
	}
	return out, nil
}

// Update replaces the profile's payment data. The uniqueness check skips the
// profile being updated.
func (s *Service) Update(ctx context.Context, sess session.Session, id string, req map[string]any) (paymentprofile.External, error) {
	model := sanitize(req)
	model["id"] = id

	empty := validation.Data{"users": {}, "paymentProfiles": {}}
	if err := validation.Validate(structuralSchema(model, true), model, empty); err != nil {
		return paymentprofile.External{}, err
	}

	found, err := s.store.FindByPaymentProfiles(ctx, []storage.Filter{{"id": id}})
	if err != nil {
		return paymentprofile.External{}, err
	}
	if len(found) == 0 {
		return paymentprofile.External{}, storage.ErrNotFound
	}
	existing := found[0]

	userID := payload.String(model, "userId")
	foundUsers, err := s.users.FindByUsers(ctx, []storage.Filter{{"id": userID}})
	if err != nil {
		return paymentprofile.External{}, err
	}
	siblings, err := s.store.FindByPaymentProfiles(ctx, []storage.Filter{{"userId": userID}})
	if err != nil {
		return paymentprofile.External{}, err
	}

	if err := s.hashSecrets(model); err != nil {
		return paymentprofile.External{}, err
	}

	method := payload.String(model, "paymentMethod")
	crossSchema := validation.Schema{
		"userId": {validation.Exists("users", []validation.Prop{{ModelKey: "userId", DataKey: "id"}})},
		"data":   uniqueData(method, true),
	}
	data := validation.Data{
		"users":           payload.References(foundUsers),
		"paymentProfiles": payload.References(siblings),
	}
	if err := validation.Validate(crossSchema, model, data); err != nil {
		return paymentprofile.External{}, err
	}

	updated := existing
	updated.UserID = userID
	updated.PaymentMethod = paymentprofile.Method(method)
	updated.Data = payload.Object(model, "data")
	updated.UpdateUserID = sess.UserID

	saved, err := s.store.UpdatePaymentProfile(ctx, updated)
	if err != nil {
		return paymentprofile.External{}, err
	}
	s.log.WithField("payment_profile_id", saved.ID).Info("payment profile updated")
	return saved.External(), nil
}

// Remove soft deletes a payment profile.
func (s *Service) Remove(ctx context.Context, sess session.Session, id string) (paymentprofile.External, error) {
	model := map[string]any{"id": id}
	if err := validation.Validate(validation.Schema{"id": idRules()}, model, validation.Data{}); err != nil {
		return paymentprofile.External{}, err
	}
	removed, err := s.store.RemovePaymentProfile(ctx, id, sess.UserID)
	if err != nil {
		return paymentprofile.External{}, err
	}
	s.log.WithField("payment_profile_id", removed.ID).Info("payment profile removed")
	return removed.External(), nil
}
