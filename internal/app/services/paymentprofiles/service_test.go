package paymentprofiles

import (
	"context"
	"errors"
	"testing"

	"github.com/commercekit/service-layer/internal/app/domain/paymentprofile"
	"github.com/commercekit/service-layer/internal/app/domain/session"
	"github.com/commercekit/service-layer/internal/app/domain/user"
	"github.com/commercekit/service-layer/internal/app/storage"
	"github.com/commercekit/service-layer/internal/app/storage/memory"
	"github.com/commercekit/service-layer/internal/crypto"
	"github.com/commercekit/service-layer/internal/validation"
	"github.com/commercekit/service-layer/pkg/logger"
)

func newFixture(t *testing.T) (*Service, *memory.Store, user.User) {
	t.Helper()
	store := memory.New()
	owner, err := store.CreateUser(context.Background(), user.User{Name: "Alice Smith", Email: "alice@mail.com"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return New(store, store, crypto.NewBcryptHasher(4), logger.NewNop()), store, owner
}

func cardPayload(userID string) map[string]any {
	return map[string]any{
		"userId":        userID,
		"paymentMethod": "CARD_PAYMENT",
		"data": map[string]any{
			"type":        "CREDIT",
			"brand":       "visa",
			"holderName":  "Alice Smith",
			"number":      "4111222233334444",
			"cvv":         "123",
			"expiryMonth": "12",
			"expiryYear":  "2030",
		},
	}
}

func phonePayload(userID string) map[string]any {
	return map[string]any{
		"userId":        userID,
		"paymentMethod": "PHONE_PAYMENT",
		"data": map[string]any{
			"countryCode": "55",
			"areaCode":    "11",
			"number":      "987654321",
		},
	}
}

func validationItems(t *testing.T, err error) []validation.Item {
	t.Helper()
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	return verr.Items
}

func TestCreateCardProfileHashesSecrets(t *testing.T) {
	ctx := context.Background()
	svc, store, owner := newFixture(t)

	created, err := svc.Create(ctx, session.Session{UserID: owner.ID}, cardPayload(owner.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, ok := created.Data["number"]; ok {
		t.Fatal("response must not carry the card number")
	}
	if _, ok := created.Data["cvv"]; ok {
		t.Fatal("response must not carry the cvv")
	}
	if created.Data["firstSix"] != "411122" || created.Data["lastFour"] != "4444" {
		t.Fatalf("derived digits: %+v", created.Data)
	}

	stored, _ := store.FindByPaymentProfiles(ctx, []storage.Filter{{"id": created.ID}})
	if len(stored) != 1 {
		t.Fatal("profile not persisted")
	}
	if stored[0].Data["number"] == "4111222233334444" {
		t.Fatal("card number stored in the clear")
	}
	if stored[0].Data["cvv"] == "123" {
		t.Fatal("cvv stored in the clear")
	}
}

func TestCreateRejectsUnknownUser(t *testing.T) {
	svc, _, _ := newFixture(t)

	_, err := svc.Create(context.Background(), session.Session{}, cardPayload("7d4a2a2e-1111-4e5f-9f3a-2b8a1c3d4e5f"))
	items := validationItems(t, err)
	if len(items) != 1 || items[0].Field != "userId" || items[0].Rule != "exists" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestCreateRejectsDuplicateCard(t *testing.T) {
	ctx := context.Background()
	svc, _, owner := newFixture(t)

	if _, err := svc.Create(ctx, session.Session{}, cardPayload(owner.ID)); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	_, err := svc.Create(ctx, session.Session{}, cardPayload(owner.ID))
	items := validationItems(t, err)
	if len(items) != 1 || items[0].Field != "data" || items[0].Rule != "unique" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestCreateAllowsDifferentExpiry(t *testing.T) {
	ctx := context.Background()
	svc, _, owner := newFixture(t)

	if _, err := svc.Create(ctx, session.Session{}, cardPayload(owner.ID)); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	payload := cardPayload(owner.ID)
	data := payload["data"].(map[string]any)
	data["expiryYear"] = "2031"
	if _, err := svc.Create(ctx, session.Session{}, payload); err != nil {
		t.Fatalf("Create with different expiry: %v", err)
	}
}

func TestCreateRejectsMalformedCardData(t *testing.T) {
	svc, _, owner := newFixture(t)

	payload := cardPayload(owner.ID)
	data := payload["data"].(map[string]any)
	data["number"] = "4111-2222-3333-4444"
	data["expiryMonth"] = "13"

	_, err := svc.Create(context.Background(), session.Session{}, payload)
	items := validationItems(t, err)
	byField := map[string]string{}
	for _, item := range items {
		byField[item.Field] = item.Rule
	}
	if byField["data.number"] != "integerString" {
		t.Fatalf("data.number rule = %q, want integerString", byField["data.number"])
	}
	if byField["data.expiryMonth"] != "max" {
		t.Fatalf("data.expiryMonth rule = %q, want max", byField["data.expiryMonth"])
	}
}

func TestCreatePhoneProfile(t *testing.T) {
	ctx := context.Background()
	svc, _, owner := newFixture(t)

	created, err := svc.Create(ctx, session.Session{}, phonePayload(owner.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Data["number"] != "987654321" {
		t.Fatalf("phone number = %v", created.Data["number"])
	}

	_, err = svc.Create(ctx, session.Session{}, phonePayload(owner.ID))
	items := validationItems(t, err)
	if len(items) != 1 || items[0].Field != "data" || items[0].Rule != "unique" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestUpdateIgnoresSelfOnUniqueness(t *testing.T) {
	ctx := context.Background()
	svc, _, owner := newFixture(t)

	created, err := svc.Create(ctx, session.Session{}, phonePayload(owner.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(ctx, session.Session{UserID: owner.ID}, created.ID, phonePayload(owner.ID))
	if err != nil {
		t.Fatalf("Update with unchanged data: %v", err)
	}
	if updated.UpdateUserID != owner.ID {
		t.Fatalf("updateUserId = %q", updated.UpdateUserID)
	}
}

func TestUpdateMissingProfile(t *testing.T) {
	svc, _, owner := newFixture(t)

	_, err := svc.Update(context.Background(), session.Session{}, "7d4a2a2e-1111-4e5f-9f3a-2b8a1c3d4e5f", phonePayload(owner.ID))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestShowNeverExposesSecrets(t *testing.T) {
	ctx := context.Background()
	svc, _, owner := newFixture(t)

	created, err := svc.Create(ctx, session.Session{}, cardPayload(owner.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	shown, err := svc.Show(ctx, created.ID)
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if _, ok := shown.Data["number"]; ok {
		t.Fatal("show must not carry the card number")
	}
	if _, ok := shown.Data["cvv"]; ok {
		t.Fatal("show must not carry the cvv")
	}
	if shown.PaymentMethod != paymentprofile.MethodCard {
		t.Fatalf("paymentMethod = %q", shown.PaymentMethod)
	}
}
