package users

import (
	"context"
	"errors"
	"testing"

	"github.com/commercekit/service-layer/internal/app/domain/session"
	"github.com/commercekit/service-layer/internal/app/services/listing"
	"github.com/commercekit/service-layer/internal/app/storage"
	"github.com/commercekit/service-layer/internal/app/storage/memory"
	"github.com/commercekit/service-layer/internal/crypto"
	"github.com/commercekit/service-layer/internal/validation"
	"github.com/commercekit/service-layer/pkg/logger"
)

func newService() (*Service, *memory.Store) {
	store := memory.New()
	return New(store, crypto.NewBcryptHasher(4), logger.NewNop()), store
}

func validPayload() map[string]any {
	return map[string]any{
		"name":     "Alice Smith",
		"email":    "alice@mail.com",
		"password": "Password@123",
		"roles":    []any{"admin"},
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

func TestCreateHashesPasswordAndStampsSession(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()

	created, err := svc.Create(ctx, session.Session{UserID: "3dd20cb3-2f17-4b0a-b6a9-9e0a70f0f0aa"}, validPayload())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.CreateUserID != "3dd20cb3-2f17-4b0a-b6a9-9e0a70f0f0aa" {
		t.Fatalf("createUserId = %q", created.CreateUserID)
	}

	stored, _ := store.FindByUsers(ctx, []storage.Filter{{"id": created.ID}})
	if len(stored) != 1 {
		t.Fatal("user not persisted")
	}
	if stored[0].PasswordHash == "" || stored[0].PasswordHash == "Password@123" {
		t.Fatalf("password not hashed: %q", stored[0].PasswordHash)
	}
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	svc, _ := newService()

	payload := validPayload()
	payload["email"] = "not an email"
	delete(payload, "password")

	items := validationItems(t, mustFailCreate(t, svc, payload))
	byField := map[string]string{}
	for _, item := range items {
		byField[item.Field] = item.Rule
	}
	if byField["email"] != "regex" {
		t.Fatalf("email rule = %q, want regex (items: %+v)", byField["email"], items)
	}
	if byField["password"] != "required" {
		t.Fatalf("password rule = %q, want required", byField["password"])
	}
}

func mustFailCreate(t *testing.T, svc *Service, payload map[string]any) error {
	t.Helper()
	_, err := svc.Create(context.Background(), session.Session{}, payload)
	if err == nil {
		t.Fatal("expected Create to fail")
	}
	return err
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	if _, err := svc.Create(ctx, session.Session{}, validPayload()); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	payload := validPayload()
	payload["name"] = "Alice Johnson"
	items := validationItems(t, mustFailCreate(t, svc, payload))
	if len(items) != 1 || items[0].Field != "email" || items[0].Rule != "unique" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestShowMissingUser(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Show(context.Background(), "3dd20cb3-2f17-4b0a-b6a9-9e0a70f0f0aa")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestShowRejectsMalformedID(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Show(context.Background(), "nope")
	items := validationItems(t, err)
	if len(items) != 1 || items[0].Field != "id" || items[0].Rule != "regex" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestUpdateKeepsOwnEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	created, err := svc.Create(ctx, session.Session{}, validPayload())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(ctx, session.Session{UserID: created.ID}, created.ID, map[string]any{
		"email": "alice@mail.com",
		"name":  "Alice Johnson",
	})
	if err != nil {
		t.Fatalf("Update with own email: %v", err)
	}
	if updated.Name != "Alice Johnson" {
		t.Fatalf("name = %q", updated.Name)
	}
	if updated.UpdateUserID != created.ID {
		t.Fatalf("updateUserId = %q", updated.UpdateUserID)
	}
}

func TestUpdateRejectsTakenEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	if _, err := svc.Create(ctx, session.Session{}, validPayload()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	second := validPayload()
	second["email"] = "bob@mail.com"
	second["name"] = "Bob Jones"
	other, err := svc.Create(ctx, session.Session{}, second)
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}

	_, err = svc.Update(ctx, session.Session{}, other.ID, map[string]any{"email": "alice@mail.com"})
	items := validationItems(t, err)
	if len(items) != 1 || items[0].Field != "email" || items[0].Rule != "unique" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestUpdateMissingUser(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Update(context.Background(), session.Session{}, "3dd20cb3-2f17-4b0a-b6a9-9e0a70f0f0aa", map[string]any{"name": "Alice Johnson"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListValidatesParameters(t *testing.T) {
	svc, _ := newService()

	_, err := svc.List(context.Background(), listing.Request{OrderBy: "passwordHash"})
	items := validationItems(t, err)
	if len(items) != 1 || items[0].Field != "orderBy" || items[0].Rule != "in" {
		t.Fatalf("unexpected items: %+v", items)
	}

	_, err = svc.List(context.Background(), listing.Request{PerPage: "10"})
	items = validationItems(t, err)
	if len(items) != 1 || items[0].Field != "perPage" || items[0].Rule != "min" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestListRejectsFilterOnUnknownField(t *testing.T) {
	svc, _ := newService()

	_, err := svc.List(context.Background(), listing.Request{Filters: `["=", "passwordHash", "x"]`})
	items := validationItems(t, err)
	if len(items) != 1 || items[0].Field != "filters" || items[0].Rule != "listFilters" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestListFiltersByEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	if _, err := svc.Create(ctx, session.Session{}, validPayload()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	second := validPayload()
	second["email"] = "bob@mail.com"
	second["name"] = "Bob Jones"
	if _, err := svc.Create(ctx, session.Session{}, second); err != nil {
		t.Fatalf("second Create: %v", err)
	}

	page, err := svc.List(ctx, listing.Request{Filters: `["=", "email", "bob@mail.com"]`})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 1 || page[0].Email != "bob@mail.com" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestRemoveUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	created, err := svc.Create(ctx, session.Session{}, validPayload())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	removed, err := svc.Remove(ctx, session.Session{UserID: created.ID}, created.ID)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed.DeletedAt == nil {
		t.Fatal("expected deletedAt stamp")
	}

	if _, err := svc.Show(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Show after remove err = %v, want ErrNotFound", err)
	}
}
