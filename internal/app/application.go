// Package app wires the entity services to their stores.
package app

import (
	"github.com/commercekit/service-layer/internal/app/services/customers"
	"github.com/commercekit/service-layer/internal/app/services/orders"
	"github.com/commercekit/service-layer/internal/app/services/paymentprofiles"
	"github.com/commercekit/service-layer/internal/app/services/products"
	"github.com/commercekit/service-layer/internal/app/services/users"
	"github.com/commercekit/service-layer/internal/app/storage"
	"github.com/commercekit/service-layer/internal/app/storage/memory"
	"github.com/commercekit/service-layer/internal/crypto"
	"github.com/commercekit/service-layer/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to a
// shared in-memory implementation.
type Stores struct {
	Users           storage.UserStore
	Customers       storage.CustomerStore
	Products        storage.ProductStore
	Orders          storage.OrderStore
	PaymentProfiles storage.PaymentProfileStore
}

// Application ties the entity services together.
type Application struct {
	log *logger.Logger

	Users           *users.Service
	Customers       *customers.Service
	Products        *products.Service
	Orders          *orders.Service
	PaymentProfiles *paymentprofiles.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, hasher crypto.Hasher, log *logger.Logger) *Application {
	if log == nil {
		log = logger.NewDefault("app")
	}
	if hasher == nil {
		hasher = crypto.NewBcryptHasher(0)
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Customers == nil {
		stores.Customers = mem
	}
	if stores.Products == nil {
		stores.Products = mem
	}
	if stores.Orders == nil {
		stores.Orders = mem
	}
	if stores.PaymentProfiles == nil {
		stores.PaymentProfiles = mem
	}

	return &Application{
		log:             log,
		Users:           users.New(stores.Users, hasher, log),
		Customers:       customers.New(stores.Customers, log),
		Products:        products.New(stores.Products, log),
		Orders:          orders.New(stores.Orders, stores.Customers, stores.Products, stores.PaymentProfiles, log),
		PaymentProfiles: paymentprofiles.New(stores.PaymentProfiles, stores.Users, hasher, log),
	}
}
