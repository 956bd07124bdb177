// Package httpapi exposes the entity services over a REST API.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/commercekit/service-layer/internal/app"
	"github.com/commercekit/service-layer/internal/app/metrics"
	"github.com/commercekit/service-layer/internal/app/services/listing"
	"github.com/commercekit/service-layer/internal/app/storage"
	"github.com/commercekit/service-layer/internal/middleware"
	"github.com/commercekit/service-layer/internal/validation"
	"github.com/commercekit/service-layer/pkg/logger"
)

var (
	adminOnly = []string{"admin"}
	anyRole   = []string{"admin", "moderator", "customer"}
)

// Handler serves the REST API.
type Handler struct {
	app *app.Application
	log *logger.Logger
}

// NewRouter builds the API router. Authentication, rate limiting and CORS
// wrap the router from the outside; role checks happen per route.
func NewRouter(application *app.Application, log *logger.Logger) *mux.Router {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &Handler{app: application, log: log}

	r := mux.NewRouter()
	r.Use(middleware.Metrics())
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	h.mount(api, "users", resource{
		create: func(r *http.Request, body map[string]any) (any, error) {
			return h.app.Users.Create(r.Context(), middleware.SessionFrom(r.Context()), body)
		},
		show: func(r *http.Request, id string) (any, error) {
			return h.app.Users.Show(r.Context(), id)
		},
		list: func(r *http.Request, req listing.Request) (any, error) {
			return h.app.Users.List(r.Context(), req)
		},
		update: func(r *http.Request, id string, body map[string]any) (any, error) {
			return h.app.Users.Update(r.Context(), middleware.SessionFrom(r.Context()), id, body)
		},
		remove: func(r *http.Request, id string) (any, error) {
			return h.app.Users.Remove(r.Context(), middleware.SessionFrom(r.Context()), id)
		},
		listRoles:       adminOnly,
		removeRoles:     adminOnly,
		anonymousCreate: true,
	})

	h.mount(api, "customers", resource{
		create: func(r *http.Request, body map[string]any) (any, error) {
			return h.app.Customers.Create(r.Context(), middleware.SessionFrom(r.Context()), body)
		},
		show: func(r *http.Request, id string) (any, error) {
			return h.app.Customers.Show(r.Context(), id)
		},
		list: func(r *http.Request, req listing.Request) (any, error) {
			return h.app.Customers.List(r.Context(), req)
		},
		update: func(r *http.Request, id string, body map[string]any) (any, error) {
			return h.app.Customers.Update(r.Context(), middleware.SessionFrom(r.Context()), id, body)
		},
		remove: func(r *http.Request, id string) (any, error) {
			return h.app.Customers.Remove(r.Context(), middleware.SessionFrom(r.Context()), id)
		},
	})

	h.mount(api, "products", resource{
		create: func(r *http.Request, body map[string]any) (any, error) {
			return h.app.Products.Create(r.Context(), middleware.SessionFrom(r.Context()), body)
		},
		show: func(r *http.Request, id string) (any, error) {
			return h.app.Products.Show(r.Context(), id)
		},
		list: func(r *http.Request, req listing.Request) (any, error) {
			return h.app.Products.List(r.Context(), req)
		},
		update: func(r *http.Request, id string, body map[string]any) (any, error) {
			return h.app.Products.Update(r.Context(), middleware.SessionFrom(r.Context()), id, body)
		},
		remove: func(r *http.Request, id string) (any, error) {
			return h.app.Products.Remove(r.Context(), middleware.SessionFrom(r.Context()), id)
		},
	})

	h.mount(api, "orders", resource{
		create: func(r *http.Request, body map[string]any) (any, error) {
			return h.app.Orders.Create(r.Context(), middleware.SessionFrom(r.Context()), body)
		},
		show: func(r *http.Request, id string) (any, error) {
			return h.app.Orders.Show(r.Context(), id)
		},
		list: func(r *http.Request, req listing.Request) (any, error) {
			return h.app.Orders.List(r.Context(), req)
		},
		remove: func(r *http.Request, id string) (any, error) {
			return h.app.Orders.Remove(r.Context(), middleware.SessionFrom(r.Context()), id)
		},
	})

	h.mount(api, "paymentProfiles", resource{
		create: func(r *http.Request, body map[string]any) (any, error) {
			return h.app.PaymentProfiles.Create(r.Context(), middleware.SessionFrom(r.Context()), body)
		},
		show: func(r *http.Request, id string) (any, error) {
			return h.app.PaymentProfiles.Show(r.Context(), id)
		},
		list: func(r *http.Request, req listing.Request) (any, error) {
			return h.app.PaymentProfiles.List(r.Context(), req)
		},
		update: func(r *http.Request, id string, body map[string]any) (any, error) {
			return h.app.PaymentProfiles.Update(r.Context(), middleware.SessionFrom(r.Context()), id, body)
		},
		remove: func(r *http.Request, id string) (any, error) {
			return h.app.PaymentProfiles.Remove(r.Context(), middleware.SessionFrom(r.Context()), id)
		},
	})

	return r
}

// resource describes one entity's route set. Operations left nil are not
// mounted (orders have no update). Role slices default to any authenticated
// role; users tighten list and remove to admin.
type resource struct {
	create func(r *http.Request, body map[string]any) (any, error)
	show   func(r *http.Request, id string) (any, error)
	list   func(r *http.Request, req listing.Request) (any, error)
	update func(r *http.Request, id string, body map[string]any) (any, error)
	remove func(r *http.Request, id string) (any, error)

	listRoles       []string
	removeRoles     []string
	anonymousCreate bool
}

func (h *Handler) mount(api *mux.Router, name string, res resource) {
	base := "/" + name
	item := base + "/{id}"

	listRoles := res.listRoles
	if listRoles == nil {
		listRoles = anyRole
	}
	removeRoles := res.removeRoles
	if removeRoles == nil {
		removeRoles = adminOnly
	}

	if res.list != nil {
		api.HandleFunc(base, middleware.RequireRoles(listRoles, false, h.handleList(name, res.list))).Methods(http.MethodGet)
	}
	if res.create != nil {
		api.HandleFunc(base, middleware.RequireRoles(anyRole, res.anonymousCreate, h.handleCreate(name, res.create))).Methods(http.MethodPost)
	}
	if res.show != nil {
		api.HandleFunc(item, middleware.RequireRoles(anyRole, false, h.handleShow(res.show))).Methods(http.MethodGet)
	}
	if res.update != nil {
		api.HandleFunc(item, middleware.RequireRoles(anyRole, false, h.handleUpdate(name, res.update))).Methods(http.MethodPut)
	}
	if res.remove != nil {
		api.HandleFunc(item, middleware.RequireRoles(removeRoles, false, h.handleRemove(name, res.remove))).Methods(http.MethodDelete)
	}
}

func (h *Handler) handleCreate(entity string, create func(*http.Request, map[string]any) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := h.decodeBody(w, r)
		if !ok {
			return
		}
		result, err := create(r, body)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		metrics.RecordEntityWrite(entity, "create")
		h.writeJSON(w, http.StatusCreated, result)
	}
}

func (h *Handler) handleShow(show func(*http.Request, string) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := show(r, mux.Vars(r)["id"])
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, result)
	}
}

func (h *Handler) handleList(entity string, list func(*http.Request, listing.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := list(r, listRequest(r))
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, result)
	}
}

func (h *Handler) handleUpdate(entity string, update func(*http.Request, string, map[string]any) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := h.decodeBody(w, r)
		if !ok {
			return
		}
		result, err := update(r, mux.Vars(r)["id"], body)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		metrics.RecordEntityWrite(entity, "update")
		h.writeJSON(w, http.StatusOK, result)
	}
}

func (h *Handler) handleRemove(entity string, remove func(*http.Request, string) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := remove(r, mux.Vars(r)["id"])
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		metrics.RecordEntityWrite(entity, "remove")
		h.writeJSON(w, http.StatusOK, result)
	}
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listRequest lifts the query string into a listing request. Absent
// parameters stay absent so pagination defaults apply downstream.
func listRequest(r *http.Request) listing.Request {
	q := r.URL.Query()
	req := listing.Request{
		OrderBy: q.Get("orderBy"),
		Order:   q.Get("order"),
		Filters: q.Get("filters"),
	}
	if q.Has("page") {
		req.Page = q.Get("page")
	}
	if q.Has("perPage") {
		req.PerPage = q.Get("perPage")
	}
	return req
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "BadRequestException", "invalid request body")
		return nil, false
	}
	return body, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		metrics.RecordValidationFailure(routePath(r))
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"name":        "ValidationException",
			"code":        http.StatusBadRequest,
			"message":     "An error ocurred performing a validation",
			"validations": verr.Items,
		})
	case errors.Is(err, storage.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "NotFoundException", "record not found")
	default:
		h.log.WithError(err).Warn("request failed")
		h.writeError(w, http.StatusInternalServerError, "DatabaseException", "An internal error ocurred")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, name, message string) {
	h.writeJSON(w, status, map[string]any{"name": name, "code": status, "message": message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.WithError(err).Warn("failed to encode response")
	}
}

func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if template, err := route.GetPathTemplate(); err == nil {
			return template
		}
	}
	return r.URL.Path
}
