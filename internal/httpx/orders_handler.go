package httpx

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ariefcatur/go-shop-services/internal/apperr"
	"github.com/ariefcatur/go-shop-services/internal/orders"
	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	Service *orders.Service
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.createOrder)
		r.Get("/user/{userId}", h.byUser)
		r.Get("/status/{status}", h.byStatus)
		r.Get("/date-range", h.byDateRange)
		r.Get("/{id}", h.getOrder)
		r.Put("/{id}/status", h.updateStatus)
		r.Put("/{id}/cancel", h.cancelOrder)
	})
}

func (h *OrdersHandler) writeList(w http.ResponseWriter, r *http.Request, out []orders.Order, err error) {
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.All(r.Context())
	h.writeList(w, r, out, err)
}

func (h *OrdersHandler) byUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	out, err := h.Service.ByUser(r.Context(), userID)
	h.writeList(w, r, out, err)
}

func (h *OrdersHandler) byStatus(w http.ResponseWriter, r *http.Request) {
	st, err := orders.ParseStatus(chi.URLParam(r, "status"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	out, err := h.Service.ByStatus(r.Context(), st)
	h.writeList(w, r, out, err)
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05"}

func parseDate(name, raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid %s %q", apperr.ErrBusinessRule, name, raw)
}

func (h *OrdersHandler) byDateRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseDate("startDate", q.Get("startDate"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	to, err := parseDate("endDate", q.Get("endDate"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	out, err := h.Service.ByDateRange(r.Context(), from, to)
	h.writeList(w, r, out, err)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	o, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// createOrder answers 400 for every failure, whatever its kind.
func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.Draft
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	o, err := h.Service.CreateOrder(r.Context(), req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// updateStatus answers 404 for every failure except an unknown status value.
func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	st, err := orders.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	o, err := h.Service.UpdateStatus(r.Context(), id, st)
	if err != nil {
		writeError(w, r, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// cancelOrder answers 200 with no body, also for unknown or non-cancellable orders.
func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := h.Service.CancelOrder(r.Context(), id); err != nil {
		writeError(w, r, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
