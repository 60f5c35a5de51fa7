package httpx

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-shop-services/internal/apperr"
	"github.com/ariefcatur/go-shop-services/internal/products"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type ProductsHandler struct {
	Service *products.Service
}

// productReq is the create/update body. Active defaults to true.
type productReq struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category"`
	Brand         string          `json:"brand"`
	StockQuantity int             `json:"stockQuantity"`
	ImageURL      string          `json:"imageUrl"`
	Active        *bool           `json:"active"`
}

func (p productReq) product() products.Product {
	return products.Product{
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Category:      p.Category,
		Brand:         p.Brand,
		StockQuantity: p.StockQuantity,
		ImageURL:      p.ImageURL,
		Active:        p.Active == nil || *p.Active,
	}
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/available", h.available)
		r.Get("/search", h.search)
		r.Get("/price-range", h.priceRange)
		r.Get("/category/{category}", h.byCategory)
		r.Get("/brand/{brand}", h.byBrand)
		r.Get("/max-price/{maxPrice}", h.upToPrice)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Put("/{id}/stock", h.adjustStock)
	})
}

func (h *ProductsHandler) writeList(w http.ResponseWriter, r *http.Request, ps []products.Product, err error) {
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Service.All(r.Context())
	h.writeList(w, r, ps, err)
}

func (h *ProductsHandler) available(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Service.Available(r.Context())
	h.writeList(w, r, ps, err)
}

func (h *ProductsHandler) search(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Service.Search(r.Context(), r.URL.Query().Get("name"))
	h.writeList(w, r, ps, err)
}

func (h *ProductsHandler) byCategory(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Service.ByCategory(r.Context(), chi.URLParam(r, "category"))
	h.writeList(w, r, ps, err)
}

func (h *ProductsHandler) byBrand(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Service.ByBrand(r.Context(), chi.URLParam(r, "brand"))
	h.writeList(w, r, ps, err)
}

func parsePrice(name, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid %s %q", apperr.ErrBusinessRule, name, raw)
	}
	return d, nil
}

func (h *ProductsHandler) priceRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lo, err := parsePrice("minPrice", q.Get("minPrice"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	hi, err := parsePrice("maxPrice", q.Get("maxPrice"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	ps, err := h.Service.PriceRange(r.Context(), lo, hi)
	h.writeList(w, r, ps, err)
}

func (h *ProductsHandler) upToPrice(w http.ResponseWriter, r *http.Request) {
	limit, err := parsePrice("maxPrice", chi.URLParam(r, "maxPrice"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	ps, err := h.Service.UpToPrice(r.Context(), limit)
	h.writeList(w, r, ps, err)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	p, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	p, err := h.Service.Create(r.Context(), req.product())
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	var req productReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	p, err := h.Service.Update(r.Context(), id, req.product())
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// delete deactivates the product. Unknown ids also get 204.
func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// adjustStock answers with a bare JSON boolean; quantity may be negative.
func (h *ProductsHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	qty, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("%w: invalid quantity", apperr.ErrBusinessRule))
		return
	}
	ok, err := h.Service.AdjustStock(r.Context(), id, qty)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ok)
}
