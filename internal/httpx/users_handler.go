package httpx

import (
	"errors"
	"net/http"

	"github.com/ariefcatur/go-shop-services/internal/users"
	"github.com/go-chi/chi/v5"
)

type UsersHandler struct {
	Service *users.Service
}

func (h *UsersHandler) Register(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/username/{username}", h.byUsername)
		r.Get("/email/{email}", h.byEmail)
		r.Get("/exists/username/{username}", h.usernameExists)
		r.Get("/exists/email/{email}", h.emailExists)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *UsersHandler) writeUser(w http.ResponseWriter, r *http.Request, u *users.User, err error) {
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UsersHandler) list(w http.ResponseWriter, r *http.Request) {
	us, err := h.Service.All(r.Context())
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, us)
}

func (h *UsersHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	u, err := h.Service.Get(r.Context(), id)
	h.writeUser(w, r, u, err)
}

func (h *UsersHandler) byUsername(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.ByUsername(r.Context(), chi.URLParam(r, "username"))
	h.writeUser(w, r, u, err)
}

func (h *UsersHandler) byEmail(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.ByEmail(r.Context(), chi.URLParam(r, "email"))
	h.writeUser(w, r, u, err)
}

func (h *UsersHandler) usernameExists(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Service.UsernameExists(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, ok)
}

func (h *UsersHandler) emailExists(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Service.EmailExists(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, ok)
}

func (h *UsersHandler) create(w http.ResponseWriter, r *http.Request) {
	var in users.Input
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	u, err := h.Service.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *UsersHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	var in users.Input
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	u, err := h.Service.Update(r.Context(), id, in)
	h.writeUser(w, r, u, err)
}

func (h *UsersHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, err)
			return
		}
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
