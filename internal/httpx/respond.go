package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-shop-services/internal/apperr"
	"github.com/ariefcatur/go-shop-services/internal/logging"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type errorBody struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends err with the given status. The kind stays visible to
// clients even where every failure maps to one status code.
func writeError(w http.ResponseWriter, r *http.Request, code int, err error) {
	kind := apperr.KindOf(err)
	log := logging.FromContext(r.Context())
	if code >= 500 {
		log.Error("request_failed", zap.Int("status", code), zap.String("kind", string(kind)), zap.Error(err))
	} else {
		log.Info("request_rejected", zap.Int("status", code), zap.String("kind", string(kind)), zap.Error(err))
	}
	writeJSON(w, code, errorBody{Error: err.Error(), Kind: kind})
}

// statusFor is the default mapping from error kind to status code.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindBusinessRule:
		return http.StatusBadRequest
	case apperr.KindRemoteCall:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid json: %v", apperr.ErrBusinessRule, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", apperr.ErrBusinessRule, name, chi.URLParam(r, name))
	}
	return id, nil
}
