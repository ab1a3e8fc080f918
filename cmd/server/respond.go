package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
	"github.com/DiomarGoncalves/ElectraVolt/internal/production"
	"github.com/DiomarGoncalves/ElectraVolt/internal/sales"
	"github.com/DiomarGoncalves/ElectraVolt/internal/store"
)

var validate = validator.New()

func init() {
	// Decimal fields validate as their sign, so gt=0 and gte=0 are exact at any scale.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			return v.Sign()
		}
		return nil
	}, decimal.Decimal{})
}

type errorResponse struct {
	Error     string                `json:"error"`
	Fields    map[string]string     `json:"fields,omitempty"`
	Shortages []production.Shortage `json:"shortages,omitempty"`
	// ProductShortages lists finished products a sale could not cover.
	ProductShortages []sales.Shortage `json:"product_shortages,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps domain error kinds to HTTP status codes.
func statusFor(err error) int {
	var stockErr *production.InsufficientStockError
	switch {
	case errors.As(err, &stockErr),
		errors.Is(err, production.ErrNoComposition),
		errors.Is(err, sales.ErrInsufficientStock):
		return http.StatusUnprocessableEntity
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, production.ErrInvalidTransition), errors.Is(err, store.ErrInUse):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrInvalid),
		errors.Is(err, production.ErrInvalidStatus),
		errors.Is(err, production.ErrInvalidBatch),
		errors.Is(err, sales.ErrNoItems),
		errors.Is(err, sales.ErrInvalidItem),
		errors.Is(err, store.ErrNegativeStock):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSONError(w, status, "internal error")
		return
	}

	resp := errorResponse{Error: err.Error()}
	var stockErr *production.InsufficientStockError
	if errors.As(err, &stockErr) {
		resp.Shortages = stockErr.Shortages
	}
	var saleErr *sales.InsufficientStockError
	if errors.As(err, &saleErr) {
		resp.ProductShortages = saleErr.Shortages
	}
	writeJSON(w, status, resp)
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the 400 response itself and returns false when the request is unusable.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: fields})
		return false
	}
	return true
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// idParam parses a positive id from the route, writing a 400 when it is malformed.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := parseIDParam(r, name)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}
