package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/stockroom-backend/api/validators"
)

func pathID(r *http.Request, name string) (int64, error) {
	return validators.ParseIDParam(chi.URLParam(r, name), name)
}

// queryID reads an optional positive id filter. Zero means unset.
func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return validators.ParseIDParam(raw, name)
}
