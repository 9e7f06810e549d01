package api

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/crate/pkg/httputil"
	"github.com/platinummonkey/crate/pkg/observability"
	"github.com/platinummonkey/crate/pkg/store"
)

// writeStoreError maps repository errors onto the HTTP error taxonomy:
// validation 400, not found 404, conflict 409, everything else 500.
// Internal errors are logged with request context but never echoed to the
// client in detail beyond the wrapped message.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if fe, ok := store.AsFieldError(err); ok {
		httputil.WriteValidationError(w, fe.Error())
		return
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		httputil.WriteNotFoundError(w, "not found")
	case errors.Is(err, store.ErrConflict):
		httputil.WriteConflict(w, "delete blocked by dependent records")
	default:
		observability.FromContext(r.Context()).WithError(err).Error("request failed")
		httputil.WriteInternalError(w, errors.New("internal server error"))
	}
}
