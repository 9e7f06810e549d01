package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/crate/pkg/httputil"
	"github.com/platinummonkey/crate/pkg/middleware"
	"github.com/platinummonkey/crate/pkg/store"
)

// AdminHandlers is the admin console: cross-user listing and deletion plus
// promote/demote. Every route here sits behind RequireAdmin.
type AdminHandlers struct {
	users   *store.UserStore
	artists *store.ArtistStore
}

// NewAdminHandlers creates the admin handlers
func NewAdminHandlers(users *store.UserStore, artists *store.ArtistStore) *AdminHandlers {
	return &AdminHandlers{users: users, artists: artists}
}

// RegisterRoutes registers admin routes. The router is already mounted under
// /admin.
func (h *AdminHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/users", h.listUsers).Methods("GET")
	router.HandleFunc("/users/{id}", h.deleteUser).Methods("DELETE")
	router.HandleFunc("/users/{id}/promote", h.promoteUser).Methods("PUT")
	router.HandleFunc("/users/{id}/demote", h.demoteUser).Methods("PUT")
	router.HandleFunc("/artists", h.listArtists).Methods("GET")
	router.HandleFunc("/artists/{id}", h.deleteArtist).Methods("DELETE")
}

// listUsers handles GET /admin/users
func (h *AdminHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, users)
}

// deleteUser handles DELETE /admin/users/{id}. The user's whole library
// goes with the account.
func (h *AdminHandlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

// promoteUser handles PUT /admin/users/{id}/promote
func (h *AdminHandlers) promoteUser(w http.ResponseWriter, r *http.Request) {
	h.setAdmin(w, r, true)
}

// demoteUser handles PUT /admin/users/{id}/demote. Admins can demote
// themselves; the change takes effect on their next request.
func (h *AdminHandlers) demoteUser(w http.ResponseWriter, r *http.Request) {
	h.setAdmin(w, r, false)
}

func (h *AdminHandlers) setAdmin(w http.ResponseWriter, r *http.Request, isAdmin bool) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	user, err := h.users.SetAdmin(r.Context(), id, isAdmin)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

// listArtists handles GET /admin/artists across all owners
func (h *AdminHandlers) listArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := h.artists.ListAll(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, artists)
}

// deleteArtist handles DELETE /admin/artists/{id} regardless of owner.
// Artists with albums still refuse deletion with a conflict.
func (h *AdminHandlers) deleteArtist(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.artists.Delete(r.Context(), scopeOf(identity), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
