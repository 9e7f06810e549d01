package api

import (
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/crate/pkg/httputil"
	"github.com/platinummonkey/crate/pkg/middleware"
	"github.com/platinummonkey/crate/pkg/store"
)

const maxDescriptionLength = 1000

// PlaylistHandlers handles the ownership-scoped playlist CRUD
type PlaylistHandlers struct {
	playlists *store.PlaylistStore
}

// NewPlaylistHandlers creates the playlist handlers
func NewPlaylistHandlers(playlists *store.PlaylistStore) *PlaylistHandlers {
	return &PlaylistHandlers{playlists: playlists}
}

// RegisterRoutes registers playlist routes on a protected router
func (h *PlaylistHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/playlists", h.create).Methods("POST")
	router.HandleFunc("/playlists", h.list).Methods("GET")
	router.HandleFunc("/playlists/{id}", h.get).Methods("GET")
	router.HandleFunc("/playlists/{id}", h.update).Methods("PUT")
	router.HandleFunc("/playlists/{id}", h.delete).Methods("DELETE")
}

type playlistRequest struct {
	Name        string             `json:"name"`
	Description *string            `json:"description"`
	Tracks      []store.TrackInput `json:"tracks"`
}

func (req *playlistRequest) validate(w http.ResponseWriter) bool {
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return false
	}
	if utf8.RuneCountInString(req.Name) > maxNameLength {
		httputil.WriteValidationError(w, fmt.Sprintf("name must be at most %d characters", maxNameLength))
		return false
	}
	if req.Description != nil && utf8.RuneCountInString(*req.Description) > maxDescriptionLength {
		httputil.WriteValidationError(w,
			fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
		return false
	}
	for i, track := range req.Tracks {
		if track.Title == "" {
			httputil.WriteValidationError(w, fmt.Sprintf("track %d: title is required", i))
			return false
		}
		if utf8.RuneCountInString(track.Title) > maxNameLength {
			httputil.WriteValidationError(w,
				fmt.Sprintf("track %d: title must be at most %d characters", i, maxNameLength))
			return false
		}
	}
	return true
}

// create handles POST /playlists
func (h *PlaylistHandlers) create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)

	var req playlistRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !req.validate(w) {
		return
	}

	playlist, err := h.playlists.Create(r.Context(), scopeOf(identity), req.Name, req.Description, req.Tracks)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteCreated(w, playlist)
}

// list handles GET /playlists
func (h *PlaylistHandlers) list(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)

	playlists, err := h.playlists.List(r.Context(), scopeOf(identity))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, playlists)
}

// get handles GET /playlists/{id}
func (h *PlaylistHandlers) get(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	playlist, err := h.playlists.Get(r.Context(), scopeOf(identity), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, playlist)
}

// update handles PUT /playlists/{id}. The track list is replaced wholesale;
// there is no per-track patching.
func (h *PlaylistHandlers) update(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req playlistRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !req.validate(w) {
		return
	}

	playlist, err := h.playlists.Update(r.Context(), scopeOf(identity), id, req.Name, req.Description, req.Tracks)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, playlist)
}

// delete handles DELETE /playlists/{id}
func (h *PlaylistHandlers) delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.playlists.Delete(r.Context(), scopeOf(identity), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
