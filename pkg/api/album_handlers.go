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

// Release years outside this open interval are rejected
const (
	minReleaseYear = 1900
	maxReleaseYear = 2100
)

// AlbumHandlers handles the ownership-scoped album CRUD
type AlbumHandlers struct {
	albums *store.AlbumStore
}

// NewAlbumHandlers creates the album handlers
func NewAlbumHandlers(albums *store.AlbumStore) *AlbumHandlers {
	return &AlbumHandlers{albums: albums}
}

// RegisterRoutes registers album routes on a protected router
func (h *AlbumHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/albums", h.create).Methods("POST")
	router.HandleFunc("/albums", h.list).Methods("GET")
	router.HandleFunc("/albums/{id}", h.get).Methods("GET")
	router.HandleFunc("/albums/{id}", h.update).Methods("PUT")
	router.HandleFunc("/albums/{id}", h.delete).Methods("DELETE")
}

type albumRequest struct {
	Title       string `json:"title"`
	ArtistID    *int64 `json:"artist_id"`
	ReleaseYear *int   `json:"release_year"`
}

func (req *albumRequest) validate(w http.ResponseWriter) bool {
	if !httputil.RequireNonEmpty(w, req.Title, "title") {
		return false
	}
	if utf8.RuneCountInString(req.Title) > maxNameLength {
		httputil.WriteValidationError(w, fmt.Sprintf("title must be at most %d characters", maxNameLength))
		return false
	}
	if req.ReleaseYear != nil && (*req.ReleaseYear <= minReleaseYear || *req.ReleaseYear >= maxReleaseYear) {
		httputil.WriteValidationError(w,
			fmt.Sprintf("release_year must be between %d and %d", minReleaseYear+1, maxReleaseYear-1))
		return false
	}
	return true
}

// create handles POST /albums
func (h *AlbumHandlers) create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)

	var req albumRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !req.validate(w) {
		return
	}

	album, err := h.albums.Create(r.Context(), scopeOf(identity), req.Title, req.ArtistID, req.ReleaseYear)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteCreated(w, album)
}

// list handles GET /albums
func (h *AlbumHandlers) list(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)

	albums, err := h.albums.List(r.Context(), scopeOf(identity))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, albums)
}

// get handles GET /albums/{id}
func (h *AlbumHandlers) get(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	album, err := h.albums.Get(r.Context(), scopeOf(identity), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, album)
}

// update handles PUT /albums/{id}
func (h *AlbumHandlers) update(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req albumRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !req.validate(w) {
		return
	}

	album, err := h.albums.Update(r.Context(), scopeOf(identity), id, req.Title, req.ArtistID, req.ReleaseYear)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, album)
}

// delete handles DELETE /albums/{id}
func (h *AlbumHandlers) delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.albums.Delete(r.Context(), scopeOf(identity), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
