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

const (
	maxNameLength  = 200
	maxGenreLength = 100
)

// ArtistHandlers handles the ownership-scoped artist CRUD
type ArtistHandlers struct {
	artists *store.ArtistStore
}

// NewArtistHandlers creates the artist handlers
func NewArtistHandlers(artists *store.ArtistStore) *ArtistHandlers {
	return &ArtistHandlers{artists: artists}
}

// RegisterRoutes registers artist routes on a protected router
func (h *ArtistHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/artists", h.create).Methods("POST")
	router.HandleFunc("/artists", h.list).Methods("GET")
	router.HandleFunc("/artists/{id}", h.get).Methods("GET")
	router.HandleFunc("/artists/{id}", h.update).Methods("PUT")
	router.HandleFunc("/artists/{id}", h.delete).Methods("DELETE")
}

type artistRequest struct {
	Name  string  `json:"name"`
	Genre *string `json:"genre"`
}

func (req *artistRequest) validate(w http.ResponseWriter) bool {
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return false
	}
	if utf8.RuneCountInString(req.Name) > maxNameLength {
		httputil.WriteValidationError(w, fmt.Sprintf("name must be at most %d characters", maxNameLength))
		return false
	}
	if req.Genre != nil && utf8.RuneCountInString(*req.Genre) > maxGenreLength {
		httputil.WriteValidationError(w, fmt.Sprintf("genre must be at most %d characters", maxGenreLength))
		return false
	}
	return true
}

// create handles POST /artists
func (h *ArtistHandlers) create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)

	var req artistRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !req.validate(w) {
		return
	}

	artist, err := h.artists.Create(r.Context(), scopeOf(identity), req.Name, req.Genre)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteCreated(w, artist)
}

// list handles GET /artists
func (h *ArtistHandlers) list(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)

	artists, err := h.artists.List(r.Context(), scopeOf(identity))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, artists)
}

// get handles GET /artists/{id}
func (h *ArtistHandlers) get(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	artist, err := h.artists.Get(r.Context(), scopeOf(identity), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, artist)
}

// update handles PUT /artists/{id}
func (h *ArtistHandlers) update(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req artistRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !req.validate(w) {
		return
	}

	artist, err := h.artists.Update(r.Context(), scopeOf(identity), id, req.Name, req.Genre)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, artist)
}

// delete handles DELETE /artists/{id}
func (h *ArtistHandlers) delete(w http.ResponseWriter, r *http.Request) {
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
