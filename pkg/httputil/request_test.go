package httputil

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"test"}`))
		var dest struct {
			Name string `json:"name"`
		}
		require.NoError(t, ParseJSON(req, &dest))
		assert.Equal(t, "test", dest.Name)
	})

	t.Run("invalid", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{not json`))
		var dest map[string]string
		assert.Error(t, ParseJSON(req, &dest))
	})
}

func TestParseJSONOrError(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{broken`))
	rec := httptest.NewRecorder()
	var dest map[string]string

	assert.False(t, ParseJSONOrError(rec, req, &dest))
	assert.Equal(t, 400, rec.Code)
}

func TestParsePathInt64(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := mux.SetURLVars(httptest.NewRequest("GET", "/artists/42", nil), map[string]string{"id": "42"})
		val, err := ParsePathInt64(req, "id")
		require.NoError(t, err)
		assert.Equal(t, int64(42), val)
	})

	t.Run("non-numeric", func(t *testing.T) {
		req := mux.SetURLVars(httptest.NewRequest("GET", "/artists/abc", nil), map[string]string{"id": "abc"})
		_, err := ParsePathInt64(req, "id")
		assert.Error(t, err)
	})

	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/artists", nil)
		_, err := ParsePathInt64(req, "id")
		assert.Error(t, err)
	})
}

func TestRequireNonEmpty(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		rec := httptest.NewRecorder()
		assert.True(t, RequireNonEmpty(rec, "value", "name"))
	})

	t.Run("empty", func(t *testing.T) {
		rec := httptest.NewRecorder()
		assert.False(t, RequireNonEmpty(rec, "", "name"))
		assert.Equal(t, 400, rec.Code)
		assert.Contains(t, rec.Body.String(), "name is required")
	})
}
