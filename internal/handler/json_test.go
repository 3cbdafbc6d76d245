package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]int64{"id": 7}, map[string]any{"total": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body struct {
		Data map[string]int64 `json:"data"`
		Meta map[string]any   `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body.Data["id"])
	assert.EqualValues(t, 1, body.Meta["total"])
}

func TestWriteJSONOmitsEmptyMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, []string{}, nil)
	assert.NotContains(t, rec.Body.String(), `"meta"`)
}

func TestWriteJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSONError(rec, http.StatusNotFound, "not_found", "page not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.Error.Code)
	assert.Equal(t, "page not found", body.Error.Message)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var dst struct {
		Title string `json:"title"`
	}

	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"title":"About"}`))
	require.NoError(t, decodeJSON(r, &dst))
	assert.Equal(t, "About", dst.Title)

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"title":"About","bogus":true}`))
	assert.Error(t, decodeJSON(r, &dst))
}
