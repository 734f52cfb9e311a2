package server

import (
	"fmt"
	"net/http"
	"testing"

	"agora/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestBookOwnership(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.register(t)
	_, otherToken := env.register(t)

	book := map[string]any{"title": "Dune", "author": "Frank Herbert", "publication_year": 1965}

	status, body := env.do(t, http.MethodPost, "/books/", "", book)
	assertErrorCode(t, http.StatusUnauthorized, models.CodeUnauthorized, status, body)

	status, body = env.do(t, http.MethodPost, "/books/", ownerToken, book)
	require.Equal(t, http.StatusCreated, status, string(body))
	id := gjson.GetBytes(body, "id").Int()
	path := fmt.Sprintf("/books/%d/", id)

	status, body = env.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Dune", gjson.GetBytes(body, "title").String())
	assert.Equal(t, "Frank Herbert", gjson.GetBytes(body, "author").String())
	assert.Equal(t, int64(1965), gjson.GetBytes(body, "publication_year").Int())

	status, body = env.do(t, http.MethodPatch, path, otherToken, map[string]any{"title": "Mine now"})
	assertErrorCode(t, http.StatusForbidden, models.CodeForbidden, status, body)

	status, body = env.do(t, http.MethodDelete, path, otherToken, nil)
	assertErrorCode(t, http.StatusForbidden, models.CodeForbidden, status, body)

	status, body = env.do(t, http.MethodPatch, path, ownerToken, map[string]any{"title": "Dune Messiah"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "Dune Messiah", gjson.GetBytes(body, "title").String())

	status, _ = env.do(t, http.MethodDelete, path, ownerToken, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = env.do(t, http.MethodGet, path, "", nil)
	assertErrorCode(t, http.StatusNotFound, models.CodeNotFound, status, body)
}

func TestBookValidation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t)

	status, body := env.do(t, http.MethodPost, "/books/", token, map[string]any{
		"title": "  ", "author": "Someone", "publication_year": 3000,
	})
	assertErrorCode(t, http.StatusBadRequest, models.CodeValidation, status, body)
	assert.True(t, gjson.GetBytes(body, "fields.title").Exists())
	assert.True(t, gjson.GetBytes(body, "fields.publication_year").Exists())

	status, body = env.do(t, http.MethodGet, "/books/?ordering=price", "", nil)
	assertErrorCode(t, http.StatusBadRequest, models.CodeValidation, status, body)

	status, body = env.do(t, http.MethodGet, "/books/?year=abc", "", nil)
	assertErrorCode(t, http.StatusBadRequest, models.CodeValidation, status, body)
}

func TestPostAndCommentPermissions(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.register(t)
	_, otherToken := env.register(t)
	postID := env.createPost(t, ownerToken, "hello")
	postPath := fmt.Sprintf("/posts/%d", postID)

	status, body := env.do(t, http.MethodPut, postPath, otherToken, map[string]string{"content": "hijack"})
	assertErrorCode(t, http.StatusForbidden, models.CodeForbidden, status, body)

	status, body = env.do(t, http.MethodPut, postPath, "", map[string]string{"content": "hijack"})
	assertErrorCode(t, http.StatusUnauthorized, models.CodeUnauthorized, status, body)

	status, body = env.do(t, http.MethodPost, "/comments/", otherToken, map[string]any{"content": "nice", "post": postID})
	require.Equal(t, http.StatusCreated, status, string(body))
	commentPath := fmt.Sprintf("/comments/%d/", gjson.GetBytes(body, "id").Int())

	status, body = env.do(t, http.MethodPost, "/comments/", otherToken, map[string]any{"content": "nice", "post": 9999})
	assertErrorCode(t, http.StatusNotFound, models.CodeNotFound, status, body)

	status, body = env.do(t, http.MethodGet, fmt.Sprintf("/posts/%d/comments/", postID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, gjson.ParseBytes(body).Array(), 1)

	status, body = env.do(t, http.MethodGet, fmt.Sprintf("/comments/?post=%d", postID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, gjson.ParseBytes(body).Array(), 1)

	// The post owner does not own the comment.
	status, body = env.do(t, http.MethodDelete, commentPath, ownerToken, nil)
	assertErrorCode(t, http.StatusForbidden, models.CodeForbidden, status, body)

	status, _ = env.do(t, http.MethodDelete, postPath, ownerToken, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = env.do(t, http.MethodGet, commentPath, "", nil)
	assertErrorCode(t, http.StatusNotFound, models.CodeNotFound, status, body)

	status, body = env.do(t, http.MethodGet, "/posts/abc/", "", nil)
	assertErrorCode(t, http.StatusNotFound, models.CodeNotFound, status, body)
}

func TestFieldTypeErrorsAreReportedPerField(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t)
	postID := env.createPost(t, token, "target")

	tests := []struct {
		name    string
		path    string
		body    string
		field   string
		message string
	}{
		{"post content number", "/posts/", `{"content": 12}`, "content", "Incorrect type. Expected string, received number."},
		{"post tags string", "/posts/", `{"content": "x", "tags": "go"}`, "tags", "Incorrect type. Expected list, received string."},
		{"comment post string", "/comments/", `{"post": "abc", "content": "hi"}`, "post", "Incorrect type. Expected integer, received string."},
		{"book title number", "/books/", `{"title": 5, "author": "A", "publication_year": 1999}`, "title", "Incorrect type. Expected string, received number."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.doRaw(t, http.MethodPost, tt.path, token, tt.body)
			assertErrorCode(t, http.StatusBadRequest, models.CodeValidation, status, body)
			assert.Equal(t, tt.message, gjson.GetBytes(body, "fields."+tt.field+".0").String(), string(body))
		})
	}

	// A body that is not JSON at all has no field to blame.
	status, body := env.doRaw(t, http.MethodPatch, fmt.Sprintf("/posts/%d/", postID), token, `{"content":`)
	assertErrorCode(t, http.StatusBadRequest, models.CodeValidation, status, body)
	assert.False(t, gjson.GetBytes(body, "fields").Exists(), string(body))
}

func TestBookYearAcceptsIntegralDecimal(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t)

	status, body := env.doRaw(t, http.MethodPost, "/books/", token,
		`{"title": "Neuromancer", "author": "William Gibson", "publication_year": 1984.0}`)
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.Equal(t, int64(1984), gjson.GetBytes(body, "publication_year").Int())

	status, body = env.doRaw(t, http.MethodPost, "/books/", token,
		`{"title": "Count Zero", "author": "William Gibson", "publication_year": 1986.5}`)
	assertErrorCode(t, http.StatusBadRequest, models.CodeValidation, status, body)
	assert.True(t, gjson.GetBytes(body, "fields.publication_year").Exists(), string(body))
}

func TestPostSearchAndTags(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t)

	status, body := env.do(t, http.MethodPost, "/posts/", token, map[string]any{
		"content": "Profiling allocations", "tags": []string{"Go", "Performance Tuning"},
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	taggedID := gjson.GetBytes(body, "id").Int()
	assert.Equal(t, "go", gjson.GetBytes(body, "tags.0.slug").String())
	assert.Equal(t, "performance-tuning", gjson.GetBytes(body, "tags.1.slug").String())

	plainID := env.createPost(t, token, "Sourdough starter, day three")

	list := func(path string) []int64 {
		t.Helper()
		status, body := env.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, status, string(body))
		var ids []int64
		for _, r := range gjson.GetBytes(body, "#.id").Array() {
			ids = append(ids, r.Int())
		}
		return ids
	}

	assert.Equal(t, []int64{int64(plainID)}, list("/posts/?search=sourdough"))
	assert.Equal(t, []int64{taggedID}, list("/posts/?search=tuning"))
	assert.Equal(t, []int64{taggedID}, list("/posts/?tag=performance-tuning"))
	assert.Equal(t, []int64{taggedID}, list("/tags/go/"))
	assert.Empty(t, list("/tags/rust/"))
	assert.Len(t, list("/posts/?search=member"), 2, "search matches the author's username")

	// PATCH without tags keeps them; an empty list clears them.
	path := fmt.Sprintf("/posts/%d/", taggedID)
	status, body = env.do(t, http.MethodPatch, path, token, map[string]any{"content": "Profiling, revisited"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, int64(2), gjson.GetBytes(body, "tags.#").Int())

	status, body = env.do(t, http.MethodPatch, path, token, map[string]any{"tags": []string{}})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, int64(0), gjson.GetBytes(body, "tags.#").Int())
	assert.Empty(t, list("/tags/go/"))
}
