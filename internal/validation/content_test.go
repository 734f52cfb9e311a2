package validation

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"agora/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func TestYear_UnmarshalAndInt(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{"number", `{"y": 2023}`, 2023, false},
		{"numeric string", `{"y": "1999"}`, 1999, false},
		{"padded string", `{"y": " 1999 "}`, 1999, false},
		{"word", `{"y": "invalid"}`, 0, true},
		{"float", `{"y": 2023.5}`, 0, true},
		{"integral decimal", `{"y": 2000.0}`, 2000, false},
		{"integral decimal string", `{"y": "1999.00"}`, 1999, false},
		{"bare dot", `{"y": "."}`, 0, true},
		{"exponent", `{"y": 2e3}`, 0, true},
		{"null", `{"y": null}`, 0, true},
		{"empty string", `{"y": ""}`, 0, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var body struct {
				Y *Year `json:"y"`
			}
			require.NoError(t, json.Unmarshal([]byte(tt.body), &body))

			var y Year
			if body.Y != nil {
				y = *body.Y
			}
			got, err := y.Int()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestYear_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(YearOf(1984))
	require.NoError(t, err)
	assert.Equal(t, "1984", string(b))
}

func TestCleanPublicationYear(t *testing.T) {
	tests := []struct {
		name    string
		year    *Year
		wantErr string
	}{
		{"in range", YearOf(2023), ""},
		{"lower bound", YearOf(1000), ""},
		{"below range", YearOf(999), "1000 or later"},
		{"above range", YearOf(3000), "2100 or earlier"},
		{"future within range", YearOf(2026), "cannot be in the future"},
		{"not a number", &Year{raw: `"invalid"`}, "valid number"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := CleanPublicationYear(*tt.year, fixedNow)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCleanBookFields(t *testing.T) {
	title, err := CleanBookTitle("  Dune  ")
	require.NoError(t, err)
	assert.Equal(t, "Dune", title)

	_, err = CleanBookTitle("   ")
	assert.EqualError(t, err, "Title cannot be empty.")

	_, err = CleanBookTitle(strings.Repeat("t", MaxBookTitleLength+1))
	assert.Error(t, err)

	_, err = CleanBookTitle("<script>alert(1)</script>")
	assert.Error(t, err)

	_, err = CleanBookAuthor(strings.Repeat("a", MaxBookAuthorLength+1))
	assert.Error(t, err)

	author, err := CleanBookAuthor("Frank Herbert")
	require.NoError(t, err)
	assert.Equal(t, "Frank Herbert", author)
}

func TestCheckTitleAuthorDistinct(t *testing.T) {
	assert.Error(t, CheckTitleAuthorDistinct("Test", "test "))
	assert.NoError(t, CheckTitleAuthorDistinct("Dune", "Frank Herbert"))
}

func TestCleanContent(t *testing.T) {
	_, err := CleanPostContent(" \n\t ")
	assert.Error(t, err)

	c, err := CleanPostContent("  hello <b>world</b> ")
	require.NoError(t, err)
	assert.Equal(t, "hello <b>world</b>", c)

	_, err = CleanCommentContent(strings.Repeat("c", MaxCommentContentLength+1))
	assert.Error(t, err)
}

func TestFieldErrors(t *testing.T) {
	fe := FieldErrors{}
	assert.NoError(t, fe.Err())

	fe.AddErr("title", nil)
	assert.NoError(t, fe.Err())

	fe.Add("title", "Title cannot be empty.")
	fe.Add("title", "second")
	assert.True(t, fe.Has("title"))
	assert.False(t, fe.Has("author"))

	err := fe.Err()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Len(t, appErr.Fields["title"], 2)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "go-concurrency", Slugify("  Go Concurrency "))
	assert.Equal(t, "c-tips", Slugify("C++ tips"))
	assert.Equal(t, "a-b", Slugify("a__b"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestCleanTags(t *testing.T) {
	tags, err := CleanTags([]string{" Go ", "", "go", "Web Dev"})
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, models.Tag{Name: "Go", Slug: "go"}, tags[0])
	assert.Equal(t, "web-dev", tags[1].Slug)

	_, err = CleanTags([]string{"???"})
	assert.ErrorContains(t, err, "letter or digit")

	_, err = CleanTags([]string{strings.Repeat("x", MaxTagLength+1)})
	assert.ErrorContains(t, err, "must not exceed")

	many := make([]string, MaxPostTags+1)
	for i := range many {
		many[i] = strings.Repeat("t", i+1)
	}
	_, err = CleanTags(many)
	assert.ErrorContains(t, err, "at most")

	empty, err := CleanTags(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
