package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"agora/internal/models"
)

// Content field limits.
const (
	MaxBookTitleLength      = 200
	MaxBookAuthorLength     = 100
	MinPublicationYear      = 1000
	MaxPublicationYear      = 2100
	MaxPostContentLength    = 50000
	MaxCommentContentLength = 10000
	MaxTagLength            = 100
	MaxPostTags             = 10
)

// Year is a publication year as sent by a client. It accepts a JSON number
// or a numeric string and defers errors to Int so they can be reported per
// field instead of failing the whole body.
type Year struct {
	raw string
}

// YearOf wraps an integer year.
func YearOf(y int) *Year {
	return &Year{raw: strconv.Itoa(y)}
}

// UnmarshalJSON stores the raw token.
func (y *Year) UnmarshalJSON(b []byte) error {
	y.raw = strings.TrimSpace(string(b))
	return nil
}

// MarshalJSON writes the year back as it was received when numeric.
func (y Year) MarshalJSON() ([]byte, error) {
	if n, err := y.Int(); err == nil {
		return []byte(strconv.Itoa(n)), nil
	}
	return []byte(strconv.Quote(y.raw)), nil
}

var errYearNotNumber = errors.New("Publication year must be a valid number.")

// trailingZeroFraction matches an integral decimal suffix such as ".0" or ".00".
var trailingZeroFraction = regexp.MustCompile(`\.0*\s*$`)

// Int parses the year as a whole number. Integral decimals such as 2000.0
// are accepted.
func (y Year) Int() (int, error) {
	s := y.raw
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	if s == "" || s == "null" {
		return 0, errYearNotNumber
	}
	s = trailingZeroFraction.ReplaceAllString(s, "")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errYearNotNumber
	}
	return n, nil
}

// CleanBookTitle trims and validates a book title.
func CleanBookTitle(title string) (string, error) {
	return cleanText("Title", title, MaxBookTitleLength, true)
}

// CleanBookAuthor trims and validates a book author name.
func CleanBookAuthor(author string) (string, error) {
	return cleanText("Author name", author, MaxBookAuthorLength, true)
}

// CleanPublicationYear validates a year against the catalog range and the
// current year.
func CleanPublicationYear(y Year, now time.Time) (int, error) {
	n, err := y.Int()
	if err != nil {
		return 0, err
	}
	if n < MinPublicationYear {
		return 0, fmt.Errorf("Publication year must be %d or later.", MinPublicationYear)
	}
	if n > MaxPublicationYear {
		return 0, fmt.Errorf("Publication year must be %d or earlier.", MaxPublicationYear)
	}
	if n > now.Year() {
		return 0, errors.New("Publication year cannot be in the future.")
	}
	return n, nil
}

// CheckTitleAuthorDistinct rejects a book whose title equals its author.
func CheckTitleAuthorDistinct(title, author string) error {
	if strings.EqualFold(strings.TrimSpace(title), strings.TrimSpace(author)) {
		return errors.New("Title and author cannot be the same.")
	}
	return nil
}

// CleanPostContent trims and validates post content.
func CleanPostContent(content string) (string, error) {
	return cleanText("Content", content, MaxPostContentLength, false)
}

// CleanCommentContent trims and validates comment content.
func CleanCommentContent(content string) (string, error) {
	return cleanText("Content", content, MaxCommentContentLength, false)
}

func cleanText(label, value string, maxLen int, plain bool) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", fmt.Errorf("%s cannot be empty.", label)
	}
	if utf8.RuneCountInString(v) > maxLen {
		return "", fmt.Errorf("%s must not exceed %d characters.", label, maxLen)
	}
	if plain && strings.ContainsAny(v, "<>") {
		return "", fmt.Errorf("%s cannot contain HTML tags or angle brackets.", label)
	}
	return v, nil
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9_\s-]+`)
var slugSeparators = regexp.MustCompile(`[\s_-]+`)

// Slugify lowercases s and joins its words with hyphens, dropping anything
// that is not a letter, digit, space, hyphen or underscore.
func Slugify(s string) string {
	s = nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
	return strings.Trim(slugSeparators.ReplaceAllString(s, "-"), "-")
}

// CleanTags trims tag names, drops blanks and duplicates by slug, and
// returns the tags in input order.
func CleanTags(names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if utf8.RuneCountInString(name) > MaxTagLength {
			return nil, fmt.Errorf("Tag must not exceed %d characters.", MaxTagLength)
		}
		slug := Slugify(name)
		if slug == "" {
			return nil, fmt.Errorf("Tag %q must contain a letter or digit.", name)
		}
		if seen[slug] {
			continue
		}
		seen[slug] = true
		tags = append(tags, models.Tag{Name: name, Slug: slug})
	}
	if len(tags) > MaxPostTags {
		return nil, fmt.Errorf("A post can have at most %d tags.", MaxPostTags)
	}
	return tags, nil
}
