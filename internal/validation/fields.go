package validation

import (
	"agora/internal/models"
)

// FieldErrors collects validation messages keyed by field name.
type FieldErrors map[string][]string

// Add records msg against field.
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// AddErr records err against field when err is non-nil.
func (f FieldErrors) AddErr(field string, err error) {
	if err != nil {
		f.Add(field, err.Error())
	}
}

// Has reports whether field has any recorded message.
func (f FieldErrors) Has(field string) bool {
	return len(f[field]) > 0
}

// Err returns a validation AppError carrying every recorded message, or nil.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return models.NewFieldValidationError(map[string][]string(f))
}
