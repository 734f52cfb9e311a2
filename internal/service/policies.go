// Package service holds the domain operations behind the HTTP handlers.
package service

import (
	"agora/internal/access"
)

// ContentPolicies are the predicates a content service enforces. Write
// covers create and update; Delete covers removal.
type ContentPolicies struct {
	Write  access.Policy
	Delete access.Policy
}

// DefaultContentPolicies lets anyone read, authenticated users create, owners
// update, and owners or administrators delete.
func DefaultContentPolicies() ContentPolicies {
	base := access.NewPolicy(access.IsAuthenticatedOrReadOnly{})
	return ContentPolicies{
		Write:  base.WithObject(access.IsOwnerOrReadOnly{}),
		Delete: base.WithObject(access.AnyOf(access.IsOwnerOrReadOnly{}, access.IsAdmin{})),
	}
}

// ListParams is a clamped limit/offset pair.
type ListParams struct {
	Limit  int
	Offset int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NewListParams clamps limit to [1, MaxPageSize], defaulting to
// DefaultPageSize, and offset to >= 0.
func NewListParams(limit, offset int) ListParams {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return ListParams{Limit: limit, Offset: offset}
}

const fieldRequired = "This field is required."
