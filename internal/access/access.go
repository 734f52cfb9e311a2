// Package access implements the permission predicates applied to API
// requests and to the content objects they target.
//
// Predicates are plain values. Routes and services receive the policy they
// enforce as a constructor argument; nothing is registered globally.
package access

import (
	"net/http"

	"agora/internal/models"
)

// Request is the subset of an incoming request a predicate may inspect.
// UserID is zero for anonymous callers.
type Request struct {
	Method  string
	UserID  uint
	IsAdmin bool
}

// Authenticated reports whether the request carries a verified identity.
func (r Request) Authenticated() bool {
	return r.UserID != 0
}

// Safe reports whether the request uses a read-only method.
func (r Request) Safe() bool {
	return IsSafeMethod(r.Method)
}

// IsSafeMethod reports whether method is GET, HEAD or OPTIONS.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Owned is implemented by entities with a single owning user.
type Owned interface {
	OwnerID() uint
}

// Permission decides whether a request may reach a route at all.
type Permission interface {
	HasPermission(r Request) bool
}

// ObjectPermission decides whether a request may act on a loaded object.
type ObjectPermission interface {
	HasObjectPermission(r Request, obj Owned) bool
}

// PermissionFunc adapts a function to Permission.
type PermissionFunc func(r Request) bool

func (f PermissionFunc) HasPermission(r Request) bool { return f(r) }

// ObjectPermissionFunc adapts a function to ObjectPermission.
type ObjectPermissionFunc func(r Request, obj Owned) bool

func (f ObjectPermissionFunc) HasObjectPermission(r Request, obj Owned) bool { return f(r, obj) }

// AllowAny grants every request.
type AllowAny struct{}

func (AllowAny) HasPermission(Request) bool { return true }

// IsAuthenticated grants only authenticated requests, whatever the method.
type IsAuthenticated struct{}

func (IsAuthenticated) HasPermission(r Request) bool { return r.Authenticated() }

// IsAuthenticatedOrReadOnly grants safe methods to everyone and mutating
// methods to authenticated callers.
type IsAuthenticatedOrReadOnly struct{}

func (IsAuthenticatedOrReadOnly) HasPermission(r Request) bool {
	return r.Safe() || r.Authenticated()
}

// IsOwnerOrReadOnly grants safe methods on any object and mutating methods
// only when the caller owns the object.
type IsOwnerOrReadOnly struct{}

func (IsOwnerOrReadOnly) HasPermission(Request) bool { return true }

func (IsOwnerOrReadOnly) HasObjectPermission(r Request, obj Owned) bool {
	if r.Safe() {
		return true
	}
	return r.Authenticated() && obj != nil && obj.OwnerID() == r.UserID
}

// IsAdmin grants administrators, at route and object level.
type IsAdmin struct{}

func (IsAdmin) HasPermission(r Request) bool { return r.Authenticated() && r.IsAdmin }

func (IsAdmin) HasObjectPermission(r Request, _ Owned) bool {
	return r.Authenticated() && r.IsAdmin
}

// AnyOf grants an object when at least one of perms grants it.
func AnyOf(perms ...ObjectPermission) ObjectPermission {
	return ObjectPermissionFunc(func(r Request, obj Owned) bool {
		for _, p := range perms {
			if p.HasObjectPermission(r, obj) {
				return true
			}
		}
		return false
	})
}

// Policy is an ordered set of route and object predicates. Every predicate
// must grant for the policy to grant.
type Policy struct {
	permissions       []Permission
	objectPermissions []ObjectPermission
}

// NewPolicy builds a policy from route-level predicates.
func NewPolicy(perms ...Permission) Policy {
	return Policy{permissions: perms}
}

// WithObject returns a copy of p that also enforces the object predicates.
func (p Policy) WithObject(perms ...ObjectPermission) Policy {
	out := Policy{
		permissions:       append([]Permission(nil), p.permissions...),
		objectPermissions: append([]ObjectPermission(nil), p.objectPermissions...),
	}
	out.objectPermissions = append(out.objectPermissions, perms...)
	return out
}

// Check evaluates the route-level predicates.
func (p Policy) Check(r Request) error {
	for _, perm := range p.permissions {
		if !perm.HasPermission(r) {
			return deny(r)
		}
	}
	return nil
}

// CheckObject evaluates the object-level predicates against obj. Callers
// run it after the object has been loaded and the route check has passed.
func (p Policy) CheckObject(r Request, obj Owned) error {
	for _, perm := range p.objectPermissions {
		if !perm.HasObjectPermission(r, obj) {
			return deny(r)
		}
	}
	return nil
}

// Authorize runs both checks.
func (p Policy) Authorize(r Request, obj Owned) error {
	if err := p.Check(r); err != nil {
		return err
	}
	return p.CheckObject(r, obj)
}

func deny(r Request) error {
	if !r.Authenticated() {
		return models.NewUnauthorizedError("Authentication credentials were not provided")
	}
	return models.NewForbiddenError("You do not have permission to perform this action")
}
