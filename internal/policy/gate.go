// Package policy is the single authorization checkpoint. Every mutating HTTP
// handler asks the Gate before touching the store.
package policy

import (
	"context"
	"errors"

	"github.com/ukydev/fleet-manager/internal/models"
)

// Action describes the kind of operation a user wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

// Resource types known to the gate.
const (
	ResourceRecords  = "records"
	ResourceMissions = "missions"
	ResourceUsers    = "users"
	ResourceSettings = "settings"
	ResourceUploads  = "uploads"
	ResourceDemo     = "demo"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrSelfDelete      = errors.New("cannot delete own account")
	ErrNoPolicy        = errors.New("no policy defined for resource")
)

// Policy decides whether claims may perform action on a resource. target is the
// concrete object when one exists (nil for list/create).
type Policy interface {
	Check(ctx context.Context, claims *models.Claims, action Action, target any) error
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func(ctx context.Context, claims *models.Claims, action Action, target any) error

func (f PolicyFunc) Check(ctx context.Context, claims *models.Claims, action Action, target any) error {
	return f(ctx, claims, action, target)
}

// Gate is a registry of policies keyed by resource type.
type Gate struct {
	policies map[string]Policy
}

// NewGate creates an empty Gate.
func NewGate() *Gate {
	return &Gate{policies: make(map[string]Policy)}
}

// Register adds or replaces the policy for resourceType.
func (g *Gate) Register(resourceType string, p Policy) {
	g.policies[resourceType] = p
}

// Authorize returns nil when allowed. Denials are ErrUnauthenticated,
// ErrForbidden, ErrSelfDelete or ErrNoPolicy.
func (g *Gate) Authorize(ctx context.Context, claims *models.Claims, action Action, resourceType string, target any) error {
	if claims == nil || claims.UserID == "" {
		return ErrUnauthenticated
	}
	p, ok := g.policies[resourceType]
	if !ok {
		return ErrNoPolicy
	}
	return p.Check(ctx, claims, action, target)
}

// Can is Authorize as a bool.
func (g *Gate) Can(ctx context.Context, claims *models.Claims, action Action, resourceType string, target any) bool {
	return g.Authorize(ctx, claims, action, resourceType, target) == nil
}
