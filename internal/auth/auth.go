// Package auth resolves the caller's identity and role once per request and
// gates every mutating operation before any state is touched.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/quicklendx/quicklendx/internal/ledger"
)

// ErrUnauthorized is returned when the caller lacks the required capability.
var ErrUnauthorized = errors.New("unauthorized")

// Identity is a ledger-verified account address.
type Identity string

// Role is the closed capability set recognised by the marketplace.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleBusiness Role = "business"
	RoleInvestor Role = "investor"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleBusiness, RoleInvestor:
		return true
	}

	return false
}

// Actor is the authenticated caller of the current request.
type Actor struct {
	Identity Identity
	Role     Role
}

type actorContextKey struct{}

// WithActor returns a context carrying the authenticated actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

const adminKey = "admin"

// Guard checks caller capabilities against the persisted admin binding.
type Guard struct {
	ledger ledger.Ledger
}

func NewGuard(l ledger.Ledger) *Guard {
	return &Guard{ledger: l}
}

// EnsureAdmin persists the admin identity if none is bound yet. The binding
// is set once; a different configured admin on a later boot is rejected.
func (g *Guard) EnsureAdmin(ctx context.Context, admin Identity) error {
	if admin == "" {
		return fmt.Errorf("admin identity must not be empty")
	}

	return g.ledger.Update(ctx, func(tx ledger.Tx) error {
		var current Identity

		err := ledger.GetJSON(tx, adminKey, &current)
		if errors.Is(err, ledger.ErrKeyNotFound) {
			return ledger.SetJSON(tx, adminKey, admin)
		}

		if err != nil {
			return err
		}

		if current != admin {
			return fmt.Errorf("admin already bound to a different identity")
		}

		return nil
	})
}

// Admin returns the bound admin identity.
func (g *Guard) Admin(ctx context.Context) (Identity, error) {
	var admin Identity

	err := g.ledger.View(ctx, func(tx ledger.Tx) error {
		return ledger.GetJSON(tx, adminKey, &admin)
	})
	if errors.Is(err, ledger.ErrKeyNotFound) {
		return "", ErrUnauthorized
	}

	if err != nil {
		return "", err
	}

	return admin, nil
}

// Require returns the actor if it carries the given role. Admin checks also
// verify the actor against the persisted admin identity.
func (g *Guard) Require(ctx context.Context, role Role) (Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return Actor{}, ErrUnauthorized
	}

	if actor.Role != role {
		return Actor{}, fmt.Errorf("%w: %s role required", ErrUnauthorized, role)
	}

	if role == RoleAdmin {
		admin, err := g.Admin(ctx)
		if err != nil {
			return Actor{}, err
		}

		if actor.Identity != admin {
			return Actor{}, fmt.Errorf("%w: not the bound admin", ErrUnauthorized)
		}
	}

	return actor, nil
}

// RequireAny returns the actor if it carries one of the given roles.
func (g *Guard) RequireAny(ctx context.Context, roles ...Role) (Actor, error) {
	var lastErr error

	for _, role := range roles {
		actor, err := g.Require(ctx, role)
		if err == nil {
			return actor, nil
		}

		lastErr = err
	}

	if lastErr == nil {
		lastErr = ErrUnauthorized
	}

	return Actor{}, lastErr
}
