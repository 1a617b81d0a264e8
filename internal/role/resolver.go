// Package role resolves role membership for user accounts.
package role

import (
	"context"
	"errors"
	"slices"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/role/entity"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/role/repo"
	"github.com/ovaphlow/pitchfork/service-movies-go/pkg/utilities"
)

// Well-known role names.
const (
	Admin      = "Admin"
	Registered = "Registered"
)

// Baseline lists the roles every deployment carries.
var Baseline = []string{Admin, Registered}

// ErrNotFound is returned by AssignRole for an unknown role name.
var ErrNotFound = repo.ErrNotFound

// IsBaseline reports whether name is one of the baseline roles.
func IsBaseline(name string) bool {
	return slices.Contains(Baseline, name)
}

// Store is the persistence the resolver needs.
type Store interface {
	Insert(ctx context.Context, id, name string) error
	GetByName(ctx context.Context, name string) (*entity.Role, error)
	Assign(ctx context.Context, userID, roleID string) error
	NamesByUser(ctx context.Context, userID string) ([]string, error)
}

// Resolver creates roles lazily and manages user membership.
type Resolver struct {
	store Store
}

func NewResolver(s Store) *Resolver {
	return &Resolver{store: s}
}

// EnsureRoleExists creates the role if missing. Idempotent.
func (r *Resolver) EnsureRoleExists(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("role name is required")
	}
	return r.store.Insert(ctx, utilities.NewKSUID(), name)
}

// AssignRole links userID to the named role. The role must exist.
func (r *Resolver) AssignRole(ctx context.Context, userID, name string) error {
	role, err := r.store.GetByName(ctx, name)
	if err != nil {
		return err
	}
	return r.store.Assign(ctx, userID, role.ID)
}

// RolesOf returns the user's role names sorted ascending.
func (r *Resolver) RolesOf(ctx context.Context, userID string) ([]string, error) {
	names, err := r.store.NamesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

// PrimaryRole picks the role carried in a session token: the
// alphabetically first name. Empty input yields "".
func PrimaryRole(roles []string) string {
	if len(roles) == 0 {
		return ""
	}
	return slices.Min(roles)
}
