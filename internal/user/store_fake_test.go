package user

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/role"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/user/repo"
)

// memStore is an in-memory Store. InTx snapshots state and restores it when
// fn fails, mimicking a rollback.
type memStore struct {
	mu        sync.Mutex
	users     map[string]*entity.User
	roles     map[string]bool
	userRoles map[string]map[string]bool

	errExists error
	errCreate error
	errAssign error
	errUpdate error
	updates   int
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]*entity.User{},
		roles:     map[string]bool{},
		userRoles: map[string]map[string]bool{},
	}
}

func (m *memStore) Users() CredentialStore { return memUsers{m} }
func (m *memStore) Roles() RoleResolver    { return memRoles{m} }

func (m *memStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	m.mu.Lock()
	users := maps.Clone(m.users)
	roles := maps.Clone(m.roles)
	userRoles := make(map[string]map[string]bool, len(m.userRoles))
	for k, v := range m.userRoles {
		userRoles[k] = maps.Clone(v)
	}
	m.mu.Unlock()

	if err := fn(ctx, m); err != nil {
		m.mu.Lock()
		m.users, m.roles, m.userRoles = users, roles, userRoles
		m.mu.Unlock()
		return err
	}
	return nil
}

type memUsers struct{ m *memStore }

func (u memUsers) find(username string) *entity.User {
	for _, usr := range u.m.users {
		if strings.EqualFold(usr.Username, username) {
			return usr
		}
	}
	return nil
}

func (u memUsers) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if usr := u.find(username); usr != nil {
		cp := *usr
		return &cp, nil
	}
	return nil, repo.ErrNotFound
}

func (u memUsers) Exists(_ context.Context, username string) (bool, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.m.errExists != nil {
		return false, u.m.errExists
	}
	return u.find(username) != nil, nil
}

func (u memUsers) Create(_ context.Context, usr *entity.User) error {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.m.errCreate != nil {
		return u.m.errCreate
	}
	if u.find(usr.Username) != nil {
		return repo.ErrConflict
	}
	cp := *usr
	u.m.users[usr.ID] = &cp
	return nil
}

func (u memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if usr, ok := u.m.users[id]; ok {
		cp := *usr
		return &cp, nil
	}
	return nil, repo.ErrNotFound
}

func (u memUsers) ListAll(context.Context) ([]*entity.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	out := make([]*entity.User, 0, len(u.m.users))
	for _, usr := range u.m.users {
		cp := *usr
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *entity.User) int {
		if c := strings.Compare(strings.ToLower(a.Username), strings.ToLower(b.Username)); c != 0 {
			return c
		}
		return strings.Compare(a.Username, b.Username)
	})
	return out, nil
}

func (u memUsers) UpdatePasswordHash(_ context.Context, id, hash string) error {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.m.errUpdate != nil {
		return u.m.errUpdate
	}
	usr, ok := u.m.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	usr.PasswordHash = hash
	u.m.updates++
	return nil
}

type memRoles struct{ m *memStore }

func (r memRoles) EnsureRoleExists(_ context.Context, name string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.roles[name] = true
	return nil
}

func (r memRoles) AssignRole(_ context.Context, userID, name string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.errAssign != nil {
		return r.m.errAssign
	}
	if !r.m.roles[name] {
		return role.ErrNotFound
	}
	if r.m.userRoles[userID] == nil {
		r.m.userRoles[userID] = map[string]bool{}
	}
	r.m.userRoles[userID][name] = true
	return nil
}

func (r memRoles) RolesOf(_ context.Context, userID string) ([]string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	names := slices.Collect(maps.Keys(r.m.userRoles[userID]))
	slices.Sort(names)
	return names, nil
}
