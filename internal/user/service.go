package user

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/role"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-movies-go/pkg/utilities"
)

// Messages returned to clients. Login failures share one message whatever
// the cause.
const (
	MsgUsernameTaken  = "username already exists"
	MsgBadCredentials = "username or password is incorrect"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("role is not allowed")
)

// CredentialStore persists user accounts.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	Exists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	ListAll(ctx context.Context) ([]*entity.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// RoleResolver manages role membership.
type RoleResolver interface {
	EnsureRoleExists(ctx context.Context, name string) error
	AssignRole(ctx context.Context, userID, name string) error
	RolesOf(ctx context.Context, userID string) ([]string, error)
}

// Store binds the repositories to one database handle. InTx runs fn with a
// Store bound to a single transaction.
type Store interface {
	Users() CredentialStore
	Roles() RoleResolver
	InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(username, role string) (string, error)
}

type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegistrationResult holds either the created user or the reasons it was
// not created.
type RegistrationResult struct {
	User   *entity.PublicView
	Errors []string
}

func (r RegistrationResult) Succeeded() bool { return r.User != nil && len(r.Errors) == 0 }

// LoginResult is empty on failure.
type LoginResult struct {
	Token string             `json:"token"`
	User  *entity.PublicView `json:"user"`
}

func (r LoginResult) Succeeded() bool { return r.Token != "" && r.User != nil }

// UserService issues sessions for stored credentials.
type UserService struct {
	store       Store
	hasher      auth.PasswordHasher
	tokens      TokenIssuer
	defaultRole string
	logger      *zap.SugaredLogger

	dummyOnce sync.Once
	dummyHash string
}

// NewUserService wires the service. defaultRole is the role given to new
// accounts and to accounts found without any role at login.
func NewUserService(store Store, hasher auth.PasswordHasher, tokens TokenIssuer, defaultRole string, logger *zap.SugaredLogger) *UserService {
	if defaultRole == "" {
		defaultRole = role.Registered
	}
	return &UserService{
		store:       store,
		hasher:      hasher,
		tokens:      tokens,
		defaultRole: defaultRole,
		logger:      logger,
	}
}

// Register creates an account. Validation problems and username clashes are
// reported in the result; only infrastructure failures return an error.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (RegistrationResult, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if msgs := usernameProblems(req.Username); len(msgs) > 0 {
		return RegistrationResult{Errors: append(msgs, validateRegistration(req)...)}, nil
	}

	// a taken name is reported on its own, ahead of password rules
	taken, err := s.store.Users().Exists(ctx, req.Username)
	if err != nil {
		return RegistrationResult{}, err
	}
	if taken {
		return RegistrationResult{Errors: []string{MsgUsernameTaken}}, nil
	}

	if msgs := validateRegistration(req); len(msgs) > 0 {
		return RegistrationResult{Errors: msgs}, nil
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return RegistrationResult{}, oops.Code("USER_HASH_FAILED").Wrap(err)
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}
	now := time.Now().UTC()
	u := &entity.User{
		ID:           utilities.NewKSUID(),
		Username:     req.Username,
		Email:        req.Username,
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.Users().Create(ctx, u); err != nil {
			return err
		}
		for _, name := range s.rolesToEnsure() {
			if err := tx.Roles().EnsureRoleExists(ctx, name); err != nil {
				return err
			}
		}
		return tx.Roles().AssignRole(ctx, u.ID, s.defaultRole)
	})
	if errors.Is(err, repo.ErrConflict) {
		// lost a race with a concurrent registration of the same name
		return RegistrationResult{Errors: []string{MsgUsernameTaken}}, nil
	}
	if err != nil {
		return RegistrationResult{}, err
	}

	created, err := s.store.Users().GetByID(ctx, u.ID)
	if err != nil {
		return RegistrationResult{}, err
	}
	s.logger.Infow("user registered", "user_id", created.ID, "username", created.Username, "role", s.defaultRole)
	return RegistrationResult{User: created.Public()}, nil
}

func (s *UserService) rolesToEnsure() []string {
	if role.IsBaseline(s.defaultRole) {
		return role.Baseline
	}
	return append(append([]string{}, role.Baseline...), s.defaultRole)
}

// Login verifies credentials and issues a session token. An unknown
// username and a wrong password produce the same empty result.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return LoginResult{}, nil
	}

	u, err := s.store.Users().FindByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		s.verifyDummy(req.Password)
		return LoginResult{}, nil
	}
	if err != nil {
		return LoginResult{}, err
	}

	res, err := s.hasher.Verify(u.PasswordHash, req.Password)
	if err != nil {
		return LoginResult{}, oops.Code("USER_HASH_INVALID").With("user_id", u.ID).Wrap(err)
	}
	if !res.Matched() {
		s.logger.Debugw("login rejected", "user_id", u.ID)
		return LoginResult{}, nil
	}
	if res == auth.VerifySuccessRehashNeeded {
		s.rehash(ctx, u, req.Password)
	}

	roles, err := s.store.Roles().RolesOf(ctx, u.ID)
	if err != nil {
		return LoginResult{}, err
	}
	if len(roles) == 0 {
		if err := s.assignDefaultRole(ctx, u.ID); err != nil {
			return LoginResult{}, err
		}
		s.logger.Warnw("user had no role; default assigned", "user_id", u.ID, "role", s.defaultRole)
		roles = []string{s.defaultRole}
	}

	token, err := s.tokens.Issue(u.Username, role.PrimaryRole(roles))
	if err != nil {
		return LoginResult{}, oops.Code("TOKEN_ISSUE_FAILED").With("user_id", u.ID).Wrap(err)
	}
	s.logger.Debugw("login succeeded", "user_id", u.ID)
	return LoginResult{Token: token, User: u.Public()}, nil
}

// rehash upgrades a legacy or weak hash. Failures are logged and ignored so
// they never block a successful login.
func (s *UserService) rehash(ctx context.Context, u *entity.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warnw("password rehash failed", "user_id", u.ID, "err", err)
		return
	}
	if err := s.store.Users().UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		s.logger.Warnw("password rehash not stored", "user_id", u.ID, "err", err)
		return
	}
	u.PasswordHash = hash
}

func (s *UserService) assignDefaultRole(ctx context.Context, userID string) error {
	if err := s.store.Roles().EnsureRoleExists(ctx, s.defaultRole); err != nil {
		return err
	}
	return s.store.Roles().AssignRole(ctx, userID, s.defaultRole)
}

// verifyDummy spends roughly the time of a real verification so that
// unknown usernames cannot be told apart by latency.
func (s *UserService) verifyDummy(password string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("dummy-password-for-timing")
		if err != nil {
			s.logger.Warnw("dummy hash unavailable", "err", err)
			return
		}
		s.dummyHash = h
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(s.dummyHash, password)
	}
}

// ListUsers returns every account ordered by username.
func (s *UserService) ListUsers(ctx context.Context) ([]*entity.PublicView, error) {
	users, err := s.store.Users().ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.PublicView, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// GetUser returns ErrUserNotFound for unknown ids.
func (s *UserService) GetUser(ctx context.Context, id string) (*entity.PublicView, error) {
	u, err := s.store.Users().GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u.Public(), nil
}

// GrantRole adds a baseline role to an existing account.
func (s *UserService) GrantRole(ctx context.Context, username, roleName string) error {
	if !role.IsBaseline(roleName) {
		return ErrInvalidRole
	}
	u, err := s.store.Users().FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	return s.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.Roles().EnsureRoleExists(ctx, roleName); err != nil {
			return err
		}
		if err := tx.Roles().AssignRole(ctx, u.ID, roleName); err != nil {
			return err
		}
		s.logger.Infow("role granted", "user_id", u.ID, "role", roleName)
		return nil
	})
}
