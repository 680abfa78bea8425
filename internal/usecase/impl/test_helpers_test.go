package impl

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/repository"
	"passport/internal/domain/service"

	"github.com/google/uuid"
)

// --- in-memory account repository ---

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*entity.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uuid.UUID]*entity.Account)}
}

func cloneAccount(a *entity.Account) *entity.Account {
	c := *a

	return &c
}

func (r *fakeAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.accounts[id]; ok {
		return cloneAccount(a), nil
	}

	return nil, repository.ErrAccountNotFound
}

func (r *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	needle := entity.NormalizeEmail(email)
	for _, a := range r.accounts {
		if entity.NormalizeEmail(a.Email) == needle {
			return cloneAccount(a), nil
		}
	}

	return nil, repository.ErrAccountNotFound
}

func (r *fakeAccountRepo) FindByUsername(_ context.Context, username string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	needle := entity.NormalizeUsername(username)
	for _, a := range r.accounts {
		if entity.NormalizeUsername(a.Username) == needle {
			return cloneAccount(a), nil
		}
	}

	return nil, repository.ErrAccountNotFound
}

func (r *fakeAccountRepo) FindByUsernames(_ context.Context, usernames []string) ([]*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := make(map[string]bool, len(usernames))
	for _, u := range usernames {
		wanted[entity.NormalizeUsername(u)] = true
	}

	var result []*entity.Account
	for _, a := range r.accounts {
		if wanted[entity.NormalizeUsername(a.Username)] {
			result = append(result, cloneAccount(a))
		}
	}

	return result, nil
}

func (r *fakeAccountRepo) List(_ context.Context) ([]*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*entity.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		result = append(result, cloneAccount(a))
	}

	return result, nil
}

func (r *fakeAccountRepo) Create(_ context.Context, account *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if entity.NormalizeEmail(a.Email) == entity.NormalizeEmail(account.Email) ||
			entity.NormalizeUsername(a.Username) == entity.NormalizeUsername(account.Username) {
			return repositoryConflict()
		}
	}

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	account.Version = 1
	account.CreatedAt = time.Now()
	r.accounts[account.ID] = cloneAccount(account)

	return nil
}

func (r *fakeAccountRepo) Update(_ context.Context, account *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[account.ID]
	if !ok || stored.Version != account.Version {
		return repository.ErrStaleAccount
	}

	account.Version++
	now := time.Now()
	account.UpdatedAt = &now
	r.accounts[account.ID] = cloneAccount(account)

	return nil
}

func (r *fakeAccountRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[id]; !ok {
		return repository.ErrAccountNotFound
	}
	delete(r.accounts, id)

	return nil
}

// --- in-memory role repository ---

type fakeRoleRepo struct {
	mu      sync.Mutex
	roles   map[uuid.UUID]*entity.Role
	members map[uuid.UUID]map[uuid.UUID]bool // roleID -> accountIDs
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{
		roles:   make(map[uuid.UUID]*entity.Role),
		members: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func cloneRole(role *entity.Role) *entity.Role {
	c := *role

	return &c
}

func (r *fakeRoleRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if role, ok := r.roles[id]; ok {
		return cloneRole(role), nil
	}

	return nil, repository.ErrRoleNotFound
}

func (r *fakeRoleRepo) FindByName(_ context.Context, name string) (*entity.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, role := range r.roles {
		if role.Name == name {
			return cloneRole(role), nil
		}
	}

	return nil, repository.ErrRoleNotFound
}

func (r *fakeRoleRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*entity.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*entity.Role
	for _, id := range ids {
		if role, ok := r.roles[id]; ok {
			result = append(result, cloneRole(role))
		}
	}

	return result, nil
}

func (r *fakeRoleRepo) List(_ context.Context) ([]*entity.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*entity.Role, 0, len(r.roles))
	for _, role := range r.roles {
		result = append(result, cloneRole(role))
	}

	return result, nil
}

func (r *fakeRoleRepo) Create(_ context.Context, role *entity.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.roles {
		if existing.Name == role.Name {
			return repositoryConflict()
		}
	}

	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	role.CreatedAt = time.Now()
	r.roles[role.ID] = cloneRole(role)
	r.members[role.ID] = make(map[uuid.UUID]bool)

	return nil
}

func (r *fakeRoleRepo) Update(_ context.Context, role *entity.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.roles[role.ID]
	if !ok {
		return repository.ErrRoleNotFound
	}
	for _, existing := range r.roles {
		if existing.ID != role.ID && existing.Name == role.Name {
			return repositoryConflict()
		}
	}
	stored.Name = role.Name
	now := time.Now()
	stored.UpdatedAt = &now

	return nil
}

func (r *fakeRoleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.roles[id]; !ok {
		return repository.ErrRoleNotFound
	}
	delete(r.roles, id)
	delete(r.members, id)

	return nil
}

func (r *fakeRoleRepo) RolesOfAccount(_ context.Context, accountID uuid.UUID) ([]*entity.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*entity.Role
	for roleID, accounts := range r.members {
		if accounts[accountID] {
			result = append(result, cloneRole(r.roles[roleID]))
		}
	}

	return result, nil
}

func (r *fakeRoleRepo) MembersOfRole(_ context.Context, roleID uuid.UUID) ([]*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*entity.Account
	for accountID := range r.members[roleID] {
		result = append(result, &entity.Account{ID: accountID})
	}

	return result, nil
}

func (r *fakeRoleRepo) AddMember(_ context.Context, roleID, accountID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.roles[roleID]; !ok {
		return repository.ErrRoleNotFound
	}
	r.members[roleID][accountID] = true

	return nil
}

func (r *fakeRoleRepo) RemoveMember(_ context.Context, roleID, accountID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.members[roleID], accountID)

	return nil
}

// --- transaction manager passthrough ---

type fakeRepoFactory struct {
	accountRepo repository.AccountRepository
	roleRepo    repository.RoleRepository
}

func (f *fakeRepoFactory) AccountRepo() repository.AccountRepository { return f.accountRepo }
func (f *fakeRepoFactory) RoleRepo() repository.RoleRepository      { return f.roleRepo }

type fakeTxManager struct {
	factory *fakeRepoFactory
}

func (m *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(m.factory)
}

// --- stateless service fakes ---

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (fakeHasher) Check(password, hash string) bool     { return hash == "hashed:"+password }

type fakeTokenService struct {
	mu         sync.Mutex
	counter    int
	accessTTL  time.Duration
	refreshTTL time.Duration

	validateForRefresh func(token string) (*service.AccessClaims, error)
	lastClaims         *service.AccessClaims
}

func newFakeTokenService() *fakeTokenService {
	return &fakeTokenService{
		accessTTL:  15 * time.Minute,
		refreshTTL: time.Hour,
	}
}

func (s *fakeTokenService) IssueAccessToken(account *entity.Account, roles []string) (string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	s.lastClaims = &service.AccessClaims{
		AccountID: account.ID,
		Username:  account.Username,
		Email:     account.Email,
		Roles:     roles,
		TokenID:   strconv.Itoa(s.counter),
	}

	return "access-" + strconv.Itoa(s.counter), time.Now().Add(s.accessTTL), nil
}

func (s *fakeTokenService) IssueAccessTokenFromClaims(claims *service.AccessClaims) (string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	s.lastClaims = claims

	return "access-" + strconv.Itoa(s.counter), time.Now().Add(s.accessTTL), nil
}

func (s *fakeTokenService) ValidateAccessToken(_ string) (*service.AccessClaims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastClaims, nil
}

func (s *fakeTokenService) ValidateForRefresh(token string) (*service.AccessClaims, error) {
	if s.validateForRefresh != nil {
		return s.validateForRefresh(token)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastClaims, nil
}

func (s *fakeTokenService) IssueRefreshToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++

	return "refresh-" + strconv.Itoa(s.counter), nil
}

func (s *fakeTokenService) RefreshTokenLifetime() time.Duration { return s.refreshTTL }

// fakeActionTokens deterministically derives tokens from the state stamp, so
// state changes invalidate outstanding tokens just like the real service.
type fakeActionTokens struct{}

func (fakeActionTokens) stamp(purpose service.ActionTokenPurpose, account *entity.Account) string {
	switch purpose {
	case service.PurposeEmailConfirmation:
		return strconv.FormatBool(account.EmailConfirmed)
	case service.PurposePasswordReset:
		return account.PasswordHash
	default:
		return ""
	}
}

func (f fakeActionTokens) Generate(purpose service.ActionTokenPurpose, account *entity.Account) (string, error) {
	return string(purpose) + "|" + account.ID.String() + "|" + f.stamp(purpose, account), nil
}

func (f fakeActionTokens) Verify(purpose service.ActionTokenPurpose, account *entity.Account, token string) error {
	expected, _ := f.Generate(purpose, account)
	if token != expected {
		return errInvalidActionToken()
	}

	return nil
}

// sentMail records one dispatched message.
type sentMail struct {
	kind      string
	accountID uuid.UUID
	token     string
}

// fakeAccountMailer records sends on a channel so tests can wait for the
// detached dispatch goroutine.
type fakeAccountMailer struct {
	sent chan sentMail
}

func newFakeAccountMailer() *fakeAccountMailer {
	return &fakeAccountMailer{sent: make(chan sentMail, 16)}
}

func (m *fakeAccountMailer) SendConfirmationEmail(_ context.Context, account *entity.Account, encodedToken string) error {
	m.sent <- sentMail{kind: "confirmation", accountID: account.ID, token: encodedToken}

	return nil
}

func (m *fakeAccountMailer) SendWelcomeEmail(_ context.Context, account *entity.Account) error {
	m.sent <- sentMail{kind: "welcome", accountID: account.ID}

	return nil
}

func (m *fakeAccountMailer) SendPasswordResetEmail(_ context.Context, account *entity.Account, encodedToken string) error {
	m.sent <- sentMail{kind: "password reset", accountID: account.ID, token: encodedToken}

	return nil
}

// waitForMail blocks until a message of the given kind arrives or times out.
func (m *fakeAccountMailer) waitForMail(kind string) (sentMail, bool) {
	deadline := time.After(2 * time.Second)
	for {
		select {
		case mail := <-m.sent:
			if mail.kind == kind {
				return mail, true
			}
		case <-deadline:
			return sentMail{}, false
		}
	}
}

func repositoryConflict() error {
	return domainerrors.ErrConflict.WrapMessage("already exists")
}

func errInvalidActionToken() error {
	return domainerrors.ErrInvalidToken.WrapMessage("token mismatch")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
