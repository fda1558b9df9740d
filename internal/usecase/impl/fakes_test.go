package impl

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"stampauth/config"
	"stampauth/internal/domain/entity"
	domainerrors "stampauth/internal/domain/errors"
	"stampauth/internal/domain/repository"

	"github.com/google/uuid"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.SecretKey.Session = "test-session-secret"
	cfg.Auth.SessionTTL = 24 * time.Hour
	cfg.Auth.ExtensionTTL = 7 * 24 * time.Hour
	cfg.Auth.PasswordMinLength = 8
	cfg.WebAuthn.RPID = "portal.example.com"
	cfg.WebAuthn.RPName = "Stamp Portal"
	cfg.WebAuthn.Origins = []string{"https://portal.example.com"}
	cfg.WebAuthn.Timeout = time.Minute

	return cfg
}

// memoryDB is an in-memory stand-in for every repository plus the transaction manager.
// Execute does not roll back; tests only assert on committed paths or on paths that write nothing.
// FindByIDForUpdate inside Execute holds a per-user lock until fn returns, like a row lock.
type memoryDB struct {
	mu       sync.Mutex
	users    map[uuid.UUID]entity.User
	oauth    map[uuid.UUID]entity.OAuthAccount
	creds    map[uuid.UUID]entity.WebAuthnCredential
	keys     map[uuid.UUID]entity.APIKey
	rowLocks map[uuid.UUID]*sync.Mutex

	// afterCredentialList runs after every passkey listing, outside mu.
	afterCredentialList func()
}

func newMemoryDB(t *testing.T) *memoryDB {
	t.Helper()

	return &memoryDB{
		users: make(map[uuid.UUID]entity.User),
		oauth: make(map[uuid.UUID]entity.OAuthAccount),
		creds: make(map[uuid.UUID]entity.WebAuthnCredential),
		keys:  make(map[uuid.UUID]entity.APIKey),

		rowLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (db *memoryDB) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	tx := &memoryTx{db: db}
	defer tx.release()

	return fn(tx)
}

func (db *memoryDB) rowLock(id uuid.UUID) *sync.Mutex {
	db.mu.Lock()
	defer db.mu.Unlock()

	lock, ok := db.rowLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		db.rowLocks[id] = lock
	}

	return lock
}

// memoryTx is the factory handed to Execute callbacks.
type memoryTx struct {
	db   *memoryDB
	held []*sync.Mutex
}

func (tx *memoryTx) release() {
	for _, lock := range tx.held {
		lock.Unlock()
	}
	tx.held = nil
}

func (tx *memoryTx) UserRepo() repository.UserRepository {
	return memoryUserRepo{db: tx.db, tx: tx}
}

func (tx *memoryTx) OAuthAccountRepo() repository.OAuthAccountRepository {
	return tx.db.OAuthAccountRepo()
}

func (tx *memoryTx) WebAuthnCredentialRepo() repository.WebAuthnCredentialRepository {
	return tx.db.WebAuthnCredentialRepo()
}

func (tx *memoryTx) APIKeyRepo() repository.APIKeyRepository {
	return tx.db.APIKeyRepo()
}

func (db *memoryDB) UserRepo() repository.UserRepository {
	return memoryUserRepo{db: db}
}

func (db *memoryDB) OAuthAccountRepo() repository.OAuthAccountRepository {
	return memoryOAuthRepo{db}
}

func (db *memoryDB) WebAuthnCredentialRepo() repository.WebAuthnCredentialRepository {
	return memoryCredentialRepo{db}
}

func (db *memoryDB) APIKeyRepo() repository.APIKeyRepository {
	return memoryAPIKeyRepo{db}
}

func (db *memoryDB) userCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()

	return len(db.users)
}

func (db *memoryDB) oauthCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()

	return len(db.oauth)
}

type memoryUserRepo struct {
	db *memoryDB
	tx *memoryTx
}

func (r memoryUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	user, ok := r.db.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return &user, nil
}

func (r memoryUserRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if r.tx != nil {
		lock := r.db.rowLock(id)
		lock.Lock()
		r.tx.held = append(r.tx.held, lock)
	}

	return r.FindByID(ctx, id)
}

func (r memoryUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, user := range r.db.users {
		if user.Email == strings.ToLower(email) {
			return &user, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r memoryUserRepo) Create(_ context.Context, user *entity.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.users {
		if existing.Email == user.Email {
			return domainerrors.ErrUserAlreadyExists
		}
	}

	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.db.users[user.ID] = *user

	return nil
}

func (r memoryUserRepo) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	user, ok := r.db.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.LastLoginAt = &at
	r.db.users[id] = user

	return nil
}

type memoryOAuthRepo struct{ db *memoryDB }

func (r memoryOAuthRepo) Create(_ context.Context, account *entity.OAuthAccount) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.oauth {
		if existing.Provider == account.Provider && existing.ProviderAccountID == account.ProviderAccountID {
			return domainerrors.ErrOAuthAccountLinkedToOther
		}
	}

	account.ID = uuid.New()
	account.CreatedAt = time.Now()
	r.db.oauth[account.ID] = *account

	return nil
}

func (r memoryOAuthRepo) FindByProviderAccount(_ context.Context, provider entity.ProviderType, providerAccountID string) (*entity.OAuthAccount, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, account := range r.db.oauth {
		if account.Provider == provider && account.ProviderAccountID == providerAccountID {
			return &account, nil
		}
	}

	return nil, repository.ErrOAuthAccountNotFound
}

func (r memoryOAuthRepo) UpdateTokens(_ context.Context, account *entity.OAuthAccount) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.oauth[account.ID]; !ok {
		return repository.ErrOAuthAccountNotFound
	}
	r.db.oauth[account.ID] = *account

	return nil
}

func (r memoryOAuthRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]*entity.OAuthAccount, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var accounts []*entity.OAuthAccount
	for _, account := range r.db.oauth {
		if account.UserID == userID {
			accounts = append(accounts, &account)
		}
	}

	return accounts, nil
}

func (r memoryOAuthRepo) DeleteByIDAndUserID(_ context.Context, id, userID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	account, ok := r.db.oauth[id]
	if !ok || account.UserID != userID {
		return repository.ErrOAuthAccountNotFound
	}
	delete(r.db.oauth, id)

	return nil
}

type memoryCredentialRepo struct{ db *memoryDB }

func (r memoryCredentialRepo) Create(_ context.Context, credential *entity.WebAuthnCredential) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.creds {
		if existing.CredentialID == credential.CredentialID {
			return domainerrors.ErrCredentialAlreadyRegistered
		}
	}

	credential.ID = uuid.New()
	credential.CreatedAt = time.Now()
	r.db.creds[credential.ID] = *credential

	return nil
}

func (r memoryCredentialRepo) FindByCredentialID(_ context.Context, credentialID string) (*entity.WebAuthnCredential, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, credential := range r.db.creds {
		if credential.CredentialID == credentialID {
			return &credential, nil
		}
	}

	return nil, repository.ErrCredentialNotFound
}

func (r memoryCredentialRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]*entity.WebAuthnCredential, error) {
	r.db.mu.Lock()
	var credentials []*entity.WebAuthnCredential
	for _, credential := range r.db.creds {
		if credential.UserID == userID {
			credentials = append(credentials, &credential)
		}
	}
	hook := r.db.afterCredentialList
	r.db.mu.Unlock()

	if hook != nil {
		hook()
	}

	return credentials, nil
}

func (r memoryCredentialRepo) UpdateUsage(_ context.Context, credential *entity.WebAuthnCredential) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.creds[credential.ID]; !ok {
		return repository.ErrCredentialNotFound
	}
	r.db.creds[credential.ID] = *credential

	return nil
}

func (r memoryCredentialRepo) DeleteByIDAndUserID(_ context.Context, id, userID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	credential, ok := r.db.creds[id]
	if !ok || credential.UserID != userID {
		return repository.ErrCredentialNotFound
	}
	delete(r.db.creds, id)

	return nil
}

type memoryAPIKeyRepo struct{ db *memoryDB }

func (r memoryAPIKeyRepo) Create(_ context.Context, key *entity.APIKey) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key.ID = uuid.New()
	key.CreatedAt = time.Now()
	r.db.keys[key.ID] = *key

	return nil
}

func (r memoryAPIKeyRepo) FindByHash(_ context.Context, keyHash string) (*entity.APIKey, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, key := range r.db.keys {
		if key.KeyHash == keyHash {
			return &key, nil
		}
	}

	return nil, repository.ErrAPIKeyNotFound
}

func (r memoryAPIKeyRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]*entity.APIKey, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var keys []*entity.APIKey
	for _, key := range r.db.keys {
		if key.UserID == userID {
			keys = append(keys, &key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].CreatedAt.After(keys[j].CreatedAt) })

	return keys, nil
}

func (r memoryAPIKeyRepo) TouchLastUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key, ok := r.db.keys[id]
	if !ok {
		return repository.ErrAPIKeyNotFound
	}
	key.LastUsedAt = &at
	r.db.keys[id] = key

	return nil
}

func (r memoryAPIKeyRepo) Deactivate(_ context.Context, id, userID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key, ok := r.db.keys[id]
	if !ok || key.UserID != userID {
		return repository.ErrAPIKeyNotFound
	}
	key.IsActive = false
	r.db.keys[id] = key

	return nil
}
