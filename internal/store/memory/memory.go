// Package memory implementa el contrato de storage en memoria, para
// desarrollo y tests. Un solo mutex hace linearizables las secuencias
// read-modify-write de rotación y reuse-detection.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/authcore/internal/store/core"
)

type Store struct {
	mu sync.Mutex

	usersByID    map[string]*core.User
	usersByEmail map[string]*core.User
	tokens       map[string]*core.RefreshToken
	prefs        map[string]*core.Preference
	annotations  map[string]*core.Annotation // key: userID + "\x00" + studyUID

	now func() time.Time
}

func New() *Store {
	return &Store{
		usersByID:    make(map[string]*core.User),
		usersByEmail: make(map[string]*core.User),
		tokens:       make(map[string]*core.RefreshToken),
		prefs:        make(map[string]*core.Preference),
		annotations:  make(map[string]*core.Annotation),
		now:          time.Now,
	}
}

// SetClock permite a los tests controlar el tiempo.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

func (s *Store) Users() core.UserRepository                 { return (*userRepo)(s) }
func (s *Store) RefreshTokens() core.RefreshTokenRepository { return (*tokenRepo)(s) }
func (s *Store) State() core.StateRepository                { return (*stateRepo)(s) }
func (s *Store) Ping(_ context.Context) error               { return nil }
func (s *Store) Close()                                     {}

// ---- users ----

type userRepo Store

func (r *userRepo) Create(_ context.Context, u *core.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.usersByEmail[u.Email]; ok {
		return core.ErrDuplicate
	}
	now := r.now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	r.usersByID[u.ID] = &cp
	r.usersByEmail[u.Email] = &cp
	return nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.usersByEmail[email]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.usersByID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) TouchLastLogin(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.usersByID[id]
	if !ok {
		return core.ErrNotFound
	}
	now := r.now().UTC()
	u.LastLoginAt = &now
	u.UpdatedAt = now
	return nil
}

// ---- refresh tokens ----

type tokenRepo Store

func (r *tokenRepo) Create(_ context.Context, t *core.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(t)
}

func (r *tokenRepo) insertLocked(t *core.RefreshToken) error {
	if _, ok := r.tokens[t.TokenHash]; ok {
		return core.ErrDuplicate
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.now().UTC()
	}
	cp := *t
	r.tokens[t.TokenHash] = &cp
	return nil
}

func (r *tokenRepo) Get(_ context.Context, tokenHash string) (*core.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenHash]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *tokenRepo) Rotate(_ context.Context, oldHash, revokedByIP string, next *core.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.tokens[oldHash]
	if !ok || old.RevokedAt != nil {
		return core.ErrPreconditionFailed
	}
	now := r.now().UTC()
	old.RevokedAt = &now
	old.RevokedByIP = revokedByIP
	old.ReplacedByHash = next.TokenHash
	return r.insertLocked(next)
}

func (r *tokenRepo) Revoke(_ context.Context, tokenHash, revokedByIP string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[tokenHash]
	if !ok || t.RevokedAt != nil {
		return false, nil
	}
	now := r.now().UTC()
	t.RevokedAt = &now
	t.RevokedByIP = revokedByIP
	return true, nil
}

func (r *tokenRepo) RevokeAllForUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	var n int64
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			n++
		}
	}
	return n, nil
}

func (r *tokenRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	var n int64
	for hash, t := range r.tokens {
		if t.ExpiresAt.Before(now) {
			delete(r.tokens, hash)
			n++
		}
	}
	return n, nil
}

// ---- state ----

type stateRepo Store

func annotationKey(userID, studyUID string) string { return userID + "\x00" + studyUID }

func (r *stateRepo) GetPreferences(_ context.Context, userID string) (*core.Preference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prefs[userID]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stateRepo) UpsertPreferences(_ context.Context, userID string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs[userID] = &core.Preference{UserID: userID, Data: data, UpdatedAt: r.now().UTC()}
	return nil
}

func (r *stateRepo) GetAnnotation(_ context.Context, userID, studyUID string) (*core.Annotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.annotations[annotationKey(userID, studyUID)]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *stateRepo) UpsertAnnotation(_ context.Context, userID, studyUID string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.annotations[annotationKey(userID, studyUID)] = &core.Annotation{
		UserID: userID, StudyUID: studyUID, Data: data, UpdatedAt: r.now().UTC(),
	}
	return nil
}

func (r *stateRepo) DeleteAnnotation(_ context.Context, userID, studyUID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.annotations, annotationKey(userID, studyUID))
	return nil
}
