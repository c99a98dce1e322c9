package service

import (
	"context"
	"time"

	"github.com/cetep-lnab/ouvidoria/caching"
	"github.com/cetep-lnab/ouvidoria/database"
	"github.com/cetep-lnab/ouvidoria/database/model"
	"github.com/cetep-lnab/ouvidoria/logger"
	"github.com/cetep-lnab/ouvidoria/util/common"
	"github.com/cetep-lnab/ouvidoria/util/crypto"
)

// SessionService issues and resolves opaque login tokens. Resolved users are
// kept in the cache, so a token may outlive its expiry or a logout done by
// another process by at most the cache TTL.
type SessionService struct {
	store  database.RecordStore
	cache  *caching.Cache
	maxAge time.Duration
	now    func() time.Time
}

// NewSessionService returns a session manager. A maxAge of zero issues
// sessions that never expire.
func NewSessionService(store database.RecordStore, cache *caching.Cache, maxAge time.Duration) *SessionService {
	return &SessionService{
		store:  store,
		cache:  cache,
		maxAge: maxAge,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *SessionService) MaxAge() time.Duration {
	return s.maxAge
}

// Login persists a fresh session for user and returns its token. Every login
// gets its own token; earlier sessions stay valid.
func (s *SessionService) Login(ctx context.Context, user *model.User) (string, error) {
	if user == nil {
		return "", common.ErrUnauthorized
	}
	token, err := crypto.NewSessionToken()
	if err != nil {
		return "", err
	}
	now := s.now()
	session := &model.Session{Token: token, UserId: user.Id, CreatedAt: now}
	if s.maxAge > 0 {
		exp := now.Add(s.maxAge)
		session.ExpiresAt = &exp
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve maps a token to its user. Missing, unknown and expired tokens give
// nil, as does a store failure, which is logged.
func (s *SessionService) Resolve(ctx context.Context, token string) *model.User {
	if token == "" {
		return nil
	}
	if user, ok := s.cache.SessionUser(token); ok {
		return user
	}
	user, err := s.store.GetSessionUser(ctx, token)
	if err != nil {
		logger.Warning("resolve session err: ", err)
		return nil
	}
	if user != nil {
		s.cache.SetSessionUser(token, user)
	}
	return user
}

// Logout destroys the session. Unknown tokens are ignored.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	s.cache.DeleteSession(token)
	return s.store.DestroySession(ctx, token)
}

// PurgeExpired drops sessions whose expiry has passed.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredSessions(ctx, s.now())
}
