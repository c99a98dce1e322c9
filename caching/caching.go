// Package caching keeps short lived in-memory lookups in front of the store.
package caching

import (
	"time"

	"github.com/cetep-lnab/ouvidoria/database/model"

	"github.com/patrickmn/go-cache"
)

const sessionKeyPrefix = "session:"

type Cache struct {
	memoryCache *cache.Cache
}

// NewCache builds a cache whose entries live for ttl. A ttl of zero or less
// disables caching and every lookup misses.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		return &Cache{}
	}
	return &Cache{memoryCache: cache.New(ttl, 2*ttl)}
}

func (s *Cache) enabled() bool {
	return s != nil && s.memoryCache != nil
}

// SessionUser returns the user cached for a session token.
func (s *Cache) SessionUser(token string) (*model.User, bool) {
	if !s.enabled() {
		return nil, false
	}
	v, ok := s.memoryCache.Get(sessionKeyPrefix + token)
	if !ok {
		return nil, false
	}
	u, ok := v.(model.User)
	if !ok {
		return nil, false
	}
	return &u, true
}

// SetSessionUser stores a copy of user so callers cannot mutate the entry.
func (s *Cache) SetSessionUser(token string, user *model.User) {
	if !s.enabled() || user == nil {
		return
	}
	s.memoryCache.SetDefault(sessionKeyPrefix+token, *user)
}

func (s *Cache) DeleteSession(token string) {
	if !s.enabled() {
		return
	}
	s.memoryCache.Delete(sessionKeyPrefix + token)
}

// DeleteUserSessions evicts every cached session of userId, used when the
// user record changes.
func (s *Cache) DeleteUserSessions(userId string) {
	if !s.enabled() {
		return
	}
	for k, item := range s.memoryCache.Items() {
		if u, ok := item.Object.(model.User); ok && u.Id == userId {
			s.memoryCache.Delete(k)
		}
	}
}

func (s *Cache) Flush() {
	if s.enabled() {
		s.memoryCache.Flush()
	}
}

func (s *Cache) Len() int {
	if !s.enabled() {
		return 0
	}
	return s.memoryCache.ItemCount()
}
