package service

import (
	"context"
	"testing"
	"time"

	"github.com/cetep-lnab/ouvidoria/caching"
	"github.com/cetep-lnab/ouvidoria/database/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	u := env.register(t, "a@enova.educacao.ba.gov.br")

	t1, err := env.sessions.Login(ctx, u)
	require.NoError(t, err)
	t2, err := env.sessions.Login(ctx, u)
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)

	got := env.sessions.Resolve(ctx, t1)
	require.NotNil(t, got)
	assert.Equal(t, u.Id, got.Id)

	assert.Nil(t, env.sessions.Resolve(ctx, ""))
	assert.Nil(t, env.sessions.Resolve(ctx, "forged-token"))

	require.NoError(t, env.sessions.Logout(ctx, t1))
	assert.NoError(t, env.sessions.Logout(ctx, t1))
	assert.NoError(t, env.sessions.Logout(ctx, "never-issued"))
	assert.Nil(t, env.sessions.Resolve(ctx, t1))

	// the other login is untouched
	assert.NotNil(t, env.sessions.Resolve(ctx, t2))
}

func TestWrongPasswordCreatesNoSession(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	env.register(t, "a@enova.educacao.ba.gov.br")

	user, err := env.users.CheckUser(ctx, "a@enova.educacao.ba.gov.br", "wrong")
	assert.Error(t, err)
	_, err = env.sessions.Login(ctx, user)
	assert.Error(t, err)

	var n int64
	require.NoError(t, env.db.Model(&model.Session{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	u := env.register(t, "a@enova.educacao.ba.gov.br")

	sessions := NewSessionService(env.store, env.cache, time.Hour)
	sessions.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }
	stale, err := sessions.Login(ctx, u)
	require.NoError(t, err)

	sessions.now = func() time.Time { return time.Now().UTC() }
	fresh, err := sessions.Login(ctx, u)
	require.NoError(t, err)

	assert.Nil(t, sessions.Resolve(ctx, stale))
	assert.NotNil(t, sessions.Resolve(ctx, fresh))

	n, err := sessions.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NotNil(t, sessions.Resolve(ctx, fresh))
}

func TestSessionCacheEvictedOnLogout(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	u := env.register(t, "a@enova.educacao.ba.gov.br")

	cache := caching.NewCache(time.Minute)
	sessions := NewSessionService(env.store, cache, 0)
	tok, err := sessions.Login(ctx, u)
	require.NoError(t, err)

	require.NotNil(t, sessions.Resolve(ctx, tok))
	_, cached := cache.SessionUser(tok)
	assert.True(t, cached)

	require.NoError(t, sessions.Logout(ctx, tok))
	_, cached = cache.SessionUser(tok)
	assert.False(t, cached)
	assert.Nil(t, sessions.Resolve(ctx, tok))
}
