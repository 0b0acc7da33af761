// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

package roles_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"github.com/00-00-00-11/gatekeeper-bot/internal/roles"
	"github.com/00-00-00-11/gatekeeper-bot/internal/store"
)

// testEnv bundles the store and repositories over a fresh miniredis.
type testEnv struct {
	store    *store.RedisStore
	permsets *roles.PermsetRepository
	roles    *roles.RoleRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := store.NewRedisStoreWithClient(client)
	permsets := roles.NewPermsetRepository(s)
	return &testEnv{
		store:    s,
		permsets: permsets,
		roles:    roles.NewRoleRepository(s, permsets),
	}
}

// externalRole is the guild role fixture used throughout.
func externalRole() roles.GuildRole {
	return roles.GuildRole{GuildID: "100", RoleID: "200", Name: "Raiders"}
}

// createRole creates the fixture role with the given creator.
func createRole(ctx context.Context, t *testing.T, env *testEnv, creator roles.Member) *roles.Role {
	t.Helper()
	role, err := env.roles.Create(ctx, externalRole(), creator)
	require.NoError(t, err)
	return role
}
