package service_test

import (
	"fmt"
	"sync"
	"testing"

	"taskflow/internal/apperror"
	"taskflow/internal/auth"
	"taskflow/internal/model"
	"taskflow/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_RegisterFirstUserOfOrgBecomesAdmin(t *testing.T) {
	e := newEnv(t)
	fresh := &model.Organization{Name: "Fresh"}
	require.NoError(t, e.store.Organizations.Create(e.ctx, fresh))

	first, err := e.users.Register(e.ctx, service.RegisterInput{
		Username: "first", Email: "First@Fresh.io", Password: "secret1", OrganizationID: &fresh.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleAdmin, first.User.Role)
	assert.Equal(t, "first@fresh.io", first.User.Email)
	assert.NotEmpty(t, first.Token)

	second, err := e.users.Register(e.ctx, service.RegisterInput{
		Username: "second", Email: "second@fresh.io", Password: "secret2", OrganizationID: &fresh.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleMember, second.User.Role)

	tokens := auth.NewTokenManager("test-secret", 1)
	userID, err := tokens.ParseToken(second.Token)
	require.NoError(t, err)
	assert.Equal(t, second.User.ID, userID)
}

func TestUserService_ConcurrentRegistrationYieldsOneAdmin(t *testing.T) {
	e := newEnv(t)
	fresh := &model.Organization{Name: "Crowded"}
	require.NoError(t, e.store.Organizations.Create(e.ctx, fresh))

	const attempts = 6
	roles := make([]string, attempts)
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := e.users.Register(e.ctx, service.RegisterInput{
				Username:       fmt.Sprintf("racer%d", i),
				Email:          fmt.Sprintf("racer%d@crowded.io", i),
				Password:       "secret",
				OrganizationID: &fresh.ID,
			})
			errs[i] = err
			if err == nil {
				roles[i] = res.User.Role
			}
		}(i)
	}
	wg.Wait()

	admins := 0
	for i := range errs {
		require.NoError(t, errs[i])
		if roles[i] == model.UserRoleAdmin {
			admins++
		}
	}
	assert.Equal(t, 1, admins)

	count, err := e.store.Users.CountByOrganization(e.ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(attempts), count)
}

func TestUserService_RegisterWithoutOrganization(t *testing.T) {
	e := newEnv(t)

	res, err := e.users.Register(e.ctx, service.RegisterInput{Username: "solo", Email: "solo@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleMember, res.User.Role)
	assert.Nil(t, res.User.OrganizationID)
}

func TestUserService_RegisterDuplicates(t *testing.T) {
	e := newEnv(t)

	_, err := e.users.Register(e.ctx, service.RegisterInput{Username: "new", Email: "U2@example.com", Password: "pw"})
	assertKind(t, err, apperror.KindConflict)

	_, err = e.users.Register(e.ctx, service.RegisterInput{Username: "u2", Email: "new@example.com", Password: "pw"})
	assertKind(t, err, apperror.KindConflict)

	_, err = e.users.Register(e.ctx, service.RegisterInput{Username: "", Email: "x@example.com", Password: "pw"})
	assertKind(t, err, apperror.KindBadRequest)
}

func TestUserService_Login(t *testing.T) {
	e := newEnv(t)
	_, err := e.users.Register(e.ctx, service.RegisterInput{Username: "login", Email: "login@example.com", Password: "correct"})
	require.NoError(t, err)

	res, err := e.users.Login(e.ctx, "LOGIN@example.com", "correct")
	require.NoError(t, err)
	assert.Equal(t, "login", res.User.Username)
	assert.NotEmpty(t, res.Token)

	_, err = e.users.Login(e.ctx, "login@example.com", "wrong")
	assertKind(t, err, apperror.KindUnauthorized)

	_, err = e.users.Login(e.ctx, "nobody@example.com", "correct")
	assertKind(t, err, apperror.KindUnauthorized)
}

func TestUserService_CreateSuperAdmin(t *testing.T) {
	e := newEnv(t)

	u, err := e.users.CreateSuperAdmin(e.ctx, "root", "root@example.com", "toor")
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleSuperAdmin, u.Role)

	_, err = e.users.CreateSuperAdmin(e.ctx, "root", "root2@example.com", "toor")
	assertKind(t, err, apperror.KindConflict)
}
