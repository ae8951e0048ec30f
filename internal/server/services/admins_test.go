package services

import (
	"context"
	"testing"
	"time"

	"github.com/mygardenbook/gardenbook/internal/common"
	"github.com/mygardenbook/gardenbook/internal/logging"
	"github.com/mygardenbook/gardenbook/internal/server/auth"
	"github.com/mygardenbook/gardenbook/internal/server/config"
	"github.com/mygardenbook/gardenbook/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminService(t *testing.T) (*AdminService, *fakeRepoManager) {
	t.Helper()
	rm := newFakeRepoManager()
	cfg := &config.Config{SecretKey: "k", AccessTokenValidityDuration: time.Hour}
	return NewAdminService(nil, rm, cfg, logging.Nop{}), rm
}

func TestAdminRegisterAndLogin(t *testing.T) {
	svc, _ := newAdminService(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, " Ann@Example.com ", "correct horse", "")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", a.Email)
	assert.Equal(t, models.RoleAdmin, a.Role)
	assert.NotEqual(t, "correct horse", string(a.PasswordHash))

	res, err := svc.Login(ctx, "ann@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, a.ID, res.Admin.ID)

	id, err := auth.GetAdminIDFromToken(res.Token, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, a.ID, id)

	me, err := svc.Me(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", me.Email)
}

func TestAdminLogin_Rejections(t *testing.T) {
	svc, _ := newAdminService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "ann@example.com", "correct horse", models.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ann@example.com", "wrong horse")
	assert.ErrorIs(t, err, common.ErrInvalidCredential)

	_, err = svc.Login(ctx, "bob@example.com", "correct horse")
	assert.ErrorIs(t, err, common.ErrInvalidCredential)

	_, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestAdminRegister_Errors(t *testing.T) {
	svc, rm := newAdminService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "correct horse", "")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Register(ctx, "ann@example.com", "short", "")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Register(ctx, "ann@example.com", "correct horse", "superuser")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Register(ctx, "ann@example.com", "correct horse", models.RoleViewer)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "ANN@example.com", "correct horse", "")
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	rm.admins.err = errBoom
	_, err = svc.Register(ctx, "cat@example.com", "correct horse", "")
	assert.ErrorIs(t, err, common.ErrDependency)
	_, err = svc.Me(ctx, "admin-ann@example.com")
	assert.ErrorIs(t, err, common.ErrDependency)
}

func TestAdminMe_Errors(t *testing.T) {
	svc, _ := newAdminService(t)

	_, err := svc.Me(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrMissingCredential)

	_, err = svc.Me(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
