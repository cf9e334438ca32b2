package services

import (
	"context"
	"errors"
	"testing"

	"github.com/BradenHooton/storefront/internal/models"
	pkgauth "github.com/BradenHooton/storefront/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdminService(repo AdminUserRepository) *AdminService {
	return NewAdminService(repo, testLogger(), testAuditLogger())
}

func TestListUsers_Paging(t *testing.T) {
	tests := []struct {
		name                  string
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{name: "defaults", limit: 0, offset: 0, wantLimit: 20, wantOffset: 0},
		{name: "capped", limit: 500, offset: 40, wantLimit: 100, wantOffset: 40},
		{name: "negative offset", limit: 10, offset: -5, wantLimit: 10, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit, gotOffset int
			svc := newTestAdminService(&MockUserRepository{
				ListFunc: func(ctx context.Context, limit, offset int) ([]*models.PublicUser, error) {
					gotLimit, gotOffset = limit, offset
					return []*models.PublicUser{{ID: "u1"}}, nil
				},
				CountFunc: func(ctx context.Context) (int64, error) { return 41, nil },
			})

			resp, err := svc.ListUsers(context.Background(), tt.limit, tt.offset)
			require.NoError(t, err)

			assert.Equal(t, tt.wantLimit, gotLimit)
			assert.Equal(t, tt.wantOffset, gotOffset)
			assert.Equal(t, int64(41), resp.Total)
			assert.Len(t, resp.Users, 1)
		})
	}
}

func TestListUsers_StoreFailure(t *testing.T) {
	svc := newTestAdminService(&MockUserRepository{
		ListFunc: func(ctx context.Context, limit, offset int) ([]*models.PublicUser, error) {
			return nil, errors.New("timeout")
		},
	})

	_, err := svc.ListUsers(context.Background(), 0, 0)
	assert.ErrorIs(t, err, models.ErrDependency)
}

func TestBanAndUnban(t *testing.T) {
	var calls []bool
	svc := newTestAdminService(&MockUserRepository{
		SetActiveFunc: func(ctx context.Context, id string, active bool) (*models.PublicUser, error) {
			calls = append(calls, active)
			u := &models.PublicUser{ID: id}
			u.SetActive(active)
			return u, nil
		},
	})
	ctx := context.Background()

	banned, err := svc.Ban(ctx, "admin", "target")
	require.NoError(t, err)
	assert.False(t, banned.Active)
	assert.True(t, banned.IsBanned)

	unbanned, err := svc.Unban(ctx, "admin", "target")
	require.NoError(t, err)
	assert.True(t, unbanned.Active)
	assert.False(t, unbanned.IsBanned)

	assert.Equal(t, []bool{false, true}, calls)
}

func TestSelfModificationRefused(t *testing.T) {
	repo := &MockUserRepository{
		SetActiveFunc: func(ctx context.Context, id string, active bool) (*models.PublicUser, error) {
			t.Fatal("store must not be touched")
			return nil, nil
		},
		SetRoleFunc: func(ctx context.Context, id, role string) (*models.PublicUser, error) {
			t.Fatal("store must not be touched")
			return nil, nil
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			t.Fatal("store must not be touched")
			return nil
		},
	}
	svc := newTestAdminService(repo)
	ctx := context.Background()

	_, err := svc.Ban(ctx, "me", "me")
	assert.ErrorIs(t, err, models.ErrSelfModification)

	_, err = svc.Demote(ctx, "me", "me")
	assert.ErrorIs(t, err, models.ErrSelfModification)

	err = svc.DeleteUser(ctx, "me", "me")
	assert.ErrorIs(t, err, models.ErrSelfModification)
}

func TestSetRole(t *testing.T) {
	var assigned string
	svc := newTestAdminService(&MockUserRepository{
		SetRoleFunc: func(ctx context.Context, id, role string) (*models.PublicUser, error) {
			assigned = role
			return &models.PublicUser{ID: id, Role: role}, nil
		},
	})
	ctx := context.Background()

	_, err := svc.SetRole(ctx, "admin", "target", "superuser")
	assert.ErrorIs(t, err, models.ErrInvalidRole)
	assert.Empty(t, assigned)

	promoted, err := svc.Promote(ctx, "admin", "target")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	demoted, err := svc.Demote(ctx, "admin", "target")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, demoted.Role)

	_, err = svc.SetRole(ctx, "admin", "admin", models.RoleAdmin)
	assert.NoError(t, err, "re-asserting one's own admin role is harmless")
}

func TestSetRole_UnknownTarget(t *testing.T) {
	svc := newTestAdminService(&MockUserRepository{})

	_, err := svc.Promote(context.Background(), "admin", "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	var deleted string
	svc := newTestAdminService(&MockUserRepository{
		DeleteFunc: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	})

	require.NoError(t, svc.DeleteUser(context.Background(), "admin", "target"))
	assert.Equal(t, "target", deleted)
}

func TestSeedAdmin_CreatesAccount(t *testing.T) {
	var created *models.User
	svc := newTestAdminService(&MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.PublicUser, error) {
			created = user
			return user.Public(), nil
		},
	})

	admin, err := svc.SeedAdmin(context.Background(), AdminSeed{
		Email: " Admin@Shop.com ", Password: "Sh0p!Admin", Name: "Admin", Phone: "0000000000",
	})
	require.NoError(t, err)

	assert.Equal(t, "admin@shop.com", admin.Email)
	require.NotNil(t, created)
	assert.Equal(t, models.RoleAdmin, created.Role)
	assert.True(t, created.Active)
	assert.True(t, created.IsVerified)
	assert.NoError(t, pkgauth.ComparePassword(created.PasswordHash, "Sh0p!Admin"))
}

func TestSeedAdmin_RejectsWeakPassword(t *testing.T) {
	svc := newTestAdminService(&MockUserRepository{})

	_, err := svc.SeedAdmin(context.Background(), AdminSeed{Email: "admin@shop.com", Password: "admin"})

	var validationErr *models.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestSeedAdmin_ReassertsExistingAccount(t *testing.T) {
	existing := NewTestUser("admin@shop.com", "Old!Pass1")
	existing.IsVerified = false
	existing.SetActive(false)

	var steps []string
	svc := newTestAdminService(&MockUserRepository{
		FindCredentialsByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return existing, nil },
		SetRoleFunc: func(ctx context.Context, id, role string) (*models.PublicUser, error) {
			steps = append(steps, "role")
			existing.Role = role
			return existing.Public(), nil
		},
		SetVerifiedFunc: func(ctx context.Context, id string) (*models.PublicUser, error) {
			steps = append(steps, "verified")
			existing.IsVerified = true
			return existing.Public(), nil
		},
		SetActiveFunc: func(ctx context.Context, id string, active bool) (*models.PublicUser, error) {
			steps = append(steps, "active")
			existing.SetActive(active)
			return existing.Public(), nil
		},
		UpdatePasswordFunc: func(ctx context.Context, id, hash string) error {
			t.Fatal("an existing password is never replaced")
			return nil
		},
	})

	admin, err := svc.SeedAdmin(context.Background(), AdminSeed{Email: "admin@shop.com", Password: "Sh0p!Admin"})
	require.NoError(t, err)

	assert.Equal(t, []string{"role", "verified", "active"}, steps)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.Active)
	assert.True(t, admin.IsVerified)
}

func TestSeedAdmin_AlreadyInShape(t *testing.T) {
	existing := NewTestAdmin("admin@shop.com", "Sh0p!Admin")
	svc := newTestAdminService(&MockUserRepository{
		FindCredentialsByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return existing, nil },
		SetRoleFunc: func(ctx context.Context, id, role string) (*models.PublicUser, error) {
			t.Fatal("nothing to change")
			return nil, nil
		},
	})

	admin, err := svc.SeedAdmin(context.Background(), AdminSeed{Email: "admin@shop.com", Password: "Sh0p!Admin"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, admin.ID)
}
