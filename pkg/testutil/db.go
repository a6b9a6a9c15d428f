// Package testutil holds fixtures shared by the package tests
package testutil

import (
	"testing"

	"startupconnect/api/db"
	"startupconnect/api/internal/model"
	"startupconnect/api/pkg/security"
	"startupconnect/api/pkg/util"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory sqlite database private to the test
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.Open("sqlite", "file:"+util.NewID()+"?mode=memory&cache=shared")
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)

	// The in-memory database lives as long as its only connection
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// FastArgon is cheap enough to hash in every test
func FastArgon() *security.Argon2id {
	return &security.Argon2id{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

type UserOption func(*model.User)

func WithStatus(s model.VerificationStatus, m model.VerificationMethod) UserOption {
	return func(u *model.User) {
		u.VerificationStatus = s
		u.VerificationMethod = m
	}
}

func WithEmail(email string) UserOption {
	return func(u *model.User) {
		u.Email = email
	}
}

func WithPassword(password string) UserOption {
	return func(u *model.User) {
		hash, err := FastArgon().Hash(password)
		if err != nil {
			panic(err)
		}
		u.PasswordHash = hash
	}
}

// Inactive is applied after the insert since is_active defaults to true
func Inactive() UserOption {
	return func(u *model.User) {
		u.IsActive = false
	}
}

// CreateUser inserts an active user with the given role
func CreateUser(t testing.TB, gdb *gorm.DB, role model.Role, opts ...UserOption) *model.User {
	t.Helper()

	u := &model.User{
		Email:        util.NewID() + "@example.com",
		PasswordHash: "unset",
		Name:         "Test " + string(role),
		Role:         role,
		IsActive:     true,
	}

	for _, o := range opts {
		o(u)
	}

	active := u.IsActive
	require.NoError(t, gdb.Create(u).Error)

	if !active {
		require.NoError(t, gdb.Model(u).Update("is_active", false).Error)
		u.IsActive = false
	}

	return u
}

// ReloadUser reads the current row of u
func ReloadUser(t testing.TB, gdb *gorm.DB, id string) *model.User {
	t.Helper()

	var u model.User
	require.NoError(t, gdb.Where("id = ?", id).First(&u).Error)
	return &u
}
