package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/school-behavior-tracker/internal/model"
	"github.com/iliyamo/school-behavior-tracker/internal/utils"
)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// MustUser stores a user.  A non-empty in.Password is hashed first.
func MustUser(t testing.TB, d *MemDB, in model.NewUser) model.User {
	t.Helper()
	if in.Password != "" {
		hash, err := utils.HashPassword(in.Password)
		require.NoError(t, err)
		in.Password = hash
	}
	if in.Email == "" {
		in.Email = in.Username + "@school.test"
	}
	u, err := d.Users().Create(context.Background(), in)
	require.NoError(t, err)
	return *u
}

func MustStudent(t testing.TB, d *MemDB, in model.NewStudent) model.Student {
	t.Helper()
	s, err := d.Students().Create(context.Background(), in)
	require.NoError(t, err)
	return *s
}
