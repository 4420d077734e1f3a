package routes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	table := Default("http://localhost:8080/")

	tests := []struct {
		name   string
		route  string
		params map[string]string
		want   string
	}{
		{"Static Path", Login, nil, "/login"},
		{"Single Param", Player, map[string]string{"id": "42"}, "/player/42"},
		{"Escaped Param", BrowseCategory, map[string]string{"slug": "sci fi"}, "/browse/sci%20fi"},
		{"Extra Params As Query", PasswordReset, map[string]string{"token": "abc", "email": "a@b.co"}, "/reset-password/abc?email=a%40b.co"},
		{"Shared Pattern", AdminAccess, nil, "/admin/login"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Resolve(tt.route, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("Unknown Route", func(t *testing.T) {
		_, err := table.Resolve("nope", nil)
		assert.True(t, errors.Is(err, ErrUnknownRoute))
	})

	t.Run("Missing Param", func(t *testing.T) {
		_, err := table.Resolve(Player, nil)
		assert.True(t, errors.Is(err, ErrMissingParam))
	})

	t.Run("Absolute", func(t *testing.T) {
		got, err := table.Absolute(VerificationVerify, map[string]string{"token": "t"})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/verify-email/t", got)
	})

	t.Run("Pattern", func(t *testing.T) {
		assert.Equal(t, "/player/{id}", table.Pattern(Player))
		assert.Empty(t, table.Pattern("nope"))
	})
}

func TestPairs(t *testing.T) {
	got, err := Pairs("id", "1", "slug", "drama")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"id": "1", "slug": "drama"}, got)

	_, err = Pairs("id")
	assert.Error(t, err)
}
