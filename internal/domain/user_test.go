package domain_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujal/maths-tabel-server/internal/domain"
)

func TestNormalizeUsername(t *testing.T) {
	display, lower := domain.NormalizeUsername("  MathKid_7 ")
	assert.Equal(t, "MathKid_7", display)
	assert.Equal(t, "mathkid_7", lower)
}

func TestUser_Safe_ExcludesPasswordHash(t *testing.T) {
	user := &domain.User{
		ID:           uuid.New(),
		Username:     "alice",
		PasswordHash: "$2a$12$secret",
		Role:         domain.RoleUser,
		Approved:     true,
	}

	data, err := json.Marshal(user.Safe())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "password")

	// The full model never serializes the hash either.
	data, err = json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
}

func TestSessionMeta_Bounded(t *testing.T) {
	meta := domain.SessionMeta{
		UserAgent: strings.Repeat("a", 600),
		IPAddress: strings.Repeat("b", 200),
	}

	bounded := meta.Bounded()
	assert.Len(t, bounded.UserAgent, 500)
	assert.Len(t, bounded.IPAddress, 128)

	short := domain.SessionMeta{UserAgent: "curl/8.0", IPAddress: "10.0.0.1"}
	assert.Equal(t, short, short.Bounded())
}
