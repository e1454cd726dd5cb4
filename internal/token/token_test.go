package token_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujal/maths-tabel-server/internal/domain"
	"github.com/sujal/maths-tabel-server/internal/token"
)

func TestCodec_IssueAndVerify(t *testing.T) {
	codec := token.NewCodec("test-secret")
	userID := uuid.New()
	sessionID := uuid.New()

	tok, err := codec.Issue(userID, domain.RoleUser, sessionID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := codec.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, sessionID.String(), claims.SessionID)
	assert.Equal(t, domain.RoleUser, claims.Role)
	assert.Equal(t, token.Issuer, claims.Issuer)
}

func TestCodec_Verify_Failures(t *testing.T) {
	codec := token.NewCodec("test-secret")
	userID := uuid.New()
	sessionID := uuid.New()

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "garbage token",
			token: func(t *testing.T) string {
				return "not-a-jwt"
			},
		},
		{
			name: "wrong signing secret",
			token: func(t *testing.T) string {
				other := token.NewCodec("other-secret")
				tok, err := other.Issue(userID, domain.RoleUser, sessionID, time.Hour)
				require.NoError(t, err)
				return tok
			},
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				tok, err := codec.Issue(userID, domain.RoleUser, sessionID, -time.Minute)
				require.NoError(t, err)
				return tok
			},
		},
		{
			name: "tampered payload",
			token: func(t *testing.T) string {
				tok, err := codec.Issue(userID, domain.RoleUser, sessionID, time.Hour)
				require.NoError(t, err)
				return tok[:len(tok)-4] + "AAAA"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Verify(tt.token(t))
			assert.ErrorIs(t, err, token.ErrInvalidToken)
		})
	}
}

func TestCodec_Decode_SkipsVerification(t *testing.T) {
	codec := token.NewCodec("test-secret")
	userID := uuid.New()
	sessionID := uuid.New()

	// Expired tokens fail Verify but must still decode, so logout can
	// clean up the session they reference.
	tok, err := codec.Issue(userID, domain.RoleAdmin, sessionID, -time.Minute)
	require.NoError(t, err)

	_, err = codec.Verify(tok)
	require.ErrorIs(t, err, token.ErrInvalidToken)

	claims := codec.Decode(tok)
	require.NotNil(t, claims)
	assert.Equal(t, sessionID.String(), claims.SessionID)
	assert.Equal(t, userID.String(), claims.Subject)

	assert.Nil(t, codec.Decode("not-a-jwt"))
}
