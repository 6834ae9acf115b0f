package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "xverify/pkg/domain-errors"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueAndValidate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService("secret", "xverify", "rewards-spa", 15*time.Minute, fixedClock(now))

	token, err := svc.Issue("user-1")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.NotEmpty(t, claims.JTI)
}

func TestValidateRejects(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService("secret", "xverify", "rewards-spa", time.Minute, fixedClock(now))
	token, err := svc.Issue("user-1")
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := NewService("secret", "xverify", "rewards-spa", time.Minute, fixedClock(now.Add(2*time.Minute)))
		_, err := later.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.Equal(t, "token expired", err.Error())
	})

	t.Run("wrong key", func(t *testing.T) {
		other := NewService("other", "xverify", "rewards-spa", time.Minute, fixedClock(now))
		_, err := other.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := NewService("secret", "xverify", "admin", time.Minute, fixedClock(now))
		_, err := other.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("unsigned token", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(raw)
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := svc.ValidateToken("")
		assert.Error(t, err)
	})
}

func TestIssueRequiresUser(t *testing.T) {
	svc := NewService("secret", "xverify", "rewards-spa", time.Minute, nil)
	_, err := svc.Issue("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}
