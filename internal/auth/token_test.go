package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/citizen-request-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	role := domain.AgentRoleSupervisor
	token, expiresAt, err := tm.GenerateToken("AGT-007", domain.SubjectTypeAgent, &role)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "AGT-007", claims.SubjectID)
	assert.Equal(t, domain.SubjectTypeAgent, claims.Subject)
	require.NotNil(t, claims.Role)
	assert.Equal(t, domain.AgentRoleSupervisor, *claims.Role)
}

func TestTokenCitizenHasNoRole(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	token, _, err := tm.GenerateToken("CIT-001", domain.SubjectTypeCitizen, nil)
	require.NoError(t, err)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Nil(t, claims.Role)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	other := NewTokenManager("another-secret", 60)

	token, _, err := tm.GenerateToken("CIT-001", domain.SubjectTypeCitizen, nil)
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestPasswordHashAndCompare(t *testing.T) {
	hashed, err := HashPassword("s3cret-passphrase", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-passphrase", hashed)

	assert.NoError(t, ComparePassword(hashed, "s3cret-passphrase"))
	assert.Error(t, ComparePassword(hashed, "wrong"))
}
