package utils

import (
	"testing"

	"lms/backend/config"
	"lms/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	cfg := &config.Config{JWTSecret: "testsecret"}

	token, err := GenerateJWTToken(42, models.RoleStudent, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := ParseJWTToken(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint(42), identity.UserID)
	assert.Equal(t, models.RoleStudent, identity.Role)
}

func TestParseJWTTokenWrongSecret(t *testing.T) {
	cfg := &config.Config{JWTSecret: "testsecret"}
	token, err := GenerateJWTToken(42, models.RoleAdmin, cfg)
	require.NoError(t, err)

	_, err = ParseJWTToken(token, &config.Config{JWTSecret: "othersecret"})
	assert.Error(t, err)
}

func TestParseJWTTokenGarbage(t *testing.T) {
	cfg := &config.Config{JWTSecret: "testsecret"}

	_, err := ParseJWTToken("not-a-token", cfg)
	assert.Error(t, err)
}

func TestParseJWTTokenRejectsUnknownRole(t *testing.T) {
	cfg := &config.Config{JWTSecret: "testsecret"}
	token, err := GenerateJWTToken(7, models.Role("superuser"), cfg)
	require.NoError(t, err)

	_, err = ParseJWTToken(token, cfg)
	assert.Error(t, err)
}
