package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewService("secret", time.Hour)

	token, err := svc.GenerateToken("user-1", "owner@example.com", "store-1", RoleStoreOwner)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "store-1", claims.StoreID)
	assert.Equal(t, RoleStoreOwner, claims.Role)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := NewService("secret", time.Hour)
	other := NewService("different", time.Hour)

	token, err := svc.GenerateToken("user-1", "owner@example.com", "store-1", RoleStoreOwner)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := NewService("secret", -time.Minute)

	token, err := svc.GenerateToken("user-1", "owner@example.com", "store-1", RoleStoreOwner)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateGarbageToken(t *testing.T) {
	svc := NewService("secret", time.Hour)

	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCanAccessStore(t *testing.T) {
	owner := &Claims{Role: RoleStoreOwner, StoreID: "store-1"}
	assert.True(t, owner.CanAccessStore("store-1"))
	assert.False(t, owner.CanAccessStore("store-2"))

	admin := &Claims{Role: RoleAdmin}
	assert.True(t, admin.CanAccessStore("store-1"))
	assert.True(t, admin.CanAccessStore("store-2"))
}
