package api

import (
	"testing"
	"myshoptools/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestIsValidUsername(t *testing.T) {
	assert.True(t, isValidUsername("Maria"))
	assert.False(t, isValidUsername("maria1"))
	assert.False(t, isValidUsername("maria smith"))
	assert.False(t, isValidUsername(""))
}

func TestIsValidPassword(t *testing.T) {
	assert.True(t, isValidPassword("12345678"))
	assert.True(t, isValidPassword("123456789012345"))
	assert.False(t, isValidPassword("1234567"))
	assert.False(t, isValidPassword("1234567890123456"))
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, isValidRole(""))
	assert.True(t, isValidRole(domain.RoleVendor))
	assert.True(t, isValidRole(domain.RoleSupplier))
	// Admin accounts are provisioned out of band, never self-registered
	assert.False(t, isValidRole(domain.RoleAdmin))
	assert.False(t, isValidRole("superuser"))
}
