package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleKitchen))
	assert.False(t, ValidRole("SUPERVISOR"))
}

func TestIsStaff(t *testing.T) {
	assert.True(t, RoleOwner.IsStaff())
	assert.True(t, RoleKitchen.IsStaff())
	assert.True(t, RoleDelivery.IsStaff())
	assert.False(t, RoleAdmin.IsStaff())
	assert.False(t, RoleCustomer.IsStaff())
}

func TestSanitized(t *testing.T) {
	u := User{ID: "u1", PasswordHash: "$2a$10$x"}
	assert.Empty(t, u.Sanitized().PasswordHash)
	assert.Equal(t, "$2a$10$x", u.PasswordHash, "original untouched")
}
