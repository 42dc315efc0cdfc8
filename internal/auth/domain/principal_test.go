package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanAccessUser(t *testing.T) {
	user := &Principal{UserID: "u1", Role: RoleUser}
	assert.True(t, user.CanAccessUser("u1"))
	assert.False(t, user.CanAccessUser("u2"))
	assert.False(t, user.IsOperator())

	for _, role := range []string{RoleOperator, RoleAdmin} {
		p := &Principal{UserID: "ops", Role: role}
		assert.True(t, p.IsOperator())
		assert.True(t, p.CanAccessUser("u2"))
	}
}
