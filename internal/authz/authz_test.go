package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleInPermittedSet(t *testing.T) {
	assert.True(t, CheckRole("employer", "employer", "admin").Allowed)
	assert.True(t, CheckRole("admin", "employer", "admin").Allowed)
}

func TestRoleOutsidePermittedSet(t *testing.T) {
	d := CheckRole("user", "employer", "admin")
	assert.False(t, d.Allowed)
	assert.Equal(t, "you are not allowed to use this resource", d.Reason)
}

func TestOwnerMayMutate(t *testing.T) {
	d := CheckOwnership("u1", "Ada", "employer", "u1", "update this job")
	assert.True(t, d.Allowed)
}

func TestAdminMayMutateAnything(t *testing.T) {
	d := CheckOwnership("u2", "Root", "admin", "u1", "delete this job")
	assert.True(t, d.Allowed)
}

func TestNonOwnerDenialNamesCaller(t *testing.T) {
	d := CheckOwnership("u2", "Grace", "employer", "u1", "update this job")
	assert.False(t, d.Allowed)
	assert.Equal(t, "user Grace is not allowed to update this job", d.Reason)
}
