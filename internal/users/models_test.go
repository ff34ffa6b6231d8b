package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBeforeSave_RejectsUnknownRole(t *testing.T) {
	assert.NoError(t, (&User{Role: RoleDoctor}).BeforeSave(nil))
	assert.Error(t, (&User{Role: "JANITOR"}).BeforeSave(nil))
	assert.NoError(t, (&User{}).BeforeSave(nil))
}

func TestRoleGroups(t *testing.T) {
	assert.ElementsMatch(t, []string{"SUPER_ADMIN", "RECEPTIONIST"}, ReceptionRoles())
	assert.ElementsMatch(t, []string{"SUPER_ADMIN", "DOCTOR"}, ClinicalRoles())
	assert.Len(t, StaffRoles(), 4)

	for _, role := range StaffRoles() {
		assert.True(t, IsValidRole(role))
		assert.Contains(t, Permissions(Role(role)), "queue:read")
	}
	assert.Empty(t, Permissions("JANITOR"))
}
