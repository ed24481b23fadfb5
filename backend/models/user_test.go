package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleStudent.Valid())
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleAdmin, CapManageCourses, true},
		{RoleAdmin, CapManageUsers, true},
		{RoleAdmin, CapTakeTests, true},
		{RoleInstructor, CapManageTests, true},
		{RoleInstructor, CapTakeTests, false},
		{RoleInstructor, CapManageUsers, false},
		{RoleHR, CapViewAnalytics, true},
		{RoleHR, CapDeleteContent, false},
		{RoleStudent, CapTakeTests, true},
		{RoleStudent, CapTrackProgress, true},
		{RoleStudent, CapManageCourses, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.role.Can(tt.cap), "%s / %s", tt.role, tt.cap)
	}
}

func TestUnknownRoleHasNoCapabilities(t *testing.T) {
	assert.False(t, Role("ghost").Can(CapTakeTests))
}
