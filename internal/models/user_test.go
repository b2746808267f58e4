package models

import (
	"testing"
)

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected bool
	}{
		{"admin role", RoleAdmin, true},
		{"manager role", RoleManager, true},
		{"operator role", RoleOperator, true},
		{"viewer role", RoleViewer, true},
		{"invalid role", "dispatcher", false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidRole(tt.role)
			if result != tt.expected {
				t.Errorf("IsValidRole(%s) = %v, want %v", tt.role, result, tt.expected)
			}
		})
	}
}

func TestUser_HasPermission(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	manager := &User{Role: RoleManager}
	operator := &User{Role: RoleOperator}
	viewer := &User{Role: RoleViewer}
	unknown := &User{Role: "guest"}

	tests := []struct {
		name     string
		user     *User
		action   string
		expected bool
	}{
		{"admin can manage users", admin, ActionManageUsers, true},
		{"admin can change emission factor", admin, ActionManageSettings, true},

		{"manager cannot manage users", manager, ActionManageUsers, false},
		{"manager can change emission factor", manager, ActionManageSettings, true},
		{"manager can import", manager, ActionImportData, true},

		{"operator can view reports", operator, ActionViewReports, true},
		{"operator can import", operator, ActionImportData, true},
		{"operator can edit trips", operator, ActionEditTrips, true},
		{"operator cannot change emission factor", operator, ActionManageSettings, false},

		{"viewer can view reports", viewer, ActionViewReports, true},
		{"viewer cannot import", viewer, ActionImportData, false},
		{"viewer cannot edit trips", viewer, ActionEditTrips, false},

		{"unknown role has nothing", unknown, ActionViewReports, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.user.HasPermission(tt.action)
			if result != tt.expected {
				t.Errorf("User with role %s HasPermission(%s) = %v, want %v",
					tt.user.Role, tt.action, result, tt.expected)
			}
		})
	}
}
