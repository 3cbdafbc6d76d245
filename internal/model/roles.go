// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain constants and view models shared across
// the application: roles, moderation statuses, and audit event types.
package model

// User roles, hierarchical: user < moderator < admin.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// RoleLevel returns a numeric level for role hierarchy.
// Higher level = more permissions. Plain users have no admin access.
func RoleLevel(role string) int {
	switch role {
	case RoleAdmin:
		return 2
	case RoleModerator:
		return 1
	default:
		return 0
	}
}

// ValidRole reports whether role is one of the known role strings.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleModerator || role == RoleAdmin
}
