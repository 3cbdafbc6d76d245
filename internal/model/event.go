// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Audit event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Audit event categories
const (
	EventCategoryAuth       = "auth"
	EventCategoryDirectory  = "directory"
	EventCategoryModeration = "moderation"
	EventCategoryUser       = "user"
	EventCategoryConfig     = "config"
	EventCategorySystem     = "system"
)
