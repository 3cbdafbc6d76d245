// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose utility functions including
// URL slug generation and search text folding.
package util

import (
	"regexp"
	"strings"
)

// nonSlugRuns matches any run of characters outside [a-z0-9].
var nonSlugRuns = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a string to a URL-friendly slug.
// It lowercases the input, collapses every run of characters outside
// [a-z0-9] into a single hyphen, and trims leading/trailing hyphens.
// Non-ASCII letters are not transliterated: "Café & Coffee!!" becomes
// "caf-coffee". Stored slugs depend on this exact behavior.
func Slugify(s string) string {
	result := strings.ToLower(s)
	result = nonSlugRuns.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return result
}

// IsValidSlug checks if a string is a valid slug format.
func IsValidSlug(s string) bool {
	if s == "" {
		return false
	}

	// Check if it only contains lowercase letters, numbers, and hyphens
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}

	// Check that it doesn't start or end with a hyphen
	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}

	// Check for consecutive hyphens
	if strings.Contains(s, "--") {
		return false
	}

	return true
}
