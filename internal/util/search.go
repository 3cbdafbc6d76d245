// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SearchFold normalizes a string for accent- and case-insensitive
// matching: accents are decomposed and stripped, remaining non-ASCII
// runes are transliterated, and the result is lowercased.
// "Café" and "cafe" fold to the same value.
func SearchFold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}
	result = unidecode.Unidecode(result)
	return strings.ToLower(strings.TrimSpace(result))
}

// MatchesSearch reports whether haystack contains needle after both
// are folded. An empty needle matches everything.
func MatchesSearch(haystack, needle string) bool {
	if strings.TrimSpace(needle) == "" {
		return true
	}
	return strings.Contains(SearchFold(haystack), SearchFold(needle))
}
