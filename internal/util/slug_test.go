package util

import (
	"regexp"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple title",
			input:    "Hello World",
			expected: "hello-world",
		},
		{
			name:     "with special characters",
			input:    "Hello, World!",
			expected: "hello-world",
		},
		{
			name:     "with numbers",
			input:    "Unit 12 Harbour Street",
			expected: "unit-12-harbour-street",
		},
		{
			name:     "accented characters drop into the hyphen run",
			input:    "Café & Coffee!!",
			expected: "caf-coffee",
		},
		{
			name:     "with multiple spaces",
			input:    "Hello   World",
			expected: "hello-world",
		},
		{
			name:     "with hyphens",
			input:    "Hello - World",
			expected: "hello-world",
		},
		{
			name:     "with leading/trailing spaces",
			input:    "  Hello World  ",
			expected: "hello-world",
		},
		{
			name:     "all special characters",
			input:    "!@#$%^&*()",
			expected: "",
		},
		{
			name:     "non-latin input",
			input:    "日本語タイトル",
			expected: "",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "mixed case",
			input:    "HeLLo WoRLd",
			expected: "hello-world",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Slugify(tt.input)
			if result != tt.expected {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestSlugifyInvariants checks the structural properties every slug must hold
// regardless of input: lowercase alphabet only, no leading/trailing hyphen,
// no doubled hyphens.
func TestSlugifyInvariants(t *testing.T) {
	valid := regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

	inputs := []string{
		"Café & Coffee!!",
		"The Old Neptune",
		"--- odd --- input ---",
		"Fish & Chips (Harbour)",
		"UPPER lower 42",
		"trailing punctuation...",
	}

	for _, input := range inputs {
		got := Slugify(input)
		if got == "" {
			continue
		}
		if !valid.MatchString(got) {
			t.Errorf("Slugify(%q) = %q, not a well-formed slug", input, got)
		}
		if !IsValidSlug(got) {
			t.Errorf("IsValidSlug(Slugify(%q)) = false for %q", input, got)
		}
	}
}

func TestIsValidSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "valid simple slug", input: "hello-world", expected: true},
		{name: "valid slug with numbers", input: "shop-123", expected: true},
		{name: "valid single word", input: "hello", expected: true},
		{name: "valid numbers only", input: "123", expected: true},
		{name: "invalid - empty", input: "", expected: false},
		{name: "invalid - uppercase", input: "Hello", expected: false},
		{name: "invalid - leading hyphen", input: "-hello", expected: false},
		{name: "invalid - trailing hyphen", input: "hello-", expected: false},
		{name: "invalid - double hyphen", input: "hello--world", expected: false},
		{name: "invalid - spaces", input: "hello world", expected: false},
		{name: "invalid - special characters", input: "hello!world", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidSlug(tt.input)
			if result != tt.expected {
				t.Errorf("IsValidSlug(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSearchFold(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Café", "cafe"},
		{"  Whitstable  ", "whitstable"},
		{"Über", "uber"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := SearchFold(tt.input); got != tt.expected {
			t.Errorf("SearchFold(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestMatchesSearch(t *testing.T) {
	if !MatchesSearch("Café & Coffee", "cafe") {
		t.Error("expected accent-insensitive match")
	}
	if !MatchesSearch("The Old Neptune", "") {
		t.Error("empty needle must match everything")
	}
	if MatchesSearch("Harbour Books", "coffee") {
		t.Error("unexpected match")
	}
}
