// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Moderation statuses shared by shops, reviews, and photo entries.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Moderation content types.
const (
	ContentTypeShop   = "shop"
	ContentTypeReview = "review"
)

// Moderation actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// ValidAction reports whether action is a known moderation verb.
func ValidAction(action string) bool {
	return action == ActionApprove || action == ActionReject
}

// ValidContentType reports whether t is a moderatable content type.
func ValidContentType(t string) bool {
	return t == ContentTypeShop || t == ContentTypeReview
}

// ModerationItem is the type-tagged union entry of the moderation
// queue. It is a view model assembled per request by merging pending
// shops and pending reviews; it is never persisted in this shape.
type ModerationItem struct {
	Type      string    `json:"type"` // ContentTypeShop or ContentTypeReview
	ID        int64     `json:"id"`
	Title     string    `json:"title"`    // shop name or review excerpt
	Subtitle  string    `json:"subtitle"` // category / shop under review
	Rating    int64     `json:"rating,omitempty"`
	Country   string    `json:"country,omitempty"`
	Device    string    `json:"device,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ModerationRef identifies one queue entry in a bulk action payload.
type ModerationRef struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}
