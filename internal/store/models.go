// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// User is an account with a role gating admin access.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string
	Name         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  sql.NullTime
}

// Category groups directory entries; orderable via SortOrder.
type Category struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	Icon        string
	SortOrder   int64
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Shop is a directory entry. Community-submitted shops start pending
// and pass through the moderation queue.
type Shop struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	CategoryID  sql.NullInt64
	Address     string
	Phone       string
	Website     string
	Latitude    sql.NullFloat64
	Longitude   sql.NullFloat64
	ImageUrl    string
	Status      string
	IsFeatured  bool
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Review is a community rating of a shop; pending until moderated.
type Review struct {
	ID          int64
	ShopID      int64
	AuthorName  string
	Rating      int64
	Body        string
	Status      string
	CountryCode string
	DeviceType  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Event is a town calendar entry.
type Event struct {
	ID          int64
	Title       string
	Slug        string
	Description string
	Venue       string
	StartsAt    time.Time
	EndsAt      sql.NullTime
	IsFeatured  bool
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Offer is a time-bounded promotion, optionally tied to a shop.
type Offer struct {
	ID          int64
	ShopID      sql.NullInt64
	Title       string
	Slug        string
	Description string
	StartsAt    sql.NullTime
	EndsAt      sql.NullTime
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Charity is a local charitable organisation.
type Charity struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	Website     string
	DonationUrl string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Campaign is a fundraising drive, optionally tied to a charity.
type Campaign struct {
	ID          int64
	CharityID   sql.NullInt64
	Name        string
	Slug        string
	Description string
	GoalPence   sql.NullInt64
	StartsAt    sql.NullTime
	EndsAt      sql.NullTime
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// QuickLink is an orderable home-page shortcut.
type QuickLink struct {
	ID        int64
	Label     string
	Url       string
	Icon      string
	SortOrder int64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InfoPage is a markdown informational page served on the public site.
type InfoPage struct {
	ID          int64
	Title       string
	Slug        string
	Body        string
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Competition is a photo competition round.
type Competition struct {
	ID        int64
	Title     string
	Slug      string
	Theme     string
	StartsAt  sql.NullTime
	EndsAt    sql.NullTime
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PhotoEntry is a submitted competition photo; pending until moderated.
type PhotoEntry struct {
	ID            int64
	CompetitionID int64
	EntrantName   string
	Caption       string
	FilePath      string
	ThumbPath     string
	TakenAt       sql.NullTime
	Status        string
	CreatedAt     time.Time
}

// DogWalk is a scheduled community dog walk.
type DogWalk struct {
	ID           int64
	Title        string
	WalkDate     time.Time
	MeetingPoint string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// WalkAttendance records one attendee (and dog) for a walk.
type WalkAttendance struct {
	ID           int64
	WalkID       int64
	AttendeeName string
	DogName      string
	CreatedAt    time.Time
}

// ConfigEntry is a site_config key/value row.
type ConfigEntry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// AuditEvent is an audit log entry.
type AuditEvent struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string // JSON string
	IpAddress string
	CreatedAt time.Time
}
