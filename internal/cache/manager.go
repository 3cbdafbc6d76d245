// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"time"

	"github.com/whitstable-shop/site/internal/store"
)

// Cache keys for domain objects.
const (
	keySiteConfig       = "site_config"
	keyActiveCategories = "categories:active"
	keyActiveQuickLinks = "quick_links:active"
)

// Manager caches the hot read paths of the public site: site settings,
// the category list, and the quick links. Every public page renders
// all three, so they stay cached until an admin write invalidates them.
type Manager struct {
	config     *TypedCache[map[string]string]
	categories *TypedCache[[]store.Category]
	quickLinks *TypedCache[[]store.QuickLink]
	queries    *store.Queries
}

// NewManager creates a Manager over the given backend and store.
func NewManager(backend Cacher, queries *store.Queries, ttl time.Duration) *Manager {
	return &Manager{
		config:     NewTypedCache[map[string]string](backend, ttl),
		categories: NewTypedCache[[]store.Category](backend, ttl),
		quickLinks: NewTypedCache[[]store.QuickLink](backend, ttl),
		queries:    queries,
	}
}

// SiteConfig returns the site_config table as a map, cached.
func (m *Manager) SiteConfig(ctx context.Context) (map[string]string, error) {
	result, err := m.config.GetOrSet(ctx, keySiteConfig, func() (*map[string]string, error) {
		entries, err := m.queries.ListConfig(ctx)
		if err != nil {
			return nil, err
		}
		settings := make(map[string]string, len(entries))
		for _, e := range entries {
			settings[e.Key] = e.Value
		}
		return &settings, nil
	})
	if err != nil {
		return nil, err
	}
	return *result, nil
}

// ActiveCategories returns active categories in display order, cached.
func (m *Manager) ActiveCategories(ctx context.Context) ([]store.Category, error) {
	result, err := m.categories.GetOrSet(ctx, keyActiveCategories, func() (*[]store.Category, error) {
		cats, err := m.queries.ListActiveCategories(ctx)
		if err != nil {
			return nil, err
		}
		return &cats, nil
	})
	if err != nil {
		return nil, err
	}
	return *result, nil
}

// ActiveQuickLinks returns active quick links in display order, cached.
func (m *Manager) ActiveQuickLinks(ctx context.Context) ([]store.QuickLink, error) {
	result, err := m.quickLinks.GetOrSet(ctx, keyActiveQuickLinks, func() (*[]store.QuickLink, error) {
		links, err := m.queries.ListActiveQuickLinks(ctx)
		if err != nil {
			return nil, err
		}
		return &links, nil
	})
	if err != nil {
		return nil, err
	}
	return *result, nil
}

// InvalidateSiteConfig drops the cached settings after a config write.
func (m *Manager) InvalidateSiteConfig(ctx context.Context) {
	_ = m.config.Delete(ctx, keySiteConfig)
}

// InvalidateCategories drops the cached category list after a category write.
func (m *Manager) InvalidateCategories(ctx context.Context) {
	_ = m.categories.Delete(ctx, keyActiveCategories)
}

// InvalidateQuickLinks drops the cached quick links after a quick link write.
func (m *Manager) InvalidateQuickLinks(ctx context.Context) {
	_ = m.quickLinks.Delete(ctx, keyActiveQuickLinks)
}
