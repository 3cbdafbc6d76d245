// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	RouteRoot          = "/"
	RouteSuffixNew     = "/new"
	RouteSuffixReorder = "/reorder"
	RouteSuffixToggle  = "/toggle"

	RouteParamID   = "/{id}"
	RouteParamSlug = "/{slug}"

	RouteLogin  = "/login"
	RouteLogout = "/logout"

	RouteCategories   = "/categories"
	RouteShops        = "/shops"
	RouteEvents       = "/events"
	RouteOffers       = "/offers"
	RouteCharities    = "/charities"
	RouteCampaigns    = "/campaigns"
	RouteQuickLinks   = "/quick-links"
	RouteInfoPages    = "/info-pages"
	RouteCompetitions = "/competitions"
	RouteWalks        = "/walks"
	RouteUsers        = "/users"
	RouteModeration   = "/moderation"
	RouteAudit        = "/audit"
)

const (
	redirectAdmin             = "/admin"
	redirectAdminCategories   = redirectAdmin + RouteCategories
	redirectAdminShops        = redirectAdmin + RouteShops
	redirectAdminEvents       = redirectAdmin + RouteEvents
	redirectAdminOffers       = redirectAdmin + RouteOffers
	redirectAdminCharities    = redirectAdmin + RouteCharities
	redirectAdminCampaigns    = redirectAdmin + RouteCampaigns
	redirectAdminQuickLinks   = redirectAdmin + RouteQuickLinks
	redirectAdminInfoPages    = redirectAdmin + RouteInfoPages
	redirectAdminCompetitions = redirectAdmin + RouteCompetitions
	redirectAdminWalks        = redirectAdmin + RouteWalks
	redirectAdminUsers        = redirectAdmin + RouteUsers
	redirectAdminModeration   = redirectAdmin + RouteModeration
	redirectLogin             = RouteLogin
)
