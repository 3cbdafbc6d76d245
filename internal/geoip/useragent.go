// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package geoip

import (
	"github.com/mileusna/useragent"
)

// ClientInfo is the parsed view of a visitor's user agent shown alongside
// pending reviews in the moderation queue.
type ClientInfo struct {
	Browser    string
	OS         string
	DeviceType string
}

// ParseClient extracts browser, OS, and device type from a user agent string.
func ParseClient(uaString string) ClientInfo {
	ua := useragent.Parse(uaString)

	info := ClientInfo{
		Browser: ua.Name,
		OS:      ua.OS,
	}

	if info.Browser == "" {
		info.Browser = "Unknown"
	}
	if info.OS == "" {
		info.OS = "Unknown"
	}

	switch {
	case ua.Mobile:
		info.DeviceType = "mobile"
	case ua.Tablet:
		info.DeviceType = "tablet"
	case ua.Bot:
		info.DeviceType = "bot"
	default:
		info.DeviceType = "desktop"
	}

	return info
}
