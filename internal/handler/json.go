// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/whitstable-shop/site/internal/middleware"
)

// apiEnvelope is the success wrapper for JSON API responses.
type apiEnvelope struct {
	Data any            `json:"data"`
	Meta map[string]any `json:"meta,omitempty"`
}

// writeJSON sends a success envelope with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any, meta map[string]any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiEnvelope{Data: data, Meta: meta}); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

// writeJSONError sends a structured API error.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	middleware.WriteAPIError(w, status, code, message, nil)
}

// decodeJSON parses the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
