// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"testing"
	"time"
)

func TestLoginProtectionLockout(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		MaxFailedAttempts: 3,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})

	email := "victim@example.com"

	if locked, _ := lp.IsAccountLocked(email); locked {
		t.Fatal("account should not start locked")
	}

	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)

	if remaining := lp.GetRemainingAttempts(email); remaining != 1 {
		t.Errorf("remaining = %d, want 1", remaining)
	}

	locked, duration := lp.RecordFailedAttempt(email)
	if !locked {
		t.Fatal("third failure should lock the account")
	}
	if duration != time.Minute {
		t.Errorf("duration = %v, want 1m", duration)
	}

	if locked, _ := lp.IsAccountLocked(email); !locked {
		t.Error("account should be locked")
	}
}

func TestLoginProtectionSuccessClears(t *testing.T) {
	lp := NewLoginProtection(DefaultLoginProtectionConfig())

	email := "user@example.com"
	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)

	lp.RecordSuccessfulLogin(email)

	if remaining := lp.GetRemainingAttempts(email); remaining != 5 {
		t.Errorf("remaining = %d, want 5 after successful login", remaining)
	}
}

func TestLoginProtectionExponentialBackoff(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		MaxFailedAttempts: 2,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Hour,
	})

	email := "repeat@example.com"

	lp.RecordFailedAttempt(email)
	_, first := lp.RecordFailedAttempt(email)

	// Simulate the first lockout expiring
	lp.attemptsMu.Lock()
	lp.failedAttempts[email].lockedUntil = time.Now().Add(-time.Second)
	lp.attemptsMu.Unlock()

	lp.RecordFailedAttempt(email)
	_, second := lp.RecordFailedAttempt(email)

	if second <= first {
		t.Errorf("second lockout %v should exceed first %v", second, first)
	}
}

func TestGlobalRateLimiter(t *testing.T) {
	rl := NewGlobalRateLimiter(1, 2)

	ip := "192.0.2.1"
	if !rl.cache.get(ip).Allow() {
		t.Error("first request should be allowed")
	}
	if !rl.cache.get(ip).Allow() {
		t.Error("second request (burst) should be allowed")
	}
	if rl.cache.get(ip).Allow() {
		t.Error("third request should be limited")
	}

	// A different IP is unaffected
	if !rl.cache.get("192.0.2.2").Allow() {
		t.Error("other IP should be allowed")
	}
}
