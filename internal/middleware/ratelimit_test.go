// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllowStopsAtLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Second)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request over the limit should be denied")
	}
	// Another client has its own budget.
	if !rl.allow("10.0.0.2") {
		t.Error("a different client must not be affected")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRateLimiter(2, 80*time.Millisecond)
	defer rl.Stop()

	rl.allow("c")
	rl.allow("c")
	if rl.allow("c") {
		t.Fatal("third request inside the window should be denied")
	}

	time.Sleep(100 * time.Millisecond)
	if !rl.allow("c") {
		t.Error("requests should be allowed again after the window passes")
	}
}

func TestRateLimiterMiddlewareReturns429(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/admin/login", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request: got %d, want 200", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/admin/login", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request: got %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("429 response should carry Retry-After")
	}
}

func TestRateLimiterMiddlewareKeysByForwardedFor(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := func(ip string) int {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/subscribe", nil)
		r.Header.Set("X-Forwarded-For", ip+", 172.16.0.1")
		handler.ServeHTTP(w, r)
		return w.Code
	}

	if got := request("203.0.113.7"); got != http.StatusOK {
		t.Fatalf("first client: got %d, want 200", got)
	}
	if got := request("203.0.113.7"); got != http.StatusTooManyRequests {
		t.Errorf("repeat client: got %d, want 429", got)
	}
	if got := request("203.0.113.8"); got != http.StatusOK {
		t.Errorf("other client: got %d, want 200", got)
	}
}

func TestRateLimiterPruneDropsIdleClients(t *testing.T) {
	rl := NewRateLimiter(5, 30*time.Millisecond)
	defer rl.Stop()

	rl.allow("idle")
	rl.allow("busy")
	time.Sleep(50 * time.Millisecond)
	rl.allow("busy")

	rl.prune()

	rl.mu.Lock()
	_, idleKept := rl.visits["idle"]
	_, busyKept := rl.visits["busy"]
	rl.mu.Unlock()

	if idleKept {
		t.Error("idle client should be pruned")
	}
	if !busyKept {
		t.Error("active client must survive pruning")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(r *http.Request)
		want   string
	}{
		{"remote addr", func(r *http.Request) { r.RemoteAddr = "192.0.2.1:5050" }, "192.0.2.1"},
		{"x-real-ip", func(r *http.Request) { r.Header.Set("X-Real-IP", " 198.51.100.2 ") }, "198.51.100.2"},
		{"x-forwarded-for chain", func(r *http.Request) {
			r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		}, "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)
			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP: got %q, want %q", got, tt.want)
			}
		})
	}
}
