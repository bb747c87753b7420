// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"crypto/subtle"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ============================================================================
// Request Logging Middleware
// ============================================================================

// Logger logs each request with zap.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// ============================================================================
// Security Headers Middleware
// ============================================================================

// SecurityHeaders sets headers that keep browsers from sniffing, framing or
// caching responses. Transcripts hold health data, so nothing is cached.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		h.Set("Cache-Control", "no-store")
		h.Set("Referrer-Policy", "no-referrer")
		c.Next()
	}
}

// ============================================================================
// CORS Middleware
// ============================================================================

// CORS allows the listed origins, or only loopback origins when the list is
// empty. Entries match the origin host; "*.example.com" matches subdomains.
func CORS(allowed []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowed) == 0 {
		cfg.AllowOriginFunc = func(origin string) bool {
			return isLoopbackHost(originHost(origin))
		}
	} else {
		patterns := append([]string(nil), allowed...)
		cfg.AllowOriginFunc = func(origin string) bool {
			host := originHost(origin)
			for _, p := range patterns {
				if matchOrigin(p, host) {
					return true
				}
			}
			return false
		}
	}
	return cors.New(cfg)
}

func originHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return strings.ToLower(origin)
	}
	return strings.ToLower(u.Hostname())
}

// isLoopbackHost reports whether host is localhost or a loopback address.
func isLoopbackHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(strings.Trim(host, "[]"))
	return ip != nil && ip.IsLoopback()
}

func matchOrigin(pattern, host string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if strings.Contains(pattern, "://") {
		pattern = originHost(pattern)
	}
	if pattern == "*" || pattern == host {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(host, pattern[1:])
	}
	return false
}

// ============================================================================
// Rate Limiter
// ============================================================================

// IPRateLimiter keeps one token bucket per client IP. Buckets idle for
// longer than idleTTL are dropped by Sweep.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter allows perSecond sustained requests per IP with the given
// burst. perSecond <= 0 disables limiting.
func NewIPRateLimiter(perSecond float64, burst int) *IPRateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = int(math.Max(1, math.Ceil(perSecond*2)))
	}
	return &IPRateLimiter{
		limiters: make(map[string]*ipLimiter),
		limit:    limit,
		burst:    burst,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

// Allow reports whether a request from ip may proceed now.
func (rl *IPRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// Sweep drops buckets idle for longer than the idle TTL.
func (rl *IPRateLimiter) Sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-rl.idleTTL)
	for ip, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, ip)
		}
	}
}

// Size returns the number of tracked IPs.
func (rl *IPRateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// RateLimit rejects requests over the per-IP limit with 429.
func RateLimit(rl *IPRateLimiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if rl.Allow(ip) {
			c.Next()
			return
		}
		retry := 1
		if rl.limit > 0 && rl.limit != rate.Inf {
			retry = int(math.Max(1, math.Ceil(1/float64(rl.limit))))
		}
		log.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
		c.Header("Retry-After", strconv.Itoa(retry))
		abortError(c, http.StatusTooManyRequests, "too many requests")
	}
}

// ============================================================================
// Authentication Middleware
// ============================================================================

// BearerAuth requires "Authorization: Bearer <token>". /health stays open.
func BearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") || !ValidateBearerToken(strings.TrimPrefix(header, "Bearer "), token) {
			c.Header("WWW-Authenticate", "Bearer")
			abortError(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		c.Next()
	}
}

// ValidateBearerToken compares tokens in constant time.
func ValidateBearerToken(got, expected string) bool {
	if got == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}
