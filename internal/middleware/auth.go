package middleware

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-manager/internal/auth"
	"github.com/ukydev/fleet-manager/internal/httpx"
	"github.com/ukydev/fleet-manager/internal/models"
	"github.com/ukydev/fleet-manager/internal/policy"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	UserContextKey contextKey = "user"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authService *auth.Service
	gate        *policy.Gate
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authService *auth.Service, gate *policy.Gate) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		gate:        gate,
	}
}

// Authenticate validates JWT tokens and adds user context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := m.authService.ExtractTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			httpx.Error(w, http.StatusUnauthorized, "Authorization header required", "unauthenticated", nil)
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			code := "invalid-token"
			if errors.Is(err, auth.ErrExpiredToken) {
				code = "token-expired"
			}
			httpx.Error(w, http.StatusUnauthorized, "Invalid token", code, nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireRole middleware checks if the user has the required role
func (m *AuthMiddleware) RequireRole(requiredRole models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserFromContext(r.Context())
			if !ok {
				httpx.Error(w, http.StatusUnauthorized, "User context not found", "unauthenticated", nil)
				return
			}

			if claims.Role != requiredRole && claims.Role != models.RoleAdmin {
				httpx.Error(w, http.StatusForbidden, "Insufficient permissions", "forbidden", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission asks the gate whether the caller may perform action on
// resourceType before the handler runs. Object-level checks stay in handlers.
func (m *AuthMiddleware) RequirePermission(action policy.Action, resourceType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := GetUserFromContext(r.Context())
			if err := m.gate.Authorize(r.Context(), claims, action, resourceType, nil); err != nil {
				WritePolicyError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WritePolicyError converts a gate denial to its HTTP reply.
func WritePolicyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, policy.ErrUnauthenticated):
		httpx.Error(w, http.StatusUnauthorized, "Authentication required", "unauthenticated", nil)
	case errors.Is(err, policy.ErrSelfDelete):
		httpx.Error(w, http.StatusForbidden, "You cannot delete your own account", "self-delete", nil)
	case errors.Is(err, policy.ErrForbidden):
		httpx.Error(w, http.StatusForbidden, "Insufficient permissions", "forbidden", nil)
	default:
		log.WithError(err).Error("Authorization check failed")
		httpx.Error(w, http.StatusInternalServerError, "Internal server error", "internal", nil)
	}
}

// WithClaims stores claims in ctx.
func WithClaims(ctx context.Context, claims *models.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	return claims, ok
}

// shouldSkipAuth determines if authentication should be skipped for a given path.
// The live feed authenticates itself after the upgrade.
func shouldSkipAuth(path string) bool {
	skipPaths := []string{
		"/api/auth/login",
		"/health",
		"/ws/",
	}

	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}

// RateLimitMiddleware provides basic rate limiting
type RateLimitMiddleware struct {
	requests  map[string][]int64 // IP -> timestamps
	mu        sync.Mutex
	now       func() time.Time
	trusted   []netip.Prefix
	lastSweep int64
}

// NewRateLimitMiddleware creates a new rate limiting middleware. Forwarding headers
// are only honoured on requests coming from one of the trusted proxies.
func NewRateLimitMiddleware(trusted ...netip.Prefix) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		requests: make(map[string][]int64),
		now:      time.Now,
		trusted:  trusted,
	}
}

// ParseTrustedProxies parses IP addresses and CIDR ranges.
func ParseTrustedProxies(values []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		if strings.Contains(v, "/") {
			p, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", v, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", v, err)
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// RateLimit applies rate limiting based on IP address
func (m *RateLimitMiddleware) RateLimit(maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := m.clientIP(r)
			now := m.now().UnixNano()
			windowStart := now - int64(window)

			m.mu.Lock()
			if now-m.lastSweep > int64(window) {
				m.sweep(windowStart)
				m.lastSweep = now
			}
			valid := m.requests[clientIP][:0]
			for _, ts := range m.requests[clientIP] {
				if ts > windowStart {
					valid = append(valid, ts)
				}
			}
			if len(valid) >= maxRequests {
				m.requests[clientIP] = valid
				m.mu.Unlock()
				httpx.Error(w, http.StatusTooManyRequests, "Rate limit exceeded", "rate-limited", nil)
				return
			}
			m.requests[clientIP] = append(valid, now)
			m.mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}

// sweep drops clients whose last request is older than windowStart. Callers hold mu.
func (m *RateLimitMiddleware) sweep(windowStart int64) {
	for ip, stamps := range m.requests {
		if len(stamps) == 0 || stamps[len(stamps)-1] <= windowStart {
			delete(m.requests, ip)
		}
	}
}

func (m *RateLimitMiddleware) isTrusted(addr netip.Addr) bool {
	for _, p := range m.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP returns the peer address, or when the peer is a trusted proxy the
// right-most X-Forwarded-For entry that is not itself a trusted proxy.
func (m *RateLimitMiddleware) clientIP(r *http.Request) string {
	peer := remoteIP(r)
	addr, err := netip.ParseAddr(peer)
	if err != nil || !m.isTrusted(addr.Unmap()) {
		return peer
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		a, err := netip.ParseAddr(hop)
		if err != nil {
			return peer
		}
		if !m.isTrusted(a.Unmap()) {
			return a.Unmap().String()
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		if a, err := netip.ParseAddr(ip); err == nil {
			return a.Unmap().String()
		}
	}
	return peer
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
