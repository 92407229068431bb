package http

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/logger"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/security"
)

type contextKey string

const orgClaimsKey contextKey = "org_claims"

// OrgAuth validates the Bearer token minted by the organization's
// identity layer. Vendor portal routes never pass through here.
func OrgAuth(tokens security.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
				return
			}
			claims, err := tokens.ValidateOrgToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid or expired token"})
				return
			}
			ctx := context.WithValue(r.Context(), orgClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OrgClaimsFromContext returns the authenticated organization claims,
// if any.
func OrgClaimsFromContext(ctx context.Context) (*security.OrgClaims, bool) {
	claims, ok := ctx.Value(orgClaimsKey).(*security.OrgClaims)
	return claims, ok
}

// ipRateLimiter hands out one token bucket per remote IP. The public
// portal endpoints are the only unauthenticated surface, so they get
// throttled before any store lookup happens. Idle buckets are evicted
// so a scanner cycling source addresses cannot grow the map forever.
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiterEntry
	rps      rate.Limit
	burst    int
}

type ipLimiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

const limiterIdleTTL = 10 * time.Minute

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	l := &ipRateLimiter{
		limiters: make(map[string]*ipLimiterEntry),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
	go l.janitor()
	return l
}

func (l *ipRateLimiter) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiterEntry{lim: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.lim
}

func (l *ipRateLimiter) janitor() {
	ticker := time.NewTicker(limiterIdleTTL)
	defer ticker.Stop()
	for now := range ticker.C {
		l.purgeIdle(now)
	}
}

// purgeIdle drops buckets not seen within the idle TTL. A purged IP
// simply gets a fresh full bucket on its next request.
func (l *ipRateLimiter) purgeIdle(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(l.limiters, ip)
		}
	}
}

func (l *ipRateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.limiter(ip).Allow() {
			logger.Warn("Rate limit exceeded on portal endpoint", "ip", ip, "path", r.URL.Path)
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
