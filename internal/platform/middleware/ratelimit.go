package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// LinkThrottleConfig limits how often one client may hit one follow-up link.
type LinkThrottleConfig struct {
	PerMinute int
	Burst     int
	// IdleTTL drops limiters that have not been used for this long.
	IdleTTL time.Duration
}

type linkLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type linkLimiters struct {
	mu       sync.Mutex
	limiters map[string]*linkLimiter
	cfg      LinkThrottleConfig
	lastGC   time.Time
}

func (l *linkLimiters) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cfg.IdleTTL > 0 && now.Sub(l.lastGC) > l.cfg.IdleTTL {
		for k, v := range l.limiters {
			if now.Sub(v.lastSeen) > l.cfg.IdleTTL {
				delete(l.limiters, k)
			}
		}
		l.lastGC = now
	}

	ll, ok := l.limiters[key]
	if !ok {
		every := rate.Every(time.Minute / time.Duration(l.cfg.PerMinute))
		ll = &linkLimiter{limiter: rate.NewLimiter(every, l.cfg.Burst)}
		l.limiters[key] = ll
	}
	ll.lastSeen = now
	return ll.limiter
}

// LinkThrottle rate limits the public follow-up routes per client IP and
// link. The link is the only credential on those routes, so guessing ids is
// slowed down rather than prevented.
func LinkThrottle(cfg LinkThrottleConfig) echo.MiddlewareFunc {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 30
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	store := &linkLimiters{limiters: make(map[string]*linkLimiter), cfg: cfg, lastGC: time.Now()}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			now := time.Now()
			limiter := store.get(c.RealIP()+"|"+c.Param("id"), now)

			res := limiter.ReserveN(now, 1)
			if delay := res.DelayFrom(now); delay > 0 {
				res.CancelAt(now)
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests for this link")
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.PerMinute))
			return next(c)
		}
	}
}
