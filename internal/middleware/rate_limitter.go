package middleware

import (
	jwtPkg "TravelExpense/pkg/jwt"
	"TravelExpense/pkg/response"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"net/http"
	"sync"
	"time"
)

var (
	ErrTooManyRequests = response.NewError(http.StatusTooManyRequests, "too many requests")
)

const limiterIdleTTL = 30 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	buckets   map[string]*bucket
	rate      rate.Limit
	burstSize int
	mutex     *sync.Mutex
	lastSweep time.Time
}

func newRateLimiter(reqRate rate.Limit, burstSize int) *rateLimiter {
	return &rateLimiter{
		buckets:   make(map[string]*bucket),
		rate:      reqRate,
		burstSize: burstSize,
		mutex:     &sync.Mutex{},
		lastSweep: time.Now(),
	}
}

// GetLimiterFrom returns the bucket for key, dropping buckets idle for longer
// than limiterIdleTTL on the way.
func (r *rateLimiter) GetLimiterFrom(key string, now time.Time) *rate.Limiter {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if now.Sub(r.lastSweep) > limiterIdleTTL {
		for k, b := range r.buckets {
			if now.Sub(b.lastSeen) > limiterIdleTTL {
				delete(r.buckets, k)
			}
		}
		r.lastSweep = now
	}

	b, exist := r.buckets[key]
	if !exist {
		b = &bucket{limiter: rate.NewLimiter(r.rate, r.burstSize)}
		r.buckets[key] = b
	}
	b.lastSeen = now

	return b.limiter
}

// NewRateLimiter keys on the authenticated user when the token middleware ran
// first, and on the client IP otherwise (login, register).
func (m *middleware) NewRateLimiter(ctx *fiber.Ctx) error {
	key := "ip:" + ctx.IP()
	if actor, err := jwtPkg.GetActor(ctx); err == nil {
		key = "user:" + actor.ID
	}

	limiter := m.rateLimitter.GetLimiterFrom(key, time.Now())
	if !limiter.Allow() {
		m.log.WithFields(logrus.Fields{
			"request_id": m.GetRequestID(ctx),
			"limit_key":  key,
			"path":       ctx.Path(),
		}).Warn("Rate limit exceeded")
		return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": ErrTooManyRequests.Error(),
			"code":  "TOO_MANY_REQUESTS",
		})
	}

	return ctx.Next()
}
