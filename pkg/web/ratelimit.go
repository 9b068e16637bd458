package web

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// rateLimiter keeps one token bucket per client IP.
type rateLimiter struct {
	mu     sync.Mutex
	bucket map[string]*rate.Limiter
	rate   rate.Limit
	burst  int
}

func newRateLimiter(r rate.Limit, burst int) *rateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{
		bucket: make(map[string]*rate.Limiter),
		rate:   r,
		burst:  burst,
	}
}

func (r *rateLimiter) limiterFor(ip string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.bucket[ip]
	if !ok {
		l = rate.NewLimiter(r.rate, r.burst)
		r.bucket[ip] = l
	}
	return l
}

// limitChecks rejects manual checks over the per-IP rate.
func (s *Server) limitChecks(c *fiber.Ctx) error {
	if s.limiter == nil {
		return c.Next()
	}
	ip := c.IP()
	if !s.limiter.limiterFor(ip).Allow() {
		s.logger.Warn("too many manual checks", "ip", ip)
		return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
			Error: "Too many requests",
		})
	}
	return c.Next()
}
