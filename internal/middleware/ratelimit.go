package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"campuslink/internal/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterExpiry = 5 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore 按调用者维护令牌桶，过期条目定期清理
type rateLimiterStore struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rate    rate.Limit
	burst   int
}

func newRateLimiterStore(perSecond float64, burst int) *rateLimiterStore {
	store := &rateLimiterStore{
		entries: make(map[string]*limiterEntry),
		rate:    rate.Limit(perSecond),
		burst:   burst,
	}
	go store.cleanup()
	return store
}

func (s *rateLimiterStore) allow(key string) bool {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.rate, s.burst)}
		s.entries[key] = entry
	}
	entry.lastSeen = time.Now()
	s.mu.Unlock()

	return entry.limiter.Allow()
}

func (s *rateLimiterStore) cleanup() {
	ticker := time.NewTicker(limiterExpiry)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		for key, entry := range s.entries {
			if time.Since(entry.lastSeen) > limiterExpiry {
				delete(s.entries, key)
			}
		}
		s.mu.Unlock()
	}
}

// RateLimit 对写接口做按调用者限流
// 已登录用户按用户 ID 限流，匿名请求按客户端 IP
// 拒绝时统一返回 "too many requests"，不触碰持久层
func RateLimit(perSecond float64, burst int) gin.HandlerFunc {
	store := newRateLimiterStore(perSecond, burst)

	return func(c *gin.Context) {
		key := c.ClientIP()
		if user, exists := c.Get(CheckUserKey); exists {
			key = fmt.Sprintf("u:%d", user.(*models.User).ID)
		}

		if !store.allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "too many requests",
			})
			return
		}
		c.Next()
	}
}
