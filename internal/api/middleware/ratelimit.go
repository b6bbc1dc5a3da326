package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 5 * time.Minute

type keyedEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per key (client IP, session ID) and
// forgets keys idle for longer than limiterIdleTTL.
type KeyedLimiter struct {
	rate  rate.Limit
	burst int

	mu      sync.Mutex
	entries map[string]*keyedEntry
	stop    chan struct{}
	once    sync.Once
}

// NewKeyedLimiter creates a limiter allowing perSecond requests per key with
// the given burst. Close stops its cleanup goroutine.
func NewKeyedLimiter(perSecond float64, burst int) *KeyedLimiter {
	kl := &KeyedLimiter{
		rate:    rate.Limit(perSecond),
		burst:   burst,
		entries: make(map[string]*keyedEntry),
		stop:    make(chan struct{}),
	}
	go kl.sweep(limiterIdleTTL)
	return kl
}

// Reserve takes a token for key. When none is available it returns false
// and how long until one is.
func (kl *KeyedLimiter) Reserve(key string) (bool, time.Duration) {
	kl.mu.Lock()
	e, ok := kl.entries[key]
	if !ok {
		e = &keyedEntry{limiter: rate.NewLimiter(kl.rate, kl.burst)}
		kl.entries[key] = e
	}
	now := time.Now()
	e.lastSeen = now
	kl.mu.Unlock()

	r := e.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Len reports how many keys are tracked
func (kl *KeyedLimiter) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.entries)
}

// Close stops the cleanup goroutine
func (kl *KeyedLimiter) Close() {
	kl.once.Do(func() { close(kl.stop) })
}

func (kl *KeyedLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stop:
			return
		case <-ticker.C:
			kl.forgetIdle(time.Now().Add(-limiterIdleTTL))
		}
	}
}

func (kl *KeyedLimiter) forgetIdle(cutoff time.Time) {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	for key, e := range kl.entries {
		if e.lastSeen.Before(cutoff) {
			delete(kl.entries, key)
		}
	}
}

// limitBy builds middleware that rate limits on the key returned by keyFn.
// Requests with an empty key pass through.
func limitBy(kl *KeyedLimiter, keyFn func(*gin.Context) string, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			c.Next()
			return
		}

		if ok, wait := kl.Reserve(key); !ok {
			if wait > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": message})
			return
		}
		c.Next()
	}
}

// PerIP rate limits by client IP
func PerIP(requestsPerSecond float64, burst int) gin.HandlerFunc {
	return limitBy(NewKeyedLimiter(requestsPerSecond, burst), func(c *gin.Context) string {
		return c.ClientIP()
	}, "Rate limit exceeded. Please try again later.")
}

// PerSession rate limits by chat session. It must run after Session.
func PerSession(requestsPerSecond float64, burst int) gin.HandlerFunc {
	return limitBy(NewKeyedLimiter(requestsPerSecond, burst), GetSessionID,
		"Rate limit exceeded. Please slow down.")
}

// WebSocketLimiter tracks message rate for one WebSocket connection
type WebSocketLimiter struct {
	limiter *rate.Limiter
}

// NewWebSocketLimiter allows messagesPerMinute messages, all of them at once
// if the client has been quiet.
func NewWebSocketLimiter(messagesPerMinute int) *WebSocketLimiter {
	return &WebSocketLimiter{
		limiter: rate.NewLimiter(rate.Limit(messagesPerMinute)/60.0, messagesPerMinute),
	}
}

// Allow checks if a message is allowed
func (wsl *WebSocketLimiter) Allow() bool {
	return wsl.limiter.Allow()
}
