package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/casualtrader/engine/internal/auth"
)

// AuthMiddleware protects operator-facing routes and extracts the user
// id from the JWT. Agent cycles never go through this — only the human
// REST/WebSocket API does.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := auth.ValidateJWT(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID)
		c.Next()
	}
}

// RateLimiter implements a simple in-memory per-IP rate limiter.
func RateLimiter(requests int, window time.Duration) gin.HandlerFunc {
	type client struct {
		count   int
		resetAt time.Time
	}

	clients := make(map[string]*client)
	var mu sync.Mutex

	return func(c *gin.Context) {
		mu.Lock()
		defer mu.Unlock()

		ip := c.ClientIP()
		now := time.Now()

		if cl, exists := clients[ip]; exists {
			if now.After(cl.resetAt) {
				cl.count = 1
				cl.resetAt = now.Add(window)
			} else if cl.count >= requests {
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
				c.Abort()
				return
			} else {
				cl.count++
			}
		} else {
			clients[ip] = &client{count: 1, resetAt: now.Add(window)}
		}

		c.Next()
	}
}
