package apitest

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oremus-labs/bigbooks-relay/internal/logutil"
)

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		requestID, _ := c.Get("requestID")
		logutil.Trace("apitest request", map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"requestId": requestID,
		})
	}
}

// hitCounter records every routed call and serves injected failures.
func (s *Server) hitCounter() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.Request.Method + " " + c.FullPath()
		s.mu.Lock()
		s.hits[route]++
		injected, ok := s.injected[route]
		if ok {
			delete(s.injected, route)
		}
		s.mu.Unlock()
		if ok {
			c.Data(injected.status, "application/json", []byte(injected.body))
			c.Abort()
			return
		}
		c.Next()
	}
}

// bearerAuth resolves the bearer token to an account.
func (s *Server) bearerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if !strings.HasPrefix(header, "Bearer ") || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		s.mu.Lock()
		s.bearers = append(s.bearers, token)
		grant, ok := s.tokens[token]
		var acct *account
		if ok && time.Now().Before(grant.expires) {
			acct = s.usersByKey[grant.userKey]
		}
		s.mu.Unlock()

		if acct == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set("account", acct)
		c.Next()
	}
}
