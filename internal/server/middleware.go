package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/xorcism-go/internal/auth"
	"github.com/xorcism-go/internal/trace"
)

// TraceMiddleware adds request tracing context to each request
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := trace.GenerateRequestID()

		ctx := trace.WithRequestID(c.Request.Context(), reqID)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", reqID)
		c.Next()
	}
}

// LoggerMiddleware logs HTTP requests
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		reqID := trace.GetRequestID(c.Request.Context())
		keyTag := trace.GetKeyTag(c.Request.Context())

		evt := log.Info().
			Str("req_id", reqID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Int("bytes", c.Writer.Size()).
			Dur("duration", time.Since(start))
		if keyTag != "" {
			evt = evt.Str("key", keyTag)
		}
		evt.Msg("request")
	}
}

// CORSMiddleware handles CORS headers
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Stream-Key, X-Stream-Offset")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Request-ID, X-Stream-Algorithm")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

// AuthMiddleware validates JWT tokens and records the username in context
func AuthMiddleware(jwtAuth *auth.JWTAuth) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		token = strings.TrimPrefix(token, "Bearer ")
		if token == "" {
			token = c.Query("token")
		}

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "missing token"})
			return
		}

		claims, err := jwtAuth.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": err.Error()})
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}
