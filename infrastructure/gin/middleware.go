package gin

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	infracontext "github.com/jonesrussell/north-crm/infrastructure/context"
	infraerrors "github.com/jonesrussell/north-crm/infrastructure/errors"
	"github.com/jonesrussell/north-crm/infrastructure/logger"
)

const (
	// RequestIDHeader carries the correlation id in and out of every service.
	RequestIDHeader = "X-Request-ID"

	requestIDKey       = "request_id"
	maxRequestIDLength = 128
)

// LoggerMiddleware emits exactly one structured entry per request after the
// chain has run. Responses with status >= 400 are logged at error level.
func LoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		url := c.Request.URL.RequestURI()

		// A panicking handler still gets its entry, logged as a 500 before
		// RecoveryMiddleware writes that status.
		defer func() {
			rec := recover()

			status := c.Writer.Status()
			if rec != nil {
				status = http.StatusInternalServerError
			}
			logRequest(log, c, method, url, status, start)

			if rec != nil {
				panic(rec)
			}
		}()

		c.Next()
	}
}

func logRequest(log logger.Logger, c *gin.Context, method, url string, status int, start time.Time) {
	fields := []logger.Field{
		logger.String("method", method),
		logger.String("url", url),
		logger.Int("status", status),
		logger.Duration("duration", time.Since(start)),
		logger.String("client_ip", c.ClientIP()),
		logger.String("user_agent", c.Request.UserAgent()),
		logger.Time("timestamp", start.UTC()),
	}

	if id := c.GetString(requestIDKey); id != "" {
		fields = append(fields, logger.String("request_id", id))
	}

	if len(c.Errors) > 0 {
		fields = append(fields, logger.Strings("errors", c.Errors.Errors()))
	}

	if status >= http.StatusBadRequest {
		log.Error("HTTP request", fields...)
		return
	}
	log.Info("HTTP request", fields...)
}

// RequestIDLoggerMiddleware accepts an inbound X-Request-ID (or generates
// one), echoes it on the response and stores it, along with a logger
// carrying it, in the request context.
func RequestIDLoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if !validRequestID(requestID) {
			requestID = generateRequestID()
		}

		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)

		ctx := infracontext.WithRequestID(c.Request.Context(), requestID)
		ctx = logger.WithContext(ctx, log.With(logger.String("request_id", requestID)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, r := range id {
		if r < 0x21 || r > 0x7e {
			return false
		}
	}
	return true
}

// generateRequestID returns 32 hex characters.
func generateRequestID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")
}

// CORSMiddleware answers preflights and sets CORS headers for allowed
// origins. Requests from other origins pass through without CORS headers.
func CORSMiddleware(cfg CORSConfig) gin.HandlerFunc {
	cfg.SetDefaults()

	allowedMethods := strings.Join(cfg.AllowedMethods, ", ")
	allowedHeaders := strings.Join(cfg.AllowedHeaders, ", ")
	exposedHeaders := strings.Join(cfg.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(int(cfg.MaxAge.Seconds()))

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		c.Writer.Header().Add("Vary", "Origin")

		allowed := allowedOrigin(origin, cfg.AllowedOrigins, cfg.AllowCredentials)
		if allowed == "" {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowed)
		if cfg.AllowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		h.Set("Access-Control-Expose-Headers", exposedHeaders)

		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", allowedMethods)
			h.Set("Access-Control-Allow-Headers", allowedHeaders)
			h.Set("Access-Control-Max-Age", maxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// allowedOrigin returns the value for Access-Control-Allow-Origin, or "" when
// origin is absent or not allowed. With credentials the origin is echoed
// instead of "*", which browsers reject.
func allowedOrigin(origin string, allowedOrigins []string, credentials bool) string {
	if origin == "" {
		return ""
	}

	for _, allowed := range allowedOrigins {
		if allowed == origin {
			return origin
		}
		if allowed == "*" {
			if credentials {
				return origin
			}
			return "*"
		}
	}

	return ""
}

// RecoveryMiddleware logs panics and answers with a 500 error envelope.
func RecoveryMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("Panic recovered",
					logger.Any("error", err),
					logger.String("path", c.Request.URL.Path),
					logger.String("method", c.Request.Method),
					logger.String("client_ip", c.ClientIP()),
				)

				infraerrors.Abort(c, http.StatusInternalServerError, "An unexpected error occurred")
			}
		}()

		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestIDLoggerMiddleware.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
