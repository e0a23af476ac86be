package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/sentinel-ask/pkg/middleware/common"
)

// HeaderXRequestID is re-exported from common.
const HeaderXRequestID = common.HeaderXRequestID

// RequestIDConfig defines the config for RequestID middleware.
type RequestIDConfig struct {
	// Header is the header name to use for request ID.
	// Default: "X-Request-ID"
	Header string

	// Generator is the function to generate request IDs.
	// Default: monotonic ULID
	Generator func() string
}

// RequestID returns a middleware that adds a unique request ID to each request.
// An incoming X-Request-ID is kept; otherwise a ULID is generated. The ID is
// echoed in the response header and stored in the request context.
func RequestID() gin.HandlerFunc {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig returns a RequestID middleware with custom config.
func RequestIDWithConfig(config RequestIDConfig) gin.HandlerFunc {
	if config.Header == "" {
		config.Header = HeaderXRequestID
	}
	if config.Generator == nil {
		config.Generator = common.GenerateRequestID
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader(config.Header)
		if requestID == "" || len(requestID) > 128 {
			requestID = config.Generator()
		}

		c.Header(config.Header, requestID)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}
