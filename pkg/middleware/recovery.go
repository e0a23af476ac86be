package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-ask/pkg/middleware/common"
	"github.com/kart-io/sentinel-ask/pkg/utils/errors"
)

// Recovery returns a middleware that turns a panic into a 500 response
// carrying the generic internal error.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("panic recovered",
					"request_id", common.GetRequestID(c.Request.Context()),
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": errors.ErrInternal.MessageEN,
					"code":  errors.ErrInternal.Code,
				})
			}
		}()
		c.Next()
	}
}
