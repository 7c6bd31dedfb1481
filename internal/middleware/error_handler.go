package middleware

import (
	goerrors "errors"

	"github.com/gin-gonic/gin"
	"security_monitor/pkg/errors"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		statusCode := errors.HTTPStatusFromError(err)

		// Rate-limit rejections carry their limit and attempt count so
		// callers can back off.
		var rateErr *errors.RateLimitError
		if goerrors.As(err, &rateErr) {
			c.JSON(statusCode, gin.H{
				"error":     "rate limit exceeded",
				"operation": rateErr.Operation,
				"limit":     rateErr.Limit,
				"attempts":  rateErr.Attempts,
			})
			return
		}

		c.JSON(statusCode, gin.H{"error": err.Error()})
	}
}
