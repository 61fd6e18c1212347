package http

import (
	"time"

	"github.com/google/uuid"

	"qwirkle/common/log"
)

// LoggerMiddleware 记录请求耗时
func LoggerMiddleware() MiddlewareFunc {
	return func(c *Context) error {
		start := time.Now()
		c.Next()
		log.Debug("HTTP %s %s %d from %s in %v", c.Method(), c.Path(), c.Status(), c.ClientIP(), time.Since(start))
		return nil
	}
}

// RequestIDMiddleware 透传或生成 X-Request-ID
func RequestIDMiddleware() MiddlewareFunc {
	return func(c *Context) error {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestID", requestID)
		c.SetHeader("X-Request-ID", requestID)
		return nil
	}
}
