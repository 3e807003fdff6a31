package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func LoggerMiddleware() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		// health checks would drown everything else
		SkipPaths: []string{"/api/health"},
		Formatter: func(param gin.LogFormatterParams) string {
			entry := logrus.WithFields(logrus.Fields{
				"status_code": param.StatusCode,
				"latency":     param.Latency.String(),
				"client_ip":   param.ClientIP,
				"method":      param.Method,
				"path":        param.Path,
				"body_size":   param.BodySize,
			})
			if param.ErrorMessage != "" {
				entry = entry.WithField("error", param.ErrorMessage)
			}
			switch {
			case param.StatusCode >= 500:
				entry.Error("HTTP Request")
			case param.StatusCode >= 400:
				entry.Warn("HTTP Request")
			default:
				entry.Info("HTTP Request")
			}
			return ""
		},
	})
}
