package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xbirks/alergenu-sub000/utils"
)

func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		entry := utils.InfoLogger.WithFields(logrus.Fields{
			"status":  status,
			"latency": latency,
			"ip":      c.ClientIP(),
		})
		if rid := c.GetString(CtxRestaurantID); rid != "" {
			entry = entry.WithField("restaurant_id", rid)
		}
		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Warnf("%s %s", c.Request.Method, path)
			return
		}
		entry.Infof("%s %s", c.Request.Method, path)
	}
}

// ReportLoggerMiddleware logs each PDF export and whether it succeeded.
func ReportLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.InfoLogger.Printf("Generating report %s", c.Request.URL.Path)

		c.Next()

		if c.Writer.Status() == 200 {
			utils.InfoLogger.Printf("Report %s generated", c.Request.URL.Path)
		} else {
			utils.ErrorLogger.Printf("Failed to generate report %s (status %d)", c.Request.URL.Path, c.Writer.Status())
		}
	}
}
