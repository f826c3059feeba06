package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sudooom.storefront/internal/metrics"
)

// UnreadReporter source of the current unread conversation ids
type UnreadReporter interface {
	Snapshot() []string
}

// NewRouter status endpoints: /health, /ready, /unread and /metrics.
// unread may be nil when no chat session runs.
func NewRouter(checker *Checker, unread UnreadReporter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, checker.Check(c.Request.Context()))
	})

	r.GET("/ready", func(c *gin.Context) {
		status := checker.Check(c.Request.Context())
		code := http.StatusOK
		if !checker.IsReady(c.Request.Context()) {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	r.GET("/unread", func(c *gin.Context) {
		ids := []string{}
		if unread != nil {
			ids = unread.Snapshot()
		}
		c.JSON(http.StatusOK, gin.H{"conversations": ids, "count": len(ids)})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	return r
}
