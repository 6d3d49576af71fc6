package monitor

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter serves the poller's latest snapshot.
func NewRouter(state *State) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/coverage", func(c *gin.Context) {
		latest, ok := state.Latest()
		if !ok {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no coverage snapshot yet"})
			return
		}
		resp := gin.H{
			"latest":  latest,
			"percent": latest.Percent(),
		}
		if initial, ok := state.Initial(); ok {
			resp["updated_since_start"] = latest.WithAny - initial.WithAny
		}
		c.JSON(http.StatusOK, resp)
	})

	return r
}
