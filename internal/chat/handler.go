package chat

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

type request struct {
	Message string `json:"message"`
}

// Handler serves POST /api/chat. A nil provider means the server has no
// upstream credential; every request then fails with a configuration error.
func Handler(p Provider, logger *log.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("chat")

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
			return
		}
		if p == nil {
			logger.Error("upstream API key is missing")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error: API Key missing"})
			return
		}

		var req request
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
			logger.Warn("bad chat request", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process chat request"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		reply, err := p.Reply(ctx, req.Message)
		if err != nil {
			logger.Error("chat request failed", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process chat request"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"reply": orSignalLost(reply)})
	}
}
