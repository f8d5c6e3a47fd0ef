package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/retrodesk/internal/registry"
	"github.com/vovakirdan/retrodesk/internal/storage"
)

const maxTopN = 100

type submitRequest struct {
	Score    int    `json:"score"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type scoresResponse struct {
	GameID string                `json:"gameId"`
	Scores []storage.ScoreRecord `json:"scores"`
}

// scoresReady rejects the request when the scores API is disabled.
func (s *Server) scoresReady(c *gin.Context) bool {
	if s.opts.Scores == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scores are disabled"})
		return false
	}
	return true
}

func (s *Server) limit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return s.opts.TopN
	}
	if n > maxTopN {
		return maxTopN
	}
	return n
}

func (s *Server) handleTop(c *gin.Context) {
	if !s.scoresReady(c) {
		return
	}
	game := c.Param("game")
	top, err := s.opts.Scores.Top(c.Request.Context(), game, s.limit(c))
	if err != nil {
		s.log.Error("top scores failed", "game", game, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load scores"})
		return
	}
	if top == nil {
		top = []storage.ScoreRecord{}
	}
	c.JSON(http.StatusOK, scoresResponse{GameID: game, Scores: top})
}

func (s *Server) handleHigh(c *gin.Context) {
	if !s.scoresReady(c) {
		return
	}
	game := c.Param("game")
	high, err := s.opts.Scores.HighScore(c.Request.Context(), game)
	if err != nil {
		s.log.Error("high score failed", "game", game, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load high score"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"gameId": game, "highScore": high})
}

func (s *Server) handleSubmit(c *gin.Context) {
	if !s.scoresReady(c) {
		return
	}
	game := c.Param("game")
	if !registry.Exists(game) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown game"})
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Score < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid score"})
		return
	}

	id, err := s.opts.Scores.SubmitRecord(c.Request.Context(), storage.ScoreRecord{
		GameID:      game,
		Score:       req.Score,
		UserID:      req.UserID,
		DisplayName: req.Username,
	})
	if err != nil {
		s.log.Error("score submit failed", "game", game, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save score"})
		return
	}
	if !registry.IsCompetitive(game) {
		c.JSON(http.StatusOK, gin.H{"stored": false})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"stored": true, "id": id})
}

// handleLive streams the top-N list: once on connect, then after every
// stored submission.
func (s *Server) handleLive(c *gin.Context) {
	if !s.scoresReady(c) {
		return
	}
	game := c.Param("game")
	limit := s.limit(c)

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	updates, cancel := s.opts.Scores.Subscribe(game, limit)
	defer cancel()

	// Reader only detects the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(top []storage.ScoreRecord) error {
		if top == nil {
			top = []storage.ScoreRecord{}
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
		return conn.WriteJSON(scoresResponse{GameID: game, Scores: top})
	}

	top, err := s.opts.Scores.Top(c.Request.Context(), game, limit)
	if err != nil {
		s.log.Warn("initial top scores failed", "game", game, "err", err)
	}
	if err := send(top); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-gone:
			return
		case top, ok := <-updates:
			if !ok {
				return
			}
			if err := send(top); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
