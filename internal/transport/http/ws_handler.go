package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"live-quiz-service/internal/app"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Stream topics accepted by ServeWS.
const (
	TopicQuestions   = "questions"
	TopicLeaderboard = "leaderboard"
	TopicPlayers     = "players"
)

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS streams one topic of one quiz to a websocket client:
//
//	/ws?quizId=0&topic=questions|leaderboard|players
//
// The server sends a normal close frame when the stream ends (end of a quiz
// cycle for questions and leaderboard).
func (h *Handler) ServeWS(c *gin.Context) {
	quizID := c.Query("quizId")
	if quizID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: http.StatusText(http.StatusBadRequest), Message: "missing quizId"})
		return
	}
	ctx := c.Request.Context()

	switch topic := c.DefaultQuery("topic", TopicQuestions); topic {
	case TopicQuestions:
		sub, err := h.controller.SubscribeQuestions(ctx, quizID)
		if err != nil {
			h.writeError(c, err)
			return
		}
		serveStream(h, c, sub, "question")
	case TopicLeaderboard:
		sub, err := h.controller.SubscribeLeaderboard(ctx, quizID)
		if err != nil {
			h.writeError(c, err)
			return
		}
		serveStream(h, c, sub, "leaderboard")
	case TopicPlayers:
		sub, err := h.registry.SubscribeRoster(ctx, quizID)
		if err != nil {
			h.writeError(c, err)
			return
		}
		serveStream(h, c, sub, "players")
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: http.StatusText(http.StatusBadRequest), Message: "unsupported topic " + topic})
	}
}

// serveStream owns the connection: this goroutine is the only writer, a
// reader goroutine notices the client going away.
func serveStream[T any](h *Handler, c *gin.Context, sub *app.Subscription[T], msgType string) {
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			// Viewers have nothing to say; anything read is discarded.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-sub.C():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream ended"))
				return
			}
			if err := conn.WriteJSON(outboundMessage[T]{Type: msgType, Payload: payload}); err != nil {
				h.logger.Debug("ws write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-readerDone:
			return
		}
	}
}
