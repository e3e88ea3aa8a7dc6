package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// PlayerHeader carries the caller's player identity.
const PlayerHeader = "player"

// Handler exposes the quiz engine over HTTP and WebSocket.
type Handler struct {
	controller *app.Controller
	registry   *app.Registry
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

func NewHandler(controller *app.Controller, registry *app.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		controller: controller,
		registry:   registry,
		logger:     logger.With("component", "http"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type answerRequest struct {
	QuestionID string  `json:"questionId"`
	ChoiceID   *string `json:"choiceId"`
}

type registerRequest struct {
	Username string `json:"username"`
}

type watchersResponse struct {
	Questions    int `json:"questions"`
	Leaderboards int `json:"leaderboards"`
}

// Router builds the gin engine with every route mounted.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/ws", h.ServeWS)

	r.GET("/quizzes", h.listQuizzes)
	r.GET("/quizzes/:quizId", h.getQuiz)
	r.GET("/quizzes/:quizId/question", h.currentQuestion)
	r.GET("/quizzes/:quizId/leaderboard", h.getLeaderboard)
	r.GET("/quizzes/:quizId/watchers", h.watchers)
	r.POST("/quizzes/:quizId/next", h.advanceQuestion)
	r.POST("/quizzes/:quizId/answers", h.submitAnswer)

	r.POST("/quizzes/:quizId/players", h.registerPlayer)
	r.GET("/quizzes/:quizId/players", h.roster)
	r.GET("/quizzes/:quizId/players/:playerId/points", h.playerPoints)
	r.GET("/players/:playerId", h.getPlayer)
	return r
}

func (h *Handler) listQuizzes(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.ListQuizzes(c.Request.Context()))
}

func (h *Handler) getQuiz(c *gin.Context) {
	quiz, err := h.controller.GetQuiz(c.Request.Context(), c.Param("quizId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (h *Handler) currentQuestion(c *gin.Context) {
	question, err := h.controller.CurrentQuestion(c.Request.Context(), c.Param("quizId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *Handler) getLeaderboard(c *gin.Context) {
	lb, err := h.controller.GetLeaderboard(c.Request.Context(), c.Param("quizId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lb)
}

func (h *Handler) watchers(c *gin.Context) {
	quizID := c.Param("quizId")
	if _, err := h.controller.GetQuiz(c.Request.Context(), quizID); err != nil {
		h.writeError(c, err)
		return
	}
	questions, leaderboards := h.controller.Watchers(quizID)
	c.JSON(http.StatusOK, watchersResponse{Questions: questions, Leaderboards: leaderboards})
}

// advanceQuestion answers with the revealed question, or null when the cycle ended.
func (h *Handler) advanceQuestion(c *gin.Context) {
	question, err := h.controller.AdvanceQuestion(c.Request.Context(), c.Param("quizId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *Handler) submitAnswer(c *gin.Context) {
	ctx := c.Request.Context()
	playerID, err := h.registry.Resolve(ctx, c.GetHeader(PlayerHeader))
	if err != nil {
		h.writeError(c, err)
		return
	}

	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: http.StatusText(http.StatusBadRequest), Message: "invalid answer payload"})
		return
	}

	outcome, _, err := h.controller.SubmitAnswer(ctx, c.Param("quizId"), playerID, req.QuestionID, req.ChoiceID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *Handler) registerPlayer(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: http.StatusText(http.StatusBadRequest), Message: "invalid player payload"})
		return
	}
	player, err := h.registry.Register(c.Request.Context(), c.Param("quizId"), req.Username)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, player)
}

func (h *Handler) roster(c *gin.Context) {
	players, err := h.registry.Roster(c.Request.Context(), c.Param("quizId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, players)
}

func (h *Handler) playerPoints(c *gin.Context) {
	standing, err := h.controller.PlayerPoints(c.Request.Context(), c.Param("quizId"), c.Param("playerId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, standing)
}

func (h *Handler) getPlayer(c *gin.Context) {
	player, err := h.registry.Player(c.Request.Context(), c.Param("playerId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, player)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, ErrorResponse{Error: http.StatusText(status), Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMissingIdentity):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoActiveQuestion),
		errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidUsername):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("http request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
