package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"live-quiz-service/internal/app"
	"live-quiz-service/internal/catalog"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func sampleQuizzes() []domain.Quiz {
	choices := []domain.Choice{{ID: "c0", Text: "zero"}, {ID: "c1", Text: "one"}}
	return []domain.Quiz{{
		ID:    "quiz-1",
		Title: "Sample",
		Questions: []domain.Question{
			{ID: "q1", Title: "First", Choices: choices, GoodAnswer: "c1"},
			{ID: "q2", Title: "Second", Choices: choices, GoodAnswer: "c0"},
		},
	}}
}

type testServer struct {
	*httptest.Server
	controller *app.Controller
	registry   *app.Registry
}

func newTestServer(t *testing.T, requireRegistered bool) *testServer {
	t.Helper()
	cat, err := catalog.New(sampleQuizzes())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	controller := app.NewController(cat, app.ControllerOptions{Logger: logger})
	registry := app.NewRegistry(cat, memory.NewPlayerStore(), app.RegistryOptions{
		RequireRegistered: requireRegistered,
		Logger:            logger,
	})
	srv := httptest.NewServer(NewHandler(controller, registry, logger).Router())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, controller: controller, registry: registry}
}

func (s *testServer) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (s *testServer) post(t *testing.T, path, player, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, s.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if player != "" {
		req.Header.Set(PlayerHeader, player)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readNext(t *testing.T, conn *websocket.Conn) inbound {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg inbound
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestQuestionStreamDeliversAdvance(t *testing.T) {
	srv := newTestServer(t, false)
	conn := srv.dial(t, "quizId=quiz-1&topic=questions")

	resp := srv.post(t, "/quizzes/quiz-1/next", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on next, got %d", resp.StatusCode)
	}

	msg := readNext(t, conn)
	if msg.Type != "question" {
		t.Fatalf("expected question message, got %q", msg.Type)
	}
	var q domain.Question
	if err := json.Unmarshal(msg.Payload, &q); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if q.ID != "q1" {
		t.Fatalf("expected q1, got %q", q.ID)
	}
	if strings.Contains(string(msg.Payload), "goodAnswer") {
		t.Fatalf("good answer leaked to viewers: %s", msg.Payload)
	}
}

func TestStreamsCloseNormallyAtCycleEnd(t *testing.T) {
	srv := newTestServer(t, false)
	conn := srv.dial(t, "quizId=quiz-1&topic=leaderboard")

	for i := 0; i < 3; i++ {
		srv.post(t, "/quizzes/quiz-1/next", "", "")
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) || closeErr.Code != websocket.CloseNormalClosure {
		t.Fatalf("expected normal closure, got %v", err)
	}
}

func TestStreamAfterCycleEndIsClosedImmediately(t *testing.T) {
	srv := newTestServer(t, false)
	for i := 0; i < 3; i++ {
		srv.post(t, "/quizzes/quiz-1/next", "", "")
	}

	conn := srv.dial(t, "quizId=quiz-1&topic=questions")
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal closure, got %v", err)
	}
}

func TestLeaderboardStreamAfterAnswer(t *testing.T) {
	srv := newTestServer(t, false)
	srv.post(t, "/quizzes/quiz-1/next", "", "")
	conn := srv.dial(t, "quizId=quiz-1&topic=leaderboard")

	resp := srv.post(t, "/quizzes/quiz-1/answers", "alice", `{"questionId":"q1","choiceId":"c1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on answer, got %d", resp.StatusCode)
	}
	var outcome domain.AnswerOutcome
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if !outcome.Success || outcome.RightChoice.ID != "c1" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	msg := readNext(t, conn)
	if msg.Type != "leaderboard" {
		t.Fatalf("expected leaderboard message, got %q", msg.Type)
	}
	var lb domain.Leaderboard
	if err := json.Unmarshal(msg.Payload, &lb); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(lb.List) != 1 || lb.List[0].PlayerID != "alice" || lb.List[0].Points != 1 {
		t.Fatalf("unexpected leaderboard %+v", lb.List)
	}
}

func TestRosterStream(t *testing.T) {
	srv := newTestServer(t, false)
	conn := srv.dial(t, "quizId=quiz-1&topic=players")

	resp := srv.post(t, "/quizzes/quiz-1/players", "", `{"username":"Alice"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	msg := readNext(t, conn)
	var players []domain.Player
	if err := json.Unmarshal(msg.Payload, &players); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if msg.Type != "players" || len(players) != 1 || players[0].Name != "Alice" {
		t.Fatalf("unexpected roster message %s %s", msg.Type, msg.Payload)
	}
}

func TestServeWSRejectsBadRequests(t *testing.T) {
	srv := newTestServer(t, false)
	cases := map[string]int{
		"":                            http.StatusBadRequest,
		"quizId=quiz-1&topic=answers": http.StatusBadRequest,
		"quizId=missing":              http.StatusNotFound,
	}
	for query, want := range cases {
		u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
		_, resp, err := websocket.DefaultDialer.Dial(u, nil)
		if err == nil {
			t.Fatalf("%q: expected handshake failure", query)
		}
		if resp == nil || resp.StatusCode != want {
			t.Fatalf("%q: expected status %d, got %+v", query, want, resp)
		}
	}
}
