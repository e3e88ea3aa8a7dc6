package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"live-quiz-service/internal/domain"
)

// SessionMirror projects live quiz sessions into Redis for external readers
// (dashboards, other tools). It implements app.SessionObserver. The engine
// never reads these keys back.
//
//	quiz:session:{quizID}      "1" while a cycle is running, refreshed on activity
//	quiz:{quizID}:leaderboard  ZSET player -> points of the running cycle
type SessionMirror struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionMirror writes through client; ttl bounds how long keys of an
// abandoned cycle survive.
func NewSessionMirror(client *redis.Client, ttl time.Duration) *SessionMirror {
	return &SessionMirror{client: client, ttl: ttl}
}

// CycleStarted marks the quiz live and drops any board left from an earlier cycle.
func (m *SessionMirror) CycleStarted(ctx context.Context, quizID string) error {
	pipe := m.client.TxPipeline()
	pipe.Set(ctx, m.sessionKey(quizID), "1", m.ttl)
	pipe.Del(ctx, m.boardKey(quizID))
	_, err := pipe.Exec(ctx)
	return err
}

// CycleEnded removes both keys of the quiz.
func (m *SessionMirror) CycleEnded(ctx context.Context, quizID string) error {
	return m.client.Del(ctx, m.sessionKey(quizID), m.boardKey(quizID)).Err()
}

// LeaderboardChanged replaces the mirrored board with lb.
func (m *SessionMirror) LeaderboardChanged(ctx context.Context, lb domain.Leaderboard) error {
	quizID := lb.Quiz.ID
	boardKey := m.boardKey(quizID)

	pipe := m.client.TxPipeline()
	pipe.Del(ctx, boardKey)
	if len(lb.List) > 0 {
		members := make([]redis.Z, 0, len(lb.List))
		for _, s := range lb.List {
			members = append(members, redis.Z{Score: float64(s.Points), Member: s.PlayerID})
		}
		pipe.ZAdd(ctx, boardKey, members...)
		if m.ttl > 0 {
			pipe.Expire(ctx, boardKey, m.ttl)
		}
	}
	if m.ttl > 0 {
		pipe.Expire(ctx, m.sessionKey(quizID), m.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (m *SessionMirror) sessionKey(quizID string) string {
	return "quiz:session:" + quizID
}

func (m *SessionMirror) boardKey(quizID string) string {
	return "quiz:" + quizID + ":leaderboard"
}
