package redis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"live-quiz-service/internal/app"
	"live-quiz-service/internal/catalog"
	"live-quiz-service/internal/domain"
)

func TestSessionMirrorSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	mirror := NewSessionMirror(newClient(mr), time.Minute)

	if err := mirror.CycleStarted(ctx, "quiz-1"); err != nil {
		t.Fatalf("cycle started: %v", err)
	}
	if !mr.Exists("quiz:session:quiz-1") {
		t.Fatalf("expected session key to be set")
	}
	if ttl := mr.TTL("quiz:session:quiz-1"); ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %v", ttl)
	}

	if err := mirror.CycleEnded(ctx, "quiz-1"); err != nil {
		t.Fatalf("cycle ended: %v", err)
	}
	if mr.Exists("quiz:session:quiz-1") {
		t.Fatalf("expected session key to be removed")
	}
}

func TestSessionMirrorReplacesLeaderboard(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	mirror := NewSessionMirror(newClient(mr), time.Minute)
	_ = mirror.CycleStarted(ctx, "quiz-1")

	lb := domain.Leaderboard{
		Quiz: domain.Quiz{ID: "quiz-1"},
		List: []domain.Standing{
			{PlayerID: "p1", QuizID: "quiz-1", Points: 2},
			{PlayerID: "p2", QuizID: "quiz-1", Points: 1},
		},
	}
	if err := mirror.LeaderboardChanged(ctx, lb); err != nil {
		t.Fatalf("leaderboard changed: %v", err)
	}
	if score, err := mr.ZScore("quiz:quiz-1:leaderboard", "p1"); err != nil || score != 2 {
		t.Fatalf("expected p1=2, got %v (%v)", score, err)
	}

	lb.List = lb.List[1:]
	if err := mirror.LeaderboardChanged(ctx, lb); err != nil {
		t.Fatalf("leaderboard changed: %v", err)
	}
	members, err := mr.ZMembers("quiz:quiz-1:leaderboard")
	if err != nil {
		t.Fatalf("zmembers: %v", err)
	}
	if len(members) != 1 || members[0] != "p2" {
		t.Fatalf("expected board replaced, got %v", members)
	}

	lb.List = nil
	if err := mirror.LeaderboardChanged(ctx, lb); err != nil {
		t.Fatalf("empty leaderboard: %v", err)
	}
	if mr.Exists("quiz:quiz-1:leaderboard") {
		t.Fatalf("expected empty board to remove the key")
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func TestSessionMirrorFollowsController(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cat, err := catalog.New([]domain.Quiz{{
		ID: "quiz-1",
		Questions: []domain.Question{
			{ID: "q1", Choices: []domain.Choice{{ID: "a"}, {ID: "b"}}, GoodAnswer: "a"},
		},
	}})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	ctx := context.Background()
	controller := app.NewController(cat, app.ControllerOptions{
		Observer: NewSessionMirror(newClient(mr), time.Minute),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if _, err := controller.AdvanceQuestion(ctx, "quiz-1"); err != nil {
		t.Fatalf("advance: %v", err)
	}

	choice := "a"
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(player string) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_, _, _ = controller.SubmitAnswer(ctx, "quiz-1", player, "q1", &choice)
			}
		}(fmt.Sprintf("p%d", p))
	}
	wg.Wait()

	lb, err := controller.GetLeaderboard(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	for _, s := range lb.List {
		score, err := mr.ZScore("quiz:quiz-1:leaderboard", s.PlayerID)
		if err != nil || int(score) != s.Points {
			t.Fatalf("mirror has %s=%v (%v), engine has %d", s.PlayerID, score, err, s.Points)
		}
	}

	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(player string) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_, _, _ = controller.SubmitAnswer(ctx, "quiz-1", player, "q1", &choice)
			}
		}(fmt.Sprintf("p%d", p))
	}
	if _, err := controller.AdvanceQuestion(ctx, "quiz-1"); err != nil {
		t.Fatalf("end cycle: %v", err)
	}
	wg.Wait()

	if mr.Exists("quiz:quiz-1:leaderboard") || mr.Exists("quiz:session:quiz-1") {
		t.Fatalf("expected no mirror keys after the cycle ended")
	}
}
