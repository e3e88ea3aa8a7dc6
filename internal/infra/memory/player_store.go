package memory

import (
	"context"
	"sync"

	"live-quiz-service/internal/domain"
)

// PlayerStore is an in-memory implementation of app.PlayerStore.
type PlayerStore struct {
	mu      sync.RWMutex
	players map[string]domain.Player
	// names indexes usernames per quiz.
	names map[string]map[string]string
	// order keeps registration order per quiz.
	order map[string][]string
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{
		players: make(map[string]domain.Player),
		names:   make(map[string]map[string]string),
		order:   make(map[string][]string),
	}
}

func (s *PlayerStore) Create(_ context.Context, player domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName, ok := s.names[player.QuizID]
	if !ok {
		byName = make(map[string]string)
		s.names[player.QuizID] = byName
	}
	if _, taken := byName[player.Name]; taken {
		return domain.ErrUsernameTaken
	}

	byName[player.Name] = player.ID
	s.players[player.ID] = player
	s.order[player.QuizID] = append(s.order[player.QuizID], player.ID)
	return nil
}

func (s *PlayerStore) Get(_ context.Context, playerID string) (domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[playerID]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return player, nil
}

// ListByQuiz returns the quiz's players in registration order.
func (s *PlayerStore) ListByQuiz(_ context.Context, quizID string) ([]domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.order[quizID]
	out := make([]domain.Player, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.players[id])
	}
	return out, nil
}
