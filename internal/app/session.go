package app

import (
	"sync"

	"live-quiz-service/internal/domain"
)

// notStarted marks a quiz that is between cycles.
const notStarted = -1

// State is a read-only view of a quiz session.
type State struct {
	Index     int
	Questions int
	// Finished is set once a cycle ended and cleared when the next one starts.
	Finished bool
}

// InProgress reports whether a question is currently active.
func (s State) InProgress() bool {
	return s.Index != notStarted
}

// Advanced describes the outcome of a single advance step.
type Advanced struct {
	// Question is nil when the cycle ended.
	Question *domain.Question
	Index    int
	// NewCycle is set when the step started a cycle and cleared the scores.
	NewCycle bool
}

// SessionStore keeps the per-quiz question pointer and score table.
// Sessions are created for every catalog quiz up front; the map itself is never
// written afterwards, so only the per-quiz locks are taken.
type SessionStore struct {
	sessions map[string]*session
}

type session struct {
	mu       sync.RWMutex
	quiz     domain.Quiz
	index    int
	finished bool
	scores   map[string]int
}

// NewSessionStore creates one idle session per quiz.
func NewSessionStore(quizzes []domain.Quiz) *SessionStore {
	sessions := make(map[string]*session, len(quizzes))
	for _, quiz := range quizzes {
		sessions[quiz.ID] = &session{
			quiz:   quiz,
			index:  notStarted,
			scores: make(map[string]int),
		}
	}
	return &SessionStore{sessions: sessions}
}

func (s *SessionStore) get(quizID string) (*session, error) {
	sess, ok := s.sessions[quizID]
	if !ok {
		return nil, domain.ErrQuizNotFound
	}
	return sess, nil
}

// Advance moves the quiz to its next question. Leaving the idle state starts a
// new cycle with an empty score table; stepping past the last question ends the
// cycle, resets the pointer and clears the scores.
// emit, if set, runs under the session's write lock so that callers observe
// transitions in the order they happened.
func (s *SessionStore) Advance(quizID string, emit func(Advanced)) (Advanced, error) {
	sess, err := s.get(quizID)
	if err != nil {
		return Advanced{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	var step Advanced
	if sess.index == notStarted {
		clear(sess.scores)
		sess.finished = false
		step.NewCycle = true
	}
	sess.index++

	if sess.index == len(sess.quiz.Questions) {
		sess.index = notStarted
		sess.finished = true
		clear(sess.scores)
	} else {
		q := sess.quiz.Questions[sess.index]
		step.Question = &q
	}
	step.Index = sess.index

	if emit != nil {
		emit(step)
	}
	return step, nil
}

// RecordAnswer adds one point for a correct answer and zero otherwise, creating
// the player's entry if needed. The answer only counts while questionID is
// still the active question; otherwise ErrNoActiveQuestion is returned.
// emit receives the live score table under the write lock and must not retain it.
func (s *SessionStore) RecordAnswer(quizID, playerID, questionID string, correct bool, emit func(scores map[string]int)) (int, error) {
	sess, err := s.get(quizID)
	if err != nil {
		return 0, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.index == notStarted || sess.quiz.Questions[sess.index].ID != questionID {
		return 0, domain.ErrNoActiveQuestion
	}

	incr := 0
	if correct {
		incr = 1
	}
	sess.scores[playerID] += incr
	total := sess.scores[playerID]

	if emit != nil {
		emit(sess.scores)
	}
	return total, nil
}

// CurrentQuestion returns the active question, or nil between cycles.
func (s *SessionStore) CurrentQuestion(quizID string) (*domain.Question, error) {
	sess, err := s.get(quizID)
	if err != nil {
		return nil, err
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()
	if sess.index == notStarted {
		return nil, nil
	}
	q := sess.quiz.Questions[sess.index]
	return &q, nil
}

// SnapshotScores copies the score table of the current cycle.
func (s *SessionStore) SnapshotScores(quizID string) (map[string]int, error) {
	sess, err := s.get(quizID)
	if err != nil {
		return nil, err
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()
	out := make(map[string]int, len(sess.scores))
	for player, points := range sess.scores {
		out[player] = points
	}
	return out, nil
}

// Points returns a player's total in the current cycle; absent players have zero.
func (s *SessionStore) Points(quizID, playerID string) (int, error) {
	sess, err := s.get(quizID)
	if err != nil {
		return 0, err
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()
	return sess.scores[playerID], nil
}

// Observe runs fn with the session state while holding the read lock, so no
// transition can happen until fn returns.
func (s *SessionStore) Observe(quizID string, fn func(State)) error {
	sess, err := s.get(quizID)
	if err != nil {
		return err
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()
	fn(State{
		Index:     sess.index,
		Questions: len(sess.quiz.Questions),
		Finished:  sess.finished,
	})
	return nil
}
