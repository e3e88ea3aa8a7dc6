package domain

// Choice is one selectable answer of a question.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question models an MCQ question with exactly one correct choice.
// GoodAnswer is never sent to clients.
type Question struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Choices    []Choice `json:"choices"`
	GoodAnswer string   `json:"-"`
}

// RightChoice returns the choice designated as correct.
func (q Question) RightChoice() (Choice, bool) {
	for _, c := range q.Choices {
		if c.ID == q.GoodAnswer {
			return c, true
		}
	}
	return Choice{}, false
}

// Quiz is an ordered collection of questions. Question order is fixed once loaded.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Standing is a player's accumulated points for a quiz.
type Standing struct {
	PlayerID string `json:"id"`
	QuizID   string `json:"quizId"`
	Points   int    `json:"points"`
}

// Leaderboard captures the ranked scoreboard of a quiz's current cycle.
type Leaderboard struct {
	Quiz Quiz       `json:"quiz"`
	List []Standing `json:"list"`
}

// AnswerOutcome summarizes a submission. RightChoice is revealed either way.
type AnswerOutcome struct {
	Success     bool   `json:"success"`
	RightChoice Choice `json:"rightChoice"`
}

// Player is a registered participant of a quiz.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	QuizID string `json:"quizId"`
}

// EventKind names a notification stream.
type EventKind string

const (
	EventQuestionAdvanced   EventKind = "question-advanced"
	EventLeaderboardUpdated EventKind = "leaderboard-updated"
	EventRosterChanged      EventKind = "roster-changed"
)
