package app

import (
	"context"
	"log/slog"

	"live-quiz-service/internal/domain"
)

// QuizCatalog provides the immutable quiz content.
type QuizCatalog interface {
	Get(quizID string) (domain.Quiz, bool)
	All() []domain.Quiz
}

// SessionObserver is told about session changes (Redis projection, etc).
// Calls for one quiz are made in transition order while the session is
// locked, so implementations must not call back into the Controller.
// Errors are logged and otherwise ignored.
type SessionObserver interface {
	CycleStarted(ctx context.Context, quizID string) error
	CycleEnded(ctx context.Context, quizID string) error
	LeaderboardChanged(ctx context.Context, lb domain.Leaderboard) error
}

// ControllerOptions tunes a Controller. Zero values select defaults.
type ControllerOptions struct {
	Buffer   int
	Observer SessionObserver
	Logger   *slog.Logger
}

// Controller drives quiz sessions: it advances questions, scores answers and
// publishes the resulting events.
type Controller struct {
	catalog   QuizCatalog
	sessions  *SessionStore
	questions *Broker[domain.Question]
	boards    *Broker[domain.Leaderboard]
	observer  SessionObserver
	logger    *slog.Logger
}

// NewController creates idle sessions for every catalog quiz.
func NewController(catalog QuizCatalog, opts ControllerOptions) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "controller")
	return &Controller{
		catalog:   catalog,
		sessions:  NewSessionStore(catalog.All()),
		questions: NewBroker[domain.Question](domain.EventQuestionAdvanced, opts.Buffer, logger),
		boards:    NewBroker[domain.Leaderboard](domain.EventLeaderboardUpdated, opts.Buffer, logger),
		observer:  opts.Observer,
		logger:    logger,
	}
}

// AdvanceQuestion reveals the next question of the quiz, or returns nil when
// the cycle is over. Ending a cycle closes every question and leaderboard
// stream of the quiz.
func (c *Controller) AdvanceQuestion(ctx context.Context, quizID string) (*domain.Question, error) {
	step, err := c.sessions.Advance(quizID, func(step Advanced) {
		if step.NewCycle {
			c.notify(ctx, "cycle started", func(o SessionObserver) error { return o.CycleStarted(ctx, quizID) })
		}
		if step.Question == nil {
			c.questions.Retire(quizID)
			c.boards.Retire(quizID)
			c.notify(ctx, "cycle ended", func(o SessionObserver) error { return o.CycleEnded(ctx, quizID) })
			return
		}
		c.questions.Publish(quizID, *step.Question)
	})
	if err != nil {
		return nil, err
	}

	if step.NewCycle {
		c.logger.Info("quiz cycle started", "quiz_id", quizID)
	}
	if step.Question == nil {
		c.logger.Info("quiz cycle ended", "quiz_id", quizID)
		return nil, nil
	}
	c.logger.Debug("question advanced", "quiz_id", quizID, "question_id", step.Question.ID, "index", step.Index)
	return step.Question, nil
}

// SubmitAnswer scores playerID's answer to the active question and publishes
// the refreshed leaderboard. The active question is always the one scored;
// questionID is what the client believes it answered and is only logged. An
// answer racing with an advance is rejected rather than scored against the
// next question.
func (c *Controller) SubmitAnswer(ctx context.Context, quizID, playerID, questionID string, choiceID *string) (domain.AnswerOutcome, domain.Leaderboard, error) {
	if playerID == "" {
		return domain.AnswerOutcome{}, domain.Leaderboard{}, domain.ErrMissingIdentity
	}
	quiz, ok := c.catalog.Get(quizID)
	if !ok {
		return domain.AnswerOutcome{}, domain.Leaderboard{}, domain.ErrQuizNotFound
	}

	question, err := c.sessions.CurrentQuestion(quizID)
	if err != nil {
		return domain.AnswerOutcome{}, domain.Leaderboard{}, err
	}
	if question == nil {
		return domain.AnswerOutcome{}, domain.Leaderboard{}, domain.ErrNoActiveQuestion
	}
	correct, right := Evaluate(*question, choiceID)

	var lb domain.Leaderboard
	total, err := c.sessions.RecordAnswer(quizID, playerID, question.ID, correct, func(scores map[string]int) {
		lb = Rank(quiz, scores)
		c.boards.Publish(quizID, lb)
		c.notify(ctx, "leaderboard changed", func(o SessionObserver) error { return o.LeaderboardChanged(ctx, lb) })
	})
	if err != nil {
		return domain.AnswerOutcome{}, domain.Leaderboard{}, err
	}

	c.logger.Debug("answer recorded",
		"quiz_id", quizID,
		"player_id", playerID,
		"question_id", question.ID,
		"client_question_id", questionID,
		"correct", correct,
		"total", total,
	)

	return domain.AnswerOutcome{Success: correct, RightChoice: right}, lb, nil
}

// SubscribeQuestions streams the questions revealed from now on. Once a cycle
// has ended, and until the next one starts, the returned stream is already closed.
func (c *Controller) SubscribeQuestions(_ context.Context, quizID string) (*Subscription[domain.Question], error) {
	var sub *Subscription[domain.Question]
	err := c.sessions.Observe(quizID, func(st State) {
		if st.Finished {
			sub = Closed[domain.Question]()
			return
		}
		sub = c.questions.Subscribe(quizID)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// SubscribeLeaderboard streams leaderboard updates, with the same end-of-cycle
// rule as SubscribeQuestions.
func (c *Controller) SubscribeLeaderboard(_ context.Context, quizID string) (*Subscription[domain.Leaderboard], error) {
	var sub *Subscription[domain.Leaderboard]
	err := c.sessions.Observe(quizID, func(st State) {
		if st.Finished {
			sub = Closed[domain.Leaderboard]()
			return
		}
		sub = c.boards.Subscribe(quizID)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// GetLeaderboard ranks the current cycle's scores. The snapshot is taken
// after every answer that completed before the call.
func (c *Controller) GetLeaderboard(_ context.Context, quizID string) (domain.Leaderboard, error) {
	quiz, ok := c.catalog.Get(quizID)
	if !ok {
		return domain.Leaderboard{}, domain.ErrQuizNotFound
	}
	scores, err := c.sessions.SnapshotScores(quizID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return Rank(quiz, scores), nil
}

// CurrentQuestion returns the active question, nil between cycles.
func (c *Controller) CurrentQuestion(_ context.Context, quizID string) (*domain.Question, error) {
	return c.sessions.CurrentQuestion(quizID)
}

// PlayerPoints returns the player's points in the current cycle.
func (c *Controller) PlayerPoints(_ context.Context, quizID, playerID string) (domain.Standing, error) {
	points, err := c.sessions.Points(quizID, playerID)
	if err != nil {
		return domain.Standing{}, err
	}
	return domain.Standing{PlayerID: playerID, QuizID: quizID, Points: points}, nil
}

// ListQuizzes returns the catalog in load order.
func (c *Controller) ListQuizzes(_ context.Context) []domain.Quiz {
	return c.catalog.All()
}

// GetQuiz looks a quiz up by ID.
func (c *Controller) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	quiz, ok := c.catalog.Get(quizID)
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

// Watchers reports how many live question and leaderboard streams the quiz has.
func (c *Controller) Watchers(quizID string) (questions, leaderboards int) {
	return c.questions.Subscribers(quizID), c.boards.Subscribers(quizID)
}

func (c *Controller) notify(ctx context.Context, what string, fn func(SessionObserver) error) {
	if c.observer == nil {
		return
	}
	if err := fn(c.observer); err != nil {
		c.logger.WarnContext(ctx, "session observer failed", "event", what, "error", err)
	}
}
