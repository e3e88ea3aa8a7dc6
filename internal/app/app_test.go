package app_test

import (
	"io"
	"log/slog"

	"live-quiz-service/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func choices(ids ...string) []domain.Choice {
	out := make([]domain.Choice, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Choice{ID: id, Text: "choice " + id})
	}
	return out
}

// q1Quiz has two questions answered by c0 then c1.
func q1Quiz() domain.Quiz {
	return domain.Quiz{
		ID:    "Q1",
		Title: "Two steps",
		Questions: []domain.Question{
			{ID: "first", Title: "First", Choices: choices("c0", "c1", "c2"), GoodAnswer: "c0"},
			{ID: "second", Title: "Second", Choices: choices("c0", "c1", "c2"), GoodAnswer: "c1"},
		},
	}
}

func emptyQuiz() domain.Quiz {
	return domain.Quiz{ID: "empty", Title: "Nothing to ask"}
}

// staticCatalog is a minimal QuizCatalog.
type staticCatalog []domain.Quiz

func (c staticCatalog) Get(id string) (domain.Quiz, bool) {
	for _, q := range c {
		if q.ID == id {
			return q, true
		}
	}
	return domain.Quiz{}, false
}

func (c staticCatalog) All() []domain.Quiz {
	return append([]domain.Quiz(nil), c...)
}
