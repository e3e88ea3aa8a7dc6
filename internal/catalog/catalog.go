// Package catalog holds the quiz content. It is loaded once at startup and
// never modified afterwards.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"live-quiz-service/internal/domain"
)

// ErrInvalidCatalog wraps every validation failure.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is an immutable, ordered set of quizzes.
type Catalog struct {
	order []string
	byID  map[string]domain.Quiz
}

// New validates quizzes and builds a catalog preserving their order.
func New(quizzes []domain.Quiz) (*Catalog, error) {
	if err := Validate(quizzes); err != nil {
		return nil, err
	}
	c := &Catalog{
		order: make([]string, 0, len(quizzes)),
		byID:  make(map[string]domain.Quiz, len(quizzes)),
	}
	for _, quiz := range quizzes {
		c.order = append(c.order, quiz.ID)
		c.byID[quiz.ID] = quiz
	}
	return c, nil
}

// Load reads a source and builds the catalog.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	quizzes, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return New(quizzes)
}

func (c *Catalog) Get(quizID string) (domain.Quiz, bool) {
	quiz, ok := c.byID[quizID]
	return quiz, ok
}

// All returns the quizzes in load order.
func (c *Catalog) All() []domain.Quiz {
	out := make([]domain.Quiz, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.order)
}

// Validate checks identifiers are present and unique at every level and that
// each question's good answer is one of its choices.
func Validate(quizzes []domain.Quiz) error {
	seenQuiz := make(map[string]struct{}, len(quizzes))
	for _, quiz := range quizzes {
		if quiz.ID == "" {
			return fmt.Errorf("%w: quiz without id", ErrInvalidCatalog)
		}
		if _, dup := seenQuiz[quiz.ID]; dup {
			return fmt.Errorf("%w: duplicate quiz %q", ErrInvalidCatalog, quiz.ID)
		}
		seenQuiz[quiz.ID] = struct{}{}

		seenQuestion := make(map[string]struct{}, len(quiz.Questions))
		for _, q := range quiz.Questions {
			if q.ID == "" {
				return fmt.Errorf("%w: quiz %q has a question without id", ErrInvalidCatalog, quiz.ID)
			}
			if _, dup := seenQuestion[q.ID]; dup {
				return fmt.Errorf("%w: quiz %q has duplicate question %q", ErrInvalidCatalog, quiz.ID, q.ID)
			}
			seenQuestion[q.ID] = struct{}{}

			seenChoice := make(map[string]struct{}, len(q.Choices))
			for _, choice := range q.Choices {
				if _, dup := seenChoice[choice.ID]; dup {
					return fmt.Errorf("%w: question %q/%q has duplicate choice %q", ErrInvalidCatalog, quiz.ID, q.ID, choice.ID)
				}
				seenChoice[choice.ID] = struct{}{}
			}
			if _, ok := q.RightChoice(); !ok {
				return fmt.Errorf("%w: question %q/%q: good answer %q is not a choice", ErrInvalidCatalog, quiz.ID, q.ID, q.GoodAnswer)
			}
		}
	}
	return nil
}
