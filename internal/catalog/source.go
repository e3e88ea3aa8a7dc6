package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	"live-quiz-service/internal/domain"
)

//go:embed quizzes.json
var bundled []byte

// Source loads quiz definitions (embedded file, local file, database).
type Source interface {
	Load(ctx context.Context) ([]domain.Quiz, error)
}

// Record is the on-disk and in-database shape of a quiz. Unlike domain.Quiz it
// carries the good answer of every question.
type Record struct {
	ID        string           `json:"id" yaml:"id"`
	Title     string           `json:"title" yaml:"title"`
	Questions []QuestionRecord `json:"questions" yaml:"questions"`
}

type QuestionRecord struct {
	ID         string          `json:"id" yaml:"id"`
	Title      string          `json:"title" yaml:"title"`
	Choices    []domain.Choice `json:"choices" yaml:"choices"`
	GoodAnswer string          `json:"goodAnswer" yaml:"goodAnswer"`
}

// ToDomain converts the record into a domain quiz.
func (r Record) ToDomain() domain.Quiz {
	questions := make([]domain.Question, 0, len(r.Questions))
	for _, q := range r.Questions {
		questions = append(questions, domain.Question{
			ID:         q.ID,
			Title:      q.Title,
			Choices:    append([]domain.Choice(nil), q.Choices...),
			GoodAnswer: q.GoodAnswer,
		})
	}
	return domain.Quiz{ID: r.ID, Title: r.Title, Questions: questions}
}

// FromDomain is the inverse of ToDomain.
func FromDomain(quiz domain.Quiz) Record {
	questions := make([]QuestionRecord, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions = append(questions, QuestionRecord{
			ID:         q.ID,
			Title:      q.Title,
			Choices:    append([]domain.Choice(nil), q.Choices...),
			GoodAnswer: q.GoodAnswer,
		})
	}
	return Record{ID: quiz.ID, Title: quiz.Title, Questions: questions}
}

type bytesSource struct {
	name   string
	data   []byte
	isYAML bool
}

// Embedded returns the catalog bundled with the binary.
func Embedded() Source {
	return bytesSource{name: "embedded", data: bundled}
}

// File reads a JSON or YAML (by extension) catalog from disk.
func File(path string) Source {
	return fileSource(path)
}

type fileSource string

func (f fileSource) Load(ctx context.Context) ([]domain.Quiz, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(string(f)))
	return bytesSource{
		name:   string(f),
		data:   data,
		isYAML: ext == ".yaml" || ext == ".yml",
	}.Load(ctx)
}

func (s bytesSource) Load(_ context.Context) ([]domain.Quiz, error) {
	var records []Record
	if s.isYAML {
		if err := yaml.Unmarshal(s.data, &records); err != nil {
			return nil, fmt.Errorf("decode %s catalog: %w", s.name, err)
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(s.data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode %s catalog: %w", s.name, err)
		}
	}

	quizzes := make([]domain.Quiz, 0, len(records))
	for _, r := range records {
		quizzes = append(quizzes, r.ToDomain())
	}
	return quizzes, nil
}
