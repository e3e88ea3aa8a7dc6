package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"live-quiz-service/internal/domain"
)

// PlayerStore abstracts where registered players live.
type PlayerStore interface {
	// Create stores the player, failing with domain.ErrUsernameTaken when the
	// name is already used in the same quiz.
	Create(ctx context.Context, player domain.Player) error
	Get(ctx context.Context, playerID string) (domain.Player, error)
	ListByQuiz(ctx context.Context, quizID string) ([]domain.Player, error)
}

// RegistryOptions tunes a Registry.
type RegistryOptions struct {
	Buffer int
	// RequireRegistered makes Resolve reject identities that were never registered.
	RequireRegistered bool
	Logger            *slog.Logger
}

// Registry registers players per quiz and tells roster viewers about newcomers.
type Registry struct {
	catalog           QuizCatalog
	store             PlayerStore
	rosters           *Broker[[]domain.Player]
	requireRegistered bool
	logger            *slog.Logger
	newID             func() string

	// mu orders registrations with the rosters they publish.
	mu sync.Mutex
}

// NewRegistry creates a registry for the catalog's quizzes backed by store.
func NewRegistry(catalog QuizCatalog, store PlayerStore, opts RegistryOptions) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "registry")
	return &Registry{
		catalog:           catalog,
		store:             store,
		rosters:           NewBroker[[]domain.Player](domain.EventRosterChanged, opts.Buffer, logger),
		requireRegistered: opts.RequireRegistered,
		logger:            logger,
		newID:             uuid.NewString,
	}
}

// Register creates a player for the quiz and publishes the updated roster.
func (r *Registry) Register(ctx context.Context, quizID, username string) (domain.Player, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Player{}, domain.ErrInvalidUsername
	}
	if _, ok := r.catalog.Get(quizID); !ok {
		return domain.Player{}, domain.ErrQuizNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	player := domain.Player{ID: r.newID(), Name: username, QuizID: quizID}
	if err := r.store.Create(ctx, player); err != nil {
		return domain.Player{}, err
	}
	r.logger.Info("player registered", "quiz_id", quizID, "player_id", player.ID, "name", username)

	roster, err := r.store.ListByQuiz(ctx, quizID)
	if err != nil {
		// The player exists; only the notification is lost.
		r.logger.Warn("roster lookup failed", "quiz_id", quizID, "error", err)
		return player, nil
	}
	r.rosters.Publish(quizID, roster)
	return player, nil
}

// Player looks up a registered player by ID.
func (r *Registry) Player(ctx context.Context, playerID string) (domain.Player, error) {
	return r.store.Get(ctx, playerID)
}

// Roster lists the players registered for a quiz.
func (r *Registry) Roster(ctx context.Context, quizID string) ([]domain.Player, error) {
	if _, ok := r.catalog.Get(quizID); !ok {
		return nil, domain.ErrQuizNotFound
	}
	return r.store.ListByQuiz(ctx, quizID)
}

// SubscribeRoster streams the full roster each time a player registers.
func (r *Registry) SubscribeRoster(_ context.Context, quizID string) (*Subscription[[]domain.Player], error) {
	if _, ok := r.catalog.Get(quizID); !ok {
		return nil, domain.ErrQuizNotFound
	}
	return r.rosters.Subscribe(quizID), nil
}

// Resolve turns the raw player header into a player ID. With
// RequireRegistered, unknown players count as a missing identity.
func (r *Registry) Resolve(ctx context.Context, header string) (string, error) {
	playerID := strings.TrimSpace(header)
	if playerID == "" {
		return "", domain.ErrMissingIdentity
	}
	if !r.requireRegistered {
		return playerID, nil
	}
	if _, err := r.store.Get(ctx, playerID); err != nil {
		return "", fmt.Errorf("%w: player %q: %w", domain.ErrMissingIdentity, playerID, err)
	}
	return playerID, nil
}
