package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz is not part of the catalog.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrPlayerNotFound is returned for unknown player IDs.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrNoActiveQuestion is returned when answering while the quiz is not in progress.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrMissingIdentity is returned when a request carries no player identity.
	ErrMissingIdentity = errors.New("missing player identity")
	// ErrUsernameTaken is returned when a username is already registered for the quiz.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidUsername rejects blank usernames.
	ErrInvalidUsername = errors.New("invalid username")
)
