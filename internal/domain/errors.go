package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no live session exists for a PIN.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrPlayerNotFound is returned when a connection acts before joining.
	ErrPlayerNotFound = errors.New("player not found in session")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNoQuestions rejects construction of a quiz without questions.
	ErrNoQuestions = errors.New("quiz must have at least one question")
	// ErrNoOptions rejects construction of a choice question without options.
	ErrNoOptions = errors.New("choice question must have at least one option")
	// ErrCorrectIndexOutOfRange rejects a correct index outside the option list.
	ErrCorrectIndexOutOfRange = errors.New("correct index out of range")
	// ErrInvalidTimeLimit rejects a non-positive question time limit.
	ErrInvalidTimeLimit = errors.New("time limit must be positive")
	// ErrNegativeScore rejects a score adjustment below zero.
	ErrNegativeScore = errors.New("score cannot go negative")
	// ErrUnknownQuestionType indicates a stored document with an
	// unrecognized question_type discriminator.
	ErrUnknownQuestionType = errors.New("unknown question type")
)
