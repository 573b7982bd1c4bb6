package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a client has not opened a quiz session.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionNotActive is returned when an answer or skip arrives with no current question.
	ErrSessionNotActive = errors.New("quiz session not active")
	// ErrTransitionPending is returned when input arrives while feedback is still showing.
	ErrTransitionPending = errors.New("feedback still pending")
	// ErrSkipNotAllowed indicates the current question is not yet eligible for skipping.
	ErrSkipNotAllowed = errors.New("question cannot be skipped yet")
	// ErrNothingToReview is returned when a review is requested without any mistakes.
	ErrNothingToReview = errors.New("no mistakes to review")
	// ErrNoQuestionSet is returned by restart before any set was started.
	ErrNoQuestionSet = errors.New("no question set loaded")
	// ErrQuestionSetNotFound indicates the question set could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrEmptyQuestionSet indicates a source produced no valid questions.
	ErrEmptyQuestionSet = errors.New("no valid questions found")
	// ErrInvalidQuestion indicates a question does not have the expected shape.
	ErrInvalidQuestion = errors.New("invalid question")
)
