package rag

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery is returned for a blank question.
var ErrEmptyQuery = errors.New("query cannot be empty")

// Stages of answering a query
const (
	StageRetrieve = "retrieve"
	StageGenerate = "generate"
)

// AnswerGenerationError reports a failed query. The service stays usable.
type AnswerGenerationError struct {
	Stage string
	Err   error
}

func (e *AnswerGenerationError) Error() string {
	return fmt.Sprintf("failed to answer (%s): %v", e.Stage, e.Err)
}

func (e *AnswerGenerationError) Unwrap() error {
	return e.Err
}
