package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chadiek/voiceloop/internal/llm"
	"github.com/chadiek/voiceloop/internal/sentiment"
)

// Capturer returns one recognized utterance. It never fails; "" means nothing usable was heard.
type Capturer interface {
	Capture(ctx context.Context) string
}

// SentimentAnalyzer classifies an utterance.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (sentiment.Result, error)
}

// Generator produces a single reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (llm.Response, error)
}

// Speaker renders text as audio and blocks until playback has finished.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// State is a step of the per-turn state machine.
type State int

const (
	AwaitInput State = iota
	CheckExit
	Analyze
	Generate
	Speak
	Done
)

func (s State) String() string {
	switch s {
	case AwaitInput:
		return "await_input"
	case CheckExit:
		return "check_exit"
	case Analyze:
		return "analyze"
	case Generate:
		return "generate"
	case Speak:
		return "speak"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Reason says which of the three mutually exclusive turn results occurred.
type Reason int

const (
	EmptyCapture Reason = iota + 1
	ExitRequested
	PipelineExecuted
)

func (r Reason) String() string {
	switch r {
	case EmptyCapture:
		return "empty_capture"
	case ExitRequested:
		return "exit_requested"
	case PipelineExecuted:
		return "pipeline_executed"
	default:
		return "unknown"
	}
}

// TurnOutcome is the result of a turn that did not fail.
type TurnOutcome struct {
	Continue bool
	Reason   Reason
}

// StageError is a failure of the analyze, generate or speak stage. It ends the session.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ErrCaptureRetriesExhausted is returned by Run when too many consecutive captures were empty.
var ErrCaptureRetriesExhausted = errors.New("capture retries exhausted")

// RetryPolicy bounds how many empty captures in a row Run tolerates.
// Zero means unbounded.
type RetryPolicy struct {
	MaxConsecutiveEmpty int
}

// Hooks observe the controller. Nil fields are skipped.
type Hooks struct {
	OnState func(State)
	// OnTurn receives the outcome, or the error that ended the turn.
	OnTurn func(outcome TurnOutcome, err error, took time.Duration)
}
