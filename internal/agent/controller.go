package agent

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/chadiek/voiceloop/internal/llm"
)

const (
	// ExitKeyword ends the session when spoken on its own, in any letter case.
	ExitKeyword = "exit"
	// DefaultTemperature is used for every generation request.
	DefaultTemperature = 0.7
)

// Controller drives capture -> exit check -> sentiment -> generation -> synthesis,
// one turn at a time. It is not safe for concurrent use.
type Controller struct {
	capture   Capturer
	sentiment SentimentAnalyzer
	generator Generator
	speaker   Speaker

	out   io.Writer
	log   logrus.FieldLogger
	retry RetryPolicy
	hooks Hooks

	seq int
}

// Option configures a Controller.
type Option func(*Controller)

// WithOutput sets where user-facing turn output is written. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(c *Controller) { c.out = w }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Controller) { c.log = log }
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Controller) { c.retry = p }
}

func WithHooks(h Hooks) Option {
	return func(c *Controller) { c.hooks = h }
}

func NewController(capture Capturer, analyzer SentimentAnalyzer, generator Generator, speaker Speaker, opts ...Option) *Controller {
	c := &Controller{
		capture:   capture,
		sentiment: analyzer,
		generator: generator,
		speaker:   speaker,
		out:       os.Stdout,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.out == nil {
		c.out = io.Discard
	}
	return c
}

// Run loops over turns until the exit keyword is heard (nil), a stage fails (*StageError),
// the retry policy gives up (ErrCaptureRetriesExhausted) or ctx is done (ctx.Err()).
func (c *Controller) Run(ctx context.Context) error {
	empty := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		outcome, err := c.RunTurn(ctx)
		if err != nil {
			return err
		}
		if !outcome.Continue {
			fmt.Fprintln(c.out, "Exiting the program.")
			return nil
		}
		if outcome.Reason != EmptyCapture {
			empty = 0
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		empty++
		if limit := c.retry.MaxConsecutiveEmpty; limit > 0 && empty >= limit {
			c.log.WithField("attempts", empty).Warn("giving up after consecutive empty captures")
			return fmt.Errorf("%w after %d attempts", ErrCaptureRetriesExhausted, empty)
		}
	}
}

// RunTurn executes exactly one turn.
func (c *Controller) RunTurn(ctx context.Context) (TurnOutcome, error) {
	c.seq++
	log := c.log.WithFields(logrus.Fields{
		"turn":    c.seq,
		"turn_id": uuid.NewString()[:8],
	})
	start := time.Now()
	outcome, err := c.runTurn(ctx, log)
	took := time.Since(start)
	if err != nil {
		log.WithError(err).WithField("took", took).Error("turn failed")
	} else {
		log.WithFields(logrus.Fields{"reason": outcome.Reason, "took": took}).Debug("turn finished")
	}
	if c.hooks.OnTurn != nil {
		c.hooks.OnTurn(outcome, err, took)
	}
	return outcome, err
}

func (c *Controller) runTurn(ctx context.Context, log logrus.FieldLogger) (TurnOutcome, error) {
	c.enter(AwaitInput)
	text := c.capture.Capture(ctx)

	c.enter(CheckExit)
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, ExitKeyword) {
		c.enter(Done)
		log.Info("exit keyword received")
		return TurnOutcome{Continue: false, Reason: ExitRequested}, nil
	}
	if text == "" {
		return TurnOutcome{Continue: true, Reason: EmptyCapture}, nil
	}

	c.enter(Analyze)
	result, err := c.sentiment.Analyze(ctx, text)
	if err != nil {
		return TurnOutcome{}, &StageError{Stage: Analyze, Err: err}
	}
	fmt.Fprintf(c.out, "Sentiment: %s\n", result)
	log.WithFields(logrus.Fields{"label": result.Label, "score": result.Score}).Debug("sentiment")

	c.enter(Generate)
	resp, err := c.generator.Generate(ctx, llm.Request{Prompt: text, Temperature: DefaultTemperature})
	if err != nil {
		return TurnOutcome{}, &StageError{Stage: Generate, Err: err}
	}
	fmt.Fprintf(c.out, "LLM says: %s\n", resp.Text)

	c.enter(Speak)
	if err := c.speaker.Speak(ctx, resp.Text); err != nil {
		return TurnOutcome{}, &StageError{Stage: Speak, Err: err}
	}
	return TurnOutcome{Continue: true, Reason: PipelineExecuted}, nil
}

func (c *Controller) enter(s State) {
	if c.hooks.OnState != nil {
		c.hooks.OnState(s)
	}
}
