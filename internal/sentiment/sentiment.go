package sentiment

import (
	"context"
	"fmt"
	"strings"
)

// Label is a classification label such as POSITIVE or NEGATIVE.
type Label string

const (
	Positive Label = "POSITIVE"
	Negative Label = "NEGATIVE"
	Neutral  Label = "NEUTRAL"
)

// Result is one classification with its confidence in [0,1].
type Result struct {
	Label Label   `json:"label"`
	Score float64 `json:"score"`
}

// String renders the result the way it is reported to the user.
func (r Result) String() string {
	return fmt.Sprintf("%s (%.2f)", r.Label, r.Score)
}

// Analyzer classifies a single utterance.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (Result, error)
}

func normalizeLabel(raw string) Label {
	switch l := strings.ToUpper(strings.TrimSpace(raw)); l {
	case "LABEL_0", "NEG":
		return Negative
	case "LABEL_1", "NEU":
		return Neutral
	case "LABEL_2", "POS":
		return Positive
	default:
		return Label(l)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
