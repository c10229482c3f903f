package sentiment

import (
	"context"
	"strings"
	"unicode"
)

// Lexicon is an offline word-list classifier. It never fails on non-empty text.
type Lexicon struct {
	positive map[string]struct{}
	negative map[string]struct{}
}

func NewLexicon() *Lexicon {
	return &Lexicon{positive: toSet(positiveWords), negative: toSet(negativeWords)}
}

// Analyze counts polar words, flipping the word after a negator.
// The score is the share of hits that agree with the winning label.
func (l *Lexicon) Analyze(_ context.Context, text string) (Result, error) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	var pos, neg float64
	negate := false
	for _, w := range words {
		if _, ok := negators[w]; ok {
			negate = true
			continue
		}
		_, isPos := l.positive[w]
		_, isNeg := l.negative[w]
		if negate {
			isPos, isNeg = isNeg, isPos
			negate = false
		}
		if isPos {
			pos++
		}
		if isNeg {
			neg++
		}
	}

	switch {
	case pos == 0 && neg == 0, pos == neg:
		return Result{Label: Neutral, Score: 0.5}, nil
	case pos > neg:
		return Result{Label: Positive, Score: clamp01(pos / (pos + neg))}, nil
	default:
		return Result{Label: Negative, Score: clamp01(neg / (pos + neg))}, nil
	}
}

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "don't": {}, "doesn't": {}, "isn't": {}, "wasn't": {}, "can't": {},
}

var positiveWords = []string{
	"love", "like", "great", "good", "happy", "wonderful", "awesome", "amazing", "nice", "excellent",
	"glad", "fantastic", "enjoy", "thanks", "thank", "perfect", "beautiful", "fun", "best", "cool",
}

var negativeWords = []string{
	"hate", "bad", "sad", "terrible", "awful", "angry", "horrible", "worst", "annoying", "upset",
	"boring", "ugly", "wrong", "disappointed", "tired", "sick", "broken", "hurt", "afraid", "poor",
}
