package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chadiek/voiceloop/internal/agent"
)

// Recorder turns controller hooks into prometheus series.
type Recorder struct {
	turns         *prometheus.CounterVec
	stageFailures *prometheus.CounterVec
	stateEntries  *prometheus.CounterVec
	turnDuration  prometheus.Histogram
}

// NewRecorder registers the voiceloop collectors on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voiceloop_turns_total",
				Help: "Completed turns by outcome",
			},
			[]string{"reason"},
		),
		stageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voiceloop_stage_failures_total",
				Help: "Turns that ended the session, by failing stage",
			},
			[]string{"stage"},
		),
		stateEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voiceloop_state_entries_total",
				Help: "Controller state transitions",
			},
			[]string{"state"},
		),
		turnDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "voiceloop_turn_duration_seconds",
				Help:    "Wall time of a turn, capture included",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
		),
	}
	for _, c := range []prometheus.Collector{r.turns, r.stageFailures, r.stateEntries, r.turnDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Hooks returns controller hooks feeding this recorder.
func (r *Recorder) Hooks() agent.Hooks {
	return agent.Hooks{
		OnState: func(s agent.State) {
			r.stateEntries.WithLabelValues(s.String()).Inc()
		},
		OnTurn: r.observeTurn,
	}
}

func (r *Recorder) observeTurn(outcome agent.TurnOutcome, err error, took time.Duration) {
	r.turnDuration.Observe(took.Seconds())
	if err != nil {
		stage := "unknown"
		var se *agent.StageError
		if errors.As(err, &se) {
			stage = se.Stage.String()
		}
		r.stageFailures.WithLabelValues(stage).Inc()
		return
	}
	r.turns.WithLabelValues(outcome.Reason.String()).Inc()
}
