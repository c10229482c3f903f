package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chadiek/voiceloop/internal/agent"
)

func TestRecorder_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	h := r.Hooks()
	h.OnState(agent.AwaitInput)
	h.OnState(agent.AwaitInput)
	h.OnState(agent.Generate)
	h.OnTurn(agent.TurnOutcome{Continue: true, Reason: agent.PipelineExecuted}, nil, 2*time.Second)
	h.OnTurn(agent.TurnOutcome{Continue: true, Reason: agent.EmptyCapture}, nil, time.Second)
	h.OnTurn(agent.TurnOutcome{}, &agent.StageError{Stage: agent.Generate, Err: errors.New("500")}, time.Second)
	h.OnTurn(agent.TurnOutcome{}, errors.New("other"), time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.stateEntries.WithLabelValues("await_input")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stateEntries.WithLabelValues("generate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.turns.WithLabelValues("pipeline_executed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.turns.WithLabelValues("empty_capture")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stageFailures.WithLabelValues("generate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stageFailures.WithLabelValues("unknown")))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var observed uint64
	for _, mf := range mfs {
		if mf.GetName() == "voiceloop_turn_duration_seconds" {
			observed = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.EqualValues(t, 4, observed)
}

func TestNewRecorder_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)
	_, err = NewRecorder(reg)
	assert.Error(t, err)
}
