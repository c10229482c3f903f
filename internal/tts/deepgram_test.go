package tts

import (
	"context"
	"testing"
	"time"

	"github.com/chadiek/voiceloop/internal/logging"
	"github.com/stretchr/testify/assert"
)

// Smoke test for Synthesize without an API key; it should error quickly.
func TestDeepgram_Synthesize_NoKey(t *testing.T) {
	d := NewDeepgramClient("", "", logging.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err := d.Synthesize(ctx, "hello")
	assert.Error(t, err)
	assert.Equal(t, DeepgramSampleRate, d.SampleRate())
}

func TestDeepgram_Synthesize_EmptyText(t *testing.T) {
	d := NewDeepgramClient("key", "", logging.NewNop())
	pcm, err := d.Synthesize(context.Background(), "")
	assert.NoError(t, err)
	assert.Empty(t, pcm)
}
