package transcript

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pcmFrames builds n 10ms frames filled with a constant sample value.
func pcmFrames(n int, value int16) []byte {
	out := make([]byte, n*frameBytes)
	for i := 0; i < len(out); i += 2 {
		binary.LittleEndian.PutUint16(out[i:i+2], uint16(value))
	}
	return out
}

func concat(parts ...[]byte) []byte { return bytes.Join(parts, nil) }

func TestFrameRMS(t *testing.T) {
	assert.InDelta(t, 3000, frameRMS(pcmFrames(1, 3000)), 0.001)
	assert.InDelta(t, 3000, frameRMS(pcmFrames(1, -3000)), 0.001)
	assert.Zero(t, frameRMS(nil))
}

func TestListen_CutsPhraseAfterSilence(t *testing.T) {
	l := PhraseListener{RMSThreshold: 300, Silence: 50 * time.Millisecond, PreRoll: 20 * time.Millisecond}
	stream := concat(pcmFrames(10, 0), pcmFrames(20, 3000), pcmFrames(5, 0), pcmFrames(40, 3000))

	pcm, err := l.Listen(context.Background(), bytes.NewReader(stream))
	require.NoError(t, err)
	// 2 pre-roll frames + 20 voiced + 5 trailing silent frames
	assert.Len(t, pcm, (2+20+5)*frameBytes)
}

func TestListen_MaxPhrase(t *testing.T) {
	l := PhraseListener{RMSThreshold: 300, Silence: time.Second, MaxPhrase: 100 * time.Millisecond}
	pcm, err := l.Listen(context.Background(), bytes.NewReader(pcmFrames(50, 3000)))
	require.NoError(t, err)
	assert.Len(t, pcm, 10*frameBytes)
}

func TestListen_NoSpeech(t *testing.T) {
	l := DefaultPhraseListener()
	_, err := l.Listen(context.Background(), bytes.NewReader(pcmFrames(30, 10)))
	assert.ErrorIs(t, err, ErrNoSpeech)

	l.StartTimeout = 100 * time.Millisecond
	_, err = l.Listen(context.Background(), bytes.NewReader(pcmFrames(300, 10)))
	assert.ErrorIs(t, err, ErrNoSpeech)
}

func TestListen_EOFAfterVoiceReturnsPhrase(t *testing.T) {
	l := DefaultPhraseListener()
	pcm, err := l.Listen(context.Background(), bytes.NewReader(pcmFrames(12, 3000)))
	require.NoError(t, err)
	assert.Len(t, pcm, 12*frameBytes)
}

func TestListen_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DefaultPhraseListener().Listen(ctx, bytes.NewReader(pcmFrames(10, 3000)))
	assert.ErrorIs(t, err, context.Canceled)
}
