package transcript

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"time"
)

// ErrNoSpeech is returned when the stream ends or times out before any voice is heard.
var ErrNoSpeech = errors.New("no speech detected")

const frameDuration = 10 * time.Millisecond

// frameBytes is one 10ms frame of 16-bit mono PCM at SampleRate.
const frameBytes = SampleRate / 100 * 2

// PhraseListener cuts one spoken phrase out of a PCM stream using frame energy.
// All durations are measured in audio time, not wall-clock time.
type PhraseListener struct {
	// RMSThreshold is the frame energy at or above which a frame counts as voice.
	RMSThreshold float64
	// Silence ends a phrase once this much continuous non-voice audio follows it.
	Silence time.Duration
	// MaxPhrase caps the phrase length.
	MaxPhrase time.Duration
	// StartTimeout gives up waiting for voice; zero waits forever.
	StartTimeout time.Duration
	// PreRoll keeps audio from just before voice onset so first syllables survive.
	PreRoll time.Duration
}

func DefaultPhraseListener() PhraseListener {
	return PhraseListener{
		RMSThreshold: 300,
		Silence:      800 * time.Millisecond,
		MaxPhrase:    15 * time.Second,
		PreRoll:      300 * time.Millisecond,
	}
}

// Listen blocks until one phrase has been heard and returns its PCM.
func (l PhraseListener) Listen(ctx context.Context, r io.Reader) ([]byte, error) {
	silenceFrames := frames(l.Silence)
	maxFrames := frames(l.MaxPhrase)
	startFrames := frames(l.StartTimeout)
	preFrames := frames(l.PreRoll)

	var (
		phrase  []byte
		pre     [][]byte
		started bool
		quiet   int
		waited  int
		total   int
	)
	frame := make([]byte, frameBytes)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(r, frame); err != nil {
			if started && (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)) {
				return phrase, nil
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, ErrNoSpeech
			}
			return nil, err
		}
		voiced := frameRMS(frame) >= l.RMSThreshold

		if !started {
			if !voiced {
				waited++
				if startFrames > 0 && waited >= startFrames {
					return nil, ErrNoSpeech
				}
				if preFrames > 0 {
					pre = append(pre, append([]byte(nil), frame...))
					if len(pre) > preFrames {
						pre = pre[1:]
					}
				}
				continue
			}
			started = true
			for _, p := range pre {
				phrase = append(phrase, p...)
			}
			total = len(pre)
			pre = nil
		}

		phrase = append(phrase, frame...)
		total++
		if voiced {
			quiet = 0
		} else {
			quiet++
		}
		if silenceFrames > 0 && quiet >= silenceFrames {
			return phrase, nil
		}
		if maxFrames > 0 && total >= maxFrames {
			return phrase, nil
		}
	}
}

func frames(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + frameDuration - 1) / frameDuration)
}

// frameRMS computes the root-mean-square energy of a PCM16LE buffer.
func frameRMS(pcm []byte) float64 {
	count := len(pcm) / 2
	if count == 0 {
		return 0
	}
	var sumSquares float64
	for i := 0; i+1 < len(pcm); i += 2 {
		v := int16(binary.LittleEndian.Uint16(pcm[i : i+2]))
		sumSquares += float64(v) * float64(v)
	}
	return math.Sqrt(sumSquares / float64(count))
}
