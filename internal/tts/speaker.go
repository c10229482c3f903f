package tts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Synthesizer renders text to PCM16LE mono audio at SampleRate().
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	SampleRate() int
}

// Temp file formats.
const (
	FormatWAV = "wav"
	FormatOgg = "ogg"
)

// Speaker synthesizes a reply into a temporary audio file and plays it.
// The file never outlives a Speak call.
type Speaker struct {
	synth  Synthesizer
	player Player
	format string

	// dir holds temp files; empty means os.TempDir.
	dir string
	log logrus.FieldLogger
}

func NewSpeaker(synth Synthesizer, player Player, format string, log logrus.FieldLogger) *Speaker {
	if format == "" {
		format = FormatWAV
	}
	return &Speaker{synth: synth, player: player, format: format, log: log}
}

// Speak blocks until playback has finished.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pcm, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	if len(pcm) == 0 {
		return errors.New("synthesize: no audio returned")
	}

	f, err := os.CreateTemp(s.dir, "voiceloop-*."+s.format)
	if err != nil {
		return fmt.Errorf("temp audio file: %w", err)
	}
	path := f.Name()
	_ = f.Close()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.log.WithError(rmErr).WithField("path", path).Warn("failed to remove temp audio file")
		}
	}()

	switch s.format {
	case FormatOgg:
		err = writeOgg(path, pcm, s.synth.SampleRate())
	default:
		err = writeWAV(path, pcm, s.synth.SampleRate())
	}
	if err != nil {
		return fmt.Errorf("write audio file: %w", err)
	}

	s.log.WithFields(logrus.Fields{"path": path, "bytes": len(pcm)}).Debug("playing reply")
	if err := s.player.Play(ctx, path); err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	return nil
}
