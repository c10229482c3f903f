package transcript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrNotRecognized means the recognizer heard audio but produced no text.
var ErrNotRecognized = errors.New("speech not recognized")

// Recognizer turns one phrase of 16 kHz PCM16LE mono into text.
type Recognizer interface {
	Recognize(ctx context.Context, pcm []byte) (string, error)
}

// Capturer listens for one phrase on the microphone and transcribes it.
// Every failure degrades to an empty utterance.
type Capturer struct {
	mic        Microphone
	listener   PhraseListener
	recognizer Recognizer
	out        io.Writer
	log        logrus.FieldLogger
}

func NewCapturer(mic Microphone, listener PhraseListener, recognizer Recognizer, out io.Writer, log logrus.FieldLogger) *Capturer {
	if out == nil {
		out = io.Discard
	}
	return &Capturer{mic: mic, listener: listener, recognizer: recognizer, out: out, log: log}
}

// Capture returns the recognized text, or "" when nothing usable was heard.
func (c *Capturer) Capture(ctx context.Context) string {
	fmt.Fprintln(c.out, "Speak now...")
	text, err := c.listenAndRecognize(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.log.WithError(err).Warn("speech recognition failed")
			fmt.Fprintln(c.out, "Speech Recognition failed.")
		}
		return ""
	}
	fmt.Fprintln(c.out, "You said:", text)
	return text
}

func (c *Capturer) listenAndRecognize(ctx context.Context) (string, error) {
	stream, err := c.mic.Open(ctx)
	if err != nil {
		return "", err
	}
	pcm, err := c.listener.Listen(ctx, stream)
	_ = stream.Close()
	if err != nil {
		return "", err
	}
	c.log.WithField("bytes", len(pcm)).Debug("phrase captured")

	text, err := c.recognizer.Recognize(ctx, pcm)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNotRecognized
	}
	return text, nil
}
