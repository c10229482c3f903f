package transcript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// SampleRate is the capture rate expected by the listener and recognizers (16-bit LE mono).
const SampleRate = 16000

// Microphone opens a live PCM16LE 16 kHz mono stream from the default input device.
type Microphone interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// CommandMicrophone reads raw PCM from a recorder process such as arecord or sox.
type CommandMicrophone struct {
	Command string
}

func NewCommandMicrophone(command string) *CommandMicrophone {
	return &CommandMicrophone{Command: command}
}

// Open starts the recorder. Closing the stream stops the process.
func (m *CommandMicrophone) Open(ctx context.Context) (io.ReadCloser, error) {
	fields := strings.Fields(m.Command)
	if len(fields) == 0 {
		return nil, errors.New("microphone: empty recorder command")
	}
	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("microphone: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("microphone: start %s: %w", fields[0], err)
	}
	return &recorderStream{cmd: cmd, out: out}, nil
}

type recorderStream struct {
	cmd  *exec.Cmd
	out  io.ReadCloser
	once sync.Once
}

func (r *recorderStream) Read(p []byte) (int, error) { return r.out.Read(p) }

func (r *recorderStream) Close() error {
	r.once.Do(func() {
		if r.cmd.Process != nil {
			_ = r.cmd.Process.Kill()
		}
		_ = r.out.Close()
		// non-zero exit after Kill is expected
		_ = r.cmd.Wait()
	})
	return nil
}
