package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Player plays an audio file on the default output device and blocks until it ends.
type Player interface {
	Play(ctx context.Context, path string) error
}

// CommandPlayer runs an external player with the file path as its last argument.
type CommandPlayer struct {
	Command string
}

func NewCommandPlayer(command string) *CommandPlayer {
	return &CommandPlayer{Command: command}
}

func (p *CommandPlayer) Play(ctx context.Context, path string) error {
	fields := strings.Fields(p.Command)
	if len(fields) == 0 {
		return errors.New("player: empty command")
	}
	cmd := exec.CommandContext(ctx, fields[0], append(fields[1:], path)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("player %s: %w: %s", fields[0], err, msg)
		}
		return fmt.Errorf("player %s: %w", fields[0], err)
	}
	return nil
}
