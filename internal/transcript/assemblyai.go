package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// DefaultAssemblyAIEndpoint is the AssemblyAI v3 streaming websocket.
const DefaultAssemblyAIEndpoint = "wss://streaming.assemblyai.com/v3/ws"

// chunkBytes is 100ms of 16 kHz PCM16LE; the service accepts 50-1000ms per message.
const chunkBytes = SampleRate / 10 * 2

// AssemblyAI message types
type BeginMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	ExpiresAt int64  `json:"expires_at"`
}

type TurnMessage struct {
	Type          string `json:"type"`
	TurnOrder     int    `json:"turn_order"`
	Transcript    string `json:"transcript"`
	EndOfTurn     bool   `json:"end_of_turn"`
	TurnFormatted bool   `json:"turn_is_formatted"`
}

type TerminationMessage struct {
	Type                   string  `json:"type"`
	AudioDurationSeconds   float64 `json:"audio_duration_seconds"`
	SessionDurationSeconds float64 `json:"session_duration_seconds"`
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// AssemblyAIRecognizer transcribes a captured phrase over one realtime session.
type AssemblyAIRecognizer struct {
	apiKey   string
	Endpoint string
	Dialer   websocket.Dialer
	log      logrus.FieldLogger
}

// NewAssemblyAIRecognizer creates a recognizer for the given API key.
func NewAssemblyAIRecognizer(apiKey string, log logrus.FieldLogger) *AssemblyAIRecognizer {
	return &AssemblyAIRecognizer{
		apiKey:   apiKey,
		Endpoint: DefaultAssemblyAIEndpoint,
		Dialer:   websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:      log,
	}
}

type turnResult struct {
	text string
	err  error
}

// Recognize streams pcm, forces an endpoint, terminates the session and
// returns the completed turns joined in order.
func (s *AssemblyAIRecognizer) Recognize(ctx context.Context, pcm []byte) (string, error) {
	if s.apiKey == "" {
		return "", errors.New("AssemblyAI API key is empty")
	}

	params := url.Values{}
	params.Set("sample_rate", fmt.Sprint(SampleRate))
	params.Set("format_turns", "false")
	params.Set("encoding", "pcm_s16le")
	wsURL := s.Endpoint + "?" + params.Encode()

	headers := http.Header{"Authorization": {s.apiKey}}
	conn, resp, err := s.Dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return "", fmt.Errorf("failed to connect to AssemblyAI (status %d): %w", resp.StatusCode, err)
		}
		return "", fmt.Errorf("failed to connect to AssemblyAI: %w", err)
	}
	defer conn.Close()

	done := make(chan turnResult, 1)
	go func() { done <- s.readTurns(conn) }()

	for off := 0; off < len(pcm); off += chunkBytes {
		end := off + chunkBytes
		if end > len(pcm) {
			end = len(pcm)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[off:end]); err != nil {
			return "", fmt.Errorf("error sending audio data: %w", err)
		}
	}
	if err := conn.WriteJSON(map[string]string{"type": "ForceEndpoint"}); err != nil {
		return "", fmt.Errorf("assemblyai force endpoint: %w", err)
	}
	if err := conn.WriteJSON(map[string]string{"type": "Terminate"}); err != nil {
		return "", fmt.Errorf("assemblyai terminate: %w", err)
	}

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// readTurns processes incoming messages until the session terminates.
func (s *AssemblyAIRecognizer) readTurns(conn *websocket.Conn) turnResult {
	turns := map[int]string{}
	var serviceErr error
	finish := func() turnResult {
		text := joinTurns(turns)
		if text == "" {
			if serviceErr != nil {
				return turnResult{err: serviceErr}
			}
			return turnResult{err: ErrNotRecognized}
		}
		return turnResult{text: text}
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if len(turns) == 0 && serviceErr == nil {
				return turnResult{err: fmt.Errorf("assemblyai read: %w", err)}
			}
			return finish()
		}

		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &base); err != nil {
			s.log.WithError(err).Debug("assemblyai: unreadable message")
			continue
		}
		switch base.Type {
		case "Begin":
			var msg BeginMessage
			if err := json.Unmarshal(message, &msg); err == nil {
				s.log.WithField("session_id", msg.ID).Debug("assemblyai session began")
			}
		case "Turn":
			var msg TurnMessage
			if err := json.Unmarshal(message, &msg); err != nil {
				s.log.WithError(err).Debug("assemblyai: bad Turn message")
				continue
			}
			if msg.EndOfTurn && strings.TrimSpace(msg.Transcript) != "" {
				turns[msg.TurnOrder] = strings.TrimSpace(msg.Transcript)
			}
		case "Termination":
			var msg TerminationMessage
			if err := json.Unmarshal(message, &msg); err == nil {
				s.log.WithField("audio_seconds", msg.AudioDurationSeconds).Debug("assemblyai session terminated")
			}
			return finish()
		case "Error":
			var msg ErrorMessage
			if err := json.Unmarshal(message, &msg); err == nil {
				serviceErr = fmt.Errorf("assemblyai error: %s", msg.Error)
			}
		default:
			s.log.WithField("type", base.Type).Debug("assemblyai: unknown message type")
		}
	}
}

func joinTurns(turns map[int]string) string {
	order := make([]int, 0, len(turns))
	for k := range turns {
		order = append(order, k)
	}
	sort.Ints(order)
	parts := make([]string, 0, len(order))
	for _, k := range order {
		parts = append(parts, turns[k])
	}
	return strings.Join(parts, " ")
}
