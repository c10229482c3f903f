package transcript

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
)

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// GoogleRecognizer transcribes a whole phrase with Google Cloud Speech.
// It relies on Application Default Credentials for authentication.
type GoogleRecognizer struct {
	language  string
	recognize recognizeFunc
	close     func() error
}

// NewGoogleRecognizer creates a new Google Cloud Speech client.
func NewGoogleRecognizer(ctx context.Context, language string) (*GoogleRecognizer, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &GoogleRecognizer{
		language: language,
		recognize: func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
			return client.Recognize(ctx, req)
		},
		close: client.Close,
	}, nil
}

// Recognize sends the phrase as LINEAR16 and joins the top alternative of every result.
func (g *GoogleRecognizer) Recognize(ctx context.Context, pcm []byte) (string, error) {
	resp, err := g.recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: SampleRate,
			LanguageCode:    g.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: pcm},
		},
	})
	if err != nil {
		return "", fmt.Errorf("google recognize: %w", err)
	}
	var parts []string
	for _, result := range resp.GetResults() {
		if alts := result.GetAlternatives(); len(alts) > 0 {
			if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
				parts = append(parts, t)
			}
		}
	}
	if len(parts) == 0 {
		return "", ErrNotRecognized
	}
	return strings.Join(parts, " "), nil
}

// Close cleans up the speech client connection.
func (g *GoogleRecognizer) Close() error {
	if g.close == nil {
		return nil
	}
	return g.close()
}
