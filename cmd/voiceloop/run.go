package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/chadiek/voiceloop/internal/agent"
	"github.com/chadiek/voiceloop/internal/config"
	"github.com/chadiek/voiceloop/internal/httpserver"
	"github.com/chadiek/voiceloop/internal/llm"
	"github.com/chadiek/voiceloop/internal/logging"
	"github.com/chadiek/voiceloop/internal/metrics"
	"github.com/chadiek/voiceloop/internal/sentiment"
	"github.com/chadiek/voiceloop/internal/transcript"
	"github.com/chadiek/voiceloop/internal/tts"
)

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel)
	log.WithFields(cfg.Redacted()).Info("configuration loaded")

	recognizer, closeRecognizer, err := newRecognizer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRecognizer()

	listener := transcript.DefaultPhraseListener()
	listener.RMSThreshold = cfg.VADRMSThreshold
	listener.Silence = cfg.VADSilence
	listener.MaxPhrase = cfg.VADMaxPhrase
	listener.StartTimeout = cfg.VADStartTimeout
	capturer := transcript.NewCapturer(transcript.NewCommandMicrophone(cfg.MicCommand), listener, recognizer, os.Stdout, log)

	var analyzer agent.SentimentAnalyzer = sentiment.NewLexicon()
	if cfg.HFAPIToken != "" {
		analyzer = sentiment.NewHuggingFaceClient(cfg.HFSentimentURL, cfg.HFAPIToken)
	}

	generator := llm.NewMistralClient(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)

	synth := tts.NewDeepgramClient(cfg.DeepgramKey, cfg.DeepgramModel, log)
	speaker := tts.NewSpeaker(synth, tts.NewCommandPlayer(cfg.TTSPlayer), cfg.TTSAudioFormat, log)

	opts := []agent.Option{
		agent.WithOutput(os.Stdout),
		agent.WithLogger(log),
		agent.WithRetryPolicy(agent.RetryPolicy{MaxConsecutiveEmpty: cfg.CaptureMaxEmpty}),
	}
	if cfg.StatusAddress != "" {
		hooks, stopStatus, err := startStatusServer(ctx, cfg.StatusAddress, log)
		if err != nil {
			return err
		}
		defer stopStatus()
		opts = append(opts, agent.WithHooks(hooks))
	}

	controller := agent.NewController(capturer, analyzer, generator, speaker, opts...)
	err = controller.Run(ctx)
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		log.Info("interrupted, shutting down")
		return nil
	}
	return err
}

func newRecognizer(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (transcript.Recognizer, func(), error) {
	switch cfg.STTProvider {
	case config.ProviderAssemblyAI:
		return transcript.NewAssemblyAIRecognizer(cfg.AssemblyAIKey, log), func() {}, nil
	case config.ProviderGoogle:
		g, err := transcript.NewGoogleRecognizer(ctx, cfg.STTLanguage)
		if err != nil {
			return nil, nil, fmt.Errorf("google speech client: %w", err)
		}
		return g, func() {
			if err := g.Close(); err != nil {
				log.WithError(err).Warn("closing speech client")
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown STT_PROVIDER %q", cfg.STTProvider)
	}
}

// startStatusServer serves /healthz and /metrics until the returned stop func is called.
func startStatusServer(ctx context.Context, addr string, log logrus.FieldLogger) (agent.Hooks, func(), error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec, err := metrics.NewRecorder(reg)
	if err != nil {
		return agent.Hooks{}, nil, err
	}

	srvCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := httpserver.New(addr, reg, log).Run(srvCtx); err != nil {
			log.WithError(err).Error("status server stopped")
		}
	}()
	return rec.Hooks(), func() {
		cancel()
		<-done
	}, nil
}
