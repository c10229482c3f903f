package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Speech recognition providers.
const (
	ProviderGoogle     = "google"
	ProviderAssemblyAI = "assemblyai"
)

// Temp audio file formats used for playback.
const (
	FormatWAV = "wav"
	FormatOgg = "ogg"
)

// Config holds application configuration. It is resolved once at startup.
type Config struct {
	LLMAPIKey  string
	LLMAPIURL  string
	LLMModel   string
	LLMTimeout time.Duration

	STTProvider     string
	STTLanguage     string
	AssemblyAIKey   string
	MicCommand      string
	VADRMSThreshold float64
	VADSilence      time.Duration
	VADMaxPhrase    time.Duration
	VADStartTimeout time.Duration
	CaptureMaxEmpty int

	HFAPIToken     string
	HFSentimentURL string

	DeepgramKey    string
	DeepgramModel  string
	TTSAudioFormat string
	TTSPlayer      string

	StatusAddress string
	LogLevel      string
}

// Load reads .env (if present) and the process environment and returns Config with sane defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file loaded")
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("LLM_API_URL", "https://api.mistral.ai/v1/chat/completions")
	v.SetDefault("LLM_MODEL", "mistral-medium")
	v.SetDefault("LLM_TIMEOUT", "0s")
	v.SetDefault("STT_PROVIDER", ProviderGoogle)
	v.SetDefault("STT_LANGUAGE", "en-US")
	v.SetDefault("MIC_COMMAND", "arecord -q -f S16_LE -r 16000 -c 1 -t raw")
	v.SetDefault("VAD_RMS_THRESHOLD", 300.0)
	v.SetDefault("VAD_SILENCE", "800ms")
	v.SetDefault("VAD_MAX_PHRASE", "15s")
	v.SetDefault("VAD_START_TIMEOUT", "0s")
	v.SetDefault("CAPTURE_MAX_EMPTY", 0)
	v.SetDefault("HF_SENTIMENT_URL", "https://api-inference.huggingface.co/models/distilbert/distilbert-base-uncased-finetuned-sst-2-english")
	v.SetDefault("DEEPGRAM_MODEL", "aura-2-thalia-en")
	v.SetDefault("TTS_AUDIO_FORMAT", FormatWAV)
	v.SetDefault("LOG_LEVEL", "info")

	cfg := Config{
		LLMAPIKey:       v.GetString("LLM_API_KEY"),
		LLMAPIURL:       v.GetString("LLM_API_URL"),
		LLMModel:        v.GetString("LLM_MODEL"),
		LLMTimeout:      v.GetDuration("LLM_TIMEOUT"),
		STTProvider:     strings.ToLower(v.GetString("STT_PROVIDER")),
		STTLanguage:     v.GetString("STT_LANGUAGE"),
		AssemblyAIKey:   v.GetString("ASSEMBLYAI_API_KEY"),
		MicCommand:      v.GetString("MIC_COMMAND"),
		VADRMSThreshold: v.GetFloat64("VAD_RMS_THRESHOLD"),
		VADSilence:      v.GetDuration("VAD_SILENCE"),
		VADMaxPhrase:    v.GetDuration("VAD_MAX_PHRASE"),
		VADStartTimeout: v.GetDuration("VAD_START_TIMEOUT"),
		CaptureMaxEmpty: v.GetInt("CAPTURE_MAX_EMPTY"),
		HFAPIToken:      v.GetString("HF_API_TOKEN"),
		HFSentimentURL:  v.GetString("HF_SENTIMENT_URL"),
		DeepgramKey:     v.GetString("DEEPGRAM_API_KEY"),
		DeepgramModel:   v.GetString("DEEPGRAM_MODEL"),
		TTSAudioFormat:  strings.ToLower(v.GetString("TTS_AUDIO_FORMAT")),
		TTSPlayer:       v.GetString("TTS_PLAYER"),
		StatusAddress:   v.GetString("STATUS_ADDRESS"),
		LogLevel:        v.GetString("LOG_LEVEL"),
	}
	if cfg.TTSPlayer == "" {
		cfg.TTSPlayer = DefaultPlayer(cfg.TTSAudioFormat)
	}
	if cfg.HFAPIToken == "" {
		logrus.Warn("HF_API_TOKEN not set - using offline lexicon sentiment")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultPlayer returns a playback command able to handle the given temp file format.
func DefaultPlayer(format string) string {
	if format == FormatOgg {
		return "ffplay -nodisp -autoexit -loglevel quiet"
	}
	return "aplay -q"
}

// Validate reports configuration that would make the loop unusable.
func (c Config) Validate() error {
	var errs []error
	if c.LLMAPIKey == "" {
		errs = append(errs, errors.New("LLM_API_KEY is required"))
	}
	if c.LLMAPIURL == "" {
		errs = append(errs, errors.New("LLM_API_URL is required"))
	}
	if c.DeepgramKey == "" {
		errs = append(errs, errors.New("DEEPGRAM_API_KEY is required"))
	}
	switch c.STTProvider {
	case ProviderGoogle:
	case ProviderAssemblyAI:
		if c.AssemblyAIKey == "" {
			errs = append(errs, errors.New("ASSEMBLYAI_API_KEY is required when STT_PROVIDER=assemblyai"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STT_PROVIDER %q", c.STTProvider))
	}
	switch c.TTSAudioFormat {
	case FormatWAV, FormatOgg:
	default:
		errs = append(errs, fmt.Errorf("unknown TTS_AUDIO_FORMAT %q", c.TTSAudioFormat))
	}
	if c.CaptureMaxEmpty < 0 {
		errs = append(errs, errors.New("CAPTURE_MAX_EMPTY must not be negative"))
	}
	if c.MicCommand == "" {
		errs = append(errs, errors.New("MIC_COMMAND is required"))
	}
	return errors.Join(errs...)
}

// Redacted returns a log-safe view of the configuration.
func (c Config) Redacted() logrus.Fields {
	return logrus.Fields{
		"llm_api_url":       c.LLMAPIURL,
		"llm_model":         c.LLMModel,
		"llm_api_key":       preview(c.LLMAPIKey),
		"stt_provider":      c.STTProvider,
		"stt_language":      c.STTLanguage,
		"assemblyai_key":    preview(c.AssemblyAIKey),
		"hf_api_token":      preview(c.HFAPIToken),
		"deepgram_key":      preview(c.DeepgramKey),
		"deepgram_model":    c.DeepgramModel,
		"tts_audio_format":  c.TTSAudioFormat,
		"tts_player":        c.TTSPlayer,
		"status_address":    c.StatusAddress,
		"capture_max_empty": c.CaptureMaxEmpty,
	}
}

func preview(secret string) string {
	if secret == "" {
		return "<unset>"
	}
	if len(secret) > 4 {
		return secret[:4] + "..."
	}
	return "***"
}
