package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("LLM_API_KEY", "llm-secret-key")
	t.Setenv("DEEPGRAM_API_KEY", "dg-secret-key")
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("LLM_MODEL", "")
	t.Setenv("STT_PROVIDER", "")
	t.Setenv("TTS_AUDIO_FORMAT", "")
	t.Setenv("TTS_PLAYER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mistral-medium", cfg.LLMModel)
	assert.Equal(t, "https://api.mistral.ai/v1/chat/completions", cfg.LLMAPIURL)
	assert.Equal(t, ProviderGoogle, cfg.STTProvider)
	assert.Equal(t, FormatWAV, cfg.TTSAudioFormat)
	assert.Equal(t, "aplay -q", cfg.TTSPlayer)
	assert.Equal(t, 800*time.Millisecond, cfg.VADSilence)
	assert.Equal(t, 15*time.Second, cfg.VADMaxPhrase)
	assert.Zero(t, cfg.CaptureMaxEmpty)
	assert.Zero(t, cfg.LLMTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("LLM_API_URL", "http://localhost:9999/v1/chat/completions")
	t.Setenv("STT_PROVIDER", "AssemblyAI")
	t.Setenv("ASSEMBLYAI_API_KEY", "aai")
	t.Setenv("TTS_AUDIO_FORMAT", "ogg")
	t.Setenv("TTS_PLAYER", "")
	t.Setenv("CAPTURE_MAX_EMPTY", "3")
	t.Setenv("VAD_SILENCE", "1s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999/v1/chat/completions", cfg.LLMAPIURL)
	assert.Equal(t, ProviderAssemblyAI, cfg.STTProvider)
	assert.Equal(t, FormatOgg, cfg.TTSAudioFormat)
	assert.Contains(t, cfg.TTSPlayer, "ffplay")
	assert.Equal(t, 3, cfg.CaptureMaxEmpty)
	assert.Equal(t, time.Second, cfg.VADSilence)
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("DEEPGRAM_API_KEY", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_API_KEY")
	assert.Contains(t, err.Error(), "DEEPGRAM_API_KEY")
}

func TestValidate_Rejects(t *testing.T) {
	base := Config{
		LLMAPIKey:      "k",
		LLMAPIURL:      "http://x",
		DeepgramKey:    "d",
		STTProvider:    ProviderGoogle,
		TTSAudioFormat: FormatWAV,
		MicCommand:     "arecord",
	}
	require.NoError(t, base.Validate())

	cases := map[string]func(c *Config){
		"unknown provider":       func(c *Config) { c.STTProvider = "whisper" },
		"assemblyai without key": func(c *Config) { c.STTProvider = ProviderAssemblyAI },
		"unknown format":         func(c *Config) { c.TTSAudioFormat = "mp3" },
		"negative retries":       func(c *Config) { c.CaptureMaxEmpty = -1 },
		"no mic command":         func(c *Config) { c.MicCommand = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestRedacted_HidesSecrets(t *testing.T) {
	c := Config{LLMAPIKey: "3htzo0NaQBmzvjpg", DeepgramKey: "abc"}
	fields := c.Redacted()
	assert.Equal(t, "3htz...", fields["llm_api_key"])
	assert.Equal(t, "***", fields["deepgram_key"])
	assert.Equal(t, "<unset>", fields["hf_api_token"])
	for _, v := range fields {
		assert.NotEqual(t, "3htzo0NaQBmzvjpg", v)
	}
}
