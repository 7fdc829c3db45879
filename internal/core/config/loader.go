package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	DefaultRoom         = "rocky-da-adda-main"
	DefaultInstructions = "You are Rocky, a friendly voice assistant for 'Rocky Da Adda', a pure veg campus " +
		"restaurant at IIT Kharagpur. Your interface is voice-only, so keep responses concise and " +
		"conversational. Menu items include: Masala Chai, Aloo Paratha, Paneer Butter Masala, Veg Biryani. " +
		"If asked about orders, say 'I can help check your order status'."
	groqBaseURL = "https://api.groq.com/openai/v1"
)

// Load reads configuration from a YAML file. A missing file yields the defaults
// so the commands work from environment variables alone.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		// Expand environment variables in the YAML content
		expandedData := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv fills credentials from the conventional environment variables.
func applyEnv(cfg *AppConfig) {
	setIfEmpty(&cfg.LiveKit.URL, os.Getenv("LIVEKIT_URL"))
	setIfEmpty(&cfg.LiveKit.APIKey, os.Getenv("LIVEKIT_API_KEY"))
	setIfEmpty(&cfg.LiveKit.APISecret, os.Getenv("LIVEKIT_API_SECRET"))

	groqKey := os.Getenv("GROQ_API_KEY")
	setIfEmpty(&cfg.Agent.LLM.APIKey, groqKey)
	setIfEmpty(&cfg.Agent.STT.APIKey, groqKey)
	setIfEmpty(&cfg.Agent.TTS.APIKey, os.Getenv("OPENAI_API_KEY"))

	setIfEmpty(&cfg.Redis.URL, os.Getenv("REDIS_URL"))
	setIfEmpty(&cfg.Database.URL, os.Getenv("DATABASE_URL"))
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	setIfEmpty(&cfg.YouTube.BaseURL, "https://www.youtube.com")
	setIfEmpty(&cfg.YouTube.Language, "en")

	if cfg.LiveKit.TokenTTL == 0 {
		cfg.LiveKit.TokenTTL = 6 * time.Hour
	}
	setIfEmpty(&cfg.LiveKit.Room, DefaultRoom)

	setIfEmpty(&cfg.Agent.Name, "rocky")
	setIfEmpty(&cfg.Agent.Instructions, DefaultInstructions)
	setIfEmpty(&cfg.Agent.LLM.BaseURL, groqBaseURL)
	setIfEmpty(&cfg.Agent.LLM.Model, "llama3-8b-8192")
	setIfEmpty(&cfg.Agent.STT.BaseURL, groqBaseURL)
	setIfEmpty(&cfg.Agent.STT.Model, "whisper-large-v3")
	setIfEmpty(&cfg.Agent.TTS.BaseURL, "https://api.openai.com/v1")
	setIfEmpty(&cfg.Agent.TTS.Model, "tts-1")
	setIfEmpty(&cfg.Agent.TTS.Voice, "alloy")

	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = 24 * time.Hour
	}
}

// Validate rejects settings the call wrapper cannot honour.
func (c *AppConfig) Validate() error {
	if c.Call.Timeout < 0 {
		return fmt.Errorf("call.timeout must be positive, got %v", c.Call.Timeout)
	}
	if c.Call.RetryCount < 0 {
		return fmt.Errorf("call.retry_count must be >= 0, got %d", c.Call.RetryCount)
	}
	if err := c.Call.Backoff.Validate(); err != nil {
		return fmt.Errorf("call.backoff: %w", err)
	}
	return nil
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
