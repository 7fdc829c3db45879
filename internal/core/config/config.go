package config

import (
	"time"

	"github.com/vietddude/callguard/internal/infra/call"
	redisclient "github.com/vietddude/callguard/internal/infra/redis"
	"github.com/vietddude/callguard/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Call     CallConfig         `yaml:"call"`
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	YouTube  YouTubeConfig      `yaml:"youtube"`
	LiveKit  LiveKitConfig      `yaml:"livekit"`
	Agent    AgentConfig        `yaml:"agent"`
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
}

// CallConfig holds the defaults applied to every remote call.
type CallConfig struct {
	Timeout    time.Duration `yaml:"timeout"`     // 0 = rely on the SDK default
	RetryCount int           `yaml:"retry_count"` // extra attempts for retryable failures
	Backoff    call.Backoff  `yaml:"backoff"`
}

// ServerConfig holds HTTP server settings for long-running commands.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// YouTubeConfig holds transcript fetcher settings.
type YouTubeConfig struct {
	BaseURL  string `yaml:"base_url"`
	Language string `yaml:"language"`
}

// LiveKitConfig holds real-time media API credentials.
type LiveKitConfig struct {
	URL       string        `yaml:"url"`
	APIKey    string        `yaml:"api_key"`
	APISecret string        `yaml:"api_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Room      string        `yaml:"room"`
}

// AgentConfig describes the voice pipeline plugins.
type AgentConfig struct {
	Name         string       `yaml:"name"`
	Instructions string       `yaml:"instructions"`
	LLM          PluginConfig `yaml:"llm"`
	STT          PluginConfig `yaml:"stt"`
	TTS          PluginConfig `yaml:"tts"`
}

// PluginConfig holds settings for an OpenAI-compatible plugin endpoint.
type PluginConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Voice   string `yaml:"voice"` // TTS only
}
