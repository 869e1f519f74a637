package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type Config struct {
	RuntimeName string          `yaml:"runtime_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	Store       StoreConfig     `yaml:"store"`
	Gemini      GeminiConfig    `yaml:"gemini"`
	Analyzer    AnalyzerConfig  `yaml:"analyzer"`
	Synth       SynthConfig     `yaml:"synth"`
	Audio       AudioConfig     `yaml:"audio"`
	Bot         BotConfig       `yaml:"bot"`
}

type BusConfig struct {
	Embedded         bool     `yaml:"embedded"`
	Port             int      `yaml:"port"`
	Servers          []string `yaml:"servers"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	Token            string   `yaml:"token"`
	TLSInsecure      bool     `yaml:"tls_insecure"`
	ConnectTimeout   int      `yaml:"connect_timeout_ms"`
	RequestTimeoutMS int      `yaml:"request_timeout_ms"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

// GeminiConfig covers the shared remote API client. The key is secret and is
// only accepted from the environment.
type GeminiConfig struct {
	APIKey    string `yaml:"-"`
	Endpoint  string `yaml:"endpoint"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type AnalyzerConfig struct {
	Mode        string  `yaml:"mode"` // gemini, static
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

type SynthConfig struct {
	Mode         string  `yaml:"mode"` // gemini, mock
	ModelFlash   string  `yaml:"model_flash"`
	ModelPro     string  `yaml:"model_pro"`
	DefaultModel string  `yaml:"default_model"` // flash or pro
	Temperature  float64 `yaml:"temperature"`
	MaxAttempts  int     `yaml:"max_attempts"`
	RetryDelayMS int     `yaml:"retry_delay_ms"`
}

type AudioConfig struct {
	Container     string `yaml:"container"` // wav, ogg, mp3
	FFmpegCommand string `yaml:"ffmpeg_command"`
}

// BotConfig covers the Telegram front-end. The token is secret and is only
// accepted from the environment.
type BotConfig struct {
	Enabled           bool    `yaml:"enabled"`
	Token             string  `yaml:"-"`
	AllowedChatIDs    []int64 `yaml:"allowed_chat_ids"`
	RateLimitRequests int     `yaml:"rate_limit_requests"`
	RateLimitWindowMS int     `yaml:"rate_limit_window_ms"`
	MaxTextLength     int     `yaml:"max_text_length"`
	MaxPromptLength   int     `yaml:"max_prompt_length"`
	PollTimeoutS      int     `yaml:"poll_timeout_s"`
}

func Default() Config {
	return Config{
		RuntimeName: "hearsay-runtime",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
		Bus: BusConfig{
			Embedded:         true,
			Port:             4222,
			Servers:          []string{"nats://localhost:4222"},
			ConnectTimeout:   2000,
			RequestTimeoutMS: 180000,
		},
		Store: StoreConfig{
			Path: "./data/hearsay.db",
		},
		Gemini: GeminiConfig{
			Endpoint:  "https://generativelanguage.googleapis.com",
			TimeoutMS: 60000,
		},
		Analyzer: AnalyzerConfig{
			Mode:        "gemini",
			Model:       "gemini-2.0-flash",
			Temperature: 0.3,
		},
		Synth: SynthConfig{
			Mode:         "gemini",
			ModelFlash:   "gemini-2.5-flash-preview-tts",
			ModelPro:     "gemini-2.5-pro-preview-tts",
			DefaultModel: "pro",
			Temperature:  1.0,
			MaxAttempts:  3,
			RetryDelayMS: 2000,
		},
		Audio: AudioConfig{
			Container:     "wav",
			FFmpegCommand: "ffmpeg -f s16le -ar 24000 -ac 1 -i pipe:0 -c:a libopus -b:a 48k -f ogg pipe:1",
		},
		Bot: BotConfig{
			Enabled:           true,
			RateLimitRequests: 5,
			RateLimitWindowMS: 60000,
			MaxTextLength:     4000,
			MaxPromptLength:   500,
			PollTimeoutS:      30,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "HEARSAY_RUNTIME_NAME")
	overrideString(&cfg.Environment, "HEARSAY_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "HEARSAY_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "HEARSAY_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "HEARSAY_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "HEARSAY_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "HEARSAY_TELEMETRY_OTLP_INSECURE")
	overrideBool(&cfg.Bus.Embedded, "HEARSAY_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "HEARSAY_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "HEARSAY_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "HEARSAY_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "HEARSAY_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "HEARSAY_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "HEARSAY_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "HEARSAY_BUS_CONNECT_TIMEOUT_MS")
	overrideInt(&cfg.Bus.RequestTimeoutMS, "HEARSAY_BUS_REQUEST_TIMEOUT_MS")
	overrideString(&cfg.Store.Path, "HEARSAY_STORE_PATH")
	overrideString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	overrideString(&cfg.Gemini.Endpoint, "HEARSAY_GEMINI_ENDPOINT")
	overrideInt(&cfg.Gemini.TimeoutMS, "HEARSAY_GEMINI_TIMEOUT_MS")
	overrideString(&cfg.Analyzer.Mode, "HEARSAY_ANALYZER_MODE")
	overrideString(&cfg.Analyzer.Model, "HEARSAY_ANALYZER_MODEL")
	overrideFloat(&cfg.Analyzer.Temperature, "HEARSAY_ANALYZER_TEMPERATURE")
	overrideString(&cfg.Synth.Mode, "HEARSAY_SYNTH_MODE")
	overrideString(&cfg.Synth.ModelFlash, "HEARSAY_SYNTH_MODEL_FLASH")
	overrideString(&cfg.Synth.ModelPro, "HEARSAY_SYNTH_MODEL_PRO")
	overrideString(&cfg.Synth.DefaultModel, "HEARSAY_SYNTH_DEFAULT_MODEL")
	overrideFloat(&cfg.Synth.Temperature, "HEARSAY_SYNTH_TEMPERATURE")
	overrideInt(&cfg.Synth.MaxAttempts, "HEARSAY_SYNTH_MAX_ATTEMPTS")
	overrideInt(&cfg.Synth.RetryDelayMS, "HEARSAY_SYNTH_RETRY_DELAY_MS")
	overrideString(&cfg.Audio.Container, "HEARSAY_AUDIO_CONTAINER")
	overrideString(&cfg.Audio.FFmpegCommand, "HEARSAY_AUDIO_FFMPEG_COMMAND")
	overrideBool(&cfg.Bot.Enabled, "HEARSAY_BOT_ENABLED")
	overrideString(&cfg.Bot.Token, "TELEGRAM_BOT_TOKEN")
	overrideInt64Slice(&cfg.Bot.AllowedChatIDs, "ALLOWED_CHAT_IDS")
	overrideInt(&cfg.Bot.RateLimitRequests, "HEARSAY_BOT_RATE_LIMIT_REQUESTS")
	overrideInt(&cfg.Bot.RateLimitWindowMS, "HEARSAY_BOT_RATE_LIMIT_WINDOW_MS")
	overrideInt(&cfg.Bot.MaxTextLength, "HEARSAY_BOT_MAX_TEXT_LENGTH")
	overrideInt(&cfg.Bot.MaxPromptLength, "HEARSAY_BOT_MAX_PROMPT_LENGTH")
	overrideInt(&cfg.Bot.PollTimeoutS, "HEARSAY_BOT_POLL_TIMEOUT_S")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func overrideInt64Slice(target *[]int64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		var ids []int64
		for _, p := range strings.Split(value, ",") {
			s := strings.TrimSpace(p)
			if s == "" {
				continue
			}
			if parsed, err := strconv.ParseInt(s, 10, 64); err == nil {
				ids = append(ids, parsed)
			}
		}
		if len(ids) > 0 {
			*target = ids
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Embedded {
		if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
			return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
		}
	} else {
		if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.Bus.RequestTimeoutMS <= 0 {
		return errors.New("bus.request_timeout_ms must be positive")
	}
	if cfg.Store.Path == "" {
		return errors.New("store.path must not be empty")
	}
	if cfg.Gemini.Endpoint == "" {
		return errors.New("gemini.endpoint must not be empty")
	}
	if cfg.Gemini.TimeoutMS <= 0 {
		return errors.New("gemini.timeout_ms must be positive")
	}
	switch cfg.Analyzer.Mode {
	case "gemini", "static":
	default:
		return errors.New("analyzer.mode must be one of gemini|static")
	}
	if cfg.Analyzer.Mode == "gemini" && cfg.Analyzer.Model == "" {
		return errors.New("analyzer.model must be set when mode=gemini")
	}
	switch cfg.Synth.Mode {
	case "gemini", "mock":
	default:
		return errors.New("synth.mode must be one of gemini|mock")
	}
	switch cfg.Synth.DefaultModel {
	case "flash", "pro":
	default:
		return errors.New("synth.default_model must be one of flash|pro")
	}
	if cfg.Synth.ModelFlash == "" || cfg.Synth.ModelPro == "" {
		return errors.New("synth.model_flash and synth.model_pro must not be empty")
	}
	if cfg.Synth.MaxAttempts <= 0 {
		return errors.New("synth.max_attempts must be >= 1")
	}
	if cfg.Synth.RetryDelayMS < 0 {
		return errors.New("synth.retry_delay_ms must be >= 0")
	}
	switch cfg.Audio.Container {
	case "wav":
	case "ogg", "mp3":
		if cfg.Audio.FFmpegCommand == "" {
			return errors.New("audio.ffmpeg_command must be set for ogg/mp3 containers")
		}
	default:
		return errors.New("audio.container must be one of wav|ogg|mp3")
	}
	if (cfg.Synth.Mode == "gemini" || cfg.Analyzer.Mode == "gemini") && cfg.Gemini.APIKey == "" {
		return errors.New("GEMINI_API_KEY must be set when a gemini mode is enabled")
	}
	if cfg.Bot.Enabled {
		if cfg.Bot.Token == "" {
			return errors.New("TELEGRAM_BOT_TOKEN must be set when the bot is enabled")
		}
		if cfg.Bot.RateLimitRequests <= 0 {
			return errors.New("bot.rate_limit_requests must be >= 1")
		}
		if cfg.Bot.RateLimitWindowMS <= 0 {
			return errors.New("bot.rate_limit_window_ms must be positive")
		}
		if cfg.Bot.MaxTextLength <= 0 {
			return errors.New("bot.max_text_length must be positive")
		}
		if cfg.Bot.MaxPromptLength <= 0 {
			return errors.New("bot.max_prompt_length must be positive")
		}
	}
	return nil
}
