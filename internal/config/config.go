package config

import (
	"errors"
	"fmt"
	"log/slog"
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

// Level maps log_level to a slog level. Unknown values fall back to
// info rather than failing validation.
func (t TelemetryConfig) Level() slog.Level {
	switch strings.ToLower(strings.TrimSpace(t.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BusConfig struct {
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	StoreDir       string   `yaml:"store_dir"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

// EngineConfig selects and parameterizes the synthesis backend.
type EngineConfig struct {
	Mode        string  `yaml:"mode"` // mock, exec, openai, gemini
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	Endpoint    string  `yaml:"endpoint"`
	Command     string  `yaml:"command"`
	Format      string  `yaml:"format"` // mp3|wav|opus|aac|flac
	SampleRate  int     `yaml:"sample_rate"`
	Channels    int     `yaml:"channels"`
	MaxSpeakers int     `yaml:"max_speakers"` // 0 keeps the backend default
	Speed       float64 `yaml:"speed"`
}

type PipelineConfig struct {
	MaxBatchSeconds   int `yaml:"max_batch_seconds"`
	WordsPerMinute    int `yaml:"words_per_minute"`
	InterBatchDelayMS int `yaml:"inter_batch_delay_ms"`
	CallTimeoutMS     int `yaml:"call_timeout_ms"`
	RetryMaxAttempts  int `yaml:"retry_max_attempts"`
	RetryBaseDelayMS  int `yaml:"retry_base_delay_ms"`
	MaxScriptBytes    int `yaml:"max_script_bytes"`
}

// RoleConfig binds a configured role to a vendor voice and a style
// instruction string.
type RoleConfig struct {
	Name  string `yaml:"name"`
	Voice string `yaml:"voice"`
	Style string `yaml:"style"`
}

type RolesConfig struct {
	Host     RoleConfig   `yaml:"host"`
	Guest    RoleConfig   `yaml:"guest"`
	Narrator RoleConfig   `yaml:"narrator"`
	Extras   []RoleConfig `yaml:"extras"`
}

type EnhanceConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Mode        string  `yaml:"mode"` // mock, ollama
	Endpoint    string  `yaml:"endpoint"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type StoreConfig struct {
	IndexPath string `yaml:"index_path"`
	OutputDir string `yaml:"output_dir"`
}

type Config struct {
	RuntimeName string          `yaml:"runtime_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	Engine      EngineConfig    `yaml:"engine"`
	Pipeline    PipelineConfig  `yaml:"pipeline"`
	Roles       RolesConfig     `yaml:"roles"`
	Enhance     EnhanceConfig   `yaml:"enhance"`
	Store       StoreConfig     `yaml:"store"`
}

var containerFormats = map[string]bool{
	"mp3": true, "wav": true, "opus": true, "aac": true, "flac": true,
}

func Default() Config {
	return Config{
		RuntimeName: "podforge-runtime",
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
			Embedded:       true,
			Port:           4222,
			StoreDir:       "./data/nats",
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Engine: EngineConfig{
			Mode:       "mock",
			Model:      "tts-1",
			Format:     "mp3",
			SampleRate: 24000,
			Channels:   1,
			Speed:      1.0,
		},
		Pipeline: PipelineConfig{
			MaxBatchSeconds:   180,
			WordsPerMinute:    150,
			InterBatchDelayMS: 1500,
			CallTimeoutMS:     45000,
			RetryMaxAttempts:  3,
			RetryBaseDelayMS:  3000,
			MaxScriptBytes:    1 << 20,
		},
		Roles: RolesConfig{
			Host:     RoleConfig{Name: "Host", Voice: "nova"},
			Guest:    RoleConfig{Name: "Guest", Voice: "onyx"},
			Narrator: RoleConfig{Name: "Narrator", Voice: "alloy"},
		},
		Enhance: EnhanceConfig{
			Enabled:     false,
			Mode:        "mock",
			Endpoint:    "http://localhost:11434",
			Model:       "llama3.2:latest",
			MaxTokens:   2048,
			Temperature: 0.7,
		},
		Store: StoreConfig{
			IndexPath: "./data/podforge.db",
			OutputDir: "./data/generated_podcasts",
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
	overrideString(&cfg.RuntimeName, "PODFORGE_RUNTIME_NAME")
	overrideString(&cfg.Environment, "PODFORGE_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "PODFORGE_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "PODFORGE_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "PODFORGE_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "PODFORGE_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "PODFORGE_TELEMETRY_OTLP_INSECURE")
	overrideBool(&cfg.Bus.Embedded, "PODFORGE_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "PODFORGE_BUS_PORT")
	overrideString(&cfg.Bus.StoreDir, "PODFORGE_BUS_STORE_DIR")
	overrideStringSlice(&cfg.Bus.Servers, "PODFORGE_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "PODFORGE_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "PODFORGE_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "PODFORGE_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "PODFORGE_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "PODFORGE_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Engine.Mode, "PODFORGE_ENGINE_MODE")
	overrideString(&cfg.Engine.Model, "PODFORGE_ENGINE_MODEL")
	overrideString(&cfg.Engine.APIKey, "PODFORGE_ENGINE_API_KEY")
	overrideString(&cfg.Engine.Endpoint, "PODFORGE_ENGINE_ENDPOINT")
	overrideString(&cfg.Engine.Command, "PODFORGE_ENGINE_COMMAND")
	overrideString(&cfg.Engine.Format, "PODFORGE_ENGINE_FORMAT")
	overrideInt(&cfg.Engine.SampleRate, "PODFORGE_ENGINE_SAMPLE_RATE")
	overrideInt(&cfg.Engine.Channels, "PODFORGE_ENGINE_CHANNELS")
	overrideInt(&cfg.Engine.MaxSpeakers, "PODFORGE_ENGINE_MAX_SPEAKERS")
	overrideFloat(&cfg.Engine.Speed, "PODFORGE_ENGINE_SPEED")
	overrideInt(&cfg.Pipeline.MaxBatchSeconds, "PODFORGE_PIPELINE_MAX_BATCH_SECONDS")
	overrideInt(&cfg.Pipeline.WordsPerMinute, "PODFORGE_PIPELINE_WORDS_PER_MINUTE")
	overrideInt(&cfg.Pipeline.InterBatchDelayMS, "PODFORGE_PIPELINE_INTER_BATCH_DELAY_MS")
	overrideInt(&cfg.Pipeline.CallTimeoutMS, "PODFORGE_PIPELINE_CALL_TIMEOUT_MS")
	overrideInt(&cfg.Pipeline.RetryMaxAttempts, "PODFORGE_PIPELINE_RETRY_MAX_ATTEMPTS")
	overrideInt(&cfg.Pipeline.RetryBaseDelayMS, "PODFORGE_PIPELINE_RETRY_BASE_DELAY_MS")
	overrideInt(&cfg.Pipeline.MaxScriptBytes, "PODFORGE_PIPELINE_MAX_SCRIPT_BYTES")
	overrideString(&cfg.Roles.Host.Name, "PODFORGE_ROLES_HOST_NAME")
	overrideString(&cfg.Roles.Host.Voice, "PODFORGE_ROLES_HOST_VOICE")
	overrideString(&cfg.Roles.Host.Style, "PODFORGE_ROLES_HOST_STYLE")
	overrideString(&cfg.Roles.Guest.Name, "PODFORGE_ROLES_GUEST_NAME")
	overrideString(&cfg.Roles.Guest.Voice, "PODFORGE_ROLES_GUEST_VOICE")
	overrideString(&cfg.Roles.Guest.Style, "PODFORGE_ROLES_GUEST_STYLE")
	overrideString(&cfg.Roles.Narrator.Voice, "PODFORGE_ROLES_NARRATOR_VOICE")
	overrideBool(&cfg.Enhance.Enabled, "PODFORGE_ENHANCE_ENABLED")
	overrideString(&cfg.Enhance.Mode, "PODFORGE_ENHANCE_MODE")
	overrideString(&cfg.Enhance.Endpoint, "PODFORGE_ENHANCE_ENDPOINT")
	overrideString(&cfg.Enhance.Model, "PODFORGE_ENHANCE_MODEL")
	overrideInt(&cfg.Enhance.MaxTokens, "PODFORGE_ENHANCE_MAX_TOKENS")
	overrideFloat(&cfg.Enhance.Temperature, "PODFORGE_ENHANCE_TEMPERATURE")
	overrideString(&cfg.Store.IndexPath, "PODFORGE_STORE_INDEX_PATH")
	overrideString(&cfg.Store.OutputDir, "PODFORGE_STORE_OUTPUT_DIR")
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

	switch cfg.Engine.Mode {
	case "mock", "exec", "openai", "gemini":
	default:
		return errors.New("engine.mode must be one of mock|exec|openai|gemini")
	}
	if cfg.Engine.Mode == "exec" && cfg.Engine.Command == "" {
		return errors.New("engine.command must be set when mode=exec")
	}
	if (cfg.Engine.Mode == "openai" || cfg.Engine.Mode == "gemini") && cfg.Engine.APIKey == "" {
		return fmt.Errorf("engine.api_key must be set when mode=%s", cfg.Engine.Mode)
	}
	if !containerFormats[cfg.Engine.Format] {
		return errors.New("engine.format must be one of mp3|wav|opus|aac|flac")
	}
	// PCM backends can only be wrapped into a WAV container.
	if (cfg.Engine.Mode == "exec" || cfg.Engine.Mode == "gemini") && cfg.Engine.Format != "wav" {
		return fmt.Errorf("engine.format must be wav when mode=%s", cfg.Engine.Mode)
	}
	if cfg.Engine.SampleRate <= 0 {
		return errors.New("engine.sample_rate must be positive")
	}
	if cfg.Engine.Channels <= 0 {
		return errors.New("engine.channels must be positive")
	}
	if cfg.Engine.MaxSpeakers < 0 {
		return errors.New("engine.max_speakers must be >= 0")
	}

	if cfg.Pipeline.MaxBatchSeconds <= 0 {
		return errors.New("pipeline.max_batch_seconds must be positive")
	}
	if cfg.Pipeline.WordsPerMinute <= 0 {
		return errors.New("pipeline.words_per_minute must be positive")
	}
	if cfg.Pipeline.InterBatchDelayMS < 0 {
		return errors.New("pipeline.inter_batch_delay_ms must be >= 0")
	}
	if cfg.Pipeline.CallTimeoutMS <= 0 {
		return errors.New("pipeline.call_timeout_ms must be positive")
	}
	if cfg.Pipeline.RetryMaxAttempts <= 0 {
		return errors.New("pipeline.retry_max_attempts must be >= 1")
	}
	if cfg.Pipeline.RetryBaseDelayMS < 0 {
		return errors.New("pipeline.retry_base_delay_ms must be >= 0")
	}
	if cfg.Pipeline.MaxScriptBytes <= 0 {
		return errors.New("pipeline.max_script_bytes must be positive")
	}

	if cfg.Roles.Host.Voice == "" || cfg.Roles.Guest.Voice == "" {
		return errors.New("roles.host.voice and roles.guest.voice must not be empty")
	}
	for i, extra := range cfg.Roles.Extras {
		if extra.Name == "" || extra.Voice == "" {
			return fmt.Errorf("roles.extras[%d] must set name and voice", i)
		}
	}

	if cfg.Enhance.Enabled {
		switch cfg.Enhance.Mode {
		case "mock", "ollama":
		default:
			return errors.New("enhance.mode must be one of mock|ollama")
		}
		if cfg.Enhance.Mode == "ollama" && cfg.Enhance.Endpoint == "" {
			return errors.New("enhance.endpoint must be set when mode=ollama")
		}
	}

	if cfg.Store.IndexPath == "" {
		return errors.New("store.index_path must not be empty")
	}
	if cfg.Store.OutputDir == "" {
		return errors.New("store.output_dir must not be empty")
	}
	return nil
}
