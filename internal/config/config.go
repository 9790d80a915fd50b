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
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

// BusConfig controls the optional NATS broadcast of completed transcriptions.
type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
	Subject        string   `yaml:"subject"`
}

// HistoryConfig controls the SQLite transcription history store.
// An empty path disables persistence entirely.
type HistoryConfig struct {
	Path          string `yaml:"path"`
	MaxRecords    int    `yaml:"max_records"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

// RecognizerConfig selects the speech-to-text backend used by the server.
type RecognizerConfig struct {
	Mode      string `yaml:"mode"` // mock, exec
	Command   string `yaml:"command"`
	ModelPath string `yaml:"model_path"`
	Language  string `yaml:"language"`
}

// CaptureConfig describes the microphone capture format used by the client.
type CaptureConfig struct {
	SampleRate     int `yaml:"sample_rate"`
	Channels       int `yaml:"channels"`
	FramesPerChunk int `yaml:"frames_per_chunk"`
}

// ClientConfig configures the capture client's submission endpoint.
type ClientConfig struct {
	Endpoint       string `yaml:"endpoint"`
	RequestTimeout int    `yaml:"request_timeout_ms"`
	CopyResetMS    int    `yaml:"copy_reset_ms"`
}

type Config struct {
	RuntimeName string           `yaml:"runtime_name"`
	Environment string           `yaml:"environment"`
	HTTP        HTTPConfig       `yaml:"http"`
	Telemetry   TelemetryConfig  `yaml:"telemetry"`
	Bus         BusConfig        `yaml:"bus"`
	History     HistoryConfig    `yaml:"history"`
	Recognizer  RecognizerConfig `yaml:"recognizer"`
	Capture     CaptureConfig    `yaml:"capture"`
	Client      ClientConfig     `yaml:"client"`
}

func Default() Config {
	return Config{
		RuntimeName: "speech-to-chords",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
			Subject:        "chords.transcription",
		},
		History: HistoryConfig{
			Path:       "./data/transcriptions.db",
			MaxRecords: 1000,
		},
		Recognizer: RecognizerConfig{
			Mode: "mock",
		},
		Capture: CaptureConfig{
			SampleRate:     16000,
			Channels:       1,
			FramesPerChunk: 1024,
		},
		Client: ClientConfig{
			Endpoint:       "http://localhost:8080/transcribe",
			RequestTimeout: 60000,
			CopyResetMS:    2000,
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
	overrideString(&cfg.RuntimeName, "CHORDS_RUNTIME_NAME")
	overrideString(&cfg.Environment, "CHORDS_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "CHORDS_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "CHORDS_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "CHORDS_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "CHORDS_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "CHORDS_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "CHORDS_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Enabled, "CHORDS_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "CHORDS_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "CHORDS_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "CHORDS_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "CHORDS_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "CHORDS_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "CHORDS_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "CHORDS_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "CHORDS_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Bus.Subject, "CHORDS_BUS_SUBJECT")
	overrideString(&cfg.History.Path, "CHORDS_HISTORY_PATH")
	overrideInt(&cfg.History.MaxRecords, "CHORDS_HISTORY_MAX_RECORDS")
	overrideBool(&cfg.History.VacuumOnStart, "CHORDS_HISTORY_VACUUM_ON_START")
	overrideString(&cfg.Recognizer.Mode, "CHORDS_RECOGNIZER_MODE")
	overrideString(&cfg.Recognizer.Command, "CHORDS_RECOGNIZER_COMMAND")
	overrideString(&cfg.Recognizer.ModelPath, "CHORDS_RECOGNIZER_MODEL_PATH")
	overrideString(&cfg.Recognizer.Language, "CHORDS_RECOGNIZER_LANGUAGE")
	overrideInt(&cfg.Capture.SampleRate, "CHORDS_CAPTURE_SAMPLE_RATE")
	overrideInt(&cfg.Capture.Channels, "CHORDS_CAPTURE_CHANNELS")
	overrideInt(&cfg.Capture.FramesPerChunk, "CHORDS_CAPTURE_FRAMES_PER_CHUNK")
	overrideString(&cfg.Client.Endpoint, "CHORDS_CLIENT_ENDPOINT")
	overrideInt(&cfg.Client.RequestTimeout, "CHORDS_CLIENT_REQUEST_TIMEOUT_MS")
	overrideInt(&cfg.Client.CopyResetMS, "CHORDS_CLIENT_COPY_RESET_MS")
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
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
		if cfg.Bus.Subject == "" {
			return errors.New("bus.subject must not be empty when the bus is enabled")
		}
	}
	if cfg.History.MaxRecords < 0 {
		return errors.New("history.max_records must be >= 0")
	}
	switch cfg.Recognizer.Mode {
	case "mock", "exec":
	default:
		return errors.New("recognizer.mode must be one of mock|exec")
	}
	if cfg.Recognizer.Mode == "exec" && cfg.Recognizer.Command == "" {
		return errors.New("recognizer.command must be set when mode=exec")
	}
	if cfg.Capture.SampleRate <= 0 {
		return errors.New("capture.sample_rate must be positive")
	}
	if cfg.Capture.Channels <= 0 {
		return errors.New("capture.channels must be positive")
	}
	if cfg.Capture.FramesPerChunk <= 0 {
		return errors.New("capture.frames_per_chunk must be positive")
	}
	if cfg.Client.Endpoint == "" {
		return errors.New("client.endpoint must not be empty")
	}
	if cfg.Client.RequestTimeout <= 0 {
		return errors.New("client.request_timeout_ms must be positive")
	}
	if cfg.Client.CopyResetMS <= 0 {
		return errors.New("client.copy_reset_ms must be positive")
	}
	return nil
}
