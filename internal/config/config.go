package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tripworks/costing-gpt/internal/blob"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Analyzer AnalyzerConfig `yaml:"analyzer" mapstructure:"analyzer"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Blob     blob.Config    `yaml:"blob" mapstructure:"blob"`
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Chat     ChatConfig     `yaml:"chat" mapstructure:"chat"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins  []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxUploadBytes  int64    `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	ShutdownTimeout int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// AnalyzerConfig configures the document intelligence service.
type AnalyzerConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Key      string `yaml:"key" mapstructure:"key"`
	ModelID  string `yaml:"model_id" mapstructure:"model_id"`
}

// LLMConfig configures the chat and extraction model providers.
type LLMConfig struct {
	Provider      string  `yaml:"provider" mapstructure:"provider"`
	Key           string  `yaml:"key" mapstructure:"key"`
	Endpoint      string  `yaml:"endpoint" mapstructure:"endpoint"`
	Model         string  `yaml:"model" mapstructure:"model"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// ExtractConfig configures the extraction cascade.
type ExtractConfig struct {
	LLMFallback bool `yaml:"llm_fallback" mapstructure:"llm_fallback"`
}

// ChatConfig configures the assistant.
type ChatConfig struct {
	Model string `yaml:"model" mapstructure:"model"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COSTING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_bytes", 4*1024*1024)
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("analyzer.model_id", "prebuilt-hoteltariff")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.rate_per_second", 1)
	v.SetDefault("extract.llm_fallback", true)
	v.SetDefault("chat.model", "gpt-4o")
	v.SetDefault("blob.bucket", "costing-documents")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a given mode needs before it starts. Modes
// fail fast on boot rather than on the first request.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Store.Driver != "postgres" && c.Store.Driver != "sqlite" {
		problems = append(problems, "store.driver must be postgres or sqlite")
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required for the postgres driver")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Server.MaxUploadBytes <= 0 {
			problems = append(problems, "server.max_upload_bytes must be > 0")
		}
	case "process", "import", "migrate", "export":
		// Store checks above are enough.
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
