package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Apollo     ApolloConfig     `yaml:"apollo" mapstructure:"apollo"`
	Apify      ApifyConfig      `yaml:"apify" mapstructure:"apify"`
	Clay       ClayConfig       `yaml:"clay" mapstructure:"clay"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Profiles   ProfilesConfig   `yaml:"profiles" mapstructure:"profiles"`
	Export     ExportConfig     `yaml:"export" mapstructure:"export"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ApolloConfig holds discovery provider API settings.
type ApolloConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	PerPage int    `yaml:"per_page" mapstructure:"per_page"`
}

// ApifyConfig holds LinkedIn X-Ray search settings.
type ApifyConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	ActorID string `yaml:"actor_id" mapstructure:"actor_id"`
}

// ClayConfig holds enrichment webhook settings.
type ClayConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
	APIKey     string `yaml:"api_key" mapstructure:"api_key"`
}

// AnthropicConfig holds query-parser LLM settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// NotionConfig holds the optional Notion lead-database sink.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// SalesforceConfig holds the optional CRM push settings.
type SalesforceConfig struct {
	ClientID     string  `yaml:"client_id" mapstructure:"client_id"`
	Username     string  `yaml:"username" mapstructure:"username"`
	Domain       string  `yaml:"domain" mapstructure:"domain"`
	KeyPath      string  `yaml:"key_path" mapstructure:"key_path"`
	MinFitScore  int     `yaml:"min_fit_score" mapstructure:"min_fit_score"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// ProfilesConfig locates ICP profile files.
type ProfilesConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ExportConfig configures the artifact exporter.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	TopLeads  int    `yaml:"top_leads" mapstructure:"top_leads"`
}

// PipelineConfig configures orchestration defaults.
type PipelineConfig struct {
	Limit         int `yaml:"limit" mapstructure:"limit"`
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the HTTP front-end.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "leadgen.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("apollo.base_url", "https://api.apollo.io/v1")
	v.SetDefault("apollo.per_page", 25)
	v.SetDefault("apify.base_url", "https://api.apify.com/v2")
	v.SetDefault("apify.actor_id", "apify~google-search-scraper")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("profiles.dir", "profiles")
	v.SetDefault("export.output_dir", "output")
	v.SetDefault("export.top_leads", 10)
	v.SetDefault("pipeline.limit", 100)
	v.SetDefault("pipeline.max_concurrent", 5)
	v.SetDefault("salesforce.min_fit_score", 70)
	v.SetDefault("salesforce.rate_limit_rps", 5)

	// Credential keys get explicit empty defaults: AutomaticEnv only
	// surfaces env values for keys viper already knows about, so without
	// these Unmarshal would drop env-only credentials.
	for _, key := range []string{
		"store.database_url",
		"apollo.api_key",
		"apify.api_key",
		"clay.webhook_url",
		"clay.api_key",
		"anthropic.key",
		"notion.token",
		"notion.lead_db",
		"salesforce.client_id",
		"salesforce.username",
		"salesforce.domain",
		"salesforce.key_path",
	} {
		v.SetDefault(key, "")
	}

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
