// Package config builds the run configuration from the environment, an
// optional .env file and an optional market-brief.yaml.
//
// Credentials are read from OPENAI_API_KEY, EMAIL_ADDRESS and EMAIL_PASSWORD.
// Every other key may be overridden with a MARKET_BRIEF_ prefixed variable,
// e.g. MARKET_BRIEF_STRATEGY=feed or MARKET_BRIEF_LOGGING_LEVEL=debug.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StrategyMarkup = "markup"
	StrategyFeed   = "feed"

	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvEmailAddress  = "EMAIL_ADDRESS"
	EnvEmailPassword = "EMAIL_PASSWORD"

	envPrefix = "MARKET_BRIEF"
	appName   = "market-brief"
)

// ErrMissingCredentials is returned by Validate when a required secret is absent.
var ErrMissingCredentials = errors.New("missing required environment variables")

// Config is the complete run configuration. It is built once at start-up and
// passed to every component.
type Config struct {
	Credentials Credentials   `mapstructure:"credentials"`
	Strategy    string        `mapstructure:"strategy"`
	SourcesFile string        `mapstructure:"sources_file"`
	LLM         LLMConfig     `mapstructure:"llm"`
	SMTP        SMTPConfig    `mapstructure:"smtp"`
	HTTP        HTTPConfig    `mapstructure:"http"`
	Logging     LoggingConfig `mapstructure:"logging"`
	Publishers  string        `mapstructure:"publishers_file"`
}

// Credentials holds the three secrets the pipeline needs.
type Credentials struct {
	OpenAIKey     string `mapstructure:"openai_key"`
	EmailAddress  string `mapstructure:"email_address"`
	EmailPassword string `mapstructure:"email_password"`
}

// LLMConfig holds completion settings. Zero MaxTokens uses the strategy profile
// and zero Timeout leaves the client library default in place.
type LLMConfig struct {
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SMTPConfig holds mail submission settings.
type SMTPConfig struct {
	Host    string        `mapstructure:"host"`
	Port    int           `mapstructure:"port"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// HTTPConfig holds source fetch settings. Zero Timeout keeps the HTTP client
// default.
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
}

// Profile carries the per-strategy constants.
type Profile struct {
	Subject   string
	MaxTokens int
}

var profiles = map[string]Profile{
	StrategyMarkup: {Subject: "📈 오늘의 미국 주식 리포트", MaxTokens: 1200},
	StrategyFeed:   {Subject: "📈 오늘의 미국 주식 추천 리포트", MaxTokens: 1000},
}

// Load reads .env (if present), then the config file (if any) and the
// environment. configFile may be empty to use the default search path:
//  1. ./market-brief.yaml
//  2. $XDG_CONFIG_HOME/market-brief/market-brief.yaml
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return loadWith(viper.New(), configFile)
}

func loadWith(v *viper.Viper, configFile string) (*Config, error) {
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(appName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, appName))
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials keep their bare, unprefixed names.
	_ = v.BindEnv("credentials.openai_key", EnvOpenAIKey)
	_ = v.BindEnv("credentials.email_address", EnvEmailAddress)
	_ = v.BindEnv("credentials.email_password", EnvEmailPassword)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalize()

	if _, ok := profiles[cfg.Strategy]; !ok {
		return nil, fmt.Errorf("unknown strategy %q (valid: %s, %s)", cfg.Strategy, StrategyMarkup, StrategyFeed)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("strategy", StrategyMarkup)
	v.SetDefault("sources_file", "")
	v.SetDefault("publishers_file", "")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 0)
	v.SetDefault("llm.timeout", time.Duration(0))
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 465)
	v.SetDefault("smtp.timeout", 30*time.Second)
	v.SetDefault("http.timeout", time.Duration(0))
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("credentials.openai_key", "")
	v.SetDefault("credentials.email_address", "")
	v.SetDefault("credentials.email_password", "")
}

func (c *Config) normalize() {
	c.Strategy = strings.ToLower(strings.TrimSpace(c.Strategy))
	c.Credentials.OpenAIKey = strings.TrimSpace(c.Credentials.OpenAIKey)
	c.Credentials.EmailAddress = strings.TrimSpace(c.Credentials.EmailAddress)
	c.SourcesFile = strings.TrimSpace(c.SourcesFile)
	c.Publishers = strings.TrimSpace(c.Publishers)
}

// Override applies command-line values on top of the loaded configuration.
// Empty values leave the current setting alone.
func (c *Config) Override(strategy, logLevel string) error {
	if s := strings.ToLower(strings.TrimSpace(strategy)); s != "" {
		if _, ok := profiles[s]; !ok {
			return fmt.Errorf("unknown strategy %q (valid: %s, %s)", strategy, StrategyMarkup, StrategyFeed)
		}
		c.Strategy = s
	}
	if l := strings.TrimSpace(logLevel); l != "" {
		c.Logging.Level = l
	}
	return nil
}

// Validate checks the credentials.
func (c *Config) Validate() error {
	return c.Credentials.Validate()
}

// Validate reports every missing credential at once.
func (c Credentials) Validate() error {
	var missing []string
	if c.OpenAIKey == "" {
		missing = append(missing, EnvOpenAIKey)
	}
	if c.EmailAddress == "" {
		missing = append(missing, EnvEmailAddress)
	}
	if c.EmailPassword == "" {
		missing = append(missing, EnvEmailPassword)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// Profile returns the constants for the configured strategy.
func (c *Config) Profile() Profile {
	p := profiles[c.Strategy]
	if c.LLM.MaxTokens > 0 {
		p.MaxTokens = c.LLM.MaxTokens
	}
	return p
}
