package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/spf13/viper"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvOpenAIKey, EnvEmailAddress, EnvEmailPassword, "MARKET_BRIEF_STRATEGY", "MARKET_BRIEF_LOGGING_LEVEL", "MARKET_BRIEF_SMTP_PORT", "MARKET_BRIEF_HTTP_TIMEOUT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(viper.New(), "")
	assert.Equal(t, nil, err)

	assert.Equal(t, StrategyMarkup, cfg.Strategy)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTP.Host)
	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.Equal(t, time.Duration(0), cfg.HTTP.Timeout)
	assert.Equal(t, time.Duration(0), cfg.LLM.Timeout)
	assert.Equal(t, 30*time.Second, cfg.SMTP.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, Profile{Subject: "📈 오늘의 미국 주식 리포트", MaxTokens: 1200}, cfg.Profile())
}

func TestLoadReadsCredentialsFromBareEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvOpenAIKey, "sk-live")
	t.Setenv(EnvEmailAddress, " me@example.com ")
	t.Setenv(EnvEmailPassword, "app-pass")
	t.Setenv("MARKET_BRIEF_STRATEGY", "FEED")
	t.Setenv("MARKET_BRIEF_SMTP_PORT", "2465")
	t.Setenv("MARKET_BRIEF_HTTP_TIMEOUT", "20s")

	cfg, err := loadWith(viper.New(), "")
	assert.Equal(t, nil, err)

	assert.Equal(t, "sk-live", cfg.Credentials.OpenAIKey)
	assert.Equal(t, "me@example.com", cfg.Credentials.EmailAddress)
	assert.Equal(t, "app-pass", cfg.Credentials.EmailPassword)
	assert.Equal(t, StrategyFeed, cfg.Strategy)
	assert.Equal(t, 2465, cfg.SMTP.Port)
	assert.Equal(t, 20*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 1000, cfg.Profile().MaxTokens)
	assert.Equal(t, nil, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "brief.yaml")
	doc := "strategy: feed\nllm:\n  max_tokens: 800\n  timeout: 45s\nlogging:\n  format: json\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadWith(viper.New(), path)
	assert.Equal(t, nil, err)

	assert.Equal(t, StrategyFeed, cfg.Strategy)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, Profile{Subject: "📈 오늘의 미국 주식 추천 리포트", MaxTokens: 800}, cfg.Profile())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := loadWith(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.NotEqual(t, nil, err)
}

func TestLoadRejectsUnknownStrategy(t *testing.T) {
	clearEnv(t)
	t.Setenv("MARKET_BRIEF_STRATEGY", "sitemap")

	_, err := loadWith(viper.New(), "")
	if err == nil || !strings.Contains(err.Error(), "unknown strategy") {
		t.Fatalf("expected unknown strategy error, got %v", err)
	}
}

func TestValidateListsEveryMissingCredential(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		want  []string
	}{
		{"all missing", Credentials{}, []string{EnvOpenAIKey, EnvEmailAddress, EnvEmailPassword}},
		{"no key", Credentials{EmailAddress: "a@b.c", EmailPassword: "p"}, []string{EnvOpenAIKey}},
		{"no password", Credentials{OpenAIKey: "k", EmailAddress: "a@b.c"}, []string{EnvEmailPassword}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			assert.Equal(t, true, errors.Is(err, ErrMissingCredentials))
			for _, name := range tt.want {
				if !strings.Contains(err.Error(), name) {
					t.Errorf("error %q does not name %s", err, name)
				}
			}
		})
	}

	assert.Equal(t, nil, Credentials{OpenAIKey: "k", EmailAddress: "a@b.c", EmailPassword: "p"}.Validate())
}

func TestOverride(t *testing.T) {
	cfg := &Config{Strategy: StrategyMarkup, Logging: LoggingConfig{Level: "info"}}

	assert.Equal(t, nil, cfg.Override(" Feed ", "debug"))
	assert.Equal(t, StrategyFeed, cfg.Strategy)
	assert.Equal(t, "debug", cfg.Logging.Level)

	assert.Equal(t, nil, cfg.Override("", ""))
	assert.Equal(t, StrategyFeed, cfg.Strategy)

	assert.NotEqual(t, nil, cfg.Override("sitemap", ""))
	assert.Equal(t, StrategyFeed, cfg.Strategy)
}
