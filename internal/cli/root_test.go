package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Adda-Baaj/market-brief/internal/config"
	"github.com/Adda-Baaj/market-brief/internal/domain"
	"github.com/Adda-Baaj/market-brief/internal/logger"
	"github.com/Adda-Baaj/market-brief/internal/pipeline"
	"github.com/Adda-Baaj/market-brief/pkg/providers"
)

func isolate(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, key := range []string{config.EnvOpenAIKey, config.EnvEmailAddress, config.EnvEmailPassword, "MARKET_BRIEF_STRATEGY", "MARKET_BRIEF_SOURCES_FILE", "MARKET_BRIEF_PUBLISHERS_FILE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func execute(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

type recordingCollector struct{ sources []providers.Provider }

func (r *recordingCollector) Collect(_ context.Context, sources []providers.Provider) domain.HeadlineSet {
	r.sources = sources
	return domain.NewHeadlineSet(domain.SourceResult{Source: "Investing.com", Headlines: []domain.Headline{{Title: "Stocks rally"}}})
}

type staticCompleter struct{}

func (staticCompleter) Complete(context.Context, string) domain.Report { return domain.Ready("report") }

type recordingMailer struct{ subjects []string }

func (r *recordingMailer) Send(_ context.Context, subject, _ string) bool {
	r.subjects = append(r.subjects, subject)
	return true
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, &app{info: BuildInfo{Version: "1.2.3", Commit: "abc", Date: "today"}}, "version")
	assert.Equal(t, nil, err)
	assert.Equal(t, "market-brief 1.2.3 (commit: abc, built: today)\n", out)
}

func TestSourcesCommandListsActiveStrategy(t *testing.T) {
	isolate(t)

	out, err := execute(t, &app{}, "sources")
	assert.Equal(t, nil, err)
	for _, want := range []string{"cnbc", "yahoo-finance", "investing", "https://www.cnbc.com/world/?region=world"} {
		if !strings.Contains(out, want) {
			t.Errorf("markup listing missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "investing-rss") {
		t.Errorf("markup listing contains the feed source:\n%s", out)
	}

	out, err = execute(t, &app{}, "sources", "--strategy", "feed")
	assert.Equal(t, nil, err)
	if !strings.Contains(out, "investing-rss") || strings.Contains(out, "cnbc") {
		t.Errorf("unexpected feed listing:\n%s", out)
	}
}

func TestSourcesCommandReadsSourcesFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "sources.yaml")
	doc := "providers:\n  - id: marketwatch\n    name: MarketWatch\n    type: markup\n    source_url: https://www.marketwatch.com/\n    selector:\n      tag: h3\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MARKET_BRIEF_SOURCES_FILE", path)

	out, err := execute(t, &app{}, "sources")
	assert.Equal(t, nil, err)
	if !strings.Contains(out, "MarketWatch") || strings.Contains(out, "cnbc") {
		t.Errorf("unexpected listing:\n%s", out)
	}
}

func TestUnknownStrategyFlagIsRejected(t *testing.T) {
	isolate(t)

	_, err := execute(t, &app{}, "sources", "--strategy", "sitemap")
	if err == nil || !strings.Contains(err.Error(), "unknown strategy") {
		t.Fatalf("expected unknown strategy error, got %v", err)
	}
}

func TestRunWithoutCredentialsBuildsNothing(t *testing.T) {
	isolate(t)
	built := 0
	a := &app{factory: func(logger.Logger) pipeline.Factory {
		return func(context.Context, *config.Config) (*pipeline.Components, error) {
			built++
			return nil, nil
		}
	}}

	_, err := execute(t, a, "--log-level", "error")
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, built)
}

func TestRunUsesStrategyOverride(t *testing.T) {
	isolate(t)
	t.Setenv(config.EnvOpenAIKey, "sk-test")
	t.Setenv(config.EnvEmailAddress, "me@example.com")
	t.Setenv(config.EnvEmailPassword, "app-pass")

	collector := &recordingCollector{}
	mail := &recordingMailer{}
	a := &app{factory: func(logger.Logger) pipeline.Factory {
		return func(_ context.Context, cfg *config.Config) (*pipeline.Components, error) {
			sources, err := loadSources(cfg)
			if err != nil {
				return nil, err
			}
			return &pipeline.Components{Sources: sources, Collector: collector, Completer: staticCompleter{}, Mailer: mail}, nil
		}
	}}

	_, err := execute(t, a, "--strategy", "feed", "--log-level", "error")
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(collector.sources))
	assert.Equal(t, "investing-rss", collector.sources[0].ID)
	assert.Equal(t, []string{"📈 오늘의 미국 주식 추천 리포트"}, mail.subjects)
}

func TestComponentFactoryRunsWithoutBrokenPublishers(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"unreadable file": filepath.Join(dir, "missing.yaml"),
		"invalid sink":    filepath.Join(dir, "publishers.yaml"),
	}
	err := os.WriteFile(cases["invalid sink"], []byte("publishers:\n  - id: hook\n    type: carrier-pigeon\n    enabled: true\n"), 0o600)
	assert.Equal(t, nil, err)

	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			cfg := &config.Config{
				Credentials: config.Credentials{OpenAIKey: "sk-test", EmailAddress: "me@example.com", EmailPassword: "app-pass"},
				Strategy:    config.StrategyMarkup,
				Publishers:  path,
			}

			comps, err := componentFactory(logger.FromZap(zap.New(core)))(context.Background(), cfg)
			assert.Equal(t, nil, err)
			assert.NotEqual(t, nil, comps)
			assert.Equal(t, nil, comps.Publisher)
			assert.Equal(t, 3, len(comps.Sources))

			warned := logs.FilterField(zap.String("event", "publishers_unavailable")).All()
			assert.Equal(t, 1, len(warned))
			assert.Equal(t, zapcore.WarnLevel, warned[0].Level)
		})
	}
}

func TestComponentFactoryBuildsConfiguredPublishers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.yaml")
	err := os.WriteFile(path, []byte("publishers:\n  - id: hook\n    type: http\n    enabled: true\n    http:\n      url: http://127.0.0.1:9/hook\n"), 0o600)
	assert.Equal(t, nil, err)

	cfg := &config.Config{
		Credentials: config.Credentials{OpenAIKey: "sk-test", EmailAddress: "me@example.com", EmailPassword: "app-pass"},
		Strategy:    config.StrategyMarkup,
		Publishers:  path,
	}
	comps, err := componentFactory(logger.NopLogger{})(context.Background(), cfg)
	assert.Equal(t, nil, err)
	assert.NotEqual(t, nil, comps.Publisher)
}
