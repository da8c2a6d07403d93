package cli

import (
	"context"
	"fmt"

	"github.com/Adda-Baaj/market-brief/internal/config"
	"github.com/Adda-Baaj/market-brief/internal/crawler"
	"github.com/Adda-Baaj/market-brief/internal/logger"
	"github.com/Adda-Baaj/market-brief/internal/pipeline"
	"github.com/Adda-Baaj/market-brief/pkg/httpclient"
	"github.com/Adda-Baaj/market-brief/pkg/llm"
	"github.com/Adda-Baaj/market-brief/pkg/mailer"
	"github.com/Adda-Baaj/market-brief/pkg/providers"
	"github.com/Adda-Baaj/market-brief/pkg/publishers"
)

// loadSources returns the providers for the configured strategy, from the
// embedded table unless sources_file is set.
func loadSources(cfg *config.Config) ([]providers.Provider, error) {
	var (
		reg *providers.Registry
		err error
	)
	if cfg.SourcesFile != "" {
		reg, err = providers.LoadRegistry(cfg.SourcesFile)
	} else {
		reg, err = providers.DefaultRegistry()
	}
	if err != nil {
		return nil, err
	}

	sources := reg.ByType(cfg.Strategy)
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources configured for strategy %q", cfg.Strategy)
	}
	return sources, nil
}

// componentFactory wires the production collaborators of a run.
func componentFactory(log logger.Logger) pipeline.Factory {
	return func(ctx context.Context, cfg *config.Config) (*pipeline.Components, error) {
		sources, err := loadSources(cfg)
		if err != nil {
			return nil, err
		}

		fetchers := providers.DefaultFetcherRegistry(httpclient.NewRestyClient(cfg.HTTP.Timeout))

		completer, err := llm.NewClient(llm.Options{
			APIKey:      cfg.Credentials.OpenAIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.Profile().MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		}, log)
		if err != nil {
			return nil, err
		}

		comps := &pipeline.Components{
			Sources:   sources,
			Collector: crawler.NewCollector(fetchers, log),
			Completer: completer,
			Mailer: mailer.New(mailer.Config{
				Host:     cfg.SMTP.Host,
				Port:     cfg.SMTP.Port,
				Address:  cfg.Credentials.EmailAddress,
				Password: cfg.Credentials.EmailPassword,
				Timeout:  cfg.SMTP.Timeout,
			}, log),
		}

		if pub := loadPublishers(ctx, cfg, log); pub != nil {
			comps.Publisher = pub
		}
		return comps, nil
	}
}

// loadPublishers builds the optional run-event sinks. Run events are
// best-effort, so a sink that cannot be loaded or built is logged and the run
// continues without publishing.
func loadPublishers(ctx context.Context, cfg *config.Config, log logger.Logger) *publishers.Dispatcher {
	if cfg.Publishers == "" {
		return nil
	}

	pubCfgs, err := publishers.LoadConfigs(cfg.Publishers)
	if err == nil {
		var pubs []publishers.Publisher
		if pubs, err = publishers.BuildAll(ctx, publishers.DefaultRegistry(), pubCfgs, log); err == nil {
			return publishers.NewDispatcher(pubs, log)
		}
	}

	logger.Ensure(log).WarnObj("run-event publishers disabled for this run", "publishers_unavailable", map[string]any{
		"file":  cfg.Publishers,
		"error": err.Error(),
	})
	return nil
}
