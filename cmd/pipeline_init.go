package main

import (
	"context"
	"os"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/profile"
	"github.com/sells-group/leadgen-cli/internal/query"
	"github.com/sells-group/leadgen-cli/internal/source"
	"github.com/sells-group/leadgen-cli/internal/store"
	anthropicpkg "github.com/sells-group/leadgen-cli/pkg/anthropic"
	"github.com/sells-group/leadgen-cli/pkg/apify"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
	"github.com/sells-group/leadgen-cli/pkg/clay"
	"github.com/sells-group/leadgen-cli/pkg/notion"
	sfpkg "github.com/sells-group/leadgen-cli/pkg/salesforce"
)

// pipelineEnv holds the initialized store, clients and pipeline used by
// the run/batch/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Exporter *export.Exporter
	Profiles *profile.Loader
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline sets up the store, the configured source adapters and stage
// collaborators, and builds the Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	loader := profile.NewLoader(cfg.Profiles.Dir)

	// The mock source is always available for dry runs; the API-backed
	// sources are registered only when credentials exist. Validate runs
	// before the pipeline so a missing credential is a config error, not
	// a missing source.
	sources := []source.Source{source.NewMockSource()}
	if cfg.Apollo.APIKey != "" {
		client := apollo.NewClient(cfg.Apollo.APIKey, apollo.WithBaseURL(cfg.Apollo.BaseURL))
		sources = append(sources, source.NewApolloSource(client, cfg.Apollo.PerPage))
	}
	if cfg.Apify.APIKey != "" {
		client := apify.NewClient(cfg.Apify.APIKey, apify.WithBaseURL(cfg.Apify.BaseURL))
		sources = append(sources, source.NewLinkedInSource(client, cfg.Apify.ActorID))
	}

	var parser query.Parser
	if cfg.Anthropic.Key != "" {
		parser = query.NewLLMParser(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
	} else {
		parser = query.HeuristicParser{}
	}

	var enricher pipeline.Enricher
	if cfg.Clay.WebhookURL != "" {
		enricher = enrich.NewEnricher(clay.NewClient(cfg.Clay.WebhookURL, cfg.Clay.APIKey))
	}

	exporter, err := initExporter(st, cfg.Export.OutputDir)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	p := pipeline.New(st, loader, parser, sources, enricher, exporter)
	return &pipelineEnv{
		Store:    st,
		Pipeline: p,
		Exporter: exporter,
		Profiles: loader,
	}, nil
}

// initExporter builds the artifact exporter with any configured
// downstream pushes.
func initExporter(st store.Store, outDir string) (*export.Exporter, error) {
	opts := []export.Option{export.WithTopLeads(cfg.Export.TopLeads)}

	if cfg.Notion.Token != "" && cfg.Notion.LeadDB != "" {
		notionClient := notion.NewClient(cfg.Notion.Token)
		opts = append(opts, export.WithNotion(export.NewNotionPusher(notionClient, cfg.Notion.LeadDB)))
	}

	if cfg.Salesforce.ClientID != "" {
		sfClient, err := initSalesforce()
		if err != nil {
			return nil, err
		}
		opts = append(opts, export.WithSalesforce(export.NewSalesforcePusher(sfClient, cfg.Salesforce.MinFitScore)))
	}

	return export.New(st, outDir, opts...), nil
}

func initSalesforce() (sfpkg.Client, error) {
	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.Domain,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	zap.L().Info("salesforce client initialized", zap.String("domain", cfg.Salesforce.Domain))
	return sfpkg.NewClient(sf, sfpkg.WithRateLimit(cfg.Salesforce.RateLimitRPS)), nil
}
