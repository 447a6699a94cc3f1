package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/spektr-org/iplstats/assistant"
	"github.com/spektr-org/iplstats/config"
	"github.com/spektr-org/iplstats/dataset"
	"github.com/spektr-org/iplstats/logging"
	"github.com/spektr-org/iplstats/schema"
	"github.com/spektr-org/iplstats/translator"
)

// keyPrompter asks the user for a missing API key.
type keyPrompter func() (string, error)

// app holds everything a command needs once startup succeeded.
type app struct {
	cfg       *config.Config
	table     *dataset.Table
	schema    *schema.Config
	summary   dataset.Summary
	assistant *assistant.Assistant
}

// Close releases the dataset.
func (a *app) Close() {
	if a.table != nil {
		a.table.Release()
	}
}

// load reads config, loads the dataset and builds the assistant.
// Any error here is fatal: the question loop never starts.
func load(ctx context.Context, configPath string, prompt keyPrompter) (*app, error) {
	cfg, err := config.Read(configPath)
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.Logging)

	if err := cfg.ValidateSource(); err != nil {
		return nil, err
	}
	if cfg.LLM.NeedsAPIKey() && cfg.LLM.APIKey == "" && prompt != nil {
		if cfg.LLM.APIKey, err = prompt(); err != nil {
			return nil, fmt.Errorf("could not read API key: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a, err := loadData(ctx, cfg)
	if err != nil {
		return nil, err
	}

	completer, err := translator.NewCompleter(cfg.LLM.Provider, translator.Config{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Endpoint:    cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	tr := translator.New(completer, *a.schema, &a.summary, cfg.LLM.Timeout)
	a.assistant = assistant.New(a.table, tr, *a.schema, assistant.OptionsFrom(cfg.Assistant))
	return a, nil
}

// loadData loads the dataset and discovers its schema. It needs no LLM settings.
func loadData(ctx context.Context, cfg *config.Config) (*app, error) {
	catalog := schema.Cricket()
	if cfg.Dataset.SchemaFile != "" {
		var err error
		if catalog, err = schema.LoadCatalog(cfg.Dataset.SchemaFile); err != nil {
			return nil, err
		}
	}

	table, err := dataset.Load(ctx, cfg.DatabaseURL, dataset.Options{
		Table:   cfg.Dataset.Table,
		MaxRows: cfg.Dataset.MaxRows,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	sch := schema.Discover(table, catalog)
	if cfg.Dataset.Table != "" {
		sch.Table = cfg.Dataset.Table
	}
	summary := dataset.Summarize(table)

	logrus.WithFields(logrus.Fields{
		"records":    summary.Records,
		"seasons":    summary.Seasons,
		"dimensions": len(sch.Dimensions),
		"measures":   len(sch.Measures),
		"skipped":    len(sch.SkippedColumns),
	}).Info("dataset ready")

	return &app{cfg: cfg, table: table, schema: sch, summary: summary}, nil
}

// loadSource is load without the LLM: for commands that only inspect data.
func loadSource(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Read(configPath)
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.Logging)
	if err := cfg.ValidateSource(); err != nil {
		return nil, err
	}
	return loadData(ctx, cfg)
}
