// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/transmute-dev/transmute/internal/config"
	"github.com/transmute-dev/transmute/internal/model"
	"github.com/transmute-dev/transmute/internal/orchestrator"
	"github.com/transmute-dev/transmute/internal/translate"
)

var metricsAddr string

var migrateCmd = &cobra.Command{
	Use:   "migrate <input-dir>",
	Short: "Convert a C project to C#, validating every function against generated tests",
	Args:  cobra.ExactArgs(1),
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "expose Prometheus metrics on this address (e.g. :9090), disabled by default")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	inputDir := args[0]
	cfg := config.Global
	log := newLogger()

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn("metrics server stopped", "error", err)
			}
		}()
		defer server.Close()
	}

	client := translate.NewClient(
		translate.WithBackend(resolveBackend(cfg)),
		translate.WithMaxRetries(cfg.MaxRetries),
		translate.WithMaxParallel(cfg.Converter.Gemini.MaxParallel),
		translate.WithChunkSize(cfg.Converter.Gemini.ChunkSize),
		translate.WithRateLimiter(translate.NewRateLimiter(cfg.Converter.Gemini.RateLimiting.MaxRequestsPerMinute)),
		translate.WithClientLogger(log),
	)

	o := orchestrator.New(
		orchestrator.WithTranslator(client),
		orchestrator.WithMaxRetries(cfg.MaxRetries),
		orchestrator.WithOutputDir(cfg.OutputDir),
		orchestrator.WithParallelExecution(cfg.ParallelExecution),
		orchestrator.WithOrchestratorLogger(log),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	report, err := o.MigrateAll(ctx, []string{inputDir})
	if err != nil {
		return fmt.Errorf("migrate %s: %w", inputDir, err)
	}

	if err := writeReport(cfg.OutputDir, report); err != nil {
		log.Warn("failed to persist migration report", "error", err)
	}

	printReportSummary(report)
	if report.ExitCode() != 0 {
		os.Exit(report.ExitCode())
	}
	return nil
}

// resolveBackend builds the configured translator backend, or nil when
// no backend is enabled so the client falls back to rule-based conversion.
func resolveBackend(cfg config.MigrateConfig) translate.Backend {
	switch cfg.Converter.Backend {
	case "openai":
		if cfg.Converter.OpenAI.Enabled && cfg.Converter.OpenAI.APIKey != "" {
			return translate.NewOpenAIBackend(cfg.Converter.OpenAI.APIKey, cfg.Converter.OpenAI.Model)
		}
	default: // "gemini"
		if cfg.Converter.Gemini.Enabled && cfg.Converter.Gemini.APIKey != "" {
			return translate.NewGeminiBackend(cfg.Converter.Gemini.APIKey, cfg.Converter.Gemini.Model, cfg.Converter.Gemini.MaxTokens)
		}
	}
	return nil
}

// writeReport persists the report as JSON under outputDir/reports/<run-id>.json
// so a later `migratool report` invocation can re-render it.
func writeReport(outputDir string, report *model.MigrationReport) error {
	dir := filepath.Join(outputDir, "reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(dir, report.RunID+".json")
	return os.WriteFile(path, data, 0o644)
}

func printReportSummary(report *model.MigrationReport) {
	fmt.Printf("run %s: %d total, %d converted, %d failed, %d skipped (%s)\n",
		report.RunID, report.Total, report.Converted, report.Failed, report.Skipped,
		report.Duration.Round(time.Millisecond))
	if len(report.Cycles) > 0 {
		fmt.Printf("  %d dependency cycle(s) detected\n", len(report.Cycles))
	}
	for _, r := range report.Results {
		fmt.Printf("  %s\n", r.Summary())
	}
}
