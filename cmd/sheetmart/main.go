//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of SheetMart.
//
// SheetMart is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SheetMart is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with SheetMart. If not, see https://www.gnu.org/licenses/.

// Command sheetmart runs the spreadsheet-to-dimension pipeline from the
// command line: either against one named object, or against every
// object-created record of a storage event notification document.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aaronlmathis/sheetmart"
	"github.com/aaronlmathis/sheetmart/core"
	"github.com/aaronlmathis/sheetmart/dimension"
	"github.com/aaronlmathis/sheetmart/schema"
	"github.com/aaronlmathis/sheetmart/storage"
	"github.com/aaronlmathis/sheetmart/trigger"
	"github.com/aaronlmathis/sheetmart/warehouse"
)

var (
	flagSchema    string
	flagBucket    string
	flagKey       string
	flagEventFile string

	flagLocalRoot   string
	flagS3Region    string
	flagS3Profile   string
	flagS3Endpoint  string
	flagS3PathStyle bool

	flagWarehouseDSN string
	flagRejectRatio  float64
	flagMergePolicy  string
	flagLogLevel     string
	flagLogFormat    string
)

func main() {
	root := &cobra.Command{
		Use:          "sheetmart",
		Short:        "Event-triggered spreadsheet-to-dimension ETL pipeline",
		SilenceUsage: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Process one source object (or an event notification) end to end",
		RunE:  runPipeline,
	}
	runCmd.Flags().StringVar(&flagSchema, "schema", "", "path to the YAML table/dimension definition (required)")
	runCmd.Flags().StringVar(&flagBucket, "bucket", "", "source bucket")
	runCmd.Flags().StringVar(&flagKey, "key", "", "source object key")
	runCmd.Flags().StringVar(&flagEventFile, "event", "", "path to a storage event notification JSON file")
	runCmd.Flags().StringVar(&flagLocalRoot, "local-root", "", "use a local directory store rooted here instead of S3")
	runCmd.Flags().StringVar(&flagS3Region, "s3-region", "", "AWS region")
	runCmd.Flags().StringVar(&flagS3Profile, "s3-profile", "", "AWS shared config profile")
	runCmd.Flags().StringVar(&flagS3Endpoint, "s3-endpoint", "", "custom S3-compatible endpoint URL")
	runCmd.Flags().BoolVar(&flagS3PathStyle, "s3-path-style", false, "use path-style S3 addressing")
	runCmd.Flags().StringVar(&flagWarehouseDSN, "warehouse-dsn", "", "PostgreSQL DSN for the optional warehouse load")
	runCmd.Flags().Float64Var(&flagRejectRatio, "max-reject-ratio", sheetmart.DefaultConfig().MaxRejectRatio, "abort when rejected/total exceeds this")
	runCmd.Flags().StringVar(&flagMergePolicy, "merge-policy", "first-wins", "duplicate natural key policy: first-wins or last-wins")
	runCmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	runCmd.Flags().StringVar(&flagLogFormat, "log-format", "text", "log format: text or json")
	runCmd.MarkFlagRequired("schema")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runPipeline(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(flagLogLevel, flagLogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Flags win; environment fills in what was not given.
	if flagWarehouseDSN == "" {
		flagWarehouseDSN = os.Getenv("SHEETMART_WAREHOUSE_DSN")
	}
	if flagS3Region == "" {
		flagS3Region = os.Getenv("SHEETMART_S3_REGION")
	}
	if flagS3Endpoint == "" {
		flagS3Endpoint = os.Getenv("SHEETMART_S3_ENDPOINT")
	}

	def, err := schema.Load(flagSchema)
	if err != nil {
		return err
	}

	sources, err := resolveSources()
	if err != nil {
		return err
	}

	store, err := newStore(ctx)
	if err != nil {
		return err
	}

	cfg := sheetmart.DefaultConfig()
	cfg.MaxRejectRatio = flagRejectRatio
	switch flagMergePolicy {
	case "first-wins":
		cfg.MergePolicy = dimension.FirstWins
	case "last-wins":
		cfg.MergePolicy = dimension.LastWins
	default:
		return fmt.Errorf("unknown merge policy %q", flagMergePolicy)
	}

	builder := sheetmart.NewOrchestrator().
		WithStore(store).
		WithDefinition(def).
		WithConfig(cfg).
		WithLogger(logger)

	if flagWarehouseDSN != "" {
		loader, err := warehouse.NewLoader(warehouse.WithDSN(flagWarehouseDSN))
		if err != nil {
			return err
		}
		defer loader.Close()
		builder = builder.WithWarehouse(loader)
	}

	orch, err := builder.Build()
	if err != nil {
		return err
	}

	for _, src := range sources {
		report, err := orch.Run(ctx, src)
		if err != nil {
			if report != nil {
				logger.Error("run failed", "source", src.String(),
					"rows_read", report.RowsRead, "rejected", len(report.Rejected))
			}
			return err
		}
		for _, rej := range report.Rejected {
			logger.Warn("rejected row", "detail", rej.String())
		}
		for _, unres := range report.Unresolved {
			logger.Warn("unresolved reference", "detail", unres.String())
		}
	}
	return nil
}

// resolveSources turns the CLI flags into the list of objects to process:
// either the single --bucket/--key pair, or every object-created record in
// the --event notification file.
func resolveSources() ([]core.ObjectID, error) {
	if flagEventFile != "" {
		if flagBucket != "" || flagKey != "" {
			return nil, fmt.Errorf("--event is exclusive with --bucket/--key")
		}
		data, err := os.ReadFile(flagEventFile)
		if err != nil {
			return nil, fmt.Errorf("read event file: %w", err)
		}
		ids, err := trigger.Parse(data)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("event file contains no object-created records")
		}
		return ids, nil
	}
	if flagBucket == "" || flagKey == "" {
		return nil, fmt.Errorf("either --event or both --bucket and --key are required")
	}
	return []core.ObjectID{{Bucket: flagBucket, Key: flagKey}}, nil
}

func newStore(ctx context.Context) (core.ObjectStore, error) {
	if flagLocalRoot != "" {
		return storage.NewLocalStore(flagLocalRoot), nil
	}
	opts := []storage.StoreOptionS3{}
	if flagS3Region != "" {
		opts = append(opts, storage.WithS3Region(flagS3Region))
	}
	if flagS3Profile != "" {
		opts = append(opts, storage.WithS3Profile(flagS3Profile))
	}
	if flagS3Endpoint != "" {
		opts = append(opts, storage.WithS3Endpoint(flagS3Endpoint))
	}
	if flagS3PathStyle {
		opts = append(opts, storage.WithS3PathStyle(true))
	}
	return storage.NewS3Store(ctx, opts...)
}

func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, handlerOpts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
