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

package sheetmart

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aaronlmathis/sheetmart/archive"
	"github.com/aaronlmathis/sheetmart/core"
	"github.com/aaronlmathis/sheetmart/dimension"
	"github.com/aaronlmathis/sheetmart/normalize"
	"github.com/aaronlmathis/sheetmart/readers"
	"github.com/aaronlmathis/sheetmart/schema"
	"github.com/aaronlmathis/sheetmart/serialize"
	"github.com/aaronlmathis/sheetmart/warehouse"
)

// Package sheetmart provides an event-triggered ETL pipeline: a spreadsheet
// object landing in a storage bucket is extracted, normalized into
// dimensional tables, serialized to CSV, packaged into a deterministic zip
// archive, and written back to the bucket.
//
// Core concepts:
//   - SheetSource: a decoded workbook streamed sheet by sheet (readers).
//   - Normalize: raw rows to typed, schema-conformant records (normalize).
//   - Builder: surrogate keys, dedup, FK resolution (dimension).
//   - Package: deterministic zip of serialized tables (archive).
//   - Orchestrator: sequences the stages for one source object.
//
// Example usage:
//
//	orch, err := sheetmart.NewOrchestrator().
//	    WithStore(store).
//	    WithDefinition(def).
//	    Build()
//	if err != nil { log.Fatal(err) }
//	report, err := orch.Run(ctx, core.ObjectID{Bucket: "data", Key: "orders.xlsx"})
//
// Every entity is invocation-scoped; concurrent invocations share nothing.

// DefaultArchiveSuffix replaces the source extension in the destination key.
const DefaultArchiveSuffix = ".tables.zip"

// Config is the immutable per-invocation configuration snapshot.
type Config struct {
	// MaxRejectRatio fails the run with InsufficientDataError when
	// rejected/total rises above it.
	MaxRejectRatio float64
	// ArchiveSuffix overrides DefaultArchiveSuffix.
	ArchiveSuffix string
	// MergePolicy picks the duplicate natural-key policy.
	MergePolicy dimension.MergePolicy
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		MaxRejectRatio: 0.2,
		ArchiveSuffix:  DefaultArchiveSuffix,
		MergePolicy:    dimension.FirstWins,
	}
}

// OrchestratorBuilder provides a fluent API for constructing an
// Orchestrator. Use NewOrchestrator() to create a builder, then chain
// WithStore, WithDefinition, and configuration methods.
type OrchestratorBuilder struct {
	orch *Orchestrator
}

// NewOrchestrator creates a new OrchestratorBuilder.
func NewOrchestrator() *OrchestratorBuilder {
	return &OrchestratorBuilder{
		orch: &Orchestrator{
			cfg:    DefaultConfig(),
			logger: slog.Default(),
		},
	}
}

// WithStore sets the storage collaborator.
func (ob *OrchestratorBuilder) WithStore(store core.ObjectStore) *OrchestratorBuilder {
	ob.orch.store = store
	return ob
}

// WithDefinition sets the schema and dimension definition for the run.
func (ob *OrchestratorBuilder) WithDefinition(def *schema.Definition) *OrchestratorBuilder {
	ob.orch.def = def
	return ob
}

// WithConfig replaces the default configuration.
func (ob *OrchestratorBuilder) WithConfig(cfg Config) *OrchestratorBuilder {
	if cfg.ArchiveSuffix == "" {
		cfg.ArchiveSuffix = DefaultArchiveSuffix
	}
	ob.orch.cfg = cfg
	return ob
}

// WithWarehouse adds an optional warehouse load after the archive upload.
func (ob *OrchestratorBuilder) WithWarehouse(loader *warehouse.Loader) *OrchestratorBuilder {
	ob.orch.loader = loader
	return ob
}

// WithLogger sets the structured logger.
func (ob *OrchestratorBuilder) WithLogger(logger *slog.Logger) *OrchestratorBuilder {
	ob.orch.logger = logger
	return ob
}

// Build validates and constructs the Orchestrator.
func (ob *OrchestratorBuilder) Build() (*Orchestrator, error) {
	if ob.orch.store == nil {
		return nil, fmt.Errorf("orchestrator requires an object store")
	}
	if ob.orch.def == nil {
		return nil, fmt.Errorf("orchestrator requires a definition")
	}
	return ob.orch, nil
}

// Orchestrator sequences one pipeline invocation end to end. It holds no
// mutable per-run state, so a single Orchestrator may serve concurrent
// invocations.
type Orchestrator struct {
	store  core.ObjectStore
	def    *schema.Definition
	cfg    Config
	loader *warehouse.Loader
	logger *slog.Logger
}

// DestinationKey derives the archive key from the source key: the source
// extension is replaced with the fixed suffix, so the same source always
// maps to the same destination.
func DestinationKey(sourceKey, suffix string) string {
	ext := path.Ext(sourceKey)
	return strings.TrimSuffix(sourceKey, ext) + suffix
}

// Run processes one source object end to end and returns the diagnostics
// report. The report is non-nil whenever extraction began, including on
// InsufficientDataError, so callers can always surface the true failure
// extent. No partial archive is ever uploaded: the store sees either the
// complete artifact or nothing.
func (o *Orchestrator) Run(ctx context.Context, src core.ObjectID) (*RunReport, error) {
	report := &RunReport{
		RunID:       uuid.New(),
		Source:      src,
		TableCounts: make(map[string]int),
		Started:     time.Now(),
	}
	defer func() { report.Finished = time.Now() }()

	log := o.logger.With("run_id", report.RunID.String(), "source", src.String())

	data, err := o.store.Get(ctx, src)
	if err != nil {
		// NotFoundError and other collaborator failures propagate unmasked;
		// retry policy belongs to the invocation runtime.
		return nil, err
	}

	wb, err := readers.Open(src.Key, data)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	recordsByTable, err := o.extract(ctx, wb, report)
	if err != nil {
		return report, err
	}

	builder := dimension.NewBuilder(dimension.WithMergePolicy(o.cfg.MergePolicy))
	tables, unresolved, err := builder.Build(ctx, recordsByTable, o.def)
	if err != nil {
		return report, err
	}
	report.Unresolved = unresolved
	for _, tbl := range tables {
		report.Tables = append(report.Tables, tbl.Name)
		report.TableCounts[tbl.Name] = len(tbl.Rows)
	}

	if err := o.checkSufficiency(report, tables); err != nil {
		log.Error("aborting without upload", "error", err,
			"rows_read", report.RowsRead, "rejected", len(report.Rejected))
		return report, err
	}

	serialized, err := serialize.Tables(tables)
	if err != nil {
		return report, err
	}

	blob, err := archive.Package(serialized)
	if err != nil {
		return report, err
	}

	dst := core.ObjectID{
		Bucket: src.Bucket,
		Key:    DestinationKey(src.Key, o.cfg.ArchiveSuffix),
	}
	if err := o.store.Put(ctx, dst, blob); err != nil {
		return report, err
	}
	report.Destination = dst

	if o.loader != nil {
		for _, tbl := range tables {
			if err := o.loader.Load(ctx, tbl); err != nil {
				return report, err
			}
		}
	}

	log.Info("run complete",
		"destination", dst.String(),
		"rows_read", report.RowsRead,
		"accepted", report.Accepted,
		"rejected", len(report.Rejected),
		"unresolved", len(report.Unresolved),
		"tables", len(tables),
		"archive_bytes", len(blob),
	)
	return report, nil
}

// extract normalizes every declared sheet in declaration order.
func (o *Orchestrator) extract(ctx context.Context, wb core.SheetSource, report *RunReport) (map[string][]core.NormalizedRecord, error) {
	available := make(map[string]bool)
	for _, name := range wb.Sheets() {
		available[name] = true
	}

	recordsByTable := make(map[string][]core.NormalizedRecord, len(o.def.Tables))
	for _, table := range o.def.Tables {
		if !available[table.Sheet] {
			if table.Optional {
				continue
			}
			return nil, &core.SchemaMismatchError{Sheet: table.Sheet, Reason: "sheet not present in workbook"}
		}

		rows, err := wb.Rows(table.Sheet)
		if err != nil {
			return nil, err
		}
		res, err := normalize.Normalize(ctx, rows, table)
		rows.Close()
		if err != nil {
			return nil, err
		}

		report.RowsRead += res.Total
		report.Accepted += len(res.Records)
		report.Rejected = append(report.Rejected, res.Rejected...)
		recordsByTable[table.Name] = res.Records
	}
	return recordsByTable, nil
}

// checkSufficiency enforces the aggregate-loss threshold: partial data is
// worse than no data for a warehouse load.
func (o *Orchestrator) checkSufficiency(report *RunReport, tables []*dimension.Table) error {
	var empty []string
	for _, spec := range o.def.Dimensions {
		tblSchema, ok := o.def.Table(spec.Table)
		if ok && tblSchema.Optional {
			continue
		}
		for _, tbl := range tables {
			if tbl.Name == spec.Table && len(tbl.Rows) == 0 {
				empty = append(empty, tbl.Name)
			}
		}
	}
	if len(empty) > 0 {
		return &core.InsufficientDataError{
			Rejected:    len(report.Rejected),
			Total:       report.RowsRead,
			Threshold:   o.cfg.MaxRejectRatio,
			EmptyTables: empty,
		}
	}

	if report.RowsRead > 0 && report.RejectRatio() > o.cfg.MaxRejectRatio {
		return &core.InsufficientDataError{
			Rejected:  len(report.Rejected),
			Total:     report.RowsRead,
			Threshold: o.cfg.MaxRejectRatio,
		}
	}
	return nil
}
