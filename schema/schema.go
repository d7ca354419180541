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

package schema

import (
	"fmt"
	"strings"

	"github.com/aaronlmathis/sheetmart/core"
	"github.com/aaronlmathis/sheetmart/readers"
)

// Package schema defines the per-table schemas and dimension specifications
// consumed by the normalizer, the dimension builder, and the serializer.
// Definitions are loaded once per invocation and treated as immutable for
// that run.

// ColumnType is the declared type of a schema column.
type ColumnType string

const (
	TypeString ColumnType = "string"
	TypeInt    ColumnType = "int"
	TypeFloat  ColumnType = "float"
	TypeBool   ColumnType = "bool"
	TypeDate   ColumnType = "date"
)

func (t ColumnType) valid() bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeBool, TypeDate:
		return true
	}
	return false
}

// Column specifies one expected column of a source sheet.
type Column struct {
	Name     string     `yaml:"name"`
	Type     ColumnType `yaml:"type"`
	Required bool       `yaml:"required"`
	// Default is the literal substituted for a blank optional cell,
	// coerced through the same path as input text. Empty means null.
	Default string `yaml:"default"`
}

// TableSchema binds one source sheet to an ordered list of columns.
// Output column order always mirrors this list, independent of the input
// column order in the sheet.
type TableSchema struct {
	Name     string   `yaml:"name"`
	Sheet    string   `yaml:"sheet"`
	Optional bool     `yaml:"optional"`
	Columns  []Column `yaml:"columns"`
}

// Column returns the named column, if declared.
func (t TableSchema) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns column names in schema order.
func (t TableSchema) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ForeignKey declares an output column that resolves to the surrogate key
// of another dimension. The source columns of the owning record form the
// natural key looked up in the referenced table.
type ForeignKey struct {
	Column        string   `yaml:"column"`
	Table         string   `yaml:"table"`
	SourceColumns []string `yaml:"source_columns"`
}

// MeasureFunc names a grouped aggregate computed over a table's records.
type MeasureFunc string

const (
	MeasureCount MeasureFunc = "count"
	MeasureSum   MeasureFunc = "sum"
	MeasureAvg   MeasureFunc = "avg"
)

// Measure declares an aggregate attribute attached to every row of a table:
// records are grouped by GroupBy and the aggregate of Source within the
// row's group becomes the value of the named output column.
type Measure struct {
	Name    string      `yaml:"name"`
	Func    MeasureFunc `yaml:"func"`
	Source  string      `yaml:"source"`
	GroupBy string      `yaml:"group_by"`
}

// DimensionSpec describes how one output table is built from the normalized
// records of its source table.
type DimensionSpec struct {
	Table       string       `yaml:"table"`
	NaturalKey  []string     `yaml:"natural_key"`
	Attributes  []string     `yaml:"attributes"`
	ForeignKeys []ForeignKey `yaml:"foreign_keys"`
	Measures    []Measure    `yaml:"measures"`
	// DependsOn adds explicit ordering constraints beyond the ones implied
	// by ForeignKeys.
	DependsOn []string `yaml:"depends_on"`
}

// DateDimensionSpec derives a calendar dimension from the distinct date
// values found in the named "table.column" sources of already-built tables.
type DateDimensionSpec struct {
	Table   string   `yaml:"table"`
	Sources []string `yaml:"sources"`
}

// DateSource is one parsed "table.column" entry.
type DateSource struct {
	Table  string
	Column string
}

// ParsedSources splits the source entries into table/column pairs.
func (d DateDimensionSpec) ParsedSources() ([]DateSource, error) {
	out := make([]DateSource, 0, len(d.Sources))
	for _, s := range d.Sources {
		table, column, ok := strings.Cut(s, ".")
		if !ok || table == "" || column == "" {
			return nil, fmt.Errorf("date dimension source %q: want \"table.column\"", s)
		}
		out = append(out, DateSource{Table: table, Column: column})
	}
	return out, nil
}

// Definition is a complete, immutable run configuration: the sheet schemas
// plus the dimension specifications built from them.
type Definition struct {
	Tables        []TableSchema      `yaml:"tables"`
	Dimensions    []DimensionSpec    `yaml:"dimensions"`
	DateDimension *DateDimensionSpec `yaml:"date_dimension"`
}

// Table returns the named table schema, if declared.
func (d *Definition) Table(name string) (TableSchema, bool) {
	for _, t := range d.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableSchema{}, false
}

// Dimension returns the spec for the named table, if declared.
func (d *Definition) Dimension(table string) (DimensionSpec, bool) {
	for _, s := range d.Dimensions {
		if s.Table == table {
			return s, true
		}
	}
	return DimensionSpec{}, false
}

// Validate checks internal consistency: every dimension references a
// declared table, every named column exists, measure functions are known,
// and the dependency graph is acyclic.
func (d *Definition) Validate() error {
	if len(d.Tables) == 0 {
		return fmt.Errorf("definition declares no tables")
	}
	seen := make(map[string]bool, len(d.Tables))
	for _, t := range d.Tables {
		if t.Name == "" {
			return fmt.Errorf("table with empty name")
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate table %q", t.Name)
		}
		seen[t.Name] = true
		if t.Sheet == "" {
			return fmt.Errorf("table %q: no source sheet", t.Name)
		}
		if len(t.Columns) == 0 {
			return fmt.Errorf("table %q: no columns", t.Name)
		}
		for _, c := range t.Columns {
			if c.Name == "" {
				return fmt.Errorf("table %q: column with empty name", t.Name)
			}
			if !c.Type.valid() {
				return fmt.Errorf("table %q column %q: unknown type %q", t.Name, c.Name, c.Type)
			}
			if c.Default != "" {
				cell := readers.ParseCell(c.Default)
				if cell.IsBlank() || cell.Kind == core.CellError {
					return fmt.Errorf("table %q column %q: default %q is not a usable value",
						t.Name, c.Name, c.Default)
				}
				if _, reason := readers.CoerceCell(cell, string(c.Type)); reason != "" {
					return fmt.Errorf("table %q column %q: default %q: %s",
						t.Name, c.Name, c.Default, reason)
				}
			}
		}
	}

	for _, spec := range d.Dimensions {
		tbl, ok := d.Table(spec.Table)
		if !ok {
			return fmt.Errorf("dimension %q: no such table", spec.Table)
		}
		if len(spec.NaturalKey) == 0 {
			return fmt.Errorf("dimension %q: empty natural key", spec.Table)
		}
		for _, col := range spec.NaturalKey {
			if _, ok := tbl.Column(col); !ok {
				return fmt.Errorf("dimension %q: natural key column %q not in table schema", spec.Table, col)
			}
		}
		for _, col := range spec.Attributes {
			if _, ok := tbl.Column(col); !ok {
				return fmt.Errorf("dimension %q: attribute column %q not in table schema", spec.Table, col)
			}
		}
		for _, fk := range spec.ForeignKeys {
			if fk.Column == "" {
				return fmt.Errorf("dimension %q: foreign key with empty column", spec.Table)
			}
			if _, ok := d.Dimension(fk.Table); !ok {
				return fmt.Errorf("dimension %q: foreign key %q references unknown dimension %q",
					spec.Table, fk.Column, fk.Table)
			}
			if len(fk.SourceColumns) == 0 {
				return fmt.Errorf("dimension %q: foreign key %q has no source columns", spec.Table, fk.Column)
			}
			for _, col := range fk.SourceColumns {
				if _, ok := tbl.Column(col); !ok {
					return fmt.Errorf("dimension %q: foreign key source column %q not in table schema",
						spec.Table, col)
				}
			}
		}
		for _, m := range spec.Measures {
			switch m.Func {
			case MeasureCount, MeasureSum, MeasureAvg:
			default:
				return fmt.Errorf("dimension %q: measure %q: unknown func %q", spec.Table, m.Name, m.Func)
			}
			if m.GroupBy == "" {
				return fmt.Errorf("dimension %q: measure %q: no group_by column", spec.Table, m.Name)
			}
			if m.Func != MeasureCount && m.Source == "" {
				return fmt.Errorf("dimension %q: measure %q: func %q needs a source column",
					spec.Table, m.Name, m.Func)
			}
		}
		for _, dep := range spec.DependsOn {
			if _, ok := d.Dimension(dep); !ok {
				return fmt.Errorf("dimension %q: depends on unknown dimension %q", spec.Table, dep)
			}
		}
	}

	if d.DateDimension != nil {
		if d.DateDimension.Table == "" {
			return fmt.Errorf("date dimension: empty table name")
		}
		sources, err := d.DateDimension.ParsedSources()
		if err != nil {
			return err
		}
		for _, src := range sources {
			if _, ok := d.Dimension(src.Table); !ok {
				return fmt.Errorf("date dimension: source table %q is not a dimension", src.Table)
			}
		}
	}

	if _, err := d.BuildOrder(); err != nil {
		return err
	}
	return nil
}

// BuildOrder returns the dimension specs in dependency order using Kahn's
// algorithm. FK-referenced tables and explicit DependsOn entries must be
// built before their dependents. The order is deterministic: ties are
// broken by declaration order. Cycles are a fatal CyclicDimensionError;
// a foreign key referencing its own table is a length-1 cycle.
func (d *Definition) BuildOrder() ([]DimensionSpec, error) {
	deps := make(map[string][]string, len(d.Dimensions))
	for _, spec := range d.Dimensions {
		var list []string
		for _, fk := range spec.ForeignKeys {
			list = append(list, fk.Table)
		}
		list = append(list, spec.DependsOn...)
		deps[spec.Table] = list
	}

	inDegree := make(map[string]int, len(d.Dimensions))
	for _, spec := range d.Dimensions {
		inDegree[spec.Table] = len(deps[spec.Table])
	}

	// Seed the queue in declaration order so ordering is stable across runs.
	var queue []string
	for _, spec := range d.Dimensions {
		if inDegree[spec.Table] == 0 {
			queue = append(queue, spec.Table)
		}
	}

	var ordered []DimensionSpec
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		spec, _ := d.Dimension(current)
		ordered = append(ordered, spec)

		for _, next := range d.Dimensions {
			for _, dep := range deps[next.Table] {
				if dep == current {
					inDegree[next.Table]--
					if inDegree[next.Table] == 0 {
						queue = append(queue, next.Table)
					}
				}
			}
		}
	}

	if len(ordered) != len(d.Dimensions) {
		var stuck []string
		for _, spec := range d.Dimensions {
			if inDegree[spec.Table] > 0 {
				stuck = append(stuck, spec.Table)
			}
		}
		return nil, &core.CyclicDimensionError{Tables: stuck}
	}
	return ordered, nil
}
