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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/sheetmart/core"
)

const validYAML = `
tables:
  - name: customer
    sheet: Customers
    columns:
      - {name: id, type: int, required: true}
      - {name: name, type: string}
      - {name: region, type: string}
  - name: order
    sheet: Orders
    columns:
      - {name: order_id, type: int, required: true}
      - {name: customer_id, type: int, required: true}
      - {name: quantity, type: int}
      - {name: order_date, type: date}
dimensions:
  - table: customer
    natural_key: [id]
    attributes: [name, region]
  - table: order
    natural_key: [order_id]
    attributes: [quantity, order_date]
    foreign_keys:
      - {column: customer_key, table: customer, source_columns: [customer_id]}
date_dimension:
  table: date_dim
  sources: ["order.order_date"]
`

func TestParse(t *testing.T) {
	def, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Len(t, def.Tables, 2)
	assert.Len(t, def.Dimensions, 2)
	require.NotNil(t, def.DateDimension)
	assert.Equal(t, "date_dim", def.DateDimension.Table)

	tbl, ok := def.Table("customer")
	require.True(t, ok)
	assert.Equal(t, "Customers", tbl.Sheet)
	assert.Equal(t, []string{"id", "name", "region"}, tbl.ColumnNames())

	col, ok := tbl.Column("id")
	require.True(t, ok)
	assert.Equal(t, TypeInt, col.Type)
	assert.True(t, col.Required)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "not yaml",
			yaml: "{{{",
		},
		{
			name: "no tables",
			yaml: "tables: []",
		},
		{
			name: "unknown column type",
			yaml: `
tables:
  - name: t
    sheet: S
    columns:
      - {name: a, type: decimal}
`,
		},
		{
			name: "dimension references unknown table",
			yaml: `
tables:
  - name: t
    sheet: S
    columns:
      - {name: a, type: string}
dimensions:
  - table: missing
    natural_key: [a]
`,
		},
		{
			name: "natural key column not in schema",
			yaml: `
tables:
  - name: t
    sheet: S
    columns:
      - {name: a, type: string}
dimensions:
  - table: t
    natural_key: [b]
`,
		},
		{
			name: "foreign key to unknown dimension",
			yaml: `
tables:
  - name: t
    sheet: S
    columns:
      - {name: a, type: string}
dimensions:
  - table: t
    natural_key: [a]
    foreign_keys:
      - {column: fk, table: nowhere, source_columns: [a]}
`,
		},
		{
			name: "default does not coerce to column type",
			yaml: `
tables:
  - name: t
    sheet: S
    columns:
      - {name: n, type: int, default: "abc"}
`,
		},
		{
			name: "default is an error marker",
			yaml: `
tables:
  - name: t
    sheet: S
    columns:
      - {name: a, type: string, default: "#N/A"}
`,
		},
		{
			name: "measure with unknown func",
			yaml: `
tables:
  - name: t
    sheet: S
    columns:
      - {name: a, type: string}
dimensions:
  - table: t
    natural_key: [a]
    measures:
      - {name: m, func: median, group_by: a}
`,
		},
		{
			name: "date dimension source without dot",
			yaml: `
tables:
  - name: t
    sheet: S
    columns:
      - {name: a, type: date}
dimensions:
  - table: t
    natural_key: [a]
date_dimension:
  table: d
  sources: ["nodot"]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestBuildOrder(t *testing.T) {
	def, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	order, err := def.BuildOrder()
	require.NoError(t, err)
	require.Len(t, order, 2)

	// customer has no dependencies, order references customer.
	assert.Equal(t, "customer", order[0].Table)
	assert.Equal(t, "order", order[1].Table)
}

func TestBuildOrderRespectsDependsOn(t *testing.T) {
	def, err := Parse([]byte(`
tables:
  - name: a
    sheet: A
    columns:
      - {name: x, type: string}
  - name: b
    sheet: B
    columns:
      - {name: y, type: string}
dimensions:
  - table: a
    natural_key: [x]
    depends_on: [b]
  - table: b
    natural_key: [y]
`))
	require.NoError(t, err)

	order, err := def.BuildOrder()
	require.NoError(t, err)
	assert.Equal(t, "b", order[0].Table)
	assert.Equal(t, "a", order[1].Table)
}

func TestParseAcceptsCoercibleDefaults(t *testing.T) {
	def, err := Parse([]byte(`
tables:
  - name: t
    sheet: S
    columns:
      - {name: region, type: string, default: "unknown"}
      - {name: qty, type: int, default: "0"}
      - {name: rate, type: float, default: "0.05"}
      - {name: active, type: bool, default: "true"}
      - {name: since, type: date, default: "2024-01-01"}
`))
	require.NoError(t, err)
	assert.Len(t, def.Tables[0].Columns, 5)
}

func TestValidateRejectsSelfReferencingForeignKey(t *testing.T) {
	def := &Definition{
		Tables: []TableSchema{
			{Name: "employee", Sheet: "Employees", Columns: []Column{
				{Name: "id", Type: TypeInt, Required: true},
				{Name: "manager_id", Type: TypeInt},
			}},
		},
		Dimensions: []DimensionSpec{
			{
				Table:      "employee",
				NaturalKey: []string{"id"},
				ForeignKeys: []ForeignKey{
					{Column: "manager_key", Table: "employee", SourceColumns: []string{"manager_id"}},
				},
			},
		},
	}

	// A table referencing itself is a length-1 cycle.
	_, err := def.BuildOrder()
	require.Error(t, err)

	var cyc *core.CyclicDimensionError
	require.True(t, errors.As(err, &cyc))
	assert.Equal(t, []string{"employee"}, cyc.Tables)

	err = def.Validate()
	require.Error(t, err)
	assert.True(t, errors.As(err, &cyc))
}

func TestBuildOrderDetectsCycle(t *testing.T) {
	def := &Definition{
		Tables: []TableSchema{
			{Name: "a", Sheet: "A", Columns: []Column{{Name: "x", Type: TypeString}}},
			{Name: "b", Sheet: "B", Columns: []Column{{Name: "y", Type: TypeString}}},
		},
		Dimensions: []DimensionSpec{
			{Table: "a", NaturalKey: []string{"x"}, DependsOn: []string{"b"}},
			{Table: "b", NaturalKey: []string{"y"}, DependsOn: []string{"a"}},
		},
	}

	_, err := def.BuildOrder()
	require.Error(t, err)

	var cyc *core.CyclicDimensionError
	require.True(t, errors.As(err, &cyc))
	assert.ElementsMatch(t, []string{"a", "b"}, cyc.Tables)

	// Validate reports the same failure.
	assert.Error(t, def.Validate())
}

func TestBuildOrderIsDeterministic(t *testing.T) {
	def, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	first, err := def.BuildOrder()
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := def.BuildOrder()
		require.NoError(t, err)
		require.Equal(t, len(first), len(again))
		for j := range first {
			assert.Equal(t, first[j].Table, again[j].Table)
		}
	}
}

func TestParsedSources(t *testing.T) {
	spec := DateDimensionSpec{Table: "d", Sources: []string{"order.order_date", "invoice.due_date"}}
	sources, err := spec.ParsedSources()
	require.NoError(t, err)
	assert.Equal(t, []DateSource{
		{Table: "order", Column: "order_date"},
		{Table: "invoice", Column: "due_date"},
	}, sources)

	_, err = DateDimensionSpec{Table: "d", Sources: []string{"bare"}}.ParsedSources()
	assert.Error(t, err)
}
