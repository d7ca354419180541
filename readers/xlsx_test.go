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

package readers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/aaronlmathis/sheetmart/core"
)

// buildWorkbook assembles an in-memory xlsx payload: sheet name to rows of
// string cell values.
func buildWorkbook(t *testing.T, sheets []string, rows map[string][][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NotEmpty(t, sheets)
	require.NoError(t, f.SetSheetName("Sheet1", sheets[0]))
	for _, name := range sheets[1:] {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
	}

	for sheet, data := range rows {
		for r, cols := range data {
			for c, val := range cols {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellStr(sheet, cell, val))
			}
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestOpenXLSX(t *testing.T) {
	data := buildWorkbook(t, []string{"Customers", "Orders"}, map[string][][]string{
		"Customers": {
			{"id", "name", "region"},
			{"1", "Acme", "west"},
			{"2", "Globex", "east"},
		},
		"Orders": {
			{"order_id", "customer_id"},
			{"100", "1"},
		},
	})

	wb, err := OpenXLSX("input.xlsx", data)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"Customers", "Orders"}, wb.Sheets())

	src, err := wb.Rows("Customers")
	require.NoError(t, err)
	defer src.Close()

	rows := drainRows(t, src)
	require.Len(t, rows, 3)

	assert.Equal(t, "Customers", rows[0].Sheet)
	assert.Equal(t, 1, rows[0].Index)
	assert.Equal(t, core.CellText, rows[0].Cells[1].Kind)
	assert.Equal(t, "name", rows[0].Cells[1].Text)

	assert.Equal(t, core.CellNumber, rows[1].Cells[0].Kind)
	assert.Equal(t, float64(1), rows[1].Cells[0].Number)
}

func TestOpenXLSXMalformed(t *testing.T) {
	_, err := OpenXLSX("junk.xlsx", []byte("this is not a zip container"))
	require.Error(t, err)

	var malformed *core.MalformedInputError
	assert.ErrorAs(t, err, &malformed)
	assert.Equal(t, "junk.xlsx", malformed.Source)
}

func TestXLSXRowsRestart(t *testing.T) {
	data := buildWorkbook(t, []string{"S"}, map[string][][]string{
		"S": {{"a"}, {"1"}},
	})

	wb, err := OpenXLSX("input.xlsx", data)
	require.NoError(t, err)
	defer wb.Close()

	first, err := wb.Rows("S")
	require.NoError(t, err)
	firstRows := drainRows(t, first)
	first.Close()

	second, err := wb.Rows("S")
	require.NoError(t, err)
	secondRows := drainRows(t, second)
	second.Close()

	require.Equal(t, len(firstRows), len(secondRows))
	assert.Equal(t, firstRows[0].Index, secondRows[0].Index)
}

func TestXLSXRowsUnknownSheet(t *testing.T) {
	data := buildWorkbook(t, []string{"S"}, map[string][][]string{"S": {{"a"}}})

	wb, err := OpenXLSX("input.xlsx", data)
	require.NoError(t, err)
	defer wb.Close()

	_, err = wb.Rows("Missing")
	assert.Error(t, err)
}

func TestOpenDispatch(t *testing.T) {
	xlsxData := buildWorkbook(t, []string{"S"}, map[string][][]string{"S": {{"a"}}})

	t.Run("xlsx extension", func(t *testing.T) {
		wb, err := Open("report.xlsx", xlsxData)
		require.NoError(t, err)
		defer wb.Close()
		assert.Equal(t, []string{"S"}, wb.Sheets())
	})

	t.Run("csv extension", func(t *testing.T) {
		wb, err := Open("report.csv", []byte("a,b\n1,2\n"))
		require.NoError(t, err)
		defer wb.Close()
		assert.Equal(t, []string{CSVSheetName}, wb.Sheets())
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := Open("report.parquet", []byte("x"))
		require.Error(t, err)
		var malformed *core.MalformedInputError
		assert.ErrorAs(t, err, &malformed)
	})
}
