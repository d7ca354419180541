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
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aaronlmathis/sheetmart/core"
)

// CoerceCell converts a classified cell to the named column type
// ("string", "int", "float", "bool", "date"). A non-empty reason means the
// value cannot represent that type. Both the normalizer and schema default
// validation go through here, so a literal accepted at load time coerces
// the same way at run time.
func CoerceCell(cell core.Cell, columnType string) (interface{}, string) {
	switch columnType {
	case "string":
		return coerceString(cell)
	case "int":
		return coerceInt(cell)
	case "float":
		return coerceFloat(cell)
	case "bool":
		return coerceBool(cell)
	case "date":
		return coerceDate(cell)
	default:
		return nil, fmt.Sprintf("unknown column type %q", columnType)
	}
}

func coerceString(cell core.Cell) (interface{}, string) {
	switch cell.Kind {
	case core.CellText:
		return cell.Text, ""
	case core.CellNumber, core.CellDate:
		return cell.Raw, ""
	default:
		return nil, fmt.Sprintf("cannot use %s cell as string", cell.Kind)
	}
}

func coerceInt(cell core.Cell) (interface{}, string) {
	switch cell.Kind {
	case core.CellNumber:
		if cell.Number != math.Trunc(cell.Number) {
			return nil, fmt.Sprintf("non-integral value %s", cell.Raw)
		}
		return int64(cell.Number), ""
	case core.CellText:
		n, err := strconv.ParseInt(strings.TrimSpace(cell.Text), 10, 64)
		if err != nil {
			return nil, fmt.Sprintf("not an integer: %q", cell.Text)
		}
		return n, ""
	default:
		return nil, fmt.Sprintf("cannot use %s cell as int", cell.Kind)
	}
}

func coerceFloat(cell core.Cell) (interface{}, string) {
	switch cell.Kind {
	case core.CellNumber:
		return cell.Number, ""
	case core.CellText:
		f, err := strconv.ParseFloat(strings.TrimSpace(cell.Text), 64)
		if err != nil {
			return nil, fmt.Sprintf("not a number: %q", cell.Text)
		}
		return f, ""
	default:
		return nil, fmt.Sprintf("cannot use %s cell as float", cell.Kind)
	}
}

func coerceBool(cell core.Cell) (interface{}, string) {
	switch cell.Kind {
	case core.CellText:
		b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(cell.Text)))
		if err != nil {
			return nil, fmt.Sprintf("not a boolean: %q", cell.Text)
		}
		return b, ""
	case core.CellNumber:
		switch cell.Number {
		case 0:
			return false, ""
		case 1:
			return true, ""
		}
		return nil, fmt.Sprintf("not a boolean: %q", cell.Raw)
	default:
		return nil, fmt.Sprintf("cannot use %s cell as bool", cell.Kind)
	}
}

func coerceDate(cell core.Cell) (interface{}, string) {
	switch cell.Kind {
	case core.CellDate:
		return cell.Date, ""
	case core.CellText:
		if t, ok := ParseDate(cell.Text); ok {
			return t, ""
		}
		return nil, fmt.Sprintf("not a date: %q", cell.Text)
	default:
		return nil, fmt.Sprintf("cannot use %s cell as date", cell.Kind)
	}
}
