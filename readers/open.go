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
	"path/filepath"
	"strings"

	"github.com/aaronlmathis/sheetmart/core"
)

// Open decodes a source object payload into a sheet source, dispatching on
// the object key's extension.
func Open(name string, data []byte) (core.SheetSource, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return OpenXLSX(name, data)
	case ".csv":
		return OpenCSV(name, data)
	default:
		return nil, &core.MalformedInputError{
			Source: name,
			Err:    fmt.Errorf("unsupported source extension %q", filepath.Ext(name)),
		}
	}
}
