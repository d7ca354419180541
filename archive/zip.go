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

package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/aaronlmathis/sheetmart/serialize"
)

// Package archive bundles serialized tables into a single zip container.
// Output bytes are deterministic: entry order follows table build order,
// timestamps are pinned to a sentinel, and the deflate stream comes from a
// fixed compressor at a fixed level. Re-running on identical input yields
// an identical archive, which is what makes re-upload idempotent.

// Extension is appended to each table name to form its entry name.
const Extension = ".csv"

// sentinelTime replaces real modification times in entry headers.
// 1980-01-01 is the zip format epoch.
var sentinelTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// PackagerError wraps archive packaging errors with context.
type PackagerError struct {
	Op  string
	Err error
}

func (e *PackagerError) Error() string {
	return fmt.Sprintf("archive packager %s: %v", e.Op, e.Err)
}

func (e *PackagerError) Unwrap() error {
	return e.Err
}

// Package bundles the serialized tables, in the exact order given, into a
// compressed zip archive.
func Package(tables []serialize.SerializedTable) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	for _, tbl := range tables {
		hdr := &zip.FileHeader{
			Name:     tbl.Name + Extension,
			Method:   zip.Deflate,
			Modified: sentinelTime,
		}
		hdr.SetMode(0o644)
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, &PackagerError{Op: "create_entry", Err: err}
		}
		if _, err := w.Write(tbl.Data); err != nil {
			return nil, &PackagerError{Op: "write_entry", Err: err}
		}
	}

	if err := zw.Close(); err != nil {
		return nil, &PackagerError{Op: "close", Err: err}
	}
	return buf.Bytes(), nil
}
