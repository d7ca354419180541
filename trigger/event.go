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

package trigger

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/aaronlmathis/sheetmart/core"
)

// Package trigger parses the storage service's object-created notification
// documents into source object identifiers. Delivery is at-least-once; the
// pipeline's deterministic destination naming makes replays harmless.

// notification mirrors the S3 event notification document shape. Object
// keys arrive URL-encoded.
type notification struct {
	Records []struct {
		EventName string `json:"eventName"`
		S3        struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// Parse extracts the object IDs of every object-created record in an event
// notification payload. Records for other event types are skipped.
func Parse(data []byte) ([]core.ObjectID, error) {
	var n notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("parse event notification: %w", err)
	}

	var ids []core.ObjectID
	for _, rec := range n.Records {
		if !strings.HasPrefix(rec.EventName, "ObjectCreated") &&
			!strings.HasPrefix(rec.EventName, "s3:ObjectCreated") {
			continue
		}
		key, err := url.QueryUnescape(rec.S3.Object.Key)
		if err != nil {
			return nil, fmt.Errorf("decode object key %q: %w", rec.S3.Object.Key, err)
		}
		ids = append(ids, core.ObjectID{Bucket: rec.S3.Bucket.Name, Key: key})
	}
	return ids, nil
}
