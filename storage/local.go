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

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aaronlmathis/sheetmart/core"
)

// LocalStore implements core.ObjectStore on a directory tree, mapping
// bucket/key to root/bucket/key. Used by the CLI for local runs and by
// tests.
type LocalStore struct {
	Root string
}

// NewLocalStore creates a store rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{Root: root}
}

func (l *LocalStore) path(id core.ObjectID) string {
	return filepath.Join(l.Root, id.Bucket, filepath.FromSlash(id.Key))
}

// Get implements core.ObjectStore.
func (l *LocalStore) Get(ctx context.Context, id core.ObjectID) ([]byte, error) {
	data, err := os.ReadFile(l.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &core.NotFoundError{Object: id, Err: err}
		}
		return nil, fmt.Errorf("local store get %s: %w", id, err)
	}
	return data, nil
}

// Put implements core.ObjectStore.
func (l *LocalStore) Put(ctx context.Context, id core.ObjectID, data []byte) error {
	path := l.path(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("local store put %s: %w", id, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("local store put %s: %w", id, err)
	}
	return nil
}
