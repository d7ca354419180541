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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/sheetmart/core"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	id := core.ObjectID{Bucket: "incoming", Key: "reports/orders.xlsx"}
	require.NoError(t, store.Put(ctx, id, []byte("payload")))

	data, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestLocalStoreOverwrite(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	id := core.ObjectID{Bucket: "b", Key: "k"}
	require.NoError(t, store.Put(ctx, id, []byte("first")))
	require.NoError(t, store.Put(ctx, id, []byte("second")))

	data, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestLocalStoreNotFound(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	_, err := store.Get(context.Background(), core.ObjectID{Bucket: "b", Key: "missing.xlsx"})
	require.Error(t, err)

	var notFound *core.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing.xlsx", notFound.Object.Key)
}
