// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelDB(t *testing.T) {
	db := NewMemLevelDB()
	defer db.Close()

	key := []byte("key")
	value := []byte("value")

	_, err := db.Get(key)
	assert.True(t, db.IsNotFound(err))

	require.NoError(t, db.Put(key, value))

	has, err := db.Has(key)
	require.NoError(t, err)
	assert.True(t, has)

	got, err := db.Get(key)
	require.NoError(t, err)
	assert.Equal(t, value, got)

	require.NoError(t, db.Delete(key))
	has, err = db.Has(key)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestLevelDBBatch(t *testing.T) {
	db := NewMemLevelDB()
	defer db.Close()

	batch := db.NewBatch()
	require.NoError(t, batch.Put([]byte("a"), []byte("1")))
	require.NoError(t, batch.Put([]byte("b"), []byte("2")))
	assert.Equal(t, 2, batch.Len())

	// nothing visible before Write
	_, err := db.Get([]byte("a"))
	assert.True(t, db.IsNotFound(err))

	require.NoError(t, batch.Write())

	got, err := db.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)
}

func TestLevelDBIterator(t *testing.T) {
	db := NewMemLevelDB()
	defer db.Close()

	require.NoError(t, db.Put([]byte("p-a"), []byte("1")))
	require.NoError(t, db.Put([]byte("p-b"), []byte("2")))
	require.NoError(t, db.Put([]byte("q-c"), []byte("3")))

	iter := db.NewIterator([]byte("p-"))
	defer iter.Release()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	require.NoError(t, iter.Error())
	assert.Equal(t, []string{"p-a", "p-b"}, keys)
}
