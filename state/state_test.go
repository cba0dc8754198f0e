// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collectivefund/collective/kv"
)

func TestStateReadWrite(t *testing.T) {
	db := kv.NewMemLevelDB()
	defer db.Close()
	st := New(db)

	got, err := st.GetRawStorage([]byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, got)

	st.SetRawStorage([]byte("k"), []byte("v"))
	got, err = st.GetRawStorage([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	// staged only, not in backing store yet
	_, err = db.Get([]byte("k"))
	assert.True(t, db.IsNotFound(err))

	require.NoError(t, st.Commit())
	raw, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), raw)
}

func TestStateCheckpointRevert(t *testing.T) {
	db := kv.NewMemLevelDB()
	defer db.Close()
	st := New(db)

	st.SetRawStorage([]byte("a"), []byte("1"))

	chk := st.NewCheckpoint()
	st.SetRawStorage([]byte("a"), []byte("2"))
	st.SetRawStorage([]byte("b"), []byte("3"))

	st.RevertTo(chk)

	got, err := st.GetRawStorage([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	got, err = st.GetRawStorage([]byte("b"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStateNestedCheckpoints(t *testing.T) {
	db := kv.NewMemLevelDB()
	defer db.Close()
	st := New(db)

	chk1 := st.NewCheckpoint()
	st.SetRawStorage([]byte("x"), []byte("1"))
	chk2 := st.NewCheckpoint()
	st.SetRawStorage([]byte("x"), []byte("2"))

	st.RevertTo(chk2)
	got, err := st.GetRawStorage([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	st.RevertTo(chk1)
	got, err = st.GetRawStorage([]byte("x"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStateDeleteOnEmpty(t *testing.T) {
	db := kv.NewMemLevelDB()
	defer db.Close()
	st := New(db)

	st.SetRawStorage([]byte("k"), []byte("v"))
	require.NoError(t, st.Commit())

	st.SetRawStorage([]byte("k"), nil)
	require.NoError(t, st.Commit())

	_, err := db.Get([]byte("k"))
	assert.True(t, db.IsNotFound(err))
}

func TestStateIterate(t *testing.T) {
	db := kv.NewMemLevelDB()
	defer db.Close()
	st := New(db)

	st.SetRawStorage([]byte("m-1"), []byte("a"))
	st.SetRawStorage([]byte("m-2"), []byte("b"))
	st.SetRawStorage([]byte("n-1"), []byte("c"))
	require.NoError(t, st.Commit())

	var visited []string
	require.NoError(t, st.Iterate([]byte("m-"), func(key, value []byte) error {
		visited = append(visited, string(key)+"="+string(value))
		return nil
	}))
	assert.Equal(t, []string{"m-1=a", "m-2=b"}, visited)
}
