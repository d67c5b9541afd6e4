package wal_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-bank-ledger/pkg/wal"
)

type record struct {
	Seq  int    `json:"seq"`
	Note string `json:"note"`
}

func TestAppendAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")

	w, err := wal.Open(path)
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		require.NoError(t, w.Append(record{Seq: i, Note: "n"}))
	}
	require.NoError(t, w.Close())

	// 重新開啟後應讀到同樣的記錄，且可繼續寫入
	w, err = wal.Open(path)
	require.NoError(t, err)
	defer w.Close()

	var got []record
	require.NoError(t, w.Replay(func(raw json.RawMessage) error {
		var r record
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		got = append(got, r)
		return nil
	}))
	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].Seq)
	assert.Equal(t, 3, got[2].Seq)
	assert.Equal(t, uint64(3), w.Records())

	require.NoError(t, w.Append(record{Seq: 4}))
	assert.Equal(t, uint64(4), w.Records())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `{"seq":4,"note":""}`)
}

func TestReplayStopsOnCallbackError(t *testing.T) {
	w, err := wal.Open(filepath.Join(t.TempDir(), "wal.log"))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Append(record{Seq: 1}))
	require.NoError(t, w.Append(record{Seq: 2}))

	boom := errors.New("boom")
	calls := 0
	err = w.Replay(func(json.RawMessage) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestReplayCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	require.NoError(t, os.WriteFile(path, []byte("{\"seq\":1}\n{broken\n"), wal.FileModePrivate))

	w, err := wal.Open(path)
	require.NoError(t, err)
	defer w.Close()

	err = w.Replay(func(json.RawMessage) error { return nil })
	assert.Error(t, err)
}

func TestReplayTruncatesTornTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	w, err := wal.Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(record{Seq: 1}))
	require.NoError(t, w.Append(record{Seq: 2}))
	require.NoError(t, w.Close())

	// 模擬寫到一半當機
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, wal.FileModeDefault)
	require.NoError(t, err)
	_, err = f.WriteString(`{"seq":3,"no`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	w, err = wal.Open(path)
	require.NoError(t, err)
	defer w.Close()

	var seqs []int
	require.NoError(t, w.Replay(func(raw json.RawMessage) error {
		var r record
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		seqs = append(seqs, r.Seq)
		return nil
	}))
	assert.Equal(t, []int{1, 2}, seqs)
	assert.Equal(t, uint64(2), w.Records())

	// 殘缺的尾端已被截掉，新記錄接在完整的一行之後
	require.NoError(t, w.Append(record{Seq: 3, Note: "ok"}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"seq\":1,\"note\":\"\"}\n{\"seq\":2,\"note\":\"\"}\n{\"seq\":3,\"note\":\"ok\"}\n", string(data))
}
