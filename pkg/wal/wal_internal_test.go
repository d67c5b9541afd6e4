package wal

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyFile 讓下一次 Sync 失敗的檔案
type flakyFile struct {
	*os.File
	failSync bool
}

var errDiskGone = errors.New("disk gone")

func (f *flakyFile) Sync() error {
	if f.failSync {
		f.failSync = false
		return errDiskGone
	}
	return f.File.Sync()
}

func TestAppendRollsBackOnSyncFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileModePrivate)
	require.NoError(t, err)
	flaky := &flakyFile{File: file}
	w, err := newWAL(flaky)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Append(map[string]int{"seq": 1}))

	flaky.failSync = true
	err = w.Append(map[string]int{"seq": 2})
	assert.ErrorIs(t, err, errDiskGone)
	assert.Equal(t, uint64(1), w.Records())

	// 回報失敗的記錄不可留在檔案裡
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"seq\":1}\n", string(data))

	require.NoError(t, w.Append(map[string]int{"seq": 3}))
	var seqs []int
	require.NoError(t, w.Replay(func(raw json.RawMessage) error {
		var r map[string]int
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		seqs = append(seqs, r["seq"])
		return nil
	}))
	assert.Equal(t, []int{1, 3}, seqs)
}
