package wal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
)

// 自己定義常用的權限常量
const (
	// rw-r--r-- (擁有者讀寫，其他人唯讀)
	FileModeDefault fs.FileMode = 0644

	// rw------- (只有擁有者可讀寫)
	FileModePrivate fs.FileMode = 0600
)

// WAL 以 JSON Lines 格式寫入的 Write-Ahead Log
// 每筆記錄一行，寫入後立即 fsync
type WAL struct {
	file walFile
	mu   sync.Mutex
	// 已寫入筆數 (含開啟時既有的記錄)
	records uint64
	// 最後一筆完整記錄的結尾位置，寫入失敗時截斷回這裡
	size int64
}

// walFile WAL 用到的檔案操作，*os.File 即滿足
type walFile interface {
	io.Reader
	io.ReaderAt
	io.Writer
	io.Seeker
	io.Closer
	Sync() error
	Truncate(size int64) error
	Stat() (fs.FileInfo, error)
}

// Open 開啟或建立一個 WAL 檔案
// O_RDWR 讀寫模式
// O_APPEND 每次寫入時自動跳到文件末尾
// O_CREATE 如果文件不存在則建立
func Open(path string) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileModeDefault)
	if err != nil {
		return nil, fmt.Errorf("open wal %s: %w", path, err)
	}
	w, err := newWAL(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("open wal %s: %w", path, err)
	}
	return w, nil
}

func newWAL(file walFile) (*WAL, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	return &WAL{file: file, size: info.Size()}, nil
}

// Append 寫入一筆資料並刷入硬碟
//
// 參數:
//
//	v: 任意可 JSON 序列化的記錄
//
// 回傳:
//
//	error: 序列化或寫檔錯誤；寫檔失敗時檔案會截斷回寫入前的長度
func (w *WAL) Append(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode wal record: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.Write(line); err != nil {
		return w.rollback(fmt.Errorf("write wal record: %w", err))
	}
	if err := w.file.Sync(); err != nil {
		return w.rollback(fmt.Errorf("sync wal: %w", err))
	}
	w.size += int64(len(line))
	w.records++
	return nil
}

// rollback 移除寫到一半或未確認落盤的記錄，呼叫端需持有 mu
// 被回報失敗的記錄不可在重放時出現
func (w *WAL) rollback(cause error) error {
	if err := w.file.Truncate(w.size); err != nil {
		return errors.Join(cause, fmt.Errorf("truncate wal to %d: %w", w.size, err))
	}
	if err := w.file.Sync(); err != nil {
		return errors.Join(cause, fmt.Errorf("sync wal after truncate: %w", err))
	}
	return cause
}

// Replay 從頭讀取所有記錄
// callback 逐筆收到原始 JSON，避免一次將所有資料載入記憶體
func (w *WAL) Replay(callback func(raw json.RawMessage) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// 確保從頭讀取；O_APPEND 下之後的寫入仍會寫到檔尾
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek wal: %w", err)
	}

	var (
		n    uint64
		good int64
	)
	decoder := json.NewDecoder(w.file)
	for {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			// 寫到一半就當機留下的殘缺尾端：截掉後視為正常結束
			if errors.Is(err, io.ErrUnexpectedEOF) {
				if err := w.truncateTail(good); err != nil {
					return err
				}
				break
			}
			return fmt.Errorf("decode wal record %d: %w", n+1, err)
		}
		n++
		good = decoder.InputOffset()
		if err := callback(raw); err != nil {
			return fmt.Errorf("replay wal record %d: %w", n, err)
		}
	}
	w.records = n
	return nil
}

// truncateTail 將檔案截斷到最後一筆完整記錄 (含其換行) 之後
func (w *WAL) truncateTail(good int64) error {
	cut := good
	if good > 0 {
		b := make([]byte, 1)
		if _, err := w.file.ReadAt(b, good); err == nil && b[0] == '\n' {
			cut++
		}
	}
	if err := w.file.Truncate(cut); err != nil {
		return fmt.Errorf("truncate torn wal tail at %d: %w", cut, err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync wal after truncate: %w", err)
	}
	w.size = cut
	return nil
}

// Records 回傳目前已知的記錄筆數
func (w *WAL) Records() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.records
}

// Close 關閉檔案
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
