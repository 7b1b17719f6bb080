package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// LocalStorage 同步 key-value 儲存, 每個 key 一個檔案
// 寫入先寫暫存檔再 rename, 讀取時不會看到寫一半的資料
type LocalStorage struct {
	mu  sync.RWMutex
	fs  afero.Fs
	dir string
}

// NewLocalStorage dir 不存在時會建立
func NewLocalStorage(fsys afero.Fs, dir string) (*LocalStorage, error) {
	if dir == "" {
		return nil, errors.New("local storage dir is required")
	}
	exists, err := afero.DirExists(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("stat local storage dir %s: %w", dir, err)
	}
	if !exists {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create local storage dir %s: %w", dir, err)
		}
	}
	return &LocalStorage{fs: fsys, dir: dir}, nil
}

// NewOsLocalStorage 使用實體檔案系統
func NewOsLocalStorage(dir string) (*LocalStorage, error) {
	return NewLocalStorage(afero.NewOsFs(), dir)
}

func (s *LocalStorage) path(key string) string {
	// key 可能包含 / 之類的字元, 編碼成單一檔名
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

// Get key 不存在時回傳 ok = false
func (s *LocalStorage) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := afero.ReadFile(s.fs, s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read key %s: %w", key, err)
	}
	return data, true, nil
}

func (s *LocalStorage) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(key)
	tmp := target + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, value, 0o644); err != nil {
		return fmt.Errorf("write key %s: %w", key, err)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("commit key %s: %w", key, err)
	}
	return nil
}

// Delete key 不存在時不做任何事
func (s *LocalStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.fs.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete key %s: %w", key, err)
	}
	return nil
}
