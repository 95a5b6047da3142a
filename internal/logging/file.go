package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"
)

const (
	DefaultMaxBytes  = 6 * 1024 * 1024
	DefaultKeepBytes = 5 * 1024 * 1024
)

// TrimmedFile is an append-only log file that, once it grows past maxBytes,
// is cut down to its newest keepBytes.
type TrimmedFile struct {
	mu        sync.Mutex
	file      *os.File
	maxBytes  int64
	keepBytes int64
}

// OpenTrimmedFile opens or creates the log file at path, creating parent
// directories as needed.
func OpenTrimmedFile(path string, maxBytes, keepBytes int64) (*TrimmedFile, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	if keepBytes > maxBytes {
		keepBytes = maxBytes
	}
	f := &TrimmedFile{file: file, maxBytes: maxBytes, keepBytes: keepBytes}
	if err := f.trim(); err != nil {
		file.Close()
		return nil, err
	}
	return f, nil
}

func (f *TrimmedFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, err := f.file.Write(p)
	if err != nil {
		return n, err
	}
	return n, f.trim()
}

func (f *TrimmedFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Close()
}

func (f *TrimmedFile) trim() error {
	info, err := f.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= f.maxBytes {
		return nil
	}

	tail := make([]byte, f.keepBytes)
	n, err := f.file.ReadAt(tail, size-f.keepBytes)
	if err != nil && err != io.EOF {
		return err
	}
	tail = tail[:n]

	// O_APPEND makes every write land at the end, so truncating is enough to
	// restart the file.
	if err := f.file.Truncate(0); err != nil {
		return err
	}
	_, err = f.file.Write(tail)
	return err
}
