package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// The log file is cut back to its newest keepLogBytes once it grows past
// maxLogBytes.
const (
	maxLogBytes  = 6 << 20
	keepLogBytes = 5 << 20
)

// logFileWriter appends to a size-capped log file.
type logFileWriter struct {
	mu       sync.Mutex
	file     *os.File
	maxBytes int64
	keep     int64
}

func newLogFileWriter(path string) (*logFileWriter, *os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	w := &logFileWriter{file: file, maxBytes: maxLogBytes, keep: keepLogBytes}
	if err := w.trim(); err != nil {
		file.Close()
		return nil, nil, err
	}
	return w, file, nil
}

func (w *logFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	return n, w.trim()
}

// trim keeps only the tail of the file once it exceeds maxBytes.
func (w *logFileWriter) trim() error {
	info, err := w.file.Stat()
	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}
	size := info.Size()
	if size <= w.maxBytes {
		return nil
	}

	tail := make([]byte, w.keep)
	n, err := w.file.ReadAt(tail, size-w.keep)
	if err != nil && err != io.EOF {
		return fmt.Errorf("read log tail: %w", err)
	}
	if err := w.file.Truncate(0); err != nil {
		return fmt.Errorf("truncate log file: %w", err)
	}
	// O_APPEND writes land at the new end of file.
	if _, err := w.file.Write(tail[:n]); err != nil {
		return fmt.Errorf("rewrite log tail: %w", err)
	}
	return nil
}
