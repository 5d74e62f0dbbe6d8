package logging

import (
	"io"
	"log"
	"os"
	"sync"
)

const DefaultMaxLogSize = 2 * 1024 * 1024 // 2MB

type RotatingWriter struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	size    int64
	maxSize int64
}

// Setup points the standard logger at stdout and a size-capped file at
// logPath. The file keeps one ".1" backup.
func Setup(logPath string) (*RotatingWriter, error) {
	rw, err := NewRotatingWriter(logPath, DefaultMaxLogSize)
	if err != nil {
		return nil, err
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(io.MultiWriter(os.Stdout, rw))

	return rw, nil
}

func NewRotatingWriter(logPath string, maxSize int64) (*RotatingWriter, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxLogSize
	}

	// An oversized file left by a previous run starts over.
	if info, err := os.Stat(logPath); err == nil && info.Size() > maxSize {
		os.Truncate(logPath, 0)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	return &RotatingWriter{
		file:    f,
		path:    logPath,
		size:    size,
		maxSize: maxSize,
	}, nil
}

func (w *RotatingWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err = w.file.Write(p)
	w.size += int64(n)

	if w.size > w.maxSize {
		w.rotate()
	}

	return n, err
}

func (w *RotatingWriter) rotate() {
	w.file.Close()

	os.Rename(w.path, w.path+".1")

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return
	}

	w.file = f
	w.size = 0
}

func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
