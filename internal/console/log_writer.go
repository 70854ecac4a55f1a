package console

import (
	"bytes"
	"sync"
)

// LogWriter is an io.Writer feeding complete lines to the log pane.
// A full channel drops lines instead of blocking the writer.
type LogWriter struct {
	mu      sync.Mutex
	ch      chan<- string
	pending []byte
}

// NewLogWriter returns a writer sending lines to ch
func NewLogWriter(ch chan<- string) *LogWriter {
	if ch == nil {
		panic("LogWriter: channel cannot be nil")
	}
	return &LogWriter{ch: ch}
}

func (w *LogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = append(w.pending, p...)
	for {
		i := bytes.IndexByte(w.pending, '\n')
		if i < 0 {
			break
		}
		line := string(w.pending[:i])
		w.pending = w.pending[i+1:]
		select {
		case w.ch <- line:
		default:
		}
	}
	return len(p), nil
}
