// Package auditlog appends one compressed JSONL record per resolved round.
// The log is the replayable history of every run: with the run seed and the
// decisions recorded here, any round can be re-resolved bit for bit.
package auditlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/chrisf-bit/store-manager/internal/sim/metrics"
)

// Entry is one resolved round.
type Entry struct {
	Time        time.Time         `json:"time"`
	RunID       string            `json:"runId"`
	RoundNumber int               `json:"roundNumber"`
	EventID     string            `json:"eventId"`
	Decisions   map[string]string `json:"decisions"`
	Scenarios   map[string]int    `json:"scenarios,omitempty"`
	Deltas      metrics.Delta     `json:"deltas"`
}

// Writer appends zstd-compressed JSONL, rotating to a new file per UTC day.
type Writer struct {
	baseDir string
	level   zstd.EncoderLevel

	mu     sync.Mutex
	curDay string
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
}

func NewWriter(baseDir string, level int) *Writer {
	return &Writer{
		baseDir: baseDir,
		level:   zstd.EncoderLevelFromZstd(level),
	}
}

func (w *Writer) Write(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	day := e.Time.UTC().Format("2006-01-02")
	if day != w.curDay {
		if err := w.rotateLocked(day); err != nil {
			return err
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) rotateLocked(day string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForDay(day), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(w.level))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curDay = day
	return nil
}

func (w *Writer) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

func (w *Writer) pathForDay(day string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("rounds-%s.jsonl.zst", day))
}
