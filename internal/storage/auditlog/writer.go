package auditlog

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/tlsrest/internal/telemetry/metric"
)

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("auditlog: writer is closed")

// File layout constants.
const (
	FilePrefix      = "server_log_"
	FileExtension   = ".txt"
	DefaultFilePerm = 0640
	DefaultDirPerm  = 0750

	// TimestampLayout is the layout used inside the brackets of every line.
	TimestampLayout = "2006-01-02 15:04:05.000"
)

// Default configuration values.
const (
	DefaultMaxFileSize     int64 = 1 << 20 // 1MiB
	DefaultMaxRequestLines       = 6
)

// Config configures the audit writer.
type Config struct {
	Dir string

	MaxFileSize     int64
	MaxRequestLines int

	Logger  *slog.Logger
	Metrics *metric.AuditMetrics
}

// DefaultConfig returns the default audit configuration for dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:             dir,
		MaxFileSize:     DefaultMaxFileSize,
		MaxRequestLines: DefaultMaxRequestLines,
	}
}

// Entry is one audited request.
type Entry struct {
	Time     time.Time
	Client   string
	Status   int
	Duration time.Duration
	Request  string
}

// Writer appends entries to the current file and rotates it by size.
// It is safe for concurrent use.
type Writer struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	index  int
	file   *os.File
	path   string
	size   int64
	closed bool
}

// Open creates the directory if needed and opens the first file that is
// still below the size cap, starting at index 0, in append mode.
func Open(cfg Config) (*Writer, error) {
	if cfg.Dir == "" {
		return nil, errors.New("auditlog: dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("auditlog: create dir: %w", err)
	}

	applyDefaults(&cfg)

	w := &Writer{
		cfg:    cfg,
		logger: cfg.Logger,
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}

	if err := w.openLocked(); err != nil {
		return nil, err
	}

	return w, nil
}

func applyDefaults(cfg *Config) {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.MaxRequestLines <= 0 {
		cfg.MaxRequestLines = DefaultMaxRequestLines
	}
}

// FileName returns the file name for a rotation index.
func FileName(index int) string {
	return fmt.Sprintf("%s%03d%s", FilePrefix, index, FileExtension)
}

// Append writes one entry, rotating first if the current file is full.
// When no file can be opened the entry is dropped, the failure is logged
// and an error is returned; the next Append tries to open again.
func (w *Writer) Append(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	if w.file != nil && w.size >= w.cfg.MaxFileSize {
		w.rotateLocked()
	}

	if w.file == nil {
		if err := w.openLocked(); err != nil {
			w.cfg.Metrics.Dropped()
			w.logger.Error("audit entry dropped",
				"client", e.Client,
				"error", err,
			)
			return err
		}
	}

	data := FormatEntry(e, w.cfg.MaxRequestLines)
	n, err := w.file.Write(data)
	w.size += int64(n)
	w.cfg.Metrics.Written(n)
	if err != nil {
		return fmt.Errorf("auditlog: write %s: %w", w.path, err)
	}

	return nil
}

// Close closes the current file. Further appends return ErrClosed.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Index returns the current rotation index.
func (w *Writer) Index() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index
}

// Path returns the path of the current file.
func (w *Writer) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return filepath.Join(w.cfg.Dir, FileName(w.index))
}

// Size returns the number of bytes in the current file.
func (w *Writer) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

func (w *Writer) rotateLocked() {
	if err := w.file.Close(); err != nil {
		w.logger.Warn("audit log close failed", "path", w.path, "error", err)
	}
	w.file = nil
	w.index++
	w.cfg.Metrics.Rotated()
	w.logger.Debug("audit log rotated", "index", w.index)
}

// openLocked opens the file at the current index, skipping files that are
// already at the cap.
func (w *Writer) openLocked() error {
	for {
		path := filepath.Join(w.cfg.Dir, FileName(w.index))
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, DefaultFilePerm)
		if err != nil {
			return fmt.Errorf("auditlog: open %s: %w", path, err)
		}

		stat, err := file.Stat()
		if err != nil {
			file.Close()
			return fmt.Errorf("auditlog: stat %s: %w", path, err)
		}

		if stat.Size() >= w.cfg.MaxFileSize {
			file.Close()
			w.index++
			continue
		}

		w.file = file
		w.path = path
		w.size = stat.Size()
		return nil
	}
}

// Timestamp formats t as a bracketed UTC timestamp with milliseconds.
func Timestamp(t time.Time) string {
	return "[" + t.UTC().Format(TimestampLayout) + "]"
}

// FormatEntry renders e as a header line followed by at most maxLines
// request lines.
func FormatEntry(e Entry, maxLines int) []byte {
	ts := e.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	stamp := Timestamp(ts)

	var buf bytes.Buffer
	buf.WriteString(stamp)
	buf.WriteByte(' ')
	buf.WriteString(e.Client)
	buf.WriteByte(' ')
	buf.WriteString(strconv.Itoa(e.Status))
	buf.WriteByte(' ')
	buf.WriteString(strconv.FormatInt(e.Duration.Milliseconds(), 10))
	buf.WriteString("ms\n")

	for _, line := range RequestLines(e.Request, maxLines) {
		buf.WriteString(stamp)
		buf.WriteString("  ")
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	return buf.Bytes()
}

// RequestLines splits a raw request into at most max lines, without
// line terminators and without the trailing blank lines of a header block.
func RequestLines(request string, max int) []string {
	request = strings.TrimRight(request, "\r\n")
	if request == "" || max <= 0 {
		return nil
	}

	lines := strings.SplitN(request, "\n", max+1)
	if len(lines) > max {
		lines = lines[:max]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
