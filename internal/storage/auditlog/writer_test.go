package auditlog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "server_log_000.txt"},
		{7, "server_log_007.txt"},
		{42, "server_log_042.txt"},
		{1234, "server_log_1234.txt"},
	}

	for _, tt := range tests {
		if got := FileName(tt.index); got != tt.want {
			t.Errorf("FileName(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2025, 3, 4, 5, 6, 7, 89_000_000, time.FixedZone("X", 3600))
	if got, want := Timestamp(ts), "[2025-03-04 04:06:07.089]"; got != want {
		t.Errorf("Timestamp() = %q, want %q", got, want)
	}
}

func TestFormatEntry(t *testing.T) {
	ts := time.Date(2025, 1, 2, 15, 4, 5, 123_000_000, time.UTC)
	e := Entry{
		Time:     ts,
		Client:   "192.0.2.10:51514",
		Status:   200,
		Duration: 3 * time.Millisecond,
		Request:  "GET /add/2/3 HTTP/1.1\r\nHost: localhost:8443\r\n\r\n",
	}

	got := string(FormatEntry(e, 6))
	want := "[2025-01-02 15:04:05.123] 192.0.2.10:51514 200 3ms\n" +
		"[2025-01-02 15:04:05.123]   GET /add/2/3 HTTP/1.1\n" +
		"[2025-01-02 15:04:05.123]   Host: localhost:8443\n"
	if got != want {
		t.Errorf("FormatEntry() =\n%s\nwant\n%s", got, want)
	}
}

func TestRequestLines_Truncates(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "line-%d\r\n", i)
	}

	lines := RequestLines(sb.String(), 6)
	if len(lines) != 6 {
		t.Fatalf("len(lines) = %d, want 6", len(lines))
	}
	for i, l := range lines {
		if l != fmt.Sprintf("line-%d", i) {
			t.Errorf("lines[%d] = %q", i, l)
		}
	}

	if got := RequestLines("", 6); got != nil {
		t.Errorf("RequestLines(\"\") = %v, want nil", got)
	}
}

func TestOpen_RequiresDir(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Error("Open() with empty dir should fail")
	}
}

func TestOpen_CreatesFirstFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	w, err := Open(DefaultConfig(dir))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer w.Close()

	if w.Index() != 0 {
		t.Errorf("Index() = %d, want 0", w.Index())
	}
	if _, err := os.Stat(filepath.Join(dir, "server_log_000.txt")); err != nil {
		t.Errorf("first file not created: %v", err)
	}
}

func TestOpen_AppendsToExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName(0))
	if err := os.WriteFile(path, []byte("previous run\n"), 0640); err != nil {
		t.Fatal(err)
	}

	w, err := Open(DefaultConfig(dir))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := w.Append(Entry{Client: "127.0.0.1:1", Status: 200, Request: "GET /json"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	w.Close()

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "previous run\n") {
		t.Errorf("existing content was truncated: %q", data)
	}
	if !strings.Contains(string(data), "127.0.0.1:1 200") {
		t.Errorf("new entry missing: %q", data)
	}
}

func TestOpen_SkipsFullFiles(t *testing.T) {
	dir := t.TempDir()
	full := bytes.Repeat([]byte("x"), 128)
	for i := 0; i < 2; i++ {
		if err := os.WriteFile(filepath.Join(dir, FileName(i)), full, 0640); err != nil {
			t.Fatal(err)
		}
	}

	w, err := Open(Config{Dir: dir, MaxFileSize: 128})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer w.Close()

	if w.Index() != 2 {
		t.Errorf("Index() = %d, want 2", w.Index())
	}
}

func TestWriter_Rotation(t *testing.T) {
	dir := t.TempDir()
	const maxSize = 512

	w, err := Open(Config{Dir: dir, MaxFileSize: maxSize})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	e := Entry{
		Client:   "198.51.100.4:40000",
		Status:   200,
		Duration: time.Millisecond,
		Request:  "GET /hello/5 HTTP/1.1\r\nHost: example\r\nAccept: */*\r\n\r\n",
	}
	entryLen := int64(len(FormatEntry(e, DefaultMaxRequestLines)))

	var total int64
	for total <= 3*maxSize {
		if err := w.Append(e); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		total += entryLen
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files, _ := filepath.Glob(filepath.Join(dir, FilePrefix+"*"+FileExtension))
	if len(files) < 2 {
		t.Fatalf("expected at least 2 files, got %d", len(files))
	}

	var sum int64
	for _, f := range files {
		st, err := os.Stat(f)
		if err != nil {
			t.Fatal(err)
		}
		if st.Size() > maxSize+entryLen {
			t.Errorf("%s is %d bytes, cap %d plus one entry %d", f, st.Size(), maxSize, entryLen)
		}
		sum += st.Size()
	}
	if sum != total {
		t.Errorf("bytes on disk = %d, want %d", sum, total)
	}
}

func TestWriter_ConcurrentEntriesDoNotInterleave(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(Config{Dir: dir, MaxFileSize: 4096})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	const goroutines, perG = 16, 40
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				id := fmt.Sprintf("%d-%d", g, i)
				_ = w.Append(Entry{
					Client:  "client-" + id,
					Status:  200,
					Request: "GET /id/" + id + "\nX-Id: " + id + "\nX-End: " + id,
				})
			}
		}(g)
	}
	wg.Wait()
	w.Close()

	files, _ := filepath.Glob(filepath.Join(dir, "*.txt"))
	entries := 0
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		sc := bufio.NewScanner(f)
		var lines []string
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		f.Close()

		if len(lines)%4 != 0 {
			t.Fatalf("%s has %d lines, not a multiple of 4", path, len(lines))
		}
		for i := 0; i < len(lines); i += 4 {
			header := lines[i]
			idx := strings.Index(header, "client-")
			if idx < 0 {
				t.Fatalf("line %d is not a header: %q", i, header)
			}
			id := strings.Fields(header[idx+len("client-"):])[0]
			for j := 1; j < 4; j++ {
				if !strings.HasSuffix(lines[i+j], id) {
					t.Fatalf("entry %s interleaved: %q", id, lines[i+j])
				}
			}
			entries++
		}
	}

	if entries != goroutines*perG {
		t.Errorf("found %d entries, want %d", entries, goroutines*perG)
	}
}

func TestWriter_OpenFailureAfterRotationDropsEntry(t *testing.T) {
	dir := t.TempDir()

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	w, err := Open(Config{Dir: dir, MaxFileSize: 64, Logger: logger})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer w.Close()

	// A directory where the next file should go makes the open fail.
	blocker := filepath.Join(dir, FileName(1))
	if err := os.Mkdir(blocker, 0750); err != nil {
		t.Fatal(err)
	}

	big := Entry{Client: "127.0.0.1:9", Status: 200, Request: strings.Repeat("a", 100)}
	if err := w.Append(big); err != nil {
		t.Fatalf("first Append() error = %v", err)
	}

	if err := w.Append(big); err == nil {
		t.Fatal("Append() should fail when the rotated file cannot be opened")
	}
	if !strings.Contains(logBuf.String(), "audit entry dropped") {
		t.Errorf("expected drop to be logged, got %q", logBuf.String())
	}

	// Once the path is usable again the writer recovers.
	if err := os.Remove(blocker); err != nil {
		t.Fatal(err)
	}
	if err := w.Append(big); err != nil {
		t.Fatalf("Append() after recovery error = %v", err)
	}
	if w.Index() != 1 {
		t.Errorf("Index() = %d, want 1", w.Index())
	}
}

func TestWriter_AppendAfterClose(t *testing.T) {
	w, err := Open(DefaultConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if err := w.Append(Entry{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Append() after Close error = %v, want ErrClosed", err)
	}
}
