package csvlog

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Writer appends rows to a log file in the trainer's format: a header
// row, then values with six fixed decimals.
type Writer struct {
	file *os.File
	buf  *bufio.Writer
}

// NewWriter opens path for writing, creating parent directories. The
// header is written unless appendMode is set and the file already exists.
func NewWriter(path string, header []string, appendMode bool) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}

	_, statErr := os.Stat(path)
	exists := statErr == nil
	if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", path, statErr)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("cannot open file %s: %w", path, err)
	}

	w := &Writer{file: f, buf: bufio.NewWriter(f)}
	if !appendMode || !exists {
		if err := w.WriteStrings(header); err != nil {
			f.Close()
			return nil, err
		}
		if err := w.Flush(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Writer) WriteRow(values []float64) error {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	return w.WriteStrings(s)
}

func (w *Writer) WriteStrings(cols []string) error {
	for i, c := range cols {
		if i > 0 {
			if err := w.buf.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.buf.WriteString(escape(c)); err != nil {
			return err
		}
	}
	return w.buf.WriteByte('\n')
}

func (w *Writer) Flush() error {
	return w.buf.Flush()
}

func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

func escape(s string) string {
	if !strings.ContainsAny(s, ",\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
