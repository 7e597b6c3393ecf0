package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

// DefaultTimeFormatStr is the time format log appenders print.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// Appender is an output for log entries. It is the subset of zapcore.Core a logger writes to, so
// zap cores such as the test observer can be used directly.
type Appender interface {
	Write(zapcore.Entry, []zapcore.Field) error
	// Sync flushes anything buffered, e.g. at shutdown.
	Sync() error
}

// WriterAppender prints one tab separated line per entry to an io.Writer. Fields are appended as a
// JSON object in the order they were given.
type WriterAppender struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriterAppender returns an appender writing to out.
func NewWriterAppender(out io.Writer) *WriterAppender {
	return &WriterAppender{out: out}
}

// NewStdoutAppender returns an appender writing to stdout.
func NewStdoutAppender() *WriterAppender {
	return NewWriterAppender(os.Stdout)
}

// Write prints the entry.
func (a *WriterAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	line, err := formatEntry(entry, fields)
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, writeErr := fmt.Fprintln(a.out, line); writeErr != nil {
		return writeErr
	}
	return err
}

// Sync is a no-op.
func (a *WriterAppender) Sync() error {
	return nil
}

// formatEntry renders "<time>\t<LEVEL>\t<name>\t<dir/file:line>\t<message>\t<fields json>", leaving
// out the parts an entry does not have. If the fields cannot be encoded the line is still returned
// without them.
func formatEntry(entry zapcore.Entry, fields []zapcore.Field) (string, error) {
	parts := []string{entry.Time.Format(DefaultTimeFormatStr), strings.ToUpper(entry.Level.String())}
	if entry.LoggerName != "" {
		parts = append(parts, entry.LoggerName)
	}
	if entry.Caller.Defined {
		dir, file := filepath.Split(entry.Caller.File)
		parts = append(parts, fmt.Sprintf("%s/%s:%d", filepath.Base(dir), file, entry.Caller.Line))
	}
	parts = append(parts, entry.Message)
	if len(fields) == 0 {
		return strings.Join(parts, "\t"), nil
	}

	// encoding an empty entry leaves only the fields, in order
	encoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{SkipLineEnding: true})
	buf, err := encoder.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		return strings.Join(parts, "\t"), err
	}
	defer buf.Free()
	parts = append(parts, buf.String())
	return strings.Join(parts, "\t"), nil
}
