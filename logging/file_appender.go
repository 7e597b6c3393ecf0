package logging

import (
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	fileAppenderMaxSizeMB  = 64
	fileAppenderMaxBackups = 3
)

// FileAppender writes entries to a file that is rotated once it grows past 64MB. Old files are
// compressed and at most three are kept.
type FileAppender struct {
	*WriterAppender
	file *lumberjack.Logger
}

// NewFileAppender returns an appender writing to path. The file and its directory are created on
// the first write.
func NewFileAppender(path string) *FileAppender {
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    fileAppenderMaxSizeMB,
		MaxBackups: fileAppenderMaxBackups,
		Compress:   true,
	}
	return &FileAppender{WriterAppender: NewWriterAppender(file), file: file}
}

// Close closes the current log file.
func (a *FileAppender) Close() error {
	return a.file.Close()
}
