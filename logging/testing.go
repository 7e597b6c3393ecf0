package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testAppender struct {
	tb testing.TB
}

// NewTestAppender returns an appender that logs through tb.Log, so output is attributed to the
// right test even when tests run in parallel. Entries are printed in local time.
func NewTestAppender(tb testing.TB) Appender {
	return &testAppender{tb}
}

func (a *testAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	// keep tb.Log from reporting this file as the caller
	a.tb.Helper()
	line, err := formatEntry(entry, fields)
	a.tb.Log(line)
	return err
}

func (a *testAppender) Sync() error {
	return nil
}

// NewTestLogger returns a DEBUG logger that writes to tb.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also records every entry so tests can assert on
// what was logged.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	observerCore, observedLogs := observer.New(zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled))
	logger := newImpl("", DEBUG, false, NewTestAppender(tb), observerCore)
	return logger, observedLogs
}
