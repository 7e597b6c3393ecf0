package logging

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// appenderSet is shared by a logger and every logger derived from it.
type appenderSet struct {
	mu   sync.RWMutex
	list []Appender
}

type impl struct {
	name      string
	level     atomicLevel
	inUTC     bool
	fields    []zapcore.Field
	appenders *appenderSet
}

func newImpl(name string, level Level, inUTC bool, appenders ...Appender) *impl {
	return &impl{
		name:      name,
		level:     newAtomicLevel(level),
		inUTC:     inUTC,
		appenders: &appenderSet{list: appenders},
	}
}

func (l *impl) AddAppender(appender Appender) {
	l.appenders.mu.Lock()
	defer l.appenders.mu.Unlock()
	l.appenders.list = append(l.appenders.list, appender)
}

func (l *impl) SetLevel(level Level) {
	l.level.set(level)
}

func (l *impl) GetLevel() Level {
	return l.level.get()
}

// Sublogger starts at the current level but changing either level afterwards does not affect
// the other.
func (l *impl) Sublogger(subname string) Logger {
	name := subname
	if l.name != "" {
		name = l.name + "." + subname
	}
	return &impl{
		name:      name,
		level:     newAtomicLevel(l.level.get()),
		inUTC:     l.inUTC,
		fields:    l.fields,
		appenders: l.appenders,
	}
}

func (l *impl) WithFields(keysAndValues ...interface{}) Logger {
	fields := make([]zapcore.Field, 0, len(l.fields)+len(keysAndValues)/2)
	fields = append(fields, l.fields...)
	fields = append(fields, toFields(keysAndValues)...)
	return &impl{
		name:      l.name,
		level:     l.level,
		inUTC:     l.inUTC,
		fields:    fields,
		appenders: l.appenders,
	}
}

func (l *impl) Sync() error {
	l.appenders.mu.RLock()
	defer l.appenders.mu.RUnlock()
	var errs error
	for _, appender := range l.appenders.list {
		errs = multierr.Append(errs, appender.Sync())
	}
	return errs
}

func (l *impl) enabled(level Level) bool {
	return level >= l.level.get()
}

// emit must be called directly from the exported logging method so the caller lookup lands on
// the code that logged.
func (l *impl) emit(level Level, msg string, fields []zapcore.Field) {
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now(),
		LoggerName: l.name,
		Message:    msg,
	}
	if l.inUTC {
		entry.Time = entry.Time.UTC()
	}
	if pc, file, line, ok := runtime.Caller(2); ok {
		entry.Caller = zapcore.NewEntryCaller(pc, file, line, true)
	}
	if len(l.fields) > 0 {
		fields = append(append([]zapcore.Field(nil), l.fields...), fields...)
	}

	l.appenders.mu.RLock()
	defer l.appenders.mu.RUnlock()
	for _, appender := range l.appenders.list {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// toFields pairs up keys and values. A trailing key with no value is kept with an error value so
// the mistake shows up in the output.
func toFields(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.Any(key, errors.New("unpaired log key")))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

func (l *impl) Debug(args ...interface{}) {
	if l.enabled(DEBUG) {
		l.emit(DEBUG, fmt.Sprint(args...), nil)
	}
}

func (l *impl) Debugf(template string, args ...interface{}) {
	if l.enabled(DEBUG) {
		l.emit(DEBUG, fmt.Sprintf(template, args...), nil)
	}
}

func (l *impl) Debugw(msg string, keysAndValues ...interface{}) {
	if l.enabled(DEBUG) {
		l.emit(DEBUG, msg, toFields(keysAndValues))
	}
}

func (l *impl) Info(args ...interface{}) {
	if l.enabled(INFO) {
		l.emit(INFO, fmt.Sprint(args...), nil)
	}
}

func (l *impl) Infof(template string, args ...interface{}) {
	if l.enabled(INFO) {
		l.emit(INFO, fmt.Sprintf(template, args...), nil)
	}
}

func (l *impl) Infow(msg string, keysAndValues ...interface{}) {
	if l.enabled(INFO) {
		l.emit(INFO, msg, toFields(keysAndValues))
	}
}

func (l *impl) Warn(args ...interface{}) {
	if l.enabled(WARN) {
		l.emit(WARN, fmt.Sprint(args...), nil)
	}
}

func (l *impl) Warnf(template string, args ...interface{}) {
	if l.enabled(WARN) {
		l.emit(WARN, fmt.Sprintf(template, args...), nil)
	}
}

func (l *impl) Warnw(msg string, keysAndValues ...interface{}) {
	if l.enabled(WARN) {
		l.emit(WARN, msg, toFields(keysAndValues))
	}
}

func (l *impl) Error(args ...interface{}) {
	if l.enabled(ERROR) {
		l.emit(ERROR, fmt.Sprint(args...), nil)
	}
}

func (l *impl) Errorf(template string, args ...interface{}) {
	if l.enabled(ERROR) {
		l.emit(ERROR, fmt.Sprintf(template, args...), nil)
	}
}

func (l *impl) Errorw(msg string, keysAndValues ...interface{}) {
	if l.enabled(ERROR) {
		l.emit(ERROR, msg, toFields(keysAndValues))
	}
}
