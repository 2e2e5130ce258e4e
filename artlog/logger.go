// Package artlog is the engine's single logging surface: a leveled,
// multi-writer logger that frames every line as RFC5424 syslog, the
// same shape the teacher's ingest/log package uses. Callers get a
// *Logger at process start in cmd/artemis and pass it down by value
// or pointer; nothing in the parser or driver packages reaches into a
// package-level global.
package artlog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
)

// Level controls which calls actually produce output. Levels are
// ordered; a logger only emits a call whose level is >= its current
// level.
type Level int

const (
	OFF Level = iota
	DEBUG
	INFO
	WARN
	ERROR
	CRITICAL
	FATAL
)

func (l Level) String() string {
	switch l {
	case OFF:
		return "OFF"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case CRITICAL:
		return "CRITICAL"
	case FATAL:
		return "FATAL"
	}
	return "UNKNOWN"
}

func (l Level) valid() bool {
	return l >= OFF && l <= FATAL
}

func (l Level) priority() rfc5424.Priority {
	switch l {
	case DEBUG:
		return rfc5424.User | rfc5424.Debug
	case INFO:
		return rfc5424.User | rfc5424.Info
	case WARN:
		return rfc5424.User | rfc5424.Warning
	case ERROR:
		return rfc5424.User | rfc5424.Error
	case CRITICAL:
		return rfc5424.User | rfc5424.Crit
	case FATAL:
		return rfc5424.User | rfc5424.Emergency
	}
	return rfc5424.User | rfc5424.Debug
}

// LevelFromString parses a config-file level name, case-insensitively.
func LevelFromString(s string) (Level, error) {
	switch strings.ToUpper(s) {
	case "OFF":
		return OFF, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	case "CRITICAL":
		return CRITICAL, nil
	case "FATAL":
		return FATAL, nil
	}
	return OFF, ErrInvalidLevel
}

const (
	defaultDepth = 3
	defaultMsgID = `artemis`
	maxAppname   = 48
	maxHostname  = 255
)

var (
	// ErrNotOpen is returned by any call made after Close.
	ErrNotOpen = errors.New("artlog: logger is not open")
	// ErrInvalidLevel is returned by SetLevelString on an unknown name.
	ErrInvalidLevel = errors.New("artlog: invalid log level")
)

// Logger is a leveled, multi-writer, RFC5424-framed logger. The zero
// value is not usable; construct with New or NewFile.
type Logger struct {
	mtx      sync.Mutex
	wtrs     []io.WriteCloser
	lvl      Level
	hot      bool
	hostname string
	appname  string
}

// New builds a logger at level INFO writing to wtr. The process
// hostname and the running binary's basename are used as the
// RFC5424 HOSTNAME and APP-NAME fields.
func New(wtr io.WriteCloser) *Logger {
	l := &Logger{
		wtrs: []io.WriteCloser{wtr},
		lvl:  INFO,
		hot:  true,
	}
	l.guessIdentity()
	return l
}

// NewFile opens (creating if necessary) f in append mode and returns
// a logger writing to it.
func NewFile(f string) (*Logger, error) {
	fout, err := os.OpenFile(f, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return nil, err
	}
	return New(fout), nil
}

// NewDiscard returns a logger that throws every line away, used in
// tests and by components that are handed a *Logger but don't want
// one.
func NewDiscard() *Logger {
	return New(discardWriteCloser{})
}

func (l *Logger) guessIdentity() {
	if h, err := os.Hostname(); err == nil {
		if len(h) > maxHostname {
			h = h[:maxHostname]
		}
		l.hostname = h
	}
	if len(os.Args) > 0 {
		exe := filepath.Base(os.Args[0])
		if ext := filepath.Ext(exe); len(ext) > 0 && len(ext) < len(exe) {
			exe = strings.TrimSuffix(exe, ext)
		}
		if len(exe) > maxAppname {
			exe = exe[:maxAppname]
		}
		l.appname = exe
	}
}

// AddWriter adds wtr as an additional sink; every subsequent line is
// written to it too.
func (l *Logger) AddWriter(wtr io.WriteCloser) error {
	if wtr == nil {
		return errors.New("artlog: nil writer")
	}
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if !l.hot {
		return ErrNotOpen
	}
	l.wtrs = append(l.wtrs, wtr)
	return nil
}

// SetLevel sets the minimum level that will be emitted.
func (l *Logger) SetLevel(lvl Level) error {
	if !lvl.valid() {
		return ErrInvalidLevel
	}
	l.mtx.Lock()
	l.lvl = lvl
	l.mtx.Unlock()
	return nil
}

// SetLevelString is SetLevel taking a config-file level name.
func (l *Logger) SetLevelString(s string) error {
	lvl, err := LevelFromString(s)
	if err != nil {
		return err
	}
	return l.SetLevel(lvl)
}

// Level returns the current minimum emitted level.
func (l *Logger) Level() Level {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.lvl
}

// Close closes every writer added via New/NewFile/AddWriter.
func (l *Logger) Close() error {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if !l.hot {
		return ErrNotOpen
	}
	l.hot = false
	var err error
	for _, w := range l.wtrs {
		if cerr := w.Close(); cerr != nil {
			err = cerr
		}
	}
	return err
}

func (l *Logger) Debugf(f string, args ...interface{}) { l.outputf(defaultDepth, DEBUG, f, args...) }
func (l *Logger) Infof(f string, args ...interface{})  { l.outputf(defaultDepth, INFO, f, args...) }
func (l *Logger) Warnf(f string, args ...interface{})  { l.outputf(defaultDepth, WARN, f, args...) }
func (l *Logger) Errorf(f string, args ...interface{}) { l.outputf(defaultDepth, ERROR, f, args...) }
func (l *Logger) Criticalf(f string, args ...interface{}) {
	l.outputf(defaultDepth, CRITICAL, f, args...)
}

// Fatalf logs at FATAL and terminates the process with exit code 1,
// matching the CLI exit-code contract (spec §6: "2 runtime error" is
// used for the caller's own return path; Fatalf is reserved for
// conditions the process cannot recover from at all).
func (l *Logger) Fatalf(f string, args ...interface{}) {
	l.outputf(defaultDepth, FATAL, f, args...)
	os.Exit(1)
}

func (l *Logger) outputf(depth int, lvl Level, f string, args ...interface{}) {
	l.mtx.Lock()
	hot, level := l.hot, l.lvl
	l.mtx.Unlock()
	if !hot || level == OFF || lvl < level {
		return
	}
	msg := fmt.Sprintf(f, args...)
	b, err := GenRFCMessage(time.Now(), lvl.priority(), l.hostname, l.appname, callLoc(depth), msg)
	if err != nil || len(b) == 0 {
		return
	}
	l.write(b)
}

func (l *Logger) write(line []byte) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if !l.hot {
		return
	}
	for _, w := range l.wtrs {
		w.Write(line)
		io.WriteString(w, "\n")
	}
}

// GenRFCMessage renders one RFC5424 syslog message. Exposed standalone
// so tests can build frames without a full Logger.
func GenRFCMessage(ts time.Time, prio rfc5424.Priority, hostname, appname, msgid, msg string) ([]byte, error) {
	m := rfc5424.Message{
		Priority:  prio,
		Timestamp: ts,
		Hostname:  trimLength(maxHostname, hostname),
		AppName:   trimLength(maxAppname, appname),
		MessageID: trimLength(32, msgid),
		Message:   []byte(msg),
	}
	return m.MarshalBinary()
}

func callLoc(depth int) string {
	if _, file, line, ok := runtime.Caller(depth); ok {
		dir, f := filepath.Split(file)
		return fmt.Sprintf("%s:%d", filepath.Join(filepath.Base(dir), f), line)
	}
	return defaultMsgID
}

func trimLength(n int, s string) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

type discardWriteCloser struct{}

func (discardWriteCloser) Write(b []byte) (int, error) { return len(b), nil }
func (discardWriteCloser) Close() error                { return nil }

var _ io.WriteCloser = discardWriteCloser{}
