package artlog

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

type bufCloser struct {
	bytes.Buffer
}

func (bufCloser) Close() error { return nil }

func TestLevelFiltering(t *testing.T) {
	var buf bufCloser
	l := New(&buf)
	if err := l.SetLevel(WARN); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	l.Infof("should not appear")
	l.Warnf("should appear: %d", 7)
	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("INFO line leaked through at WARN level: %q", out)
	}
	if !strings.Contains(out, "should appear: 7") {
		t.Errorf("WARN line missing from output: %q", out)
	}
}

func TestSetLevelStringInvalid(t *testing.T) {
	l := NewDiscard()
	if err := l.SetLevelString("bogus"); err != ErrInvalidLevel {
		t.Errorf("err = %v, want ErrInvalidLevel", err)
	}
}

func TestClosePreventsFurtherWrites(t *testing.T) {
	var buf bufCloser
	l := New(&buf)
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	l.Infof("dropped")
	if buf.Len() != 0 {
		t.Errorf("write after Close was not dropped: %q", buf.String())
	}
	if err := l.AddWriter(&bufCloser{}); err != ErrNotOpen {
		t.Errorf("AddWriter after Close: err = %v, want ErrNotOpen", err)
	}
}

func TestGenRFCMessageRoundTripsMessage(t *testing.T) {
	b, err := GenRFCMessage(time.Now(), INFO.priority(), "host", "app", "artemis", "hello world")
	if err != nil {
		t.Fatalf("GenRFCMessage: %v", err)
	}
	if !strings.Contains(string(b), "hello world") {
		t.Errorf("frame missing message body: %q", b)
	}
	if !strings.Contains(string(b), "host") || !strings.Contains(string(b), "app") {
		t.Errorf("frame missing hostname/appname: %q", b)
	}
}

func TestLevelFromStringRoundTrip(t *testing.T) {
	for _, lvl := range []Level{OFF, DEBUG, INFO, WARN, ERROR, CRITICAL, FATAL} {
		parsed, err := LevelFromString(lvl.String())
		if err != nil {
			t.Fatalf("LevelFromString(%s): %v", lvl, err)
		}
		if parsed != lvl {
			t.Errorf("LevelFromString(%s) = %v, want %v", lvl, parsed, lvl)
		}
	}
}
