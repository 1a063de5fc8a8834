package logger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestPlainFormatter_TypePrefixAndFieldSkipping(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	cases := []struct {
		name    string
		data    logrus.Fields
		message string
		want    string
	}{
		{
			name: "with type",
			data: logrus.Fields{
				"component":   "exchange",
				"type":        "reply.received",
				"caller":      "x.go:1",
				"exchange_id": "e1",
				"state":       "idle",
			},
			message: "exchange resolved",
			want:    "x.go:1 [2025-01-02T03:04:05Z] [INFO] [exchange] [type=reply.received] exchange resolved exchange_id=e1 state=idle\n",
		},
		{
			name: "without type",
			data: logrus.Fields{
				"component": "transport",
				"caller":    "x.go:1",
				"foo":       "bar",
			},
			message: "hello",
			want:    "x.go:1 [2025-01-02T03:04:05Z] [INFO] [transport] hello foo=bar\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry := &logrus.Entry{
				Logger:  logrus.New(),
				Time:    ts,
				Level:   logrus.InfoLevel,
				Message: tc.message,
				Data:    tc.data,
			}
			out, err := (PlainFormatter{}).Format(entry)
			if err != nil {
				t.Fatalf("Format() error: %v", err)
			}
			got := string(out)
			if got != tc.want {
				t.Fatalf("unexpected format:\nwant: %q\ngot:  %q", tc.want, got)
			}
			if _, ok := tc.data["type"]; ok {
				if strings.Count(got, "type=reply.received") != 1 {
					t.Fatalf("expected type to appear only once in output, got: %q", got)
				}
			}
		})
	}
}

func TestSetLevel_IgnoresUnknownNames(t *testing.T) {
	l := logrus.New()
	l.SetOutput(&bytes.Buffer{})
	SetRoot(l)
	defer SetRoot(nil)

	SetLevel("debug")
	if l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %s, want debug", l.GetLevel())
	}
	SetLevel("chatty")
	if l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("unknown level changed logger to %s", l.GetLevel())
	}
}

func TestResponderLogWritesSanitizedText(t *testing.T) {
	buf := &bytes.Buffer{}
	l := logrus.New()
	l.SetOutput(buf)
	rl := NewResponderLog(l)

	rl.Request("echo", "line one\nline two")
	rl.Response("echo", "ok", 12*time.Millisecond)

	out := buf.String()
	if !strings.Contains(out, `line one\nline two`) {
		t.Fatalf("expected escaped newline in log, got %q", out)
	}
	if !strings.Contains(out, "[responder]") {
		t.Fatalf("expected responder component, got %q", out)
	}
	if !strings.Contains(out, "elapsed=12ms") {
		t.Fatalf("expected elapsed duration, got %q", out)
	}
}
