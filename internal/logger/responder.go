package logger

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultResponderLogPath 为应答器日志的默认位置。
const DefaultResponderLogPath = "logs/responder.log"

// ResponderLogger 记录手机端应答器（echo/LLM）的请求、响应与错误。
type ResponderLogger interface {
	Request(model string, text string)
	Response(model string, text string, elapsed time.Duration)
	Error(model string, err error)
}

// StdResponderLog 使用 logrus 输出日志。
type StdResponderLog struct {
	logger *logrus.Entry
}

// NewResponderLog 构造应答器日志；l 为 nil 时复用全局 logger。
func NewResponderLog(l *Logger) *StdResponderLog {
	if l == nil {
		l = root()
	}
	l.SetFormatter(PlainFormatter{})
	return &StdResponderLog{logger: logrus.NewEntry(l).WithField("component", "responder")}
}

// Request 记录一次应答请求。
func (l *StdResponderLog) Request(model string, text string) {
	l.printf(logrus.InfoLevel, nil, "-> request model=%s text=%s", model, sanitize(text))
}

// Response 记录应答结果及耗时。
func (l *StdResponderLog) Response(model string, text string, elapsed time.Duration) {
	l.printf(logrus.InfoLevel, logrus.Fields{"elapsed": elapsed}, "<- response model=%s text=%s", model, sanitize(text))
}

// Error 记录应答错误。
func (l *StdResponderLog) Error(model string, err error) {
	l.printf(logrus.ErrorLevel, nil, "!! error model=%s err=%v", model, err)
}

// NoopResponderLog 忽略所有日志输出。
type NoopResponderLog struct{}

func (NoopResponderLog) Request(string, string)                  {}
func (NoopResponderLog) Response(string, string, time.Duration) {}
func (NoopResponderLog) Error(string, error)                     {}

func (l *StdResponderLog) printf(level logrus.Level, fields logrus.Fields, format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	if !l.logger.Logger.IsLevelEnabled(level) {
		return
	}

	entry := l.logger
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	if caller := findCaller(); caller != "" {
		entry = entry.WithField("caller", caller)
	}
	entry.Log(level, fmt.Sprintf(format, args...))
}

func sanitize(text string) string {
	text = strings.ReplaceAll(text, "\n", `\n`)
	text = strings.ReplaceAll(text, "\r", `\r`)
	return text
}

func findCaller() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.File != "" && !strings.Contains(frame.File, "responder.go") {
			return fmt.Sprintf("%s:%d", shortenFilePath(frame.File), frame.Line)
		}
		if !more {
			break
		}
	}
	return ""
}
