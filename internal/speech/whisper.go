package speech

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	audiotranscriber "github.com/sklyt/whisper/pkg"

	"flow-cli/internal/logger"
)

// Whisper records a fixed window from the microphone and transcribes it with a
// local whisper-cli binary.
type Whisper struct {
	bin      string
	model    string
	tempDir  string
	duration time.Duration
	log      *logger.LogEntry
}

type WhisperOption func(*Whisper)

// WithRecordDuration 设置单次录音时长。
func WithRecordDuration(d time.Duration) WhisperOption {
	return func(w *Whisper) {
		if d > 0 {
			w.duration = d
		}
	}
}

// WithTempDir 设置临时 WAV 文件目录。
func WithTempDir(dir string) WhisperOption {
	return func(w *Whisper) {
		if dir != "" {
			w.tempDir = dir
		}
	}
}

func NewWhisper(bin, model string, opts ...WhisperOption) *Whisper {
	w := &Whisper{
		bin:      bin,
		model:    model,
		tempDir:  ".flow-stt",
		duration: 5 * time.Second,
		log:      logger.Named("speech"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if _, err := exec.LookPath(w.bin); err != nil {
		w.log.Warnf("whisper binary %q not found in PATH: %v", w.bin, err)
	}
	return w
}

// Transcribe 录制一段音频并返回清理后的文本。
func (w *Whisper) Transcribe(ctx context.Context) Result {
	var (
		text string
		once sync.Once
		done = make(chan struct{})
	)
	callback := func(s string) {
		once.Do(func() {
			text = s
			close(done)
		})
	}

	verbose := w.log.Logger.IsLevelEnabled(logrus.DebugLevel)
	t, err := audiotranscriber.NewTranscriber(w.bin, w.model, w.tempDir, "wav", callback, verbose)
	if err != nil {
		return Failed(fmt.Errorf("transcriber init: %w", err))
	}
	if err := t.Start(); err != nil {
		return Failed(fmt.Errorf("recording start: %w", err))
	}

	select {
	case <-time.After(w.duration):
	case <-ctx.Done():
		t.Stop()
		<-done
		return Failed(ErrCancelled)
	}
	t.Stop()
	<-done

	cleaned := cleanTranscription(text)
	w.log.WithField("chars", len(cleaned)).Debug("transcription finished")
	if cleaned == "" {
		return Failed(ErrNoSpeech)
	}
	return Succeeded(cleaned)
}

// envAnnotation 匹配 whisper 的环境标注，例如 "(keyboard clicking)"、"[laughter]"。
var envAnnotation = regexp.MustCompile(`[\(\[][a-zA-Z][a-zA-Z\s_]*[\)\]]`)

var hallucinations = map[string]bool{
	"...":                     true,
	"you":                     true,
	"thank you.":              true,
	"thanks for watching!":    true,
	"thank you for watching.": true,
}

// cleanTranscription 去除换行、whisper 标注与常见幻听文本。
func cleanTranscription(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = envAnnotation.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	if hallucinations[strings.ToLower(s)] {
		return ""
	}
	return s
}
