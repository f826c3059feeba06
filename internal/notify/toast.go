package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"sudooom.storefront/internal/metrics"
)

// Level toast severity
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Toast transient, auto-dismissing alert
type Toast struct {
	Level Level
	Title string
	Body  string
}

// Toaster shows toasts. Show must not block on user interaction.
type Toaster interface {
	Show(t Toast)
}

// WriterToaster prints toasts as single lines, e.g. to the console.
type WriterToaster struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewWriterToaster creates a WriterToaster.
func NewWriterToaster(w io.Writer) *WriterToaster {
	return &WriterToaster{w: w, now: time.Now}
}

// Show prints t.
func (p *WriterToaster) Show(t Toast) {
	metrics.ObserveToast(string(t.Level))

	p.mu.Lock()
	defer p.mu.Unlock()

	line := fmt.Sprintf("%s [%s] %s", p.now().Format("15:04:05"), t.Level, t.Title)
	if t.Body != "" {
		line += ": " + t.Body
	}
	fmt.Fprintln(p.w, line)
}

// LogToaster records toasts in the diagnostic log.
type LogToaster struct {
	logger *slog.Logger
}

// NewLogToaster creates a LogToaster; nil means slog.Default().
func NewLogToaster(logger *slog.Logger) *LogToaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogToaster{logger: logger}
}

// Show logs t.
func (l *LogToaster) Show(t Toast) {
	l.logger.Debug("Toast", "level", t.Level, "title", t.Title, "body", t.Body)
}

// Multi fans a toast out to several toasters.
type Multi []Toaster

// Show forwards t to every toaster.
func (m Multi) Show(t Toast) {
	for _, toaster := range m {
		toaster.Show(t)
	}
}

// Recorder keeps every toast in memory.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

// Show records t.
func (r *Recorder) Show(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

// Toasts returns a copy of what was shown.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

// Last returns the most recent toast.
func (r *Recorder) Last() (Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return Toast{}, false
	}
	return r.toasts[len(r.toasts)-1], true
}
