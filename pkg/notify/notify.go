package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// Level は通知の重要度を表す。
type Level string

const (
	// LevelInfo は情報通知を表す。
	LevelInfo Level = "info"
	// LevelSuccess は操作成功の通知を表す。
	LevelSuccess Level = "success"
	// LevelError はエラー通知を表す。
	LevelError Level = "error"
)

// Notification はSinkに渡される1件の通知。
type Notification struct {
	// Level は通知の重要度。
	Level Level
	// Title は通知の見出し。空の場合は本文のみ表示する。
	Title string
	// Text は通知の本文。
	Text string
}

// String は通知を1行の文字列に整形する。
func (n Notification) String() string {
	if n.Title == "" {
		return n.Text
	}
	return n.Title + ": " + n.Text
}

// Error はエラー通知を生成する。
func Error(text string) Notification {
	return Notification{Level: LevelError, Text: text}
}

// Success は成功通知を生成する。
func Success(title, text string) Notification {
	return Notification{Level: LevelSuccess, Title: title, Text: text}
}

// Info は情報通知を生成する。
func Info(text string) Notification {
	return Notification{Level: LevelInfo, Text: text}
}

// Sink は通知の送り先。戻り値はなく、送りっぱなしで使う。
type Sink interface {
	Notify(n Notification)
}

// Discard はすべての通知を捨てるSink。
var Discard Sink = discard{}

type discard struct{}

func (discard) Notify(Notification) {}

// Terminal は通知を端末に書き出すSink。
// 出力先がTTYの場合のみ重要度に応じた色を付ける。
type Terminal struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewTerminal は指定したWriterに書き出すTerminalを生成する。
func NewTerminal(w io.Writer) *Terminal {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Terminal{w: w, color: color}
}

// Notify は通知を1行で書き出す。
func (t *Terminal) Notify(n Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prefix := "[" + string(n.Level) + "]"
	if t.color {
		prefix = colorize(n.Level, prefix)
	}
	fmt.Fprintf(t.w, "%s %s\n", prefix, n.String())
}

func colorize(level Level, s string) string {
	code := "36"
	switch level {
	case LevelSuccess:
		code = "32"
	case LevelError:
		code = "31"
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

// Recorder は受け取った通知を保持するSink。
// 複数のgoroutineから同時に使用できる。
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
}

// Notify は通知を記録する。
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

// Notifications は記録済みの通知のコピーを返す。
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.notifications))
	copy(out, r.notifications)
	return out
}

// Errors は記録済みのエラー通知の本文を返す。
func (r *Recorder) Errors() []string {
	var out []string
	for _, n := range r.Notifications() {
		if n.Level == LevelError {
			out = append(out, n.Text)
		}
	}
	return out
}

// Reset は記録をすべて消去する。
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = nil
}

// Multi は複数のSinkに同じ通知を配送するSinkを返す。
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

type multi []Sink

func (m multi) Notify(n Notification) {
	for _, s := range m {
		s.Notify(n)
	}
}
