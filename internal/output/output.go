package output

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

const prefix = "versync | "

// Mode controls output format.
type Mode int

const (
	ModeText Mode = iota
	ModeJSON
	ModeQuiet
)

// Writer handles all user-facing output.
type Writer struct {
	out   io.Writer
	err   io.Writer
	mode  Mode
	color bool
	now   func() time.Time // injectable clock for testing
}

// New creates a Writer with the given mode, writing to stdout/stderr.
func New(mode Mode) *Writer {
	return &Writer{
		out:   os.Stdout,
		err:   os.Stderr,
		mode:  mode,
		color: SupportsColor(os.Stdout),
		now:   time.Now,
	}
}

// NewWithWriters creates a Writer with explicit output targets (for testing).
// Color is enabled only when out is a color-capable terminal.
func NewWithWriters(out, errOut io.Writer, mode Mode) *Writer {
	return &Writer{
		out:   out,
		err:   errOut,
		mode:  mode,
		color: SupportsColor(out),
		now:   time.Now,
	}
}

// SetClock overrides the time source (for testing).
func (w *Writer) SetClock(fn func() time.Time) {
	w.now = fn
}

// Mode returns the writer's output mode.
func (w *Writer) Mode() Mode {
	return w.mode
}

// Out returns the underlying stdout writer.
func (w *Writer) Out() io.Writer {
	return w.out
}

// Info prints a versync-prefixed informational message.
func (w *Writer) Info(msg string) {
	switch w.mode {
	case ModeJSON:
		w.writeJSON("info", msg)
	case ModeQuiet:
		// suppress
	default:
		fmt.Fprintf(w.out, "%s%s\n", prefix, msg)
	}
}

// Infof prints a formatted versync-prefixed informational message.
func (w *Writer) Infof(format string, args ...any) {
	w.Info(fmt.Sprintf(format, args...))
}

// Success prints a versync-prefixed message marked with a check mark.
func (w *Writer) Success(msg string) {
	switch w.mode {
	case ModeJSON:
		w.writeJSON("success", msg)
	case ModeQuiet:
		// suppress
	default:
		fmt.Fprintf(w.out, "%s%s %s\n", prefix, w.style(SuccessStyle, "✓"), msg)
	}
}

// Warn prints a versync-prefixed warning to stderr.
func (w *Writer) Warn(msg string) {
	switch w.mode {
	case ModeJSON:
		w.writeJSON("warning", msg)
	case ModeQuiet:
		// suppress
	default:
		fmt.Fprintf(w.err, "%s%s %s\n", prefix, w.style(YellowStyle, "warning:"), msg)
	}
}

// Error prints a versync-prefixed error message with an optional fix suggestion.
func (w *Writer) Error(msg, fix string) {
	switch w.mode {
	case ModeJSON:
		w.writeJSONError(msg, fix)
	default:
		fmt.Fprintf(w.err, "%s%s %s\n", prefix, w.style(ErrorStyle, "error:"), msg)
		if fix != "" {
			fmt.Fprintf(w.err, "%s%s\n", prefix, w.style(DimStyle, fix))
		}
	}
}

// Diff prints a unified diff without prefix, coloring added and removed lines.
func (w *Writer) Diff(diff string) {
	if diff == "" {
		return
	}
	switch w.mode {
	case ModeJSON:
		w.writeJSON("diff", diff)
	case ModeQuiet:
		// suppress
	default:
		for _, line := range strings.SplitAfter(diff, "\n") {
			if line == "" {
				continue
			}
			body := strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
				body = w.style(BoldStyle, body)
			case strings.HasPrefix(line, "+"):
				body = w.style(GreenStyle, body)
			case strings.HasPrefix(line, "-"):
				body = w.style(ErrorStyle, body)
			case strings.HasPrefix(line, "@@"):
				body = w.style(CyanStyle, body)
			}
			fmt.Fprintln(w.out, body)
		}
	}
}

// Result prints v as a single JSON object of the given type. Only JSON mode
// emits anything; text callers print their own summary.
func (w *Writer) Result(msgType string, v any) {
	if w.mode != ModeJSON {
		return
	}
	obj := map[string]any{
		"type":      msgType,
		"data":      v,
		"timestamp": w.now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(obj)
	if err != nil {
		slog.Error("failed to marshal JSON output", "error", err)
		return
	}
	fmt.Fprintln(w.out, string(data))
}

func (w *Writer) writeJSON(msgType, msg string) {
	msg = strings.TrimRight(msg, "\n")
	obj := map[string]string{
		"type":      msgType,
		"message":   msg,
		"timestamp": w.now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(obj)
	if err != nil {
		slog.Error("failed to marshal JSON output", "error", err)
		return
	}
	fmt.Fprintln(w.out, string(data))
}

func (w *Writer) writeJSONError(msg, fix string) {
	msg = strings.TrimRight(msg, "\n")
	obj := map[string]string{
		"type":      "error",
		"message":   msg,
		"timestamp": w.now().UTC().Format(time.RFC3339),
	}
	if fix != "" {
		obj["fix"] = fix
	}
	data, err := json.Marshal(obj)
	if err != nil {
		slog.Error("failed to marshal JSON output", "error", err)
		return
	}
	fmt.Fprintln(w.out, string(data))
}

// SetupSlog configures slog for the given verbosity level.
// When verbose is true, debug-level messages are shown.
func SetupSlog(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
