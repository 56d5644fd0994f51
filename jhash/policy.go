package jhash

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// ErrorPolicy surfaces faults raised by the wrapped engine.
//
// api names the failing Hash operation, message describes what the adapter
// was doing and detail is the engine's own error.
type ErrorPolicy interface {
	Report(api, message string, detail error)
}

// ErrorPolicyFunc adapts a function to ErrorPolicy.
type ErrorPolicyFunc func(api, message string, detail error)

// Report calls f(api, message, detail).
func (f ErrorPolicyFunc) Report(api, message string, detail error) {
	f(api, message, detail)
}

// Replaced in tests.
var (
	stderr   io.Writer = os.Stderr
	exitFunc           = os.Exit
	crash              = func(msg string) {
		debug.SetTraceback("crash")
		panic(msg)
	}
)

// StderrPolicy logs each fault to stderr and lets the caller continue.
func StderrPolicy() ErrorPolicy {
	return &logPolicy{logger: newStderrLogger()}
}

// StderrExitPolicy logs each fault to stderr and exits the process with
// status 1.
func StderrExitPolicy() ErrorPolicy {
	return &logPolicy{
		logger: newStderrLogger(),
		after:  func(string) { exitFunc(1) },
	}
}

// StderrDumpCorePolicy logs each fault to stderr and crashes the process
// with a full goroutine traceback. On Linux the runtime raises SIGABRT,
// which writes a core file when the core size limit allows it.
func StderrDumpCorePolicy() ErrorPolicy {
	return &logPolicy{
		logger: newStderrLogger(),
		after:  func(msg string) { crash(msg) },
	}
}

// IgnorePolicy drops every fault.
func IgnorePolicy() ErrorPolicy {
	return ErrorPolicyFunc(func(string, string, error) {})
}

// LogPolicy logs each fault to logger and lets the caller continue.
func LogPolicy(logger *slog.Logger) ErrorPolicy {
	if logger == nil {
		logger = slog.Default()
	}
	return &logPolicy{logger: logger}
}

type logPolicy struct {
	logger *slog.Logger
	after  func(msg string)
}

func (p *logPolicy) Report(api, message string, detail error) {
	p.logger.Error(message, "api", api, "error", detail)
	if p.after != nil {
		p.after(fmt.Sprintf("jhash: %s: %s: %v", api, message, detail))
	}
}

func newStderrLogger() *slog.Logger {
	w := stderr
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
		w = colorable.NewColorable(f)
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      slog.LevelError,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}))
}
