// Package logger provides the structured console logging used by the
// bsdiff command-line tool. Library code under pkg/bsdiff stays
// logging-free; only the CLI layer reports progress and failures here.
package logger

import (
	"fmt"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var log = struct {
	targets []*ConsoleTarget
	mu      sync.Mutex
}{}

// ConsoleTarget logs to stderr using logrus's text formatter. Enabled
// gates ErrorIf so -quiet can silence non-fatal diagnostics without
// touching call sites; Verbose controls whether ErrorIf/FatalIf include
// a full %+v stack trace (via github.com/pkg/errors) alongside the bare
// cause string.
type ConsoleTarget struct {
	Enabled bool
	Verbose bool

	logger *logrus.Logger
}

// NewConsoleTarget returns an enabled, non-verbose console target and
// registers it.
func NewConsoleTarget() *ConsoleTarget {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(new(logrus.TextFormatter))

	t := &ConsoleTarget{Enabled: true, logger: l}

	log.mu.Lock()
	log.targets = append(log.targets, t)
	log.mu.Unlock()
	return t
}

func callerSource() string {
	pc, file, line, ok := runtime.Caller(2)
	if !ok {
		file, line = "<unknown>", 0
	}
	file = path.Base(file)
	name := runtime.FuncForPC(pc).Name()
	name = strings.TrimPrefix(name, "github.com/binlib/bsdiff/")
	return fmt.Sprintf("[%s:%d:%s()]", file, line, name)
}

func causeField(t *ConsoleTarget, err error) string {
	if t.Verbose {
		return fmt.Sprintf("%+v", err)
	}
	return err.Error()
}

// ErrorIf logs err at error level with caller/cause fields on every
// enabled target, and is a no-op when err is nil.
func ErrorIf(err error, msg string, args ...interface{}) {
	if err == nil {
		return
	}
	source := callerSource()

	log.mu.Lock()
	targets := append([]*ConsoleTarget{}, log.targets...)
	log.mu.Unlock()

	for _, t := range targets {
		if !t.Enabled {
			continue
		}
		t.logger.WithFields(logrus.Fields{
			"source": source,
			"cause":  causeField(t, err),
		}).Errorf(msg, args...)
	}
}

// FatalIf logs err at fatal level (which terminates the process via
// logrus's os.Exit) and is a no-op when err is nil. Unlike ErrorIf, it
// always logs regardless of Enabled: suppressing the reason a command
// is about to abort would leave the user with nothing but an exit code.
func FatalIf(err error, msg string, args ...interface{}) {
	if err == nil {
		return
	}
	source := callerSource()

	log.mu.Lock()
	targets := append([]*ConsoleTarget{}, log.targets...)
	log.mu.Unlock()

	for _, t := range targets {
		t.logger.WithFields(logrus.Fields{
			"source": source,
			"cause":  causeField(t, err),
		}).Fatalf(msg, args...)
	}
}
