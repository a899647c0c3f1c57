package cli

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmap/pkg/pipeline"
)

// logLevelEnv selects the log level when no -v flag is given.
const logLevelEnv = pipeline.EnvPrefix + "LOG_LEVEL"

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// LevelFromEnv returns the level named by FLOWMAP_LOG_LEVEL, or fallback
// when the variable is unset or not a level name.
func LevelFromEnv(getenv func(string) string, fallback log.Level) log.Level {
	name := strings.TrimSpace(getenv(logLevelEnv))
	if name == "" {
		return fallback
	}
	level, err := log.ParseLevel(name)
	if err != nil {
		return fallback
	}
	return level
}

// stopwatch logs how long a stage took, as a "took" field.
type stopwatch struct {
	logger *log.Logger
	start  time.Time
}

func startStopwatch(l *log.Logger) stopwatch {
	return stopwatch{logger: l, start: time.Now()}
}

func (s stopwatch) lap(msg string, keyvals ...any) {
	keyvals = append(keyvals, "took", time.Since(s.start).Round(time.Millisecond))
	s.logger.Info(msg, keyvals...)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger attached by the root command, or the
// package default when the command runs outside of it.
func loggerFromContext(ctx context.Context) *log.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok && l != nil {
			return l
		}
	}
	return log.Default()
}
