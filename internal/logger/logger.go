package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	defaultLogger zerolog.Logger
	once          sync.Once
	mu            sync.RWMutex
)

// Options controls how the logger is configured.
type Options struct {
	Level  string    // debug, info, warn, error
	Format string    // json or console
	Output io.Writer // defaults to os.Stderr
}

// Init initializes the default logger with JSON output on stderr at info level.
// It ensures that the logger is initialized only once; use Configure to change it later.
func Init() {
	once.Do(func() {
		mu.Lock()
		defaultLogger = build(Options{Level: "info", Format: "json"})
		mu.Unlock()
	})
}

// Configure replaces the default logger, typically after config has been loaded.
func Configure(opts Options) {
	once.Do(func() {})
	mu.Lock()
	defaultLogger = build(opts)
	mu.Unlock()
}

func build(opts Options) zerolog.Logger {
	var w io.Writer = os.Stderr
	if opts.Output != nil {
		w = opts.Output
	}
	if strings.EqualFold(opts.Format, "console") || strings.EqualFold(opts.Format, "text") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Get returns the initialized default logger.
// It calls Init() to ensure the logger is ready before returning it.
func Get() *zerolog.Logger {
	Init()
	mu.RLock()
	defer mu.RUnlock()
	l := defaultLogger
	return &l
}

// Component returns a sub-logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Info logs an informational message using the default logger.
func Info(msg string, args ...any) {
	Get().Info().Fields(args).Msg(msg)
}

// Warn logs a warning message using the default logger.
func Warn(msg string, args ...any) {
	Get().Warn().Fields(args).Msg(msg)
}

// Error logs an error message using the default logger.
func Error(msg string, err error, args ...any) {
	Get().Error().Err(err).Fields(args).Msg(msg)
}

// Debug logs a debug message using the default logger.
func Debug(msg string, args ...any) {
	Get().Debug().Fields(args).Msg(msg)
}
