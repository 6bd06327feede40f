package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Config represents logging configuration.
type Config struct {
	Level   string            `yaml:"level" toml:"level"`
	Format  string            `yaml:"format" toml:"format"`
	Modules map[string]string `yaml:"modules,omitempty" toml:"modules"`
}

var (
	moduleLoggers   = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	globalConfig    = Config{Level: "info", Format: "auto"}
	globalLevelVar  = &slog.LevelVar{}
	mutex           sync.RWMutex

	// output is swapped in tests
	output io.Writer = os.Stderr
)

// Initialize sets up the logging system. Loggers obtained before Initialize
// are rebuilt with the new level and format.
func Initialize(config Config) {
	mutex.Lock()
	defer mutex.Unlock()

	if config.Format == "" {
		config.Format = "auto"
	}
	globalConfig = config
	globalLevelVar.Set(levelOrDefault(config.Level, slog.LevelInfo))

	for module, levelVar := range moduleLevelVars {
		levelVar.Set(moduleLevel(module))
		moduleLoggers[module] = slog.New(createHandler(config.Format, levelVar)).With("module", module)
	}

	slog.SetDefault(slog.New(createHandler(config.Format, globalLevelVar)))
}

// GetLogger returns a logger for the specified module, creating it if needed.
func GetLogger(module string) *slog.Logger {
	mutex.RLock()
	if logger, ok := moduleLoggers[module]; ok {
		mutex.RUnlock()
		return logger
	}
	mutex.RUnlock()

	mutex.Lock()
	defer mutex.Unlock()

	if logger, ok := moduleLoggers[module]; ok {
		return logger
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(moduleLevel(module))

	logger := slog.New(createHandler(globalConfig.Format, levelVar)).With("module", module)
	moduleLoggers[module] = logger
	moduleLevelVars[module] = levelVar
	return logger
}

// moduleLevel resolves the effective level of a module. Caller holds mutex.
func moduleLevel(module string) slog.Level {
	level := levelOrDefault(globalConfig.Level, slog.LevelInfo)
	if s, ok := globalConfig.Modules[module]; ok {
		level = levelOrDefault(s, level)
	}
	return level
}

// createHandler builds the stderr handler and, when running under systemd,
// fans out to the journal as well.
func createHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	tty := isTerminal(output)

	var base slog.Handler
	switch format {
	case "json":
		base = slog.NewJSONHandler(output, opts)
	case "text":
		base = slog.NewTextHandler(output, opts)
	default:
		if tty {
			base = slog.NewTextHandler(output, opts)
		} else {
			base = slog.NewJSONHandler(output, opts)
		}
	}

	if !tty && IsJournalAvailable() {
		return NewMultiHandler(base, NewJournalHandler(level))
	}
	return base
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ParseLevel converts a level name to slog.Level.
func ParseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func levelOrDefault(s string, def slog.Level) slog.Level {
	if level, ok := ParseLevel(s); ok {
		return level
	}
	return def
}
