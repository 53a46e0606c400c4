// Package log provides structured logging for popsynth on top of zerolog.
//
// Components obtain a named logger once and attach their own context:
//
//	logger := log.GetLoggerWithName("income").With(log.ComponentKey, "income")
//	logger.Info("Mean rescale applied",
//		log.StageKey, log.StageMeanRescale,
//		log.PartitionKey, "Urbain",
//		log.SamplesKey, n,
//	)
//
// Programs call SetupLogger once at startup; until then a console logger at
// info level writing to stderr is used.
package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	popErrors "github.com/ezoic/popsynth/pkg/errors"
)

// Standard field keys.
const (
	ComponentKey  = "component"
	OperationKey  = "operation"
	StageKey      = "stage"
	PartitionKey  = "partition"
	SamplesKey    = "samples"
	IterationKey  = "iteration"
	DurationMsKey = "duration_ms"
	TargetKey     = "target"
	AchievedKey   = "achieved"
	PathKey       = "path"
	SeedKey       = "seed"
	ErrorKey      = "error"
)

// Operation and stage values.
const (
	OperationGenerate = "generate"
	OperationPersist  = "persist"
	OperationReport   = "report"

	StageSample       = "sample"
	StageDerive       = "derive"
	StageBaseIncome   = "base_income"
	StageMeanRescale  = "mean_rescale"
	StageShapeCorrect = "shape_correct"
	StageFinalRescale = "final_rescale"
	StageCorrupt      = "corrupt"
)

// Logger is the structured logger used by popsynth components.
// Fields are passed as alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	With(fields ...interface{}) Logger
}

// Provider hands out named loggers sharing one zerolog root.
type Provider interface {
	GetLogger() *zerolog.Logger
	GetLoggerWithName(name string) Logger
}

type zerologProvider struct {
	root zerolog.Logger
}

// NewZerologProvider creates a Provider writing console output to stderr.
func NewZerologProvider(level zerolog.Level) Provider {
	return NewZerologProviderWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, level)
}

// NewZerologProviderWithWriter creates a Provider writing to w. JSON lines are
// written unless w is a zerolog.ConsoleWriter.
func NewZerologProviderWithWriter(w io.Writer, level zerolog.Level) Provider {
	root := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &zerologProvider{root: root}
}

func (p *zerologProvider) GetLogger() *zerolog.Logger {
	return &p.root
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{l: p.root.With().Str("logger", name).Logger()}
}

// ToLogLevel maps a level name to a zerolog level, defaulting to info.
func ToLogLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

var (
	mu       sync.RWMutex
	provider Provider
)

func current() Provider {
	mu.RLock()
	p := provider
	mu.RUnlock()
	if p != nil {
		return p
	}
	mu.Lock()
	defer mu.Unlock()
	if provider == nil {
		provider = NewZerologProvider(zerolog.InfoLevel)
		installWarningHandler(provider)
	}
	return provider
}

// SetupLogger installs the global console provider at the given level.
func SetupLogger(level string) {
	SetProvider(NewZerologProvider(ToLogLevel(level)))
}

// SetProvider replaces the global provider.
func SetProvider(p Provider) {
	mu.Lock()
	provider = p
	mu.Unlock()
	installWarningHandler(p)
}

// installWarningHandler routes errors.Warn through the provider.
func installWarningHandler(p Provider) {
	warnLogger := p.GetLoggerWithName("warnings")
	popErrors.SetWarningHandler(func(w error) {
		warnLogger.Warn(w.Error())
	})
}

// GetLogger returns the global zerolog logger.
func GetLogger() *zerolog.Logger {
	return current().GetLogger()
}

// GetLoggerWithName returns a named logger from the global provider.
func GetLoggerWithName(name string) Logger {
	return current().GetLoggerWithName(name)
}

// LogError logs err at error level with its full detail.
func LogError(err error, msg string) {
	if err == nil {
		return
	}
	GetLogger().Error().Err(err).Msg(msg)
}

type zerologLogger struct {
	l zerolog.Logger
}

func (z *zerologLogger) Debug(msg string, fields ...interface{}) {
	z.emit(z.l.Debug(), msg, fields)
}

func (z *zerologLogger) Info(msg string, fields ...interface{}) {
	z.emit(z.l.Info(), msg, fields)
}

func (z *zerologLogger) Warn(msg string, fields ...interface{}) {
	z.emit(z.l.Warn(), msg, fields)
}

func (z *zerologLogger) Error(msg string, fields ...interface{}) {
	z.emit(z.l.Error(), msg, fields)
}

func (z *zerologLogger) With(fields ...interface{}) Logger {
	ctx := z.l.With()
	for i := 0; i+1 < len(fields); i += 2 {
		ctx = ctx.Interface(keyOf(fields[i]), fields[i+1])
	}
	return &zerologLogger{l: ctx.Logger()}
}

func (z *zerologLogger) emit(e *zerolog.Event, msg string, fields []interface{}) {
	if e == nil {
		return
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key := keyOf(fields[i])
		switch v := fields[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case string:
			e = e.Str(key, v)
		case int:
			e = e.Int(key, v)
		case int64:
			e = e.Int64(key, v)
		case float64:
			e = e.Float64(key, v)
		case bool:
			e = e.Bool(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}

func keyOf(k interface{}) string {
	if s, ok := k.(string); ok {
		return s
	}
	return "field"
}
