package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// Rotation des fichiers de log en production
	maxFileSizeMB = 1
	maxBackups    = 3
)

// Logger enveloppe zap et garde le mode de déploiement pour les timers de performance.
type Logger struct {
	*zap.Logger
	production bool
	closers    []io.Closer
}

// LevelFor retourne le niveau minimal selon le mode : warn en production, debug sinon.
func LevelFor(production bool) zapcore.Level {
	if production {
		return zapcore.WarnLevel
	}
	return zapcore.DebugLevel
}

// New construit le logger du process. En production, deux fichiers rotatifs
// (error.log et combined.log) s'ajoutent à la console.
func New(production bool, logDir string) (*Logger, error) {
	level := LevelFor(production)

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stdout), level),
	}

	var closers []io.Closer
	if production {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir %s: %w", logDir, err)
		}

		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		jsonEncoder := zapcore.NewJSONEncoder(fileCfg)

		errorFile := rotatingFile(filepath.Join(logDir, "error.log"))
		combinedFile := rotatingFile(filepath.Join(logDir, "combined.log"))
		closers = append(closers, errorFile, combinedFile)

		cores = append(cores,
			zapcore.NewCore(jsonEncoder, zapcore.AddSync(errorFile), zapcore.ErrorLevel),
			zapcore.NewCore(jsonEncoder, zapcore.AddSync(combinedFile), level),
		)
	}

	l := Wrap(zap.New(zapcore.NewTee(cores...), zap.AddCaller()), production)
	l.closers = closers
	return l, nil
}

// Wrap adapte un *zap.Logger existant (tests, observer).
func Wrap(z *zap.Logger, production bool) *Logger {
	return &Logger{Logger: z, production: production}
}

// Nop retourne un logger silencieux.
func Nop() *Logger {
	return Wrap(zap.NewNop(), false)
}

func (l *Logger) IsProduction() bool {
	return l.production
}

// Performance logue la durée écoulée depuis start, uniquement hors production.
func (l *Logger) Performance(message string, start time.Time) {
	if l.production {
		return
	}
	l.Debug(fmt.Sprintf("%s - %dms", message, time.Since(start).Milliseconds()))
}

// Close vide les buffers et ferme les fichiers de log.
func (l *Logger) Close() error {
	_ = l.Sync()
	var firstErr error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func rotatingFile(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxFileSizeMB,
		MaxBackups: maxBackups,
	}
}
