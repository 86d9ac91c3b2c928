// Package logger writes structured logs to a rotating file under the crewlog
// config directory.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/crewlog/internal/constants"
)

const (
	maxSizeMB  = 10
	maxBackups = 5
	maxAgeDays = 30
)

var std *log.Logger

type Config struct {
	Debug bool
	// ConfigDir holds the logs/ directory.
	ConfigDir string
	// Operative, when set, tags every line so logs from shared devices can
	// be told apart.
	Operative string
}

// Init replaces the package logger. Until it is called every log call is a
// no-op.
func Init(cfg Config) error {
	dir := filepath.Join(cfg.ConfigDir, "logs")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	var out io.Writer = &lumberjack.Logger{
		Filename:   filepath.Join(dir, constants.AppName+".log"),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
	level := log.InfoLevel
	if cfg.Debug {
		level = log.DebugLevel
		out = io.MultiWriter(os.Stderr, out)
	}

	l := log.NewWithOptions(out, log.Options{
		Level:           level,
		Prefix:          constants.AppName,
		ReportTimestamp: true,
		ReportCaller:    cfg.Debug,
	})
	if cfg.Operative != "" {
		l = l.With("operative", cfg.Operative)
	}
	std = l
	return nil
}

func Debug(msg string, keyvals ...interface{}) {
	if std != nil {
		std.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...interface{}) {
	if std != nil {
		std.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...interface{}) {
	if std != nil {
		std.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...interface{}) {
	if std != nil {
		std.Error(msg, keyvals...)
	}
}
