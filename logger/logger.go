package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"ChintuIdrive/host-health-watchdog/conf"
)

const timeLayout = "2006-01-02 15:04:05"

// New builds the process logger: a console encoded core on stderr teed with a
// size-rotated log file. Lines look like "time [LEVEL] name - message".
func New(config *conf.LogConfig) *zap.Logger {
	level := zap.NewAtomicLevelAt(ParseLevel(config.Level))
	encoder := zapcore.NewConsoleEncoder(encoderConfig())

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level),
	}
	if config.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    config.MaxSizeMB,
			MaxBackups: config.MaxBackups,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.ErrorOutput(zapcore.Lock(os.Stderr)))
}

// ParseLevel maps the configured level name onto a zap level. WARNING and
// CRITICAL are accepted alongside zap's own names; anything unknown is info.
func ParseLevel(name string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	case "CRITICAL", "FATAL":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeLevel:      bracketLevelEncoder,
		EncodeName:       nameEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
}

func bracketLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + levelName(level) + "]")
}

func nameEncoder(name string, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(name + " -")
}

func levelName(level zapcore.Level) string {
	switch level {
	case zapcore.WarnLevel:
		return "WARNING"
	case zapcore.FatalLevel, zapcore.PanicLevel, zapcore.DPanicLevel:
		return "CRITICAL"
	default:
		return level.CapitalString()
	}
}
