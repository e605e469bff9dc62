package logger

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const productionEnv = "production"

// New creates a new structured logger.
// Production writes JSON at info level; every other env writes a colourised
// console format at debug level.
func New(env string) (*zap.Logger, error) {
	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(levelFor(env)),
		Development:      env != productionEnv,
		Encoding:         encodingFor(env),
		EncoderConfig:    encoderConfig(env),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
}

// NewWithWriter builds the logger New would build for env but sends entries to w
func NewWithWriter(env string, w io.Writer) *zap.Logger {
	enc := encoderConfig(env)

	var encoder zapcore.Encoder
	if encodingFor(env) == "json" {
		encoder = zapcore.NewJSONEncoder(enc)
	} else {
		encoder = zapcore.NewConsoleEncoder(enc)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), levelFor(env))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

func levelFor(env string) zapcore.Level {
	if env == productionEnv {
		return zapcore.InfoLevel
	}
	return zapcore.DebugLevel
}

func encodingFor(env string) string {
	if env == productionEnv {
		return "json"
	}
	return "console"
}

func encoderConfig(env string) zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if env != productionEnv {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return cfg
}
