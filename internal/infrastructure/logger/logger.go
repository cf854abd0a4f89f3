package logger

import (
	"fmt"
	"strings"

	"github.com/LavaJover/agromarket-checkout-service/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the service logger from the log_config section. Format "text"
// switches to the console encoder, anything else emits JSON.
func New(cfg config.LogConfig, service, env string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.LogLevel, err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	if strings.EqualFold(cfg.LogFormat, "text") {
		zcfg.Encoding = "console"
	}

	output := cfg.LogOutput
	if output == "" {
		output = "stdout"
	}
	zcfg.OutputPaths = []string{output}
	zcfg.ErrorOutputPaths = []string{output}

	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.MessageKey = "msg"
	zcfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	zcfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	zcfg.InitialFields = map[string]any{
		"service": service,
		"env":     env,
	}

	return zcfg.Build()
}

func MustNew(cfg config.LogConfig, service, env string) *zap.Logger {
	l, err := New(cfg, service, env)
	if err != nil {
		panic(err)
	}
	return l
}
