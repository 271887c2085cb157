// Package logging builds zap loggers from preset names or config files.
package logging

import (
	"fmt"

	"github.com/srvdns/srvdns-go/jsoncfg"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapLogger returns a new [zap.Logger] built from the given preset
// name, or, if preset does not name a preset, from the zap JSON
// configuration file at that path.
//
// Available presets: console, console-nocolor, console-notime, systemd,
// production, development. The level argument only applies to the
// console and systemd presets.
func NewZapLogger(preset string, level zapcore.Level) (*zap.Logger, error) {
	var cfg zap.Config

	switch preset {
	case "console":
		cfg = newConsoleConfig(level, true, true)
	case "console-nocolor":
		cfg = newConsoleConfig(level, false, true)
	case "console-notime":
		cfg = newConsoleConfig(level, true, false)
	case "systemd":
		// journald adds its own timestamps.
		cfg = newConsoleConfig(level, false, false)
	case "production":
		cfg = zap.NewProductionConfig()
	case "development":
		cfg = zap.NewDevelopmentConfig()
	default:
		if err := jsoncfg.Open(preset, &cfg); err != nil {
			return nil, fmt.Errorf("unknown preset or unreadable zap config %q: %w", preset, err)
		}
	}

	return cfg.Build()
}

func newConsoleConfig(level zapcore.Level, color, timestamp bool) zap.Config {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	if color {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	if !timestamp {
		cfg.EncoderConfig.TimeKey = zapcore.OmitKey
	}
	return cfg
}
