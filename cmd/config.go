package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cottand/ivars/internal/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	cfgKeyLogLevel = "log_level"
	cfgKeyColor    = "color"

	colorAuto   = "auto"
	colorAlways = "always"
	colorNever  = "never"
)

// config is loaded by LoadConfig before any subcommand runs
var config = newViper()

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(cfgKeyLogLevel, "error")
	v.SetDefault(cfgKeyColor, colorAuto)
	v.SetEnvPrefix("ivars")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads the optional YAML config file at path, binds the flags of
// cmd that override it, and applies the log level.
// Precedence: flag > IVARS_* environment > config file > default.
func LoadConfig(cmd *cobra.Command, path string) error {
	v := newViper()
	for key, flag := range map[string]string{cfgKeyLogLevel: "log-level", cfgKeyColor: "color"} {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("could not bind flag %s: %w", flag, err)
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("could not read config %s: %w", path, err)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString(cfgKeyLogLevel))); err != nil {
		return fmt.Errorf("invalid %s: %w", cfgKeyLogLevel, err)
	}
	switch mode := v.GetString(cfgKeyColor); mode {
	case colorAuto, colorAlways, colorNever:
	default:
		return fmt.Errorf("invalid %s %q, want one of auto, always, never", cfgKeyColor, mode)
	}

	log.SetLevel(level)
	config = v
	return nil
}
