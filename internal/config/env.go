package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/loaderbuild/internal/foundation/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LOADERBUILD_"

// envOverrides lists the settings that can be overridden from the environment.
// Empty values leave the file configuration untouched.
type envOverrides struct {
	SourceDir   string `env:"SOURCE_DIR"`
	Output      string `env:"OUTPUT"`
	Assembler   string `env:"ASSEMBLER"`
	Linker      string `env:"LINKER"`
	Emulator    string `env:"EMULATOR"`
	HistoryDB   string `env:"HISTORY_DB"`
	MetricsFile string `env:"METRICS_FILE"`
}

func applyEnvOverrides(cfg *Config) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix}); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "parse environment overrides").Fatal().Build()
	}
	override(&cfg.SourceDir, o.SourceDir)
	override(&cfg.Output, o.Output)
	override(&cfg.Tools.Assembler, o.Assembler)
	override(&cfg.Tools.Linker, o.Linker)
	override(&cfg.Tools.Emulator, o.Emulator)
	override(&cfg.History.Path, o.HistoryDB)
	override(&cfg.Metrics.TextfilePath, o.MetricsFile)
	return nil
}

func override(field *string, value string) {
	if value != "" {
		*field = value
	}
}

// loadEnvFile loads environment variables from .env/.env.local files.
// It stops at the first file found; variables already set in the process
// environment win over file values.
func loadEnvFile() error {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("load %s: %w", envPath, err)
		}
		return nil
	}
	return fmt.Errorf("no .env file found")
}
