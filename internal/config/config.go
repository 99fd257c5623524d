package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/loaderbuild/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "loaderbuild.yaml"

// Config represents the application configuration.
type Config struct {
	// SourceDir is the base path every stage works relative to: the assembler
	// and linker run there and the output root resolves against its parent.
	SourceDir string        `yaml:"source_dir"`
	Output    string        `yaml:"output"`
	Tools     ToolsConfig   `yaml:"tools"`
	Files     FilesConfig   `yaml:"files"`
	Image     ImageConfig   `yaml:"image"`
	History   HistoryConfig `yaml:"history,omitempty"`
	Metrics   MetricsConfig `yaml:"metrics,omitempty"`
}

// ToolsConfig names the external executables the pipeline needs.
type ToolsConfig struct {
	Assembler string `yaml:"assembler"`
	Linker    string `yaml:"linker"`
	// Emulator is only checked for presence; it is used after the build.
	Emulator string `yaml:"emulator"`
}

// FilesConfig holds the fixed file names inside SourceDir.
type FilesConfig struct {
	Source       string `yaml:"source"`
	LinkerScript string `yaml:"linker_script"`
	Object       string `yaml:"object"`
	Kernel       string `yaml:"kernel"`
	Stage2       string `yaml:"stage2"`
	Menu         string `yaml:"menu"`
}

// ImageConfig names the nested staging directories below the output root.
type ImageConfig struct {
	ISODir  string `yaml:"iso_dir"`
	BootDir string `yaml:"boot_dir"`
	GrubDir string `yaml:"grub_dir"`
}

// HistoryConfig enables the sqlite build history when Path is set.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig enables writing a Prometheus textfile after each run.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile,omitempty"`
}

// RequiredTools returns the executables that must resolve on PATH, in check order.
func (c *Config) RequiredTools() []string {
	return []string{c.Tools.Assembler, c.Tools.Emulator, c.Tools.Linker}
}

// InputFiles returns the pre-existing files a build reads, by base name.
func (c *Config) InputFiles() []string {
	return []string{c.Files.Source, c.Files.LinkerScript, c.Files.Stage2, c.Files.Menu}
}

// Path joins name onto SourceDir.
func (c *Config) Path(name string) string {
	return filepath.Join(c.SourceDir, name)
}

// OutputRoot resolves the output directory name. Relative names resolve
// against the parent of SourceDir; absolute names are used as given.
func (c *Config) OutputRoot() string {
	if filepath.IsAbs(c.Output) {
		return filepath.Clean(c.Output)
	}
	return filepath.Join(c.SourceDir, "..", c.Output)
}

// Default returns a configuration populated with all defaults.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads configuration from configPath. A missing file is not an error:
// the defaults (plus environment overrides) are used instead.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("Configuration file not found, using defaults", "path", configPath)
	case err != nil:
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	default:
		if err := decode(data, cfg); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").
				Fatal().
				WithContext("path", configPath).
				Build()
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.resolveSourceDir(); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	dec := yaml.NewDecoder(bytes.NewBufferString(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) resolveSourceDir() error {
	abs, err := filepath.Abs(c.SourceDir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to resolve source directory").
			Fatal().
			WithContext("source_dir", c.SourceDir).
			Build()
	}
	c.SourceDir = abs
	return nil
}

// Init creates a new configuration file with the default content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	example := Default()
	example.SourceDir = "."

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}

// Overrides are settings given on the command line. Empty fields keep the
// loaded value.
type Overrides struct {
	SourceDir   string
	Output      string
	HistoryPath string
	MetricsFile string
}

// ApplyOverrides layers o over the loaded configuration and re-validates it.
func (c *Config) ApplyOverrides(o Overrides) error {
	override(&c.SourceDir, o.SourceDir)
	override(&c.Output, o.Output)
	override(&c.History.Path, o.HistoryPath)
	override(&c.Metrics.TextfilePath, o.MetricsFile)
	if err := c.resolveSourceDir(); err != nil {
		return err
	}
	return Validate(c)
}
