package config

import (
	"fmt"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/loaderbuild/internal/foundation/errors"
)

// Validate rejects configurations the pipeline cannot run with.
func Validate(cfg *Config) error {
	required := map[string]string{
		"tools.assembler":     cfg.Tools.Assembler,
		"tools.linker":        cfg.Tools.Linker,
		"tools.emulator":      cfg.Tools.Emulator,
		"files.source":        cfg.Files.Source,
		"files.linker_script": cfg.Files.LinkerScript,
		"files.object":        cfg.Files.Object,
		"files.kernel":        cfg.Files.Kernel,
		"files.stage2":        cfg.Files.Stage2,
		"files.menu":          cfg.Files.Menu,
		"image.iso_dir":       cfg.Image.ISODir,
		"image.boot_dir":      cfg.Image.BootDir,
		"image.grub_dir":      cfg.Image.GrubDir,
		"output":              cfg.Output,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return ferrors.ConfigError(fmt.Sprintf("%s must not be empty", field)).
				WithContext("field", field).
				Build()
		}
	}

	// File and directory names are plain names inside their directory.
	names := map[string]string{
		"files.source":        cfg.Files.Source,
		"files.linker_script": cfg.Files.LinkerScript,
		"files.object":        cfg.Files.Object,
		"files.kernel":        cfg.Files.Kernel,
		"files.stage2":        cfg.Files.Stage2,
		"files.menu":          cfg.Files.Menu,
		"image.iso_dir":       cfg.Image.ISODir,
		"image.boot_dir":      cfg.Image.BootDir,
		"image.grub_dir":      cfg.Image.GrubDir,
	}
	for field, value := range names {
		if value != filepath.Base(value) || value == "." || value == ".." {
			return ferrors.ConfigError(fmt.Sprintf("%s must be a plain name, got %q", field, value)).
				WithContext("field", field).
				Build()
		}
	}
	return nil
}
