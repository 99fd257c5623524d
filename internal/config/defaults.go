package config

// Default values mirror the layout of the loader source tree.
const (
	DefaultOutput       = "build"
	DefaultSourceDir    = "."
	DefaultAssembler    = "nasm"
	DefaultLinker       = "ld"
	DefaultEmulator     = "bochs"
	DefaultSource       = "loader.s"
	DefaultLinkerScript = "link.ld"
	DefaultObject       = "loader.o"
	DefaultKernel       = "kernel.elf"
	DefaultStage2       = "stage2_eltorito"
	DefaultMenu         = "menu.lst"
	DefaultISODir       = "iso"
	DefaultBootDir      = "boot"
	DefaultGrubDir      = "grub"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

type layoutDefaults struct{}

func (layoutDefaults) Domain() string { return "layout" }

func (layoutDefaults) ApplyDefaults(cfg *Config) {
	setDefault(&cfg.SourceDir, DefaultSourceDir)
	setDefault(&cfg.Output, DefaultOutput)
}

type toolsDefaults struct{}

func (toolsDefaults) Domain() string { return "tools" }

func (toolsDefaults) ApplyDefaults(cfg *Config) {
	setDefault(&cfg.Tools.Assembler, DefaultAssembler)
	setDefault(&cfg.Tools.Linker, DefaultLinker)
	setDefault(&cfg.Tools.Emulator, DefaultEmulator)
}

type filesDefaults struct{}

func (filesDefaults) Domain() string { return "files" }

func (filesDefaults) ApplyDefaults(cfg *Config) {
	setDefault(&cfg.Files.Source, DefaultSource)
	setDefault(&cfg.Files.LinkerScript, DefaultLinkerScript)
	setDefault(&cfg.Files.Object, DefaultObject)
	setDefault(&cfg.Files.Kernel, DefaultKernel)
	setDefault(&cfg.Files.Stage2, DefaultStage2)
	setDefault(&cfg.Files.Menu, DefaultMenu)
}

type imageDefaults struct{}

func (imageDefaults) Domain() string { return "image" }

func (imageDefaults) ApplyDefaults(cfg *Config) {
	setDefault(&cfg.Image.ISODir, DefaultISODir)
	setDefault(&cfg.Image.BootDir, DefaultBootDir)
	setDefault(&cfg.Image.GrubDir, DefaultGrubDir)
}

var defaultAppliers = []DefaultApplier{layoutDefaults{}, toolsDefaults{}, filesDefaults{}, imageDefaults{}}

func applyDefaults(cfg *Config) {
	for _, a := range defaultAppliers {
		a.ApplyDefaults(cfg)
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
