package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"stagecheck/internal/core"
)

// Config is the optional YAML toolchain file given with --config.
//
//	tests: Tests
//	workdir: build
//	timeout: 30s
//	assembler: {path: ml, args: ["/c", "/coff"]}
//	linker: {path: link, args: ["/subsystem:console"]}
//
// Relative paths are resolved against the directory holding the file.
// Command line flags win over file values.
type Config struct {
	Tests     string        `yaml:"tests"`
	WorkDir   string        `yaml:"workdir"`
	Timeout   time.Duration `yaml:"timeout"`
	Assembler core.Tool     `yaml:"assembler"`
	Linker    core.Tool     `yaml:"linker"`
}

// DefaultConfig returns the toolchain used when no file overrides it:
// MASM's ml assembling to COFF and the Microsoft linker building a console
// program.
func DefaultConfig() Config {
	return Config{
		Assembler: core.Tool{Path: "ml", Args: []string{"/c", "/coff"}},
		Linker:    core.Tool{Path: "link", Args: []string{"/subsystem:console"}},
	}
}

// LoadConfig reads the file at path over DefaultConfig. Unknown keys are
// rejected. An empty path yields DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &core.ConfigurationError{Message: "reading config", Cause: err}
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &core.ConfigurationError{Message: fmt.Sprintf("parsing config %s", path), Cause: err}
	}
	if err := cfg.validate(); err != nil {
		return Config{}, &core.ConfigurationError{Message: fmt.Sprintf("config %s", path), Cause: err}
	}

	base := filepath.Dir(path)
	if cfg.Tests != "" {
		cfg.Tests = resolveUnder(base, cfg.Tests)
	}
	if cfg.WorkDir != "" {
		cfg.WorkDir = resolveUnder(base, cfg.WorkDir)
	}
	cfg.Assembler.Path = resolveExecutable(base, cfg.Assembler.Path)
	cfg.Linker.Path = resolveExecutable(base, cfg.Linker.Path)
	return cfg, nil
}

func (c Config) validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative (got %s)", c.Timeout)
	}
	if c.Assembler.Path == "" {
		return errors.New("assembler.path must not be empty")
	}
	if c.Linker.Path == "" {
		return errors.New("linker.path must not be empty")
	}
	return nil
}

// apply merges cfg into inv; settings given on the command line are kept.
func (inv *Invocation) apply(cfg Config) {
	if !inv.explicit["tests"] && cfg.Tests != "" {
		inv.TestsDir = cfg.Tests
	}
	if !inv.explicit["workdir"] && cfg.WorkDir != "" {
		inv.WorkDir = cfg.WorkDir
	}
	if !inv.explicit["timeout"] {
		inv.Timeout = cfg.Timeout
	}
}
