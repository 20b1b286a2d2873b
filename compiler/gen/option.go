package gen

import (
	"errors"
	"go/token"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/syssam/relq"
	"github.com/syssam/relq/dialect"
)

// DefaultHeader is written at the top of every generated file.
const DefaultHeader = "Code generated by relq. DO NOT EDIT."

// Config holds the code generation settings.
type Config struct {
	// Target is the directory generated files are written to.
	Target string
	// Package is the Go package name of the generated files. It defaults
	// to the base name of Target.
	Package string
	// Backend restricts generation to tables introspected on it. Empty
	// means every table of the manifest.
	Backend dialect.Backend
	Header  string
	Workers int
	Logger  *slog.Logger
}

// Option configures code generation.
type Option func(*Config) error

// WithOutDir sets the output directory.
func WithOutDir(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return relq.NewConfigError("OutDir", nil, "output directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithPackage sets the package name of the generated code.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if !token.IsIdentifier(pkg) {
			return relq.NewConfigError("Package", pkg, "not a valid Go package name")
		}
		c.Package = pkg
		return nil
	}
}

// WithBackend generates only the tables supported by the backend.
func WithBackend(b dialect.Backend) Option {
	return func(c *Config) error {
		if _, ok := dialect.RulesFor(b); !ok {
			return relq.UnsupportedDialectError(string(b))
		}
		c.Backend = b
		return nil
	}
}

// WithWorkers sets the number of files written in parallel.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return relq.NewConfigError("Workers", n, "must be positive")
		}
		c.Workers = n
		return nil
	}
}

// WithHeader sets the file header comment.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithLogger sets the logger progress is reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return relq.NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a Config with defaults, then applies the options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Header:  DefaultHeader,
		Workers: runtime.GOMAXPROCS(0),
		Logger:  slog.Default(),
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	if c.Target == "" {
		return nil, relq.NewConfigError("OutDir", nil, "missing output directory")
	}
	if c.Package == "" {
		c.Package = filepath.Base(c.Target)
		if !token.IsIdentifier(c.Package) {
			return nil, relq.NewConfigError("Package", c.Package, "directory name is not a valid package name, use WithPackage")
		}
	}
	return c, nil
}
