package gen

import (
	"errors"
	"log/slog"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relq"
	"github.com/syssam/relq/dialect"
)

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := NewConfig(WithOutDir("internal/models"))
		require.NoError(t, err)
		assert.Equal(t, "models", c.Package)
		assert.Equal(t, DefaultHeader, c.Header)
		assert.Equal(t, runtime.GOMAXPROCS(0), c.Workers)
		assert.Empty(t, c.Backend)
		assert.NotNil(t, c.Logger)
	})

	t.Run("missing target", func(t *testing.T) {
		_, err := NewConfig(WithPackage("models"))
		require.Error(t, err)
		assert.True(t, relq.IsConfigError(err))
	})

	t.Run("target is not a package name", func(t *testing.T) {
		_, err := NewConfig(WithOutDir("gen-models"))
		require.Error(t, err)
		c, err := NewConfig(WithOutDir("gen-models"), WithPackage("models"))
		require.NoError(t, err)
		assert.Equal(t, "models", c.Package)
	})
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name    string
		opt     Option
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{"out dir", WithOutDir("out"), false, func(t *testing.T, c *Config) { assert.Equal(t, "out", c.Target) }},
		{"empty out dir", WithOutDir(""), true, nil},
		{"package", WithPackage("models"), false, func(t *testing.T, c *Config) { assert.Equal(t, "models", c.Package) }},
		{"keyword package", WithPackage("type"), true, nil},
		{"invalid package", WithPackage("my-models"), true, nil},
		{"backend", WithBackend(dialect.MSSQL), false, func(t *testing.T, c *Config) { assert.Equal(t, dialect.MSSQL, c.Backend) }},
		{"unknown backend", WithBackend("oracle"), true, nil},
		{"workers", WithWorkers(3), false, func(t *testing.T, c *Config) { assert.Equal(t, 3, c.Workers) }},
		{"zero workers", WithWorkers(0), true, nil},
		{"header", WithHeader(""), false, func(t *testing.T, c *Config) { assert.Empty(t, c.Header) }},
		{"logger", WithLogger(slog.Default()), false, func(t *testing.T, c *Config) { assert.NotNil(t, c.Logger) }},
		{"nil logger", WithLogger(nil), true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Header: DefaultHeader}
			err := tt.opt(c)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, relq.ErrInvalidConfig))
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestConfig_ApplyAll(t *testing.T) {
	c := &Config{}
	err := c.ApplyAll(WithOutDir(""), WithWorkers(2), WithBackend("oracle"))
	require.Error(t, err)
	assert.Equal(t, 2, c.Workers)
	assert.ErrorIs(t, err, relq.ErrUnsupportedDialect)

	require.Error(t, c.Apply(WithWorkers(-1), WithWorkers(4)))
	assert.Equal(t, 2, c.Workers)
}
