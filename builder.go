package confopts

import (
	"fmt"
	"log/slog"
)

// Builder provides a fluent interface for assembling a registry from ranked
// provider layers.
type Builder struct {
	layers []Layer
	logger *slog.Logger
	err    error
}

// NewBuilder creates a new registry builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithLogger sets the logger passed through to the registry and broker.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithLayer adds a ranked provider layer. Higher priority wins.
func (b *Builder) WithLayer(name string, priority int, p Provider) *Builder {
	b.layers = append(b.layers, NewLayer(name, priority, p))
	return b
}

// WithMapLayer adds an in-memory layer, useful for programmatic defaults and
// overrides.
func (b *Builder) WithMapLayer(name string, priority int, values map[string]string) *Builder {
	return b.WithLayer(name, priority, NewMapProvider(values))
}

// WithEnvLayer adds an environment-variable layer with the given prefix.
func (b *Builder) WithEnvLayer(priority int, prefix string) *Builder {
	return b.WithLayer("env", priority, NewEnvProvider(prefix))
}

// WithDotEnvLayer adds a .env file layer. Entries follow the same
// prefix-and-transform convention as the environment layer. A missing file
// yields an empty snapshot rather than an error.
func (b *Builder) WithDotEnvLayer(priority int, path, prefix string) *Builder {
	return b.WithLayer("dotenv", priority, NewDotEnvProviderWithPrefix(path, prefix))
}

// WithFileLayer adds a configuration file layer. Format is detected from the
// extension and contents; pass FileOptions to pin it, enable watching, or
// mark the file optional.
func (b *Builder) WithFileLayer(priority int, path string, opts FileOptions) *Builder {
	p, err := NewFileProvider(path, opts)
	if err != nil {
		if b.err == nil {
			b.err = fmt.Errorf("file layer %q: %w", path, err)
		}
		return b
	}
	return b.WithLayer("file:"+path, priority, p)
}

// Build merges the layers and returns the registry. Any provider failure
// during the initial merge is returned here.
func (b *Builder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	var opts []Option
	if b.logger != nil {
		opts = append(opts, WithLogger(b.logger))
	}
	return New(b.layers, opts...)
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Registry {
	r, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("confopts build failed: %v", err))
	}
	return r
}
