package confopts

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvTransformFunc converts an environment variable name (after prefix
// stripping) to a configuration key. Returning false skips the variable.
type EnvTransformFunc func(name string) (key string, ok bool)

// defaultEnvTransform lowercases the name and maps double underscores to the
// key delimiter, so PREFIX_SERVER__HTTP_PORT becomes server.http_port.
// Single underscores stay part of the segment. Names that do not form a
// valid key are skipped.
func defaultEnvTransform(name string) (string, bool) {
	key := strings.ToLower(strings.ReplaceAll(name, "__", KeyDelimiter))
	if err := ValidateKey(key); err != nil {
		return "", false
	}
	return key, true
}

// EnvProvider reads configuration from process environment variables. With a
// prefix only matching variables are considered, and the prefix is stripped
// before the name is transformed into a key.
type EnvProvider struct {
	prefix    string
	transform EnvTransformFunc
}

// NewEnvProvider creates an environment variable provider. An empty prefix
// imports every variable whose name maps to a valid key.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{prefix: prefix, transform: defaultEnvTransform}
}

// NewEnvProviderWithTransform creates an environment variable provider with
// a custom name-to-key transform.
func NewEnvProviderWithTransform(prefix string, transform EnvTransformFunc) *EnvProvider {
	if transform == nil {
		transform = defaultEnvTransform
	}
	return &EnvProvider{prefix: prefix, transform: transform}
}

// Snapshot maps the current environment to key/value pairs.
func (p *EnvProvider) Snapshot() (map[string]string, error) {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		name, value, found := strings.Cut(kv, "=")
		if !found {
			continue
		}
		p.collect(out, name, value)
	}
	return out, nil
}

func (p *EnvProvider) collect(out map[string]string, name, value string) {
	if p.prefix != "" {
		if !strings.HasPrefix(name, p.prefix) {
			return
		}
		name = strings.TrimPrefix(name, p.prefix)
	}
	key, ok := p.transform(name)
	if !ok {
		return
	}
	out[key] = value
}

// DotEnvProvider reads configuration from a .env file. The same
// name-to-key transform as EnvProvider applies.
type DotEnvProvider struct {
	path      string
	prefix    string
	transform EnvTransformFunc
}

// NewDotEnvProvider creates a provider over a .env file. A missing file
// yields an empty snapshot; a malformed file is a load error.
func NewDotEnvProvider(path string) *DotEnvProvider {
	return &DotEnvProvider{path: path, transform: defaultEnvTransform}
}

// NewDotEnvProviderWithPrefix creates a .env provider that only imports
// variables carrying the prefix.
func NewDotEnvProviderWithPrefix(path, prefix string) *DotEnvProvider {
	return &DotEnvProvider{path: path, prefix: prefix, transform: defaultEnvTransform}
}

// Snapshot parses the .env file into key/value pairs.
func (p *DotEnvProvider) Snapshot() (map[string]string, error) {
	pairs, err := godotenv.Read(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	ep := &EnvProvider{prefix: p.prefix, transform: p.transform}
	out := make(map[string]string, len(pairs))
	for name, value := range pairs {
		ep.collect(out, name, value)
	}
	return out, nil
}

// DiscoverEnv returns, for each given configuration key, the environment
// variable name (prefix plus uppercased key with delimiters doubled) that
// would feed it and is currently set.
func DiscoverEnv(prefix string, keys ...string) map[string]string {
	discovered := make(map[string]string)
	for _, key := range keys {
		name := prefix + strings.ToUpper(strings.ReplaceAll(key, KeyDelimiter, "__"))
		if _, exists := os.LookupEnv(name); exists {
			discovered[key] = name
		}
	}
	return discovered
}
