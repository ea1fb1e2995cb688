package confopts

import "fmt"

// Quick creates a registry with the standard layer stack in a single call:
// environment variables carrying envPrefix, over a .env file in the working
// directory, over a watched configuration file, over programmatic defaults.
// This is the recommended way to initialize configuration for most
// applications.
func Quick(envPrefix, configFile string, defaults map[string]string) (*Registry, error) {
	b := NewBuilder()
	if len(defaults) > 0 {
		b.WithMapLayer("defaults", PriorityDefault, defaults)
	}
	if configFile != "" {
		b.WithFileLayer(PriorityFile, configFile, FileOptions{
			Optional: true,
			Watch:    true,
		})
	}
	b.WithDotEnvLayer(PriorityDotEnv, ".env", envPrefix)
	b.WithEnvLayer(PriorityEnv, envPrefix)
	return b.Build()
}

// MustQuick is like Quick but panics on error.
func MustQuick(envPrefix, configFile string, defaults map[string]string) *Registry {
	r, err := Quick(envPrefix, configFile, defaults)
	if err != nil {
		panic(fmt.Sprintf("confopts initialization failed: %v", err))
	}
	return r
}
