// Package confopts provides layered configuration management with typed,
// validated option structs for Go applications. Ranked provider layers
// (in-memory maps, environment variables, .env files, TOML/JSON/YAML files)
// merge into a single case-insensitive key/value view, and struct types
// registered against a key prefix bind from that view on demand.
//
// Features:
//   - Ranked provider layers with deterministic precedence
//   - Case-insensitive keys with dot-delimited hierarchy
//   - Typed binding via struct tags with per-field error aggregation
//   - Named registrations: multiple instances of one struct type
//   - Three cache policies: immutable, per-scope snapshot, live monitor
//   - Validation pipeline: constraints, expression rules, struct tags
//   - Hot reload with one-shot change tokens and coalesced rebuilds
//   - Builder pattern for easy initialization
//
// Quick Start:
//
//	type ServerConfig struct {
//	    Host string        `conf:"host"`
//	    Port int           `conf:"port,required"`
//	    Idle time.Duration `conf:"idle_timeout"`
//	}
//
//	reg, err := confopts.Quick("MYAPP_", "config.toml", map[string]string{
//	    "server.host":         "localhost",
//	    "server.idle_timeout": "30s",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := confopts.Register(reg, &ServerConfig{}, "server"); err != nil {
//	    log.Fatal(err)
//	}
//
//	srv, err := confopts.Resolve[ServerConfig](reg, "")
//
// Default Precedence (highest to lowest):
//  1. Environment variables (MYAPP_SERVER__PORT=9090)
//  2. Configuration file (config.toml)
//  3. Programmatic defaults
//
// Thread Safety:
// All registry and broker operations are safe for concurrent use. Resolution
// under the monitor policy is single-flighted per (type, name) pair.
package confopts
