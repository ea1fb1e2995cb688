package main

import (
	"log"
	"os"
	"time"

	"github.com/D34NM/confopts"
)

// ServerConfig is the typed view of the "server" subtree.
type ServerConfig struct {
	Host    string        `conf:"host"`
	Port    int           `conf:"port,required"`
	Timeout time.Duration `conf:"timeout"`
}

const configFilePath = "config.toml"

func main() {
	defer os.Remove(configFilePath)

	initial := []byte("[server]\nhost = \"localhost\"\nport = 8080\ntimeout = \"30s\"\n")
	if err := os.WriteFile(configFilePath, initial, 0o644); err != nil {
		log.Fatalf("write config: %v", err)
	}

	// Environment overrides file: APP_SERVER__PORT maps to server.port.
	os.Setenv("APP_SERVER__PORT", "9090")
	defer os.Unsetenv("APP_SERVER__PORT")

	reg, err := confopts.NewBuilder().
		WithFileLayer(confopts.PriorityFile, configFilePath, confopts.FileOptions{Watch: true}).
		WithEnvLayer(confopts.PriorityEnv, "APP_").
		Build()
	if err != nil {
		log.Fatalf("build registry: %v", err)
	}
	defer reg.Close()

	err = confopts.Register(reg, &ServerConfig{}, "server",
		confopts.WithPolicy(confopts.PolicyMonitor),
		confopts.WithValidators(confopts.Constraints(
			confopts.Constraint{Field: "Port", Rule: confopts.RuleMin, Param: "1024"},
		)),
	)
	if err != nil {
		log.Fatalf("register: %v", err)
	}

	srv, err := confopts.Resolve[ServerConfig](reg, "")
	if err != nil {
		log.Fatalf("resolve: %v", err)
	}
	log.Printf("initial: host=%s port=%d timeout=%s", srv.Host, srv.Port, srv.Timeout)

	// React to live changes of the file layer.
	updated := make(chan *ServerConfig, 1)
	unsubscribe, err := confopts.OnChange(reg, "", func(s *ServerConfig) {
		updated <- s
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}
	defer unsubscribe()

	modified := []byte("[server]\nhost = \"localhost\"\nport = 8080\ntimeout = \"45s\"\n")
	if err := os.WriteFile(configFilePath, modified, 0o644); err != nil {
		log.Fatalf("modify config: %v", err)
	}

	select {
	case s := <-updated:
		log.Printf("reloaded: host=%s port=%d timeout=%s", s.Host, s.Port, s.Timeout)
	case <-time.After(5 * time.Second):
		log.Fatal("timed out waiting for reload")
	}
}
