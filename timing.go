package confopts

import "time"

// DefaultDebounce coalesces rapid file change events into one reload.
const DefaultDebounce = 500 * time.Millisecond

// Standard layer priorities used by Quick. Higher priority wins; gaps leave
// room for application layers in between.
const (
	PriorityOverride = 40 // programmatic overrides
	PriorityEnv      = 30 // process environment
	PriorityDotEnv   = 20 // .env file
	PriorityFile     = 10 // configuration file
	PriorityDefault  = 0  // programmatic defaults
)
