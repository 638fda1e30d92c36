// Package config holds the shell's runtime configuration and its
// layered loader: flags over process environment over a YAML file over
// .env over compiled-in defaults.
package config

import "time"

// SearchMode selects how history search matches candidate entries.
type SearchMode string

const (
	SearchFuzzy      SearchMode = "fuzzy"
	SearchExact      SearchMode = "exact"
	SearchStartsWith SearchMode = "startswith"
	SearchRegex      SearchMode = "regex"
)

// HistoryConfig configures the history manager.
type HistoryConfig struct {
	MaxEntries       int        `yaml:"maxEntries"`
	File             string     `yaml:"file"`
	IgnoreDuplicates bool       `yaml:"ignoreDuplicates"`
	IgnoreSpace      bool       `yaml:"ignoreSpace"`
	SearchMode       SearchMode `yaml:"searchMode"`
	SearchLimit      int        `yaml:"searchLimit,omitempty"`
}

// CompletionConfig configures the completion provider.
type CompletionConfig struct {
	Enabled               bool `yaml:"enabled"`
	CaseSensitive         bool `yaml:"caseSensitive"`
	MaxSuggestions        int  `yaml:"maxSuggestions"`
	BinPathMaxSuggestions int  `yaml:"binPathMaxSuggestions,omitempty"`
}

// CacheLimits bounds the expansion engine's arg/exec/arithmetic LRU
// caches.
type CacheLimits struct {
	Arg        int `yaml:"arg"`
	Exec       int `yaml:"exec"`
	Arithmetic int `yaml:"arithmetic"`
}

// ExpansionConfig configures the expansion engine.
type ExpansionConfig struct {
	CacheLimits CacheLimits `yaml:"cacheLimits"`
}

// ExecutionConfig configures the external executor.
type ExecutionConfig struct {
	DefaultTimeoutMs int    `yaml:"defaultTimeoutMs"`
	KillSignal       string `yaml:"killSignal"`
}

// HookAction is one registered handler for a hook event, as loaded from
// configuration. At most one of Command/Script/Function/Plugin is set.
type HookAction struct {
	Command    string        `yaml:"command,omitempty"`
	Script     string        `yaml:"script,omitempty"`
	Function   string        `yaml:"function,omitempty"`
	Plugin     string        `yaml:"plugin,omitempty"`
	Conditions []string      `yaml:"conditions,omitempty"`
	Priority   int           `yaml:"priority,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	Enabled    bool          `yaml:"enabled"`
}

// MetricsConfig gates the optional prometheus exporter.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen,omitempty"`
}

// Config is the full runtime configuration.
type Config struct {
	Verbose      bool              `yaml:"verbose"`
	StreamOutput bool              `yaml:"streamOutput"`
	Aliases      map[string]string `yaml:"aliases"`
	Environment  map[string]string `yaml:"environment"`
	Plugins      []string          `yaml:"plugins"`

	History    HistoryConfig           `yaml:"history"`
	Completion CompletionConfig        `yaml:"completion"`
	Expansion  ExpansionConfig         `yaml:"expansion"`
	Execution  ExecutionConfig         `yaml:"execution"`
	Hooks      map[string][]HookAction `yaml:"hooks"`
	Metrics    MetricsConfig           `yaml:"metrics"`
}

// Clone returns a deep-enough copy of cfg for safe handoff across the
// config:reload boundary (maps and slices are copied; HookAction values
// are copied by value).
func (c Config) Clone() Config {
	out := c
	out.Aliases = cloneStringMap(c.Aliases)
	out.Environment = cloneStringMap(c.Environment)
	out.Plugins = append([]string(nil), c.Plugins...)

	out.Hooks = make(map[string][]HookAction, len(c.Hooks))
	for k, v := range c.Hooks {
		out.Hooks[k] = append([]HookAction(nil), v...)
	}
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
