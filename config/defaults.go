package config

// Compiled-in defaults, applied before any .env/environment/file/flag
// override is layered on top (see Manager.Load).
func Defaults() Config {
	return Config{
		Verbose:      false,
		StreamOutput: true,
		Aliases:      map[string]string{},
		Environment:  map[string]string{},
		Plugins:      nil,

		History: HistoryConfig{
			MaxEntries:       1000,
			File:             "~/.krusty/history",
			IgnoreDuplicates: true,
			IgnoreSpace:      true,
			SearchMode:       SearchFuzzy,
			SearchLimit:      50,
		},
		Completion: CompletionConfig{
			Enabled:               true,
			CaseSensitive:         false,
			MaxSuggestions:        20,
			BinPathMaxSuggestions: 50,
		},
		Expansion: ExpansionConfig{
			CacheLimits: CacheLimits{
				Arg:        256,
				Exec:       256,
				Arithmetic: 128,
			},
		},
		Execution: ExecutionConfig{
			DefaultTimeoutMs: 0, // 0 means no timeout
			KillSignal:       "SIGTERM",
		},
		Hooks:   map[string][]HookAction{},
		Metrics: MetricsConfig{Enabled: false},
	}
}
