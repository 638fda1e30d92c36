package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Global is a process-wide Manager slot. Nothing in krusty assigns or
// reads it; it stays nil unless an embedding program sets it.
var Global *Manager

// Manager owns the layered Config and optionally watches its source file
// for hot-reload, firing onReload when the file changes. Priority order,
// highest first: explicit flag overrides (Set) > process environment >
// $KRUSTY_CONFIG YAML file > .env > compiled-in defaults.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	logger   *zap.Logger
	filePath string
	watcher  *fsnotify.Watcher
	onReload func(Config)
}

// New creates a Manager. filePath is the $KRUSTY_CONFIG YAML path, or ""
// to skip file-based configuration entirely.
func New(logger *zap.Logger, filePath string) *Manager {
	return &Manager{
		logger:   logger,
		filePath: filePath,
	}
}

// Load builds the layered configuration from scratch.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load()
}

func (m *Manager) load() error {
	cfg := Defaults()

	if env, err := godotenv.Read(); err == nil {
		applyEnvMap(&cfg, env)
	} else if m.logger != nil {
		m.logger.Debug("no .env file found or failed to read it", zap.Error(err))
	}

	if m.filePath != "" {
		if err := applyYAMLFile(&cfg, m.filePath); err != nil {
			return fmt.Errorf("loading config file %s: %w", m.filePath, err)
		}
	}

	applyProcessEnv(&cfg)

	m.cfg = cfg
	return nil
}

// Reload re-runs Load and, if a reload callback was registered via Watch,
// invokes it with the new Config. Used as the `shell:reload` hook trigger.
func (m *Manager) Reload() error {
	m.mu.Lock()
	if err := m.load(); err != nil {
		m.mu.Unlock()
		return err
	}
	cfg := m.cfg.Clone()
	cb := m.onReload
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("configuration reloaded", zap.String("file", m.filePath))
	}
	if cb != nil {
		cb(cfg)
	}
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Clone()
}

// Set applies a flag-level override after Load. Since flags are the
// highest-priority source, callers should invoke Set after Load and
// before the shell starts reading configuration.
func (m *Manager) Set(apply func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	apply(&m.cfg)
}

// Watch starts an fsnotify watch on the config file and calls onReload
// whenever it changes. A no-op if filePath is empty. The caller must call
// Close to release the watcher.
func (m *Manager) Watch(onReload func(Config)) error {
	if m.filePath == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting config watcher: %w", err)
	}
	if err := watcher.Add(m.filePath); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watching config file %s: %w", m.filePath, err)
	}

	m.mu.Lock()
	m.watcher = watcher
	m.onReload = onReload
	m.mu.Unlock()

	go m.watchLoop(watcher)
	return nil
}

func (m *Manager) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if err := m.Reload(); err != nil && m.logger != nil {
					m.logger.Warn("config reload failed", zap.Error(err))
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if m.logger != nil {
				m.logger.Warn("config watcher error", zap.Error(err))
			}
		}
	}
}

// Close stops the file watcher, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watcher == nil {
		return nil
	}
	err := m.watcher.Close()
	m.watcher = nil
	return err
}

func applyYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvMap layers .env-sourced key/value pairs onto cfg. Only the small
// set of scalar keys krusty recognizes from the environment are honored;
// unknown keys are ignored rather than rejected, since .env files are
// commonly shared across unrelated tools.
func applyEnvMap(cfg *Config, env map[string]string) {
	for k, v := range env {
		applyEnvKey(cfg, k, v)
	}
}

func applyProcessEnv(cfg *Config) {
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		applyEnvKey(cfg, parts[0], parts[1])
	}
}

func applyEnvKey(cfg *Config, key, value string) {
	switch key {
	case "KRUSTY_VERBOSE":
		if b, err := strconv.ParseBool(value); err == nil {
			cfg.Verbose = b
		}
	case "KRUSTY_STREAM_OUTPUT":
		if b, err := strconv.ParseBool(value); err == nil {
			cfg.StreamOutput = b
		}
	case "KRUSTY_HISTORY_FILE":
		cfg.History.File = value
	case "KRUSTY_HISTORY_MAX_ENTRIES":
		if n, err := strconv.Atoi(value); err == nil {
			cfg.History.MaxEntries = n
		}
	case "KRUSTY_COMPLETION_ENABLED":
		if b, err := strconv.ParseBool(value); err == nil {
			cfg.Completion.Enabled = b
		}
	case "KRUSTY_EXEC_TIMEOUT_MS":
		if n, err := strconv.Atoi(value); err == nil {
			cfg.Execution.DefaultTimeoutMs = n
		}
	case "KRUSTY_EXEC_KILL_SIGNAL":
		cfg.Execution.KillSignal = value
	}
}
