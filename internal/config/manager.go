package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	dirName  = ".sarathi"
	fileName = "config.yaml"
)

// Options controls where a Manager looks for configuration files.
type Options struct {
	// Path is an explicit config file. When set, the global and project files are skipped.
	Path string
	// HomeDir overrides the user home directory.
	HomeDir string
	// WorkDir overrides the directory searched for a project config.
	WorkDir string
	// Warn receives non-fatal loading problems.
	Warn func(format string, args ...any)
}

// Manager resolves layered configuration on top of viper.
type Manager struct {
	mu       sync.RWMutex
	v        *viper.Viper
	opts     Options
	loaded   []string
	savePath string
	saveData map[string]any
}

// GlobalPath returns ~/.sarathi/config.yaml for the given home directory
func GlobalPath(home string) string {
	return filepath.Join(home, dirName, fileName)
}

// ProjectPath returns ./.sarathi/config.yaml for the given directory
func ProjectPath(dir string) string {
	return filepath.Join(dir, dirName, fileName)
}

// New creates a Manager and loads configuration
func New(opts Options) (*Manager, error) {
	if opts.HomeDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			opts.HomeDir = home
		}
	}
	if opts.WorkDir == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.WorkDir = wd
		}
	}
	if opts.Warn == nil {
		opts.Warn = func(string, ...any) {}
	}

	m := &Manager{opts: opts}
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load (re)reads every configuration layer, discarding runtime changes.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := viper.New()
	defaults, err := toMap(Defaults())
	if err != nil {
		return fmt.Errorf("failed to build default configuration: %w", err)
	}
	if err := v.MergeConfigMap(defaults); err != nil {
		return fmt.Errorf("failed to apply default configuration: %w", err)
	}

	m.loaded = nil
	fileData := make(map[string]map[string]any)

	var candidates []string
	if m.opts.Path != "" {
		m.savePath = m.opts.Path
		if _, err := os.Stat(m.opts.Path); err != nil {
			m.opts.Warn("Configuration file not found at %s", m.opts.Path)
		} else {
			candidates = append(candidates, m.opts.Path)
		}
	} else {
		m.savePath = GlobalPath(m.opts.HomeDir)
		for _, p := range []string{GlobalPath(m.opts.HomeDir), ProjectPath(m.opts.WorkDir)} {
			if _, err := os.Stat(p); err == nil {
				candidates = append(candidates, p)
			}
		}
	}

	for _, path := range candidates {
		data, err := m.readFile(path)
		if err != nil {
			m.opts.Warn("Failed to load config from %s: %v", path, err)
			continue
		}
		if err := v.MergeConfigMap(data); err != nil {
			m.opts.Warn("Failed to merge config from %s: %v", path, err)
			continue
		}
		fileData[path] = data
		m.loaded = append(m.loaded, path)
		m.savePath = path
	}

	m.saveData = fileData[m.savePath]
	if m.saveData == nil {
		m.saveData = make(map[string]any)
	}

	bindEnv(v)
	m.v = v
	return nil
}

// readFile parses a YAML file and drops any provider api_key it contains.
func (m *Manager) readFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data := make(map[string]any)
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	if providers, ok := data["providers"].(map[string]any); ok {
		for _, p := range providers {
			provider, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if _, has := provider["api_key"]; has {
				delete(provider, "api_key")
				m.opts.Warn("'api_key' in configuration file is ignored for security. Use environment variables.")
			}
		}
	}
	return data, nil
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("providers.openai.api_key", "SARATHI_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("providers.openai.base_url", "OPENAI_ENDPOINT_URL")
	_ = v.BindEnv("agents."+AgentCommitGenerator+".model", "OPENAI_MODEL_NAME")
	_ = v.BindEnv("agents."+AgentQAHelper+".model", "OPENAI_MODEL_NAME")

	for name := range v.GetStringMap("providers") {
		if name == "openai" {
			continue
		}
		envName := "SARATHI_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_API_KEY"
		_ = v.BindEnv("providers."+name+".api_key", envName)
	}
}

// decodeHook keeps viper's default hooks and trims whitespace that
// environment variables and hand-edited files tend to carry.
var decodeHook = mapstructure.ComposeDecodeHookFunc(
	trimStrings,
	mapstructure.StringToTimeDurationHookFunc(),
	mapstructure.StringToSliceHookFunc(","),
)

func trimStrings(from, to reflect.Kind, data any) (any, error) {
	s, ok := data.(string)
	if !ok || from != reflect.String || to != reflect.String {
		return data, nil
	}
	return strings.TrimSpace(s), nil
}

// Config decodes the merged configuration
func (m *Manager) Config() (Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var cfg Config
	if err := m.v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return Config{}, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return cfg, nil
}

// Core returns the core settings, falling back to defaults on decode errors
func (m *Manager) Core() CoreConfig {
	cfg, err := m.Config()
	if err != nil {
		return Defaults().Core
	}
	return cfg.Core
}

// ResolveAgentName maps legacy agent names to current ones
func ResolveAgentName(name string) string {
	if mapped, ok := legacyAgentNames[name]; ok {
		return mapped
	}
	return name
}

// AgentConfig returns the configuration for an agent; unknown agents get a zero value.
func (m *Manager) AgentConfig(name string) AgentConfig {
	cfg, err := m.Config()
	if err != nil {
		return AgentConfig{}
	}
	return cfg.Agents[ResolveAgentName(name)]
}

// ProviderConfig returns a provider's configuration and whether it exists
func (m *Manager) ProviderConfig(name string) (ProviderConfig, bool) {
	cfg, err := m.Config()
	if err != nil {
		return ProviderConfig{}, false
	}
	p, ok := cfg.Providers[name]
	return p, ok
}

// Prompt returns prompts.<name>, or "" when unset
func (m *Manager) Prompt(name string) string {
	return m.GetString("prompts." + name)
}

// SystemPrompt resolves an agent's system prompt: the agent's own system_prompt,
// then prompts.<agent>, then prompts.<fallback>.
func (m *Manager) SystemPrompt(agent, fallback string) string {
	agent = ResolveAgentName(agent)
	if p := m.AgentConfig(agent).SystemPrompt; p != "" {
		return p
	}
	if p := m.Prompt(agent); p != "" {
		return p
	}
	if fallback != "" {
		return m.Prompt(fallback)
	}
	return ""
}

// Get returns the value at a dot separated path, or nil.
// Map values are returned merged across all layers.
func (m *Manager) Get(key string) any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var curr any = m.v.AllSettings()
	for _, part := range strings.Split(strings.ToLower(key), ".") {
		node, ok := curr.(map[string]any)
		if !ok {
			return nil
		}
		if curr, ok = node[part]; !ok {
			return nil
		}
	}
	return curr
}

// GetString returns a string value
func (m *Manager) GetString(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.GetString(key)
}

// GetInt returns an integer value
func (m *Manager) GetInt(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.GetInt(key)
}

// GetBool returns a boolean value
func (m *Manager) GetBool(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.GetBool(key)
}

// Set updates a value for this process and, when save is true, persists it.
func (m *Manager) Set(key string, value any, save bool) error {
	parts := strings.Split(strings.ToLower(key), ".")
	if parts[len(parts)-1] == "api_key" {
		return fmt.Errorf("%s cannot be stored in configuration; use environment variables", key)
	}

	m.mu.Lock()
	m.v.Set(key, value)
	setNested(m.saveData, parts, value)
	m.mu.Unlock()

	if save {
		return m.Save()
	}
	return nil
}

// UpdateAgentModel switches the model used by an agent
func (m *Manager) UpdateAgentModel(agent, model string, save bool) error {
	return m.Set("agents."+ResolveAgentName(agent)+".model", model, save)
}

// Save writes the active configuration file. Only values that came from that
// file or were Set at runtime are written.
func (m *Manager) Save() error {
	m.mu.RLock()
	path := m.savePath
	out, err := yaml.Marshal(m.saveData)
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadedFiles returns the config files that were read, in load order
func (m *Manager) LoadedFiles() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.loaded...)
}

// SavePath returns the file Save writes to
func (m *Manager) SavePath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.savePath
}

// Redacted returns all settings with API keys masked, for display
func (m *Manager) Redacted() map[string]any {
	m.mu.RLock()
	settings := m.v.AllSettings()
	m.mu.RUnlock()

	if providers, ok := settings["providers"].(map[string]any); ok {
		for _, p := range providers {
			if provider, ok := p.(map[string]any); ok {
				if key, ok := provider["api_key"].(string); ok && key != "" {
					provider["api_key"] = MaskSecret(key)
				}
			}
		}
	}
	return settings
}

// MaskSecret hides all but the last four characters of a secret
func MaskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

// ProviderNames returns configured provider names, sorted
func (m *Manager) ProviderNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0)
	for name := range m.v.GetStringMap("providers") {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteDefaults writes the built-in configuration, prompts included, to path.
func WriteDefaults(path string) error {
	out, err := yaml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("failed to encode default configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func toMap(cfg Config) (map[string]any, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	m := make(map[string]any)
	if err := yaml.Unmarshal(out, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func setNested(dst map[string]any, path []string, value any) {
	for _, part := range path[:len(path)-1] {
		next, ok := dst[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			dst[part] = next
		}
		dst = next
	}
	dst[path[len(path)-1]] = value
}
