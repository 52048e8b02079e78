// Package config manages sarathi configuration.
//
// Values are layered, later layers winning:
//   - Built-in defaults (providers, agents, prompts)
//   - The global file ~/.sarathi/config.yaml
//   - A project file ./.sarathi/config.yaml
//   - Environment variables (API keys, endpoint and model overrides)
//   - Values set at runtime with Set
//
// API keys are never read from or written to YAML files.
package config
