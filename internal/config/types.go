package config

import "time"

// Config represents the complete niftyapes-action configuration.
type Config struct {
	Service   ServiceConfig         `yaml:"service"`
	Server    ServerConfig          `yaml:"server"`
	Signature SignatureConfig       `yaml:"signature"`
	Actions   map[string]ActionConf `yaml:"actions,omitempty"`

	// SourcePath is the absolute path the config was loaded from.
	SourcePath string `yaml:"-"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// ServerConfig defines HTTP listener settings.
type ServerConfig struct {
	Listen       string        `yaml:"listen"`
	MaxBodySize  int64         `yaml:"max_body_size"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins,omitempty"`
}

// SignatureConfig selects how inbound requests are authenticated.
type SignatureConfig struct {
	// Key is a scheme-tagged verification key, e.g. "ed25519:<hex>".
	Key string `yaml:"key"`
	// Keys are extra shared secrets by key id (hmac only).
	Keys map[string]string `yaml:"keys,omitempty"`
	// MaxAge bounds timestamp skew. Zero disables the check.
	MaxAge time.Duration `yaml:"max_age"`
}

// ActionConf enables and mounts one built-in action.
type ActionConf struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	BasePath string `yaml:"base_path,omitempty"`
}

// IsEnabled reports whether the action is on. Actions are enabled unless
// explicitly disabled.
func (a ActionConf) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// ChecksumManifest is the content of a .checksums file.
type ChecksumManifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	Hashes      map[string]string `yaml:"hashes"`
}

// Defaults returns a config with default values.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "niftyapes-action",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Server: ServerConfig{
			Listen:       "127.0.0.1:8080",
			MaxBodySize:  1 << 20,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			CORSOrigins:  []string{"*"},
		},
		Actions: make(map[string]ActionConf),
	}
}

// EnabledActions returns the enabled action names among known, in the order
// given. Actions missing from the config are enabled with default settings.
func (c *Config) EnabledActions(known []string) []string {
	var out []string
	for _, name := range known {
		if conf, ok := c.Actions[name]; ok && !conf.IsEnabled() {
			continue
		}
		out = append(out, name)
	}
	return out
}
