package config

import (
	"fmt"
	"strings"

	"github.com/mattjoyce/niftyapes-action/internal/signature"
)

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(cfg.Service.LogLevel)] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}
	if f := strings.ToLower(cfg.Service.LogFormat); f != "json" && f != "text" {
		return fmt.Errorf("service.log_format must be json or text (got %q)", cfg.Service.LogFormat)
	}

	if err := validateServer(cfg.Server); err != nil {
		return err
	}
	if err := validateSignature(cfg.Signature); err != nil {
		return err
	}
	return validateActions(cfg.Actions)
}

func validateServer(s ServerConfig) error {
	if s.MaxBodySize < 0 {
		return fmt.Errorf("server.max_body_size must be positive")
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	return nil
}

func validateSignature(s SignatureConfig) error {
	if s.Key == "" {
		return fmt.Errorf("signature.key is required")
	}
	if name, ok := unresolvedEnv(s.Key); ok {
		return fmt.Errorf("signature.key references undefined environment variable %s", name)
	}
	for id, secret := range s.Keys {
		if id == "" || secret == "" {
			return fmt.Errorf("signature.keys entries need a key id and a secret")
		}
		if name, ok := unresolvedEnv(secret); ok {
			return fmt.Errorf("signature.keys[%s] references undefined environment variable %s", id, name)
		}
	}
	if s.MaxAge < 0 {
		return fmt.Errorf("signature.max_age must not be negative")
	}

	if _, err := signature.ParseVerificationKey(s.Key, s.Keys); err != nil {
		return fmt.Errorf("signature.key: %w", err)
	}
	return nil
}

func validateActions(actions map[string]ActionConf) error {
	seen := make(map[string]string)
	for name, a := range actions {
		if !a.IsEnabled() || a.BasePath == "" {
			continue
		}
		if !strings.HasPrefix(a.BasePath, "/") || a.BasePath == "/" {
			return fmt.Errorf("actions.%s.base_path must start with / and name a segment (got %q)", name, a.BasePath)
		}
		path := strings.TrimSuffix(a.BasePath, "/")
		if other, dup := seen[path]; dup {
			return fmt.Errorf("actions.%s.base_path %q is already used by %s", name, a.BasePath, other)
		}
		seen[path] = name
	}
	return nil
}

func unresolvedEnv(value string) (string, bool) {
	if m := envVarPattern.FindStringSubmatch(value); m != nil {
		return m[1], true
	}
	return "", false
}

// NewVerifier builds the request verifier described by the signature section.
func (s SignatureConfig) NewVerifier() (*signature.Verifier, error) {
	scheme, err := signature.ParseVerificationKey(s.Key, s.Keys)
	if err != nil {
		return nil, err
	}
	return signature.NewVerifier(scheme, signature.WithMaxAge(s.MaxAge)), nil
}
