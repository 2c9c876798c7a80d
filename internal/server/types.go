package server

import "time"

// Config holds HTTP listener settings.
type Config struct {
	Listen       string
	MaxBodySize  int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Actions       int    `json:"actions"`
}

// ActionSummary is one entry of GET /actions.
type ActionSummary struct {
	Name     string `json:"name"`
	BasePath string `json:"base_path"`
}

// ErrorResponse is the JSON response for transport-level errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Default values
const (
	DefaultMaxBodySize  = 1048576 // 1 MB
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)
