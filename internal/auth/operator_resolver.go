package auth

import (
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// OperatorResolver resolves client IP addresses to operator names.
// Merges are attributed to the resolved operator in the audit trail.
type OperatorResolver struct {
	mu       sync.RWMutex
	ipToName map[string]string
	loaded   bool
	yamlPath string
}

// NewOperatorResolver attempts to load operators.yaml from:
// 1. The path given (usually from configuration)
// 2. Current working directory
func NewOperatorResolver(path string) *OperatorResolver {
	resolver := &OperatorResolver{
		ipToName: make(map[string]string),
	}

	yamlPath := path
	if yamlPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			log.Printf("Warning: Cannot determine working directory: %v", err)
			return resolver
		}
		yamlPath = filepath.Join(cwd, "operators.yaml")
	}

	if err := resolver.loadConfig(yamlPath); err != nil {
		log.Printf("ERROR: operators.yaml not loaded from %s: %v", yamlPath, err)
		log.Printf("IMPORTANT: Merge actions will be BLOCKED until operators.yaml is present at: %s", yamlPath)
	} else {
		resolver.yamlPath = yamlPath
		log.Printf("Loaded operator IP mappings from: %s (%d entries)", yamlPath, len(resolver.ipToName))
	}

	return resolver
}

// loadConfig loads the YAML mapping file (client IP -> operator name).
func (r *OperatorResolver) loadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var config map[string]string
	if err := yaml.Unmarshal(data, &config); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.ipToName = config
	r.loaded = true

	return nil
}

// Reload reloads the operator configuration from disk.
func (r *OperatorResolver) Reload() error {
	if r.yamlPath == "" {
		return nil // no config file to reload
	}
	return r.loadConfig(r.yamlPath)
}

// IsLoaded returns true if the config file was successfully loaded.
func (r *OperatorResolver) IsLoaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// GetOperator resolves the client IP from the request to an operator name.
func (r *OperatorResolver) GetOperator(req *http.Request) (string, bool) {
	ip := extractClientIP(req)

	r.mu.RLock()
	defer r.mu.RUnlock()

	name, found := r.ipToName[ip]
	return name, found
}

// GetClientIP returns the client IP address from the request.
func (r *OperatorResolver) GetClientIP(req *http.Request) string {
	return extractClientIP(req)
}

// extractClientIP extracts the real client IP from the request.
// Handles X-Forwarded-For and X-Real-IP headers for reverse proxy scenarios.
func extractClientIP(req *http.Request) string {
	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		if ip := parseFirstIP(xff); ip != "" {
			return ip
		}
	}

	if xri := req.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr // return as-is if split fails
	}

	return ip
}

// parseFirstIP extracts the first IP from a comma-separated list
func parseFirstIP(xff string) string {
	for i := 0; i < len(xff); i++ {
		if xff[i] == ',' {
			return xff[:i]
		}
	}
	return xff
}
