package ratelimit

import (
	"strings"
)

// unlimited are GET endpoints that are never limited: the health check, and
// the event stream, which holds one long-lived request per client.
var unlimited = map[string]bool{
	"/health": true,
	"/events": true,
}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns nil when nothing matches. A config path ending in "/" matches by
// prefix, so "/applications/" covers "/applications/{id}".
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if method == "GET" && unlimited[path] {
		return &EndpointConfig{Path: path, Method: method}
	}

	// Try exact match first
	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	for i := range configs {
		config := &configs[i]
		if config.Method == method && strings.HasSuffix(config.Path, "/") && strings.HasPrefix(path, config.Path) {
			return config
		}
	}

	return nil
}
