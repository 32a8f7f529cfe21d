// Package pkg provides shared types and utilities for the SnipSnap API.
package pkg

// Common API path constants.
const (
	// BasePath is the root path for the API.
	BasePath = "/v1"

	// HealthCheckPath is the legacy health endpoint.
	HealthCheckPath = BasePath + "/health"
	LivenessPath    = BasePath + "/livez"
	ReadinessPath   = BasePath + "/readyz"

	SnippetsPath = BasePath + "/snippets"
	TagsPath     = BasePath + "/tags"
)
