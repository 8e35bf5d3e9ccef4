package polaris

import (
	"os"
	"strings"
)

const (
	EnvAPIKey  = "POLARIS_API_KEY"
	EnvBaseURL = "POLARIS_BASE_URL"
	EnvCAPath  = "POLARIS_CA_PATH"
)

// Env is the process environment consulted once at startup.
type Env struct {
	// APIKey is sent as the Basic credential. It may be empty.
	APIKey  string
	BaseURL string
	CAPath  string
}

// LoadEnv reads the credential and optional overrides from the environment.
//
// Nothing here is required: a missing API key surfaces as an authorization
// failure on the first request.
func LoadEnv() Env {
	return Env{
		APIKey:  strings.TrimSpace(os.Getenv(EnvAPIKey)),
		BaseURL: strings.TrimSpace(os.Getenv(EnvBaseURL)),
		CAPath:  strings.TrimSpace(os.Getenv(EnvCAPath)),
	}
}
