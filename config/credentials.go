package config

import (
	"fmt"
	"os"
)

// MissingCredentialError reports a model API key that is not set.
type MissingCredentialError struct {
	Env string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s is missing: set it in the environment or in a .env file", e.Env)
}

// NoAPIKey as api_key_env marks a model that needs no credential, such as a
// local OpenAI-compatible server.
const NoAPIKey = "none"

// APIKey returns the credential named by APIKeyEnv.
func (m ModelConfig) APIKey() (string, error) {
	if m.APIKeyEnv == "" || m.APIKeyEnv == NoAPIKey {
		return "", nil
	}
	key := os.Getenv(m.APIKeyEnv)
	if key == "" {
		return "", &MissingCredentialError{Env: m.APIKeyEnv}
	}
	return key, nil
}
