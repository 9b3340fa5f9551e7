package secrets

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const service = "vuvur-cli"

// SetEndpointToken stores an API token for an endpoint in the OS keyring.
func SetEndpointToken(endpoint, token string) error {
	if err := keyring.Set(service, endpoint, token); err != nil {
		return fmt.Errorf("failed to store token for %s: %w", endpoint, err)
	}
	return nil
}

// GetEndpointToken returns the stored token for an endpoint, or "" when none
// exists. Absence is not an error; most servers run unauthenticated.
func GetEndpointToken(endpoint string) (string, error) {
	token, err := keyring.Get(service, endpoint)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read token for %s: %w", endpoint, err)
	}
	return token, nil
}

// DeleteEndpointToken removes the stored token for an endpoint, if any.
func DeleteEndpointToken(endpoint string) error {
	err := keyring.Delete(service, endpoint)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token for %s: %w", endpoint, err)
	}
	return nil
}
