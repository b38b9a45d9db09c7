package secret

// SecretStore provides a pluggable interface for storing sensitive data
// such as customer database passwords. The default implementation is a
// mode-0600 file next to the service database; it can be swapped for
// Vault, a cloud secret manager, etc.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}
