// Package envvar implements the configuration layer: plain environment
// variables loaded via dotenv files, with secret values indirected through a
// Provider (Vault in production).
package envvar

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/plefebvre/task-api/internal"
)

// Provider defines where secret configuration values come from.
type Provider interface {
	Get(key string) (string, error)
}

// Configuration resolves configuration keys. When "<KEY>_SECURE" is defined
// in the environment its value is used as the lookup path in the secrets
// provider, otherwise the plain environment value is returned.
type Configuration struct {
	provider Provider
}

// Load reads the supplied dotenv file, if any, and merges it into the
// process environment.
func Load(filename string) error {
	if filename == "" {
		return nil
	}

	if err := godotenv.Load(filename); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "godotenv.Load")
	}

	return nil
}

// New ...
func New(provider Provider) *Configuration {
	return &Configuration{
		provider: provider,
	}
}

// Get resolves the value for key.
func (c *Configuration) Get(key string) (string, error) {
	res := os.Getenv(key)

	secret := os.Getenv(fmt.Sprintf("%s_SECURE", key))
	if secret != "" {
		val, err := c.provider.Get(secret)
		if err != nil {
			return "", internal.WrapErrorf(err, internal.ErrorCodeUnknown, "provider.Get %s", key)
		}

		res = val
	}

	return res, nil
}
