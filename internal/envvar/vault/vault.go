// Package vault implements the envvar.Provider interface on top of
// HashiCorp Vault's KV version 2 secrets engine.
package vault

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/vault/api"

	"github.com/plefebvre/task-api/internal"
)

// Provider reads secrets below a fixed mount path. Values are fetched once
// and memoized, configuration secrets do not rotate while the process runs.
type Provider struct {
	client *api.Client
	path   string

	mu   sync.Mutex
	data map[string]string
}

// New instantiates a Vault client using the supplied token and address.
func New(token, addr, path string) (*Provider, error) {
	config := api.DefaultConfig()
	config.Address = addr

	client, err := api.NewClient(config)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "api.NewClient")
	}

	client.SetToken(token)

	return &Provider{
		client: client,
		path:   path,
		data:   make(map[string]string),
	}, nil
}

// Get reads the secret stored under "<path>/data/<dir(key)>" and returns the
// field named by the last segment of key.
func (p *Provider) Get(key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if val, ok := p.data[key]; ok {
		return val, nil
	}

	idx := strings.LastIndex(key, "/")
	if idx == -1 {
		return "", internal.NewErrorf(internal.ErrorCodeInvalidArgument, "malformed secret key %q", key)
	}

	secretPath := fmt.Sprintf("%s/data%s", p.path, key[:idx])
	field := key[idx+1:]

	secret, err := p.client.Logical().Read(secretPath)
	if err != nil {
		return "", internal.WrapErrorf(err, internal.ErrorCodeUnknown, "Logical().Read")
	}

	if secret == nil {
		return "", internal.NewErrorf(internal.ErrorCodeNotFound, "secret %q not found", secretPath)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", internal.NewErrorf(internal.ErrorCodeUnknown, "unexpected payload for %q", secretPath)
	}

	val, ok := data[field].(string)
	if !ok {
		return "", internal.NewErrorf(internal.ErrorCodeNotFound, "field %q not found in %q", field, secretPath)
	}

	p.data[key] = val

	return val, nil
}
