package secret

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider maps parameter names onto environment variables, e.g.
// /discord/dify/PUBLIC_KEY is read from DISCORD_DIFY_PUBLIC_KEY.
type EnvProvider struct {
	lookup func(string) (string, bool)
}

// NewEnvProvider creates a provider backed by the process environment.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{lookup: os.LookupEnv}
}

func (p *EnvProvider) Get(_ context.Context, name string) (string, error) {
	key := EnvName(name)
	value, ok := p.lookup(key)
	if !ok || value == "" {
		return "", fmt.Errorf("environment variable %s for %s: %w", key, name, ErrNotFound)
	}
	return value, nil
}

// EnvName converts a hierarchical parameter name into an environment variable name.
func EnvName(name string) string {
	name = strings.Trim(name, "/")
	name = strings.NewReplacer("/", "_", "-", "_", ".", "_").Replace(name)
	return strings.ToUpper(name)
}
