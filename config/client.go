package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ClientConfig configures the session client used by the CLI: where the
// remote auth service lives and where the bearer token is persisted
// between runs.
type ClientConfig struct {
	// BaseURL is the root of the remote auth service API.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Timeout bounds each outbound request.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`

	// TokenPath is the file holding the persisted bearer token.
	// Defaults to ~/.taponn/token when empty.
	TokenPath string `env:"TOKEN_PATH"`
}

// Sanitize applies guardrails to client configuration values.
func (c *ClientConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8080"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.TokenPath = strings.TrimSpace(c.TokenPath); c.TokenPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.TokenPath = filepath.Join(home, ".taponn", "token")
	}
}
