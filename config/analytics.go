package config

import (
	"strings"
	"time"
)

// AnalyticsConfig controls forwarding of analytics events to an external
// tracking webhook. Recording to the local store is always on; forwarding
// only happens when a webhook URL is configured.
type AnalyticsConfig struct {
	Enabled    bool   `env:"FORWARD_ENABLED" envDefault:"false"`
	WebhookURL string `env:"WEBHOOK_URL"`

	// Extract is an optional JMESPath expression applied to the event
	// payload before forwarding. Empty forwards the whole event.
	Extract string `env:"EXTRACT"`

	Timeout    time.Duration `env:"TIMEOUT"     envDefault:"5s"`
	RetryLimit int           `env:"RETRY_LIMIT" envDefault:"2"`
}

// Sanitize normalises analytics forwarding configuration.
func (c *AnalyticsConfig) Sanitize() {
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	c.Extract = strings.TrimSpace(c.Extract)
	if c.WebhookURL == "" {
		c.Enabled = false
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}
}
