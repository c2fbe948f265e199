package bootstrap

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taponn/taponn-api/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func baseConfig() *config.AppConfig {
	cfg := &config.AppConfig{}
	cfg.Auth.Token.Secret = "test-secret"
	cfg.Sanitize()
	return cfg
}

func TestNewServicesBuildsContainer(t *testing.T) {
	svcs, err := NewServices(&ServiceDeps{
		Config: baseConfig(),
		Logger: discardLogger(),
	})
	require.NoError(t, err)

	assert.NotNil(t, svcs.Accounts)
	assert.NotNil(t, svcs.Profiles)
	assert.NotNil(t, svcs.QRCodes)
	assert.NotNil(t, svcs.Orders)
	assert.NotNil(t, svcs.Analytics)
	assert.Nil(t, svcs.IdP, "password mode has no identity provider")
}

func TestNewServicesRequiresConfig(t *testing.T) {
	_, err := NewServices(nil)
	assert.Error(t, err)

	_, err = NewServices(&ServiceDeps{})
	assert.Error(t, err)
}

func TestNewServicesRequiresTokenSecret(t *testing.T) {
	cfg := &config.AppConfig{}
	cfg.Sanitize()

	_, err := NewServices(&ServiceDeps{Config: cfg, Logger: discardLogger()})
	assert.ErrorContains(t, err, "build account service")
}

func TestBuildIdentityProviderDisabledCases(t *testing.T) {
	logger := discardLogger()

	tests := []struct {
		name string
		auth config.AuthConfig
	}{
		{
			name: "password mode",
			auth: config.AuthConfig{Mode: config.AuthModePassword},
		},
		{
			name: "oidc mode without discovery url",
			auth: config.AuthConfig{
				Mode: config.AuthModeOIDC,
				OIDC: config.OIDCConfig{
					ClientID:     "taponn",
					ClientSecret: "secret",
				},
			},
		},
		{
			name: "oidc mode without client secret",
			auth: config.AuthConfig{
				Mode: config.AuthModeOIDC,
				OIDC: config.OIDCConfig{
					ClientID:     "taponn",
					DiscoveryURL: "https://issuer.example.com",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, BuildIdentityProvider(tt.auth, logger))
		})
	}
}

func TestValidateServerConfig(t *testing.T) {
	assert.Error(t, ValidateServerConfig(nil))

	cfg := &config.AppConfig{}
	assert.Error(t, ValidateServerConfig(cfg), "missing secret outside dev mode")

	cfg.IsDev = true
	assert.NoError(t, ValidateServerConfig(cfg), "dev mode may run without a secret")

	cfg = baseConfig()
	assert.NoError(t, ValidateServerConfig(cfg))
}

func TestBuildObservabilityDefaultsToLogSink(t *testing.T) {
	obs := BuildObservability(discardLogger(), config.ObservabilityConfig{})

	assert.Nil(t, obs.MetricsSink, "metrics stay off unless configured")
	require.NotNil(t, obs.Notifier, "notifier always present")
}

func TestBuildObservabilityWithMetrics(t *testing.T) {
	cfg := config.ObservabilityConfig{
		Metrics: config.ObservabilityMetricsConfig{
			Enabled:       true,
			StatsdAddress: "127.0.0.1:8125",
		},
	}
	cfg.Sanitize()

	obs := BuildObservability(discardLogger(), cfg)
	require.NotNil(t, obs.MetricsSink)
	assert.True(t, obs.MetricsSink.Enabled())
	require.NoError(t, obs.MetricsSink.Close())
}

func TestBuildAccountServiceLockoutDefaults(t *testing.T) {
	cfg := config.AuthConfig{}
	cfg.Sanitize()

	assert.Equal(t, 5, cfg.Lockout.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Lockout.Duration)
}
