package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/taponn/taponn-api/config"
	"github.com/taponn/taponn-api/internal/data"
	"github.com/taponn/taponn-api/internal/observability/notify"
	"github.com/taponn/taponn-api/internal/observability/notify/slack"
	"github.com/taponn/taponn-api/internal/observability/statsd"
	"github.com/taponn/taponn-api/internal/ports"
	"github.com/taponn/taponn-api/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Accounts  *service.AccountService
	Profiles  *service.ProfileService
	QRCodes   *service.QRCodeService
	Orders    *service.OrderService
	Analytics *service.AnalyticsService

	// IdP is non-nil only when SSO is configured.
	IdP ports.IdentityProvider
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Accounts  *data.AccountRepo
	Profiles  *data.ProfileRepo
	QRCodes   *data.QRCodeRepo
	Orders    *data.OrderRepo
	Analytics *data.AnalyticsRepo
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB) *serviceRepositories {
	return &serviceRepositories{
		Accounts:  data.NewAccountRepo(db),
		Profiles:  data.NewProfileRepo(db),
		QRCodes:   data.NewQRCodeRepo(db),
		Orders:    data.NewOrderRepo(db),
		Analytics: data.NewAnalyticsRepo(db),
	}
}

// NewServices wires business services over the database repositories.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps and config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	repos := buildRepositories(deps.DB)

	accounts, err := BuildAccountService(AuthDeps{
		Auth:        deps.Config.Auth,
		Accounts:    repos.Accounts,
		RedisClient: deps.RedisClient,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build account service: %w", err)
	}

	profiles, err := service.NewProfileService(service.ProfileServiceOptions{
		Profiles: repos.Profiles,
		Logger:   logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build profile service: %w", err)
	}

	analytics, err := service.NewAnalyticsService(service.AnalyticsServiceOptions{
		Events:  repos.Analytics,
		Forward: deps.Config.Analytics,
		Logger:  logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build analytics service: %w", err)
	}

	qrcodes, err := service.NewQRCodeService(service.QRCodeServiceOptions{
		QRCodes:       repos.QRCodes,
		Profiles:      repos.Profiles,
		Analytics:     repos.Analytics,
		PublicBaseURL: deps.Config.HTTP.BaseURL,
		Logger:        logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build qrcode service: %w", err)
	}

	orders, err := service.NewOrderService(service.OrderServiceOptions{
		Orders: repos.Orders,
		Logger: logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build order service: %w", err)
	}

	return ServiceContainer{
		Accounts:  accounts,
		Profiles:  profiles,
		QRCodes:   qrcodes,
		Orders:    orders,
		Analytics: analytics,
		IdP:       BuildIdentityProvider(deps.Config.Auth, logger),
	}, nil
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink *statsd.Client
	Notifier    notify.Sink
}

// BuildObservability configures metrics and notification adapters for the
// account lifecycle. The returned sinks are always safe to use; disabled
// concerns degrade to the structured log.
func BuildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  "taponn",
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	notifier := buildNotifier(obsLogger, cfg.Notifications)

	return ObservabilityContainer{
		MetricsSink: metricsSink,
		Notifier:    notifier,
	}
}

func buildNotifier(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) notify.Sink {
	logSink := notify.LogSink(logger)
	if !cfg.Enabled || !cfg.Slack.Enabled {
		return logSink
	}

	client, err := slack.NewClient(slack.Config{
		WebhookURL: cfg.Slack.WebhookURL,
		Channel:    cfg.Slack.Channel,
		Username:   cfg.Slack.Username,
		Timeout:    cfg.Timeout,
		RetryLimit: cfg.RetryLimit,
	})
	if err != nil {
		logger.Error("failed to initialise slack notifier", "error", err)
		return logSink
	}

	return notify.Multi(logSink, client)
}
