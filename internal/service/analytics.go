package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/taponn/taponn-api/config"
	"github.com/taponn/taponn-api/internal/core"
	"github.com/taponn/taponn-api/internal/domain/model"
)

// defaultSummaryWindow bounds the stats query when no window is given.
const defaultSummaryWindow = 30 * 24 * time.Hour

// JMESPathEvaluator abstracts JMESPath operations for testability.
type JMESPathEvaluator interface {
	Validate(expr string) error
	Evaluate(expr string, data any) (any, error)
}

// jmespathLibEvaluator implements JMESPathEvaluator using go-jmespath.
type jmespathLibEvaluator struct{}

func (j jmespathLibEvaluator) Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := jmespath.Compile(expr)
	return err
}

func (j jmespathLibEvaluator) Evaluate(expr string, data any) (any, error) {
	return jmespath.Search(expr, data)
}

// HTTPDoer is the subset of http.Client the forwarder needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// AnalyticsSummary aggregates a user's engagement over a window.
type AnalyticsSummary struct {
	Since       time.Time               `json:"since"`
	TotalEvents int64                   `json:"total_events"`
	ByType      map[string]int64        `json:"by_type"`
	Recent      []*model.AnalyticsEvent `json:"recent"`
}

// AnalyticsServiceOptions groups dependencies for AnalyticsService.
type AnalyticsServiceOptions struct {
	Events    core.AnalyticsRepository // Required
	Forward   config.AnalyticsConfig
	Client    HTTPDoer
	Evaluator JMESPathEvaluator
	Logger    *slog.Logger
}

// AnalyticsService records engagement events and optionally forwards them
// to an external tracking webhook, shaped by a JMESPath expression.
type AnalyticsService struct {
	events  core.AnalyticsRepository
	forward config.AnalyticsConfig
	client  HTTPDoer
	jems    JMESPathEvaluator
	logger  *slog.Logger
}

// NewAnalyticsService constructs a new AnalyticsService. An invalid
// forwarding expression is rejected at startup rather than per event.
func NewAnalyticsService(opts AnalyticsServiceOptions) (*AnalyticsService, error) {
	if opts.Events == nil {
		return nil, errors.New("AnalyticsRepository is required")
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Forward.Timeout}
	}
	if opts.Evaluator == nil {
		opts.Evaluator = jmespathLibEvaluator{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Forward.Enabled {
		if err := opts.Evaluator.Validate(opts.Forward.Extract); err != nil {
			return nil, fmt.Errorf("invalid analytics extract expression: %w", err)
		}
	}
	return &AnalyticsService{
		events:  opts.Events,
		forward: opts.Forward,
		client:  opts.Client,
		jems:    opts.Evaluator,
		logger:  opts.Logger.With("component", "analytics_service"),
	}, nil
}

// Record stores an engagement event. Forwarding is best-effort: the event
// is durable once the local write succeeds, webhook failures are logged.
func (s *AnalyticsService) Record(ctx context.Context, req *model.RecordEventRequest) (*model.AnalyticsEvent, error) {
	if req == nil {
		return nil, errors.New("record event request is required")
	}
	event, err := s.events.Record(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.forward.Enabled {
		if fwdErr := s.forwardEvent(ctx, event); fwdErr != nil {
			s.logger.WarnContext(ctx, "forward analytics event",
				"event_id", event.ID, "error", fwdErr)
		}
	}
	return event, nil
}

// Summary aggregates a user's events since the given time. A zero since
// defaults to the last 30 days.
func (s *AnalyticsService) Summary(ctx context.Context, userID string, since time.Time, limit int) (*AnalyticsSummary, error) {
	if since.IsZero() {
		since = time.Now().Add(-defaultSummaryWindow)
	}
	counts, err := s.events.CountByType(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	recent, err := s.events.ListByUser(ctx, userID, since, limit)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	return &AnalyticsSummary{
		Since:       since,
		TotalEvents: total,
		ByType:      counts,
		Recent:      recent,
	}, nil
}

// forwardEvent posts the (optionally extracted) event to the webhook,
// retrying transport and 5xx failures up to the configured limit.
func (s *AnalyticsService) forwardEvent(ctx context.Context, event *model.AnalyticsEvent) error {
	body, err := s.buildForwardBody(event)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= s.forward.RetryLimit; attempt++ {
		lastErr = s.postOnce(ctx, body)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

func (s *AnalyticsService) buildForwardBody(event *model.AnalyticsEvent) ([]byte, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	if strings.TrimSpace(s.forward.Extract) == "" {
		return raw, nil
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	res, err := s.jems.Evaluate(s.forward.Extract, data)
	if err != nil {
		return nil, fmt.Errorf("evaluate extract expression: %w", err)
	}
	body, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal extracted payload: %w", err)
	}
	return body, nil
}

func (s *AnalyticsService) postOnce(ctx context.Context, body []byte) error {
	reqCtx, cancel := context.WithTimeout(ctx, s.forward.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, s.forward.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
