package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taponn/taponn-api/config"
	"github.com/taponn/taponn-api/internal/domain/model"
)

func recordingRepo(out **model.AnalyticsEvent) *fakeAnalyticsRepo {
	return &fakeAnalyticsRepo{
		record: func(_ context.Context, req *model.RecordEventRequest) (*model.AnalyticsEvent, error) {
			ev := &model.AnalyticsEvent{
				ID:            "e1",
				UserID:        req.UserID,
				EventType:     req.EventType,
				EventCategory: "engagement",
				EventAction:   req.EventAction,
				Metadata:      req.Metadata,
			}
			if out != nil {
				*out = ev
			}
			return ev, nil
		},
	}
}

func TestAnalyticsServiceRecordWithoutForwarding(t *testing.T) {
	svc, err := NewAnalyticsService(AnalyticsServiceOptions{Events: recordingRepo(nil)})
	require.NoError(t, err)

	event, err := svc.Record(context.Background(), &model.RecordEventRequest{
		UserID: "u1", EventType: "profile_view", EventAction: "view",
	})
	require.NoError(t, err)
	assert.Equal(t, "e1", event.ID)
}

func TestAnalyticsServiceForwardsWholeEvent(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc, err := NewAnalyticsService(AnalyticsServiceOptions{
		Events: recordingRepo(nil),
		Forward: config.AnalyticsConfig{
			Enabled: true, WebhookURL: srv.URL, Timeout: time.Second,
		},
	})
	require.NoError(t, err)

	_, err = svc.Record(context.Background(), &model.RecordEventRequest{
		UserID: "u1", EventType: "qr_scan", EventAction: "scan",
	})
	require.NoError(t, err)

	var forwarded map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &forwarded))
	assert.Equal(t, "qr_scan", forwarded["event_type"])
	assert.Equal(t, "u1", forwarded["user_id"])
}

func TestAnalyticsServiceForwardsExtractedPayload(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc, err := NewAnalyticsService(AnalyticsServiceOptions{
		Events: recordingRepo(nil),
		Forward: config.AnalyticsConfig{
			Enabled:    true,
			WebhookURL: srv.URL,
			Extract:    `{type: event_type, user: user_id}`,
			Timeout:    time.Second,
		},
	})
	require.NoError(t, err)

	_, err = svc.Record(context.Background(), &model.RecordEventRequest{
		UserID: "u1", EventType: "qr_scan", EventAction: "scan",
	})
	require.NoError(t, err)

	var forwarded map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &forwarded))
	assert.Equal(t, map[string]any{"type": "qr_scan", "user": "u1"}, forwarded)
}

func TestAnalyticsServiceRetriesWebhookFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc, err := NewAnalyticsService(AnalyticsServiceOptions{
		Events: recordingRepo(nil),
		Forward: config.AnalyticsConfig{
			Enabled: true, WebhookURL: srv.URL, Timeout: time.Second, RetryLimit: 2,
		},
	})
	require.NoError(t, err)

	_, err = svc.Record(context.Background(), &model.RecordEventRequest{
		UserID: "u1", EventType: "qr_scan", EventAction: "scan",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestAnalyticsServiceWebhookFailureDoesNotLoseEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc, err := NewAnalyticsService(AnalyticsServiceOptions{
		Events: recordingRepo(nil),
		Forward: config.AnalyticsConfig{
			Enabled: true, WebhookURL: srv.URL, Timeout: time.Second,
		},
	})
	require.NoError(t, err)

	event, err := svc.Record(context.Background(), &model.RecordEventRequest{
		UserID: "u1", EventType: "qr_scan", EventAction: "scan",
	})
	require.NoError(t, err, "the local write wins; forwarding is best-effort")
	assert.Equal(t, "e1", event.ID)
}

func TestAnalyticsServiceRejectsBadExtractAtStartup(t *testing.T) {
	_, err := NewAnalyticsService(AnalyticsServiceOptions{
		Events: recordingRepo(nil),
		Forward: config.AnalyticsConfig{
			Enabled: true, WebhookURL: "http://example.com", Extract: "not[a[valid",
		},
	})
	require.Error(t, err)
}

func TestAnalyticsServiceSummary(t *testing.T) {
	since := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	events := &fakeAnalyticsRepo{
		countByType: func(_ context.Context, userID string, gotSince time.Time) (map[string]int64, error) {
			assert.Equal(t, "u1", userID)
			assert.Equal(t, since, gotSince)
			return map[string]int64{"qr_scan": 5, "profile_view": 2}, nil
		},
		listByUser: func(_ context.Context, _ string, _ time.Time, limit int) ([]*model.AnalyticsEvent, error) {
			assert.Equal(t, 10, limit)
			return []*model.AnalyticsEvent{{ID: "e1"}}, nil
		},
	}
	svc, err := NewAnalyticsService(AnalyticsServiceOptions{Events: events})
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background(), "u1", since, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(7), summary.TotalEvents)
	assert.Equal(t, int64(5), summary.ByType["qr_scan"])
	assert.Len(t, summary.Recent, 1)
}
