package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/forest-carbon/internal/config"
)

func TestAlerter_Evaluate_NoAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.5})

	alerts := a.Evaluate(&MetricsSnapshot{
		RunsTotal:     10,
		RunsComplete:  8,
		RunsFailed:    2,
		FailRate:      0.2,
		LookbackHours: 24,
	})
	assert.Empty(t, alerts)
}

func TestAlerter_Evaluate(t *testing.T) {
	tests := []struct {
		name     string
		snap     MetricsSnapshot
		want     []AlertType
		contains string
	}{
		{
			name:     "failure rate",
			snap:     MetricsSnapshot{RunsComplete: 2, RunsFailed: 4, FailRate: 4.0 / 6.0, LookbackHours: 24},
			want:     []AlertType{AlertRunFailureRate},
			contains: "66.7%",
		},
		{
			name: "failure rate below minimum sample",
			snap: MetricsSnapshot{RunsComplete: 1, RunsFailed: 3, FailRate: 0.75, LookbackHours: 24},
		},
		{
			name:     "stuck runs",
			snap:     MetricsSnapshot{RunsActive: 3, StuckRuns: []string{"a", "b"}, LookbackHours: 24},
			want:     []AlertType{AlertStuckRuns},
			contains: "2 run(s) queued or running for more than 30 minutes",
		},
		{
			name:     "credential failure",
			snap:     MetricsSnapshot{RunsFailed: 1, AuthFailures: 1, FailRate: 1, LookbackHours: 6},
			want:     []AlertType{AlertCredentialFailure},
			contains: "in last 6h",
		},
		{
			name: "everything at once",
			snap: MetricsSnapshot{
				RunsComplete: 0, RunsFailed: 6, FailRate: 1, AuthFailures: 6,
				StuckRuns: []string{"x"}, LookbackHours: 24,
			},
			want: []AlertType{AlertRunFailureRate, AlertStuckRuns, AlertCredentialFailure},
		},
	}

	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.5, StuckRunMinutes: 30})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := tt.snap
			alerts := a.Evaluate(&snap)

			var got []AlertType
			for _, al := range alerts {
				got = append(got, al.Type)
				assert.False(t, al.Timestamp.IsZero())
				assert.Equal(t, "carbon-cli", al.Source)
			}
			assert.Equal(t, tt.want, got)
			if tt.contains != "" {
				require.NotEmpty(t, alerts)
				assert.Contains(t, alerts[0].Message, tt.contains)
			}
		})
	}
}

func TestAlerter_SendAlerts(t *testing.T) {
	var received []Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var al Alert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&al))
		received = append(received, al)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	sent := a.SendAlerts(context.Background(), []Alert{
		{Type: AlertStuckRuns, Severity: "medium", Message: "stuck"},
		{Type: AlertCredentialFailure, Severity: "high", Message: "auth"},
	})

	assert.Equal(t, 2, sent)
	require.Len(t, received, 2)
	assert.Equal(t, AlertStuckRuns, received[0].Type)
	assert.Equal(t, "auth", received[1].Message)
}

func TestAlerter_SendAlerts_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	a.retry.InitialBackoff = time.Millisecond
	sent := a.SendAlerts(context.Background(), []Alert{
		{Type: AlertRunFailureRate},
		{Type: AlertStuckRuns},
	})
	assert.Equal(t, 2, sent)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAlerter_SendAlerts_PermanentStatusNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	a.retry.InitialBackoff = time.Millisecond
	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertCredentialFailure}})
	assert.Zero(t, sent)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAlerter_SendAlerts_NoWebhook(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})
	assert.Zero(t, a.SendAlerts(context.Background(), []Alert{{Type: AlertStuckRuns}}))

	a = NewAlerter(config.MonitoringConfig{WebhookURL: "http://127.0.0.1:1"})
	assert.Zero(t, a.SendAlerts(context.Background(), nil))
}
