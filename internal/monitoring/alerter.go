package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/forest-carbon/internal/config"
	"github.com/sells-group/forest-carbon/internal/resilience"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertRunFailureRate    AlertType = "run_failure_rate"
	AlertStuckRuns         AlertType = "stuck_runs"
	AlertCredentialFailure AlertType = "credential_failure"
)

// minFinishedForRate is the number of finished runs needed before the
// failure rate is considered meaningful.
const minFinishedForRate = 5

// Alert is one webhook payload.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Source    string         `json:"source"`
	Timestamp time.Time      `json:"timestamp"`
}

// rule inspects a snapshot and reports whether its alert fires.
type rule func(cfg config.MonitoringConfig, snap *MetricsSnapshot) (Alert, bool)

var rules = []rule{failureRateRule, stuckRunsRule, credentialRule}

func failureRateRule(cfg config.MonitoringConfig, snap *MetricsSnapshot) (Alert, bool) {
	finished := snap.RunsComplete + snap.RunsFailed
	if finished < minFinishedForRate || snap.FailRate <= cfg.FailureRateThreshold {
		return Alert{}, false
	}
	return Alert{
		Type:     AlertRunFailureRate,
		Severity: "high",
		Message: fmt.Sprintf(
			"Estimation failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d finished in last %dh)",
			snap.FailRate*100, cfg.FailureRateThreshold*100,
			snap.RunsFailed, finished, snap.LookbackHours,
		),
		Details: map[string]any{
			"failure_rate": snap.FailRate,
			"threshold":    cfg.FailureRateThreshold,
			"failed":       snap.RunsFailed,
			"finished":     finished,
		},
	}, true
}

func stuckRunsRule(cfg config.MonitoringConfig, snap *MetricsSnapshot) (Alert, bool) {
	if len(snap.StuckRuns) == 0 {
		return Alert{}, false
	}
	return Alert{
		Type:     AlertStuckRuns,
		Severity: "medium",
		Message: fmt.Sprintf("%d run(s) queued or running for more than %d minutes",
			len(snap.StuckRuns), cfg.StuckRunMinutes),
		Details: map[string]any{
			"run_ids": snap.StuckRuns,
			"active":  snap.RunsActive,
		},
	}, true
}

func credentialRule(_ config.MonitoringConfig, snap *MetricsSnapshot) (Alert, bool) {
	if snap.AuthFailures == 0 {
		return Alert{}, false
	}
	return Alert{
		Type:     AlertCredentialFailure,
		Severity: "high",
		Message: fmt.Sprintf("%d run(s) failed to authenticate with the compute engine in last %dh",
			snap.AuthFailures, snap.LookbackHours),
		Details: map[string]any{"auth_failures": snap.AuthFailures},
	}, true
}

// Alerter turns snapshots into alerts and delivers them to a webhook.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
	retry  resilience.RetryConfig
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Second,
			MaxBackoff:     5 * time.Second,
			OnRetry:        resilience.RetryLogger("webhook", "send_alert"),
		},
	}
}

// Evaluate applies every rule to the snapshot, in a fixed order.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()
	for _, r := range rules {
		if alert, ok := r(a.cfg, snap); ok {
			alert.Source = "carbon-cli"
			alert.Timestamp = now
			alerts = append(alerts, alert)
		}
	}
	return alerts
}

// SendAlerts posts each alert to the webhook, retrying transient failures,
// and returns how many were accepted.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		err := resilience.Do(ctx, a.retry, func(ctx context.Context) error {
			return a.post(ctx, alert)
		})
		if err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

func (a *Alerter) post(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return resilience.Permanent(eris.Wrap(err, "monitoring: marshal alert"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return resilience.Permanent(eris.Wrap(err, "monitoring: create webhook request"))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		err := eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return resilience.Permanent(err)
	}
	return nil
}
