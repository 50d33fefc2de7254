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

	"github.com/sells-group/invest-sim/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertEndpointErrorRate AlertType = "endpoint_error_rate"
	AlertEndpointLatency   AlertType = "endpoint_latency"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Endpoint  string         `json:"endpoint"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a Snapshot against configured thresholds and sends
// alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks each endpoint with enough traffic against the error rate
// and average latency thresholds. A zero threshold disables its check.
func (a *Alerter) Evaluate(snap *Snapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	for _, ep := range snap.Endpoints {
		if ep.Requests == 0 || ep.Requests < a.cfg.MinRequests {
			continue
		}

		rate := float64(ep.Errors) / float64(ep.Requests)
		if a.cfg.ErrorRateThreshold > 0 && rate > a.cfg.ErrorRateThreshold {
			alerts = append(alerts, Alert{
				Type:     AlertEndpointErrorRate,
				Severity: "high",
				Endpoint: ep.Endpoint,
				Message: fmt.Sprintf(
					"%s error rate %.1f%% exceeds threshold %.1f%% (%d errors / %d requests in last %dd)",
					ep.Endpoint, rate*100, a.cfg.ErrorRateThreshold*100,
					ep.Errors, ep.Requests, snap.LookbackDays,
				),
				Details: map[string]any{
					"error_rate": rate,
					"threshold":  a.cfg.ErrorRateThreshold,
					"errors":     ep.Errors,
					"requests":   ep.Requests,
				},
				Timestamp: now,
			})
		}

		avg := ep.AvgDuration()
		if a.cfg.LatencyThresholdMs > 0 && avg > a.cfg.LatencyThresholdMs {
			alerts = append(alerts, Alert{
				Type:     AlertEndpointLatency,
				Severity: "medium",
				Endpoint: ep.Endpoint,
				Message: fmt.Sprintf(
					"%s average latency %.1fms exceeds threshold %.1fms over %d requests",
					ep.Endpoint, avg, a.cfg.LatencyThresholdMs, ep.Requests,
				),
				Details: map[string]any{
					"avg_duration_ms": avg,
					"threshold_ms":    a.cfg.LatencyThresholdMs,
					"requests":        ep.Requests,
				},
				Timestamp: now,
			})
		}
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.String("endpoint", alert.Endpoint),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("endpoint", alert.Endpoint),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
