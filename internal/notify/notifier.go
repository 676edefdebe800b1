// Package notify delivers run summaries to the configured channels.
// Delivery failures are logged and swallowed: a notification must never
// change the outcome of a run.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Event summarizes a finished run for delivery.
type Event struct {
	Status         string
	SourcesChanged []string
	TotalItems     int
	ErrorSummary   string
}

// Notifier is the capability the orchestrator calls at the end of a run.
type Notifier interface {
	Send(ctx context.Context, ev Event)
}

// webhookTimeout bounds the webhook POST.
const webhookTimeout = 10 * time.Second

// Manager fans an event out to the enabled delivery methods.
type Manager struct {
	methods    []string
	webhookURL string
	client     *http.Client
	look       func(name string) (string, error)
	run        func(ctx context.Context, name string, args ...string) error
	log        zerolog.Logger
}

// New returns a Manager for the given methods ("desktop", "webhook").
func New(methods []string, webhookURL string, log zerolog.Logger) *Manager {
	return &Manager{
		methods:    methods,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: webhookTimeout},
		look:       exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
		log: log,
	}
}

// Send implements Notifier.
func (m *Manager) Send(ctx context.Context, ev Event) {
	title, body := format(ev)
	for _, method := range m.methods {
		switch method {
		case "desktop":
			m.sendDesktop(ctx, ev, title, body)
		case "webhook":
			m.sendWebhook(ctx, title, body)
		default:
			m.log.Warn().Str("method", method).Msg("unknown notification method")
		}
	}
}

// sendDesktop uses notify-send when present; silently skipped otherwise.
func (m *Manager) sendDesktop(ctx context.Context, ev Event, title, body string) {
	if _, err := m.look("notify-send"); err != nil {
		return
	}
	urgency := "normal"
	if ev.Status != "success" {
		urgency = "critical"
	}
	if err := m.run(ctx, "notify-send", "-u", urgency, title, body); err != nil {
		m.log.Error().Err(err).Msg("failed to send desktop notification")
	}
}

// sendWebhook posts a Discord/Slack-compatible JSON payload.
func (m *Manager) sendWebhook(ctx context.Context, title, body string) {
	if m.webhookURL == "" {
		return
	}

	payload, err := json.Marshal(map[string]string{
		"content": fmt.Sprintf("**%s**\n%s", title, body),
	})
	if err != nil {
		m.log.Error().Err(err).Msg("failed to marshal webhook payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.webhookURL, bytes.NewReader(payload))
	if err != nil {
		m.log.Error().Err(err).Msg("failed to build webhook request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		m.log.Error().Err(err).Msg("failed to send webhook notification")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		m.log.Error().Int("status", resp.StatusCode).Msg("webhook rejected notification")
	}
}

// format renders an event as a title and body.
func format(ev Event) (string, string) {
	title := "System update complete"
	if ev.Status != "success" {
		title = fmt.Sprintf("System update %s", ev.Status)
	}

	var b strings.Builder
	if len(ev.SourcesChanged) > 0 {
		fmt.Fprintf(&b, "Updated %d item(s) via %s", ev.TotalItems, strings.Join(ev.SourcesChanged, ", "))
	} else {
		b.WriteString("No updates applied")
	}
	if ev.ErrorSummary != "" {
		fmt.Fprintf(&b, "\nErrors: %s", ev.ErrorSummary)
	}
	return title, b.String()
}
