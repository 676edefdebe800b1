package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSendDesktop(t *testing.T) {
	var got []string
	m := New([]string{"desktop"}, "", zerolog.Nop())
	m.look = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	m.run = func(ctx context.Context, name string, args ...string) error {
		got = append([]string{name}, args...)
		return nil
	}

	m.Send(context.Background(), Event{
		Status:         "success",
		SourcesChanged: []string{"pacman", "flatpak"},
		TotalItems:     7,
	})

	if len(got) == 0 || got[0] != "notify-send" {
		t.Fatalf("notify-send not invoked: %v", got)
	}
	joined := strings.Join(got, " ")
	if !strings.Contains(joined, "-u normal") {
		t.Errorf("success should use normal urgency: %v", got)
	}
	if !strings.Contains(joined, "System update complete") {
		t.Errorf("missing title: %v", got)
	}
	if !strings.Contains(joined, "7 item(s)") {
		t.Errorf("missing item count: %v", got)
	}
}

func TestSendDesktop_FailureIsCritical(t *testing.T) {
	var got []string
	m := New([]string{"desktop"}, "", zerolog.Nop())
	m.look = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	m.run = func(ctx context.Context, name string, args ...string) error {
		got = append([]string{name}, args...)
		return nil
	}

	m.Send(context.Background(), Event{Status: "partial", ErrorSummary: "pacman: boom"})

	if !strings.Contains(strings.Join(got, " "), "-u critical") {
		t.Errorf("non-success should use critical urgency: %v", got)
	}
}

func TestSendDesktop_SkippedWithoutNotifySend(t *testing.T) {
	ran := false
	m := New([]string{"desktop"}, "", zerolog.Nop())
	m.look = func(name string) (string, error) { return "", fmt.Errorf("not found") }
	m.run = func(ctx context.Context, name string, args ...string) error {
		ran = true
		return nil
	}

	m.Send(context.Background(), Event{Status: "success"})
	if ran {
		t.Error("desktop delivery must be skipped when notify-send is missing")
	}
}

func TestSendWebhook(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &body); err != nil {
			t.Errorf("payload is not JSON: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	m := New([]string{"webhook"}, srv.URL, zerolog.Nop())
	m.Send(context.Background(), Event{
		Status:         "partial",
		SourcesChanged: []string{"pacman"},
		TotalItems:     3,
		ErrorSummary:   "aur: build failed",
	})

	content, ok := body["content"]
	if !ok {
		t.Fatalf("payload missing content field: %v", body)
	}
	if !strings.HasPrefix(content, "**System update partial**\n") {
		t.Errorf("content = %q, want bold title first", content)
	}
	if !strings.Contains(content, "aur: build failed") {
		t.Errorf("content = %q, want error summary", content)
	}
}

func TestSendWebhook_NoURLIsNoOp(t *testing.T) {
	m := New([]string{"webhook"}, "", zerolog.Nop())
	// Must not panic or attempt delivery.
	m.Send(context.Background(), Event{Status: "success"})
}

func TestSend_DeliveryFailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := New([]string{"webhook", "desktop"}, srv.URL, zerolog.Nop())
	m.look = func(name string) (string, error) { return "", fmt.Errorf("not found") }

	// Send never returns an error; a rejected webhook must not panic.
	m.Send(context.Background(), Event{Status: "failed"})
}

func TestFormat_NoChanges(t *testing.T) {
	title, body := format(Event{Status: "success"})
	if title != "System update complete" {
		t.Errorf("title = %q", title)
	}
	if body != "No updates applied" {
		t.Errorf("body = %q", body)
	}
}
