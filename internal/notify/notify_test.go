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

	"LeagueSettle/internal/config"
	"LeagueSettle/internal/interfaces"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestWebhookNotifier_Send(t *testing.T) {
	var (
		got     Message
		headers http.Header
		path    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		headers = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n, err := NewWebhookNotifier(&config.WebhookConfig{BaseURL: srv.URL + "/", AuthToken: "secret"}, quietLogger())
	if err != nil {
		t.Fatalf("NewWebhookNotifier: %v", err)
	}
	err = n.Send(context.Background(), 7, interfaces.NotifyHonorAward, "New honor", "You earned MVP.",
		map[string]interface{}{"match_id": 3})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if path != "/notifications" {
		t.Errorf("path = %s", path)
	}
	if headers.Get("Authorization") != "Bearer secret" {
		t.Errorf("authorization = %q", headers.Get("Authorization"))
	}
	if key := headers.Get("Idempotency-Key"); key == "" || key != got.ID {
		t.Errorf("idempotency key %q does not match message id %q", key, got.ID)
	}
	if got.UserID != 7 || got.Type != interfaces.NotifyHonorAward || got.Body != "You earned MVP." {
		t.Errorf("unexpected payload: %+v", got)
	}
	if fmt.Sprint(got.Data["match_id"]) != "3" {
		t.Errorf("data = %v", got.Data)
	}
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	n, err := NewWebhookNotifier(&config.WebhookConfig{BaseURL: srv.URL}, quietLogger())
	if err != nil {
		t.Fatalf("NewWebhookNotifier: %v", err)
	}
	err = n.Send(context.Background(), 1, interfaces.NotifyMatchResult, "t", "b", nil)
	if err == nil || !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("err = %v, want status 429 with body", err)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.NotifyConfig
		wantErr bool
		check   func(interfaces.Notifier) bool
	}{
		{"default is log", config.NotifyConfig{}, false, func(n interfaces.Notifier) bool { _, ok := n.(*LogNotifier); return ok }},
		{"webhook", config.NotifyConfig{Driver: "webhook", Webhook: config.WebhookConfig{BaseURL: "http://push"}}, false,
			func(n interfaces.Notifier) bool { _, ok := n.(*WebhookNotifier); return ok }},
		{"webhook without url", config.NotifyConfig{Driver: "webhook"}, true, nil},
		{"redis", config.NotifyConfig{Driver: "redis", Redis: config.RedisConfig{Addr: "127.0.0.1:6379", Channel: "c"}}, false,
			func(n interfaces.Notifier) bool { _, ok := n.(*RedisNotifier); return ok }},
		{"redis without addr", config.NotifyConfig{Driver: "redis"}, true, nil},
		{"unknown", config.NotifyConfig{Driver: "fax"}, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := New(&tt.cfg, quietLogger())
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if !tt.check(n) {
				t.Fatalf("unexpected notifier type %T", n)
			}
			if rn, ok := n.(*RedisNotifier); ok {
				_ = rn.Close()
			}
		})
	}
}

func TestLogNotifier(t *testing.T) {
	if err := NewLogNotifier(quietLogger()).Send(context.Background(), 1, interfaces.NotifyDuelResult, "t", "b", nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
}
