package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/messmaestro/maestro/internal/config"
)

func TestPostMessage(t *testing.T) {
	var gotAuth string
	var gotBody messagePayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(config.NotifyConfig{WebhookURL: srv.URL, Token: "secret"})
	if err := client.PostMessage(context.Background(), "Procurement list ready"); err != nil {
		t.Fatalf("PostMessage failed: %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer token, got %q", gotAuth)
	}
	if gotBody.Text != "Procurement list ready" {
		t.Errorf("unexpected body %+v", gotBody)
	}
}

func TestPostMessageRejectedByServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "channel archived", http.StatusGone)
	}))
	defer srv.Close()

	client := NewClient(config.NotifyConfig{WebhookURL: srv.URL})
	err := client.PostMessage(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "410") {
		t.Errorf("expected status code in error, got %v", err)
	}
}
