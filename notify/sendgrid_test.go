package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewSendGridNotifier_Validation(t *testing.T) {
	if _, err := NewSendGridNotifier(SendGridConfig{From: "noreply@monopay.test"}); err == nil {
		t.Error("expected error without api key")
	}
	if _, err := NewSendGridNotifier(SendGridConfig{APIKey: "SG.key"}); err == nil {
		t.Error("expected error without sender")
	}
}

func TestSendGridNotifier_Send(t *testing.T) {
	var gotAuth, gotPath, gotMethod string
	var body map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotMethod = r.Method
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n, err := NewSendGridNotifier(SendGridConfig{APIKey: "SG.key", From: "noreply@monopay.test", Host: srv.URL})
	if err != nil {
		t.Fatalf("NewSendGridNotifier() error = %v", err)
	}

	if err := n.Send(context.Background(), PasswordResetMessage("ada@example.com", "4821")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/v3/mail/send" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
	if gotAuth != "Bearer SG.key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if body["subject"] != "Your password reset code" {
		t.Errorf("subject = %v", body["subject"])
	}
	from, _ := body["from"].(map[string]any)
	if from["email"] != "noreply@monopay.test" {
		t.Errorf("from = %v", body["from"])
	}
}

func TestSendGridNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	n, _ := NewSendGridNotifier(SendGridConfig{APIKey: "SG.bad", From: "noreply@monopay.test", Host: srv.URL})
	if err := n.Send(context.Background(), PasswordResetMessage("ada@example.com", "4821")); err == nil {
		t.Fatal("expected error on 401")
	}
}
