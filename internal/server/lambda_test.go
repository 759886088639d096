package server

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

func TestLambdaHandlerTranslatesRequest(t *testing.T) {
	var got *http.Request
	var gotBody string
	h := NewLambdaHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Add("Set-Cookie", "a=1")
		w.Header().Add("Set-Cookie", "b=2")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"ok":true}`)
	}), slog.New(slog.NewTextHandler(io.Discard, nil)))

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodPost,
		Path:                  "/auth/post-message",
		QueryStringParameters: map[string]string{"token": "xoxp-1"},
		Headers:               map[string]string{"Authorization": "Bearer xoxp-2", "Host": "api.example.com"},
		Body:                  base64.StdEncoding.EncodeToString([]byte(`{"channelId":"C1"}`)),
		IsBase64Encoded:       true,
		RequestContext:        events.APIGatewayProxyRequestContext{RequestID: "req-123"},
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if got.Method != http.MethodPost || got.URL.Path != "/auth/post-message" || got.URL.Query().Get("token") != "xoxp-1" {
		t.Errorf("request = %s %s", got.Method, got.URL)
	}
	if got.Header.Get("Authorization") != "Bearer xoxp-2" || got.Host != "api.example.com" {
		t.Errorf("headers = %v host = %q", got.Header, got.Host)
	}
	if got.Header.Get("X-Request-ID") != "req-123" {
		t.Errorf("request id = %q", got.Header.Get("X-Request-ID"))
	}
	if gotBody != `{"channelId":"C1"}` {
		t.Errorf("body = %q", gotBody)
	}

	if resp.StatusCode != http.StatusCreated || resp.Body != `{"ok":true}` || resp.IsBase64Encoded {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.MultiValueHeaders["Set-Cookie"]) != 2 {
		t.Errorf("multi value headers = %v", resp.MultiValueHeaders)
	}
}

func TestLambdaHandlerRedirect(t *testing.T) {
	h := NewLambdaHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://localhost:5173?auth=success&token=abc", http.StatusFound)
	}), slog.New(slog.NewTextHandler(io.Discard, nil)))

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/auth/slack/callback"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusFound || !strings.HasPrefix(resp.Headers["Location"], "http://localhost:5173?auth=success") {
		t.Errorf("response = %d %v", resp.StatusCode, resp.Headers)
	}
}

func TestLambdaHandlerBadBody(t *testing.T) {
	h := NewLambdaHandler(http.NotFoundHandler(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	resp, _ := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/",
		Body:            "%%%not-base64",
		IsBase64Encoded: true,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
