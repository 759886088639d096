package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTokenMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		target string
		header string
		want   string
	}{
		{"bearer header", "/auth/channels", "Bearer xoxp-header", "xoxp-header"},
		{"lowercase scheme", "/auth/channels", "bearer xoxp-header", "xoxp-header"},
		{"query param", "/auth/channels?token=xoxp-query", "", "xoxp-query"},
		{"header wins", "/auth/channels?token=xoxp-query", "Bearer xoxp-header", "xoxp-header"},
		{"basic auth ignored", "/auth/channels?token=xoxp-query", "Basic Zm9vOmJhcg==", "xoxp-query"},
		{"none", "/auth/channels", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			var gotErr error
			h := TokenMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, gotErr = SlackTokenFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
			if tt.want == "" && !errors.Is(gotErr, ErrNoTokenInContext) {
				t.Errorf("err = %v, want ErrNoTokenInContext", gotErr)
			}
		})
	}
}
