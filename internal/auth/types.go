package auth

import "time"

// Target identifies which client an authorization attempt hands its tokens back to.
type Target string

const (
	// TargetWeb redirects the browser to the web client origin.
	TargetWeb Target = "web"
	// TargetDesktop hands tokens to the desktop app through its custom URI scheme.
	TargetDesktop Target = "desktop"
)

// ParseTarget maps the authorize request's client parameter to a Target, defaulting to web.
func ParseTarget(s string) Target {
	if Target(s) == TargetDesktop {
		return TargetDesktop
	}
	return TargetWeb
}

// AuthState is one pending authorization attempt, keyed by its CSRF token.
type AuthState struct {
	Token    string
	IssuedAt time.Time
	Target   Target
}

// IssuedAtMillis returns the issue time in milliseconds since epoch.
func (s AuthState) IssuedAtMillis() int64 {
	return s.IssuedAt.UnixMilli()
}

// TokenBundle is the result of a successful code exchange.
// It is handed straight to the client and never stored server side.
type TokenBundle struct {
	UserAccessToken string // xoxp-..., empty when no user scope was granted
	BotAccessToken  string // xoxb-...
	TeamID          string
	UserID          string

	Scope     string
	UserScope string
	// ExpiresIn is the user token lifetime in seconds when token rotation is enabled.
	// nil means the token never expires.
	ExpiresIn *int
}

// IsPermanent reports whether the user token has no expiry.
func (b *TokenBundle) IsPermanent() bool {
	return b.ExpiresIn == nil
}

// ExpiresAt returns the expiry time relative to issued, or false for permanent tokens.
func (b *TokenBundle) ExpiresAt(issued time.Time) (time.Time, bool) {
	if b.ExpiresIn == nil {
		return time.Time{}, false
	}
	return issued.Add(time.Duration(*b.ExpiresIn) * time.Second), true
}

// HasToken reports whether at least one access token is present.
func (b *TokenBundle) HasToken() bool {
	return b.UserAccessToken != "" || b.BotAccessToken != ""
}
