package httpclient

import "net/http"

// AuthConfig puts one credential header on every request. A nil config or
// an empty Secret sends nothing.
type AuthConfig struct {
	// Header is the header name. Empty means Authorization.
	Header string
	// Scheme prefixes Secret, e.g. "Bearer". Empty sends the bare secret.
	Scheme string
	// Secret is the token or API key.
	Secret string
}

// BearerAuth sends "Authorization: Bearer <token>".
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Scheme: "Bearer", Secret: token}
}

// APIKeyAuthHeader sends key unprefixed under header.
func APIKeyAuthHeader(key, header string) *AuthConfig {
	return &AuthConfig{Header: header, Secret: key}
}

// String describes the credential without revealing it.
func (a *AuthConfig) String() string {
	if a == nil || a.Secret == "" {
		return "none"
	}
	s := a.headerName() + ": "
	if a.Scheme != "" {
		s += a.Scheme + " "
	}
	return s + "[redacted]"
}

func (a *AuthConfig) headerName() string {
	if a.Header == "" {
		return "Authorization"
	}
	return a.Header
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil || a.Secret == "" {
		return
	}
	value := a.Secret
	if a.Scheme != "" {
		value = a.Scheme + " " + a.Secret
	}
	req.Header.Set(a.headerName(), value)
}
