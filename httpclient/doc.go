// Package httpclient is the HTTP transport shared by the REST-based AI
// backends. It handles base URLs, authentication, JSON and multipart bodies,
// rate limiting and retries, and classifies failures by status code.
//
// The rest subpackage adds generic JSON helpers on top of Client.
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.Config{
//	    Name:    "gemini",
//	    BaseURL: "https://generativelanguage.googleapis.com/v1beta",
//	    Auth:    httpclient.APIKeyAuthHeader(key, "x-goog-api-key"),
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/models/gemini-1.5-flash:generateContent",
//	    Body:   payload,
//	})
//
// Errors returned by Do are *Error values; [ToAppError] maps them onto the
// shared error taxonomy so callers can decide whether to fall back.
package httpclient
