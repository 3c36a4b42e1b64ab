package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/resilience"
)

func TestClient_Do_JSONWithAuthAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		if r.URL.Query().Get("alt") != "json" {
			t.Errorf("expected query param")
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(body["msg"]))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL + "/v1/", Auth: BearerAuth("tok")})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/chat",
		Query:  map[string]string{"alt": "json"},
		Body:   map[string]string{"msg": "hola"},
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !resp.IsSuccess() || string(resp.Body) != "hola" {
		t.Errorf("unexpected response %d %q", resp.StatusCode, resp.Body)
	}
}

func TestClient_Do_Multipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if r.FormValue("model") != "small" {
			t.Errorf("expected model field, got %q", r.FormValue("model"))
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "audio.wav" || string(data) != "RIFF" {
			t.Errorf("unexpected file %q %q", hdr.Filename, data)
		}
		if hdr.Header.Get("Content-Type") != "audio/wav" {
			t.Errorf("unexpected part content type %q", hdr.Header.Get("Content-Type"))
		}
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, Headers: map[string]string{"Content-Type": "application/json"}})
	_, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/transcribe",
		Body: &MultipartBody{
			Fields: map[string]string{"model": "small"},
			Files:  []FileField{{FieldName: "file", FileName: "audio.wav", ContentType: "audio/wav", Data: []byte("RIFF")}},
		},
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
}

func TestClient_Do_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	retry := DefaultRetryConfig()
	retry.InitialBackoff = time.Millisecond
	retry.Jitter = 0
	c, _ := New(Config{BaseURL: srv.URL, Retry: retry})

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
	if err != nil || string(resp.Body) != "ok" {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestClient_Do_DoesNotRetryAuthErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer srv.Close()

	retry := DefaultRetryConfig()
	retry.InitialBackoff = time.Millisecond
	c, _ := New(Config{BaseURL: srv.URL, Retry: retry})

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
	if !IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single call, got %d", calls.Load())
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("expected body preview in message, got %q", err.Error())
	}
}

func TestClient_Do_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
	if !goerrors.HasCode(ToAppError("svc", err), goerrors.ErrCodeTimeout) {
		t.Errorf("expected TIMEOUT, got %v", err)
	}
}

func TestClient_Do_RateLimiter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, RateLimiter: &resilience.RateLimiterConfig{Rate: 0.001, Burst: 1}})
	ctx := context.Background()
	if _, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/"}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/"})
	if !goerrors.HasCode(ToAppError("svc", err), goerrors.ErrCodeRateLimited) {
		t.Errorf("expected RATE_LIMITED, got %v", err)
	}
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		status int
		want   goerrors.ErrorCode
	}{
		{http.StatusTooManyRequests, goerrors.ErrCodeRateLimited},
		{http.StatusInternalServerError, goerrors.ErrCodeExternalService},
		{http.StatusServiceUnavailable, goerrors.ErrCodeExternalService},
		{http.StatusRequestTimeout, goerrors.ErrCodeTimeout},
		{http.StatusUnauthorized, goerrors.ErrCodeUnauthorized},
		{http.StatusForbidden, goerrors.ErrCodeForbidden},
		{http.StatusNotFound, goerrors.ErrCodeNotFound},
		{http.StatusBadRequest, goerrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := ToAppError("gemini", ClassifyStatusCode(tt.status, []byte("x")))
			if code := goerrors.CodeOf(err); code != tt.want {
				t.Errorf("code = %s, want %s", code, tt.want)
			}
		})
	}

	plain := io.EOF
	if ToAppError("gemini", plain) != plain {
		t.Error("expected non-HTTP errors to pass through")
	}
	if ClassifyStatusCode(http.StatusOK, nil) != nil {
		t.Error("expected nil for 2xx")
	}
}

func TestMultipartBody_StreamsPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/talk \"1\".wav"
	if err := os.WriteFile(path, []byte("RIFFdata"), 0o600); err != nil {
		t.Fatal(err)
	}

	body := &MultipartBody{
		Fields: map[string]string{"b": "2", "a": "1"},
		Files:  []FileField{{FieldName: "audio", Path: path}},
	}
	r, contentType, err := body.encode()
	if err != nil {
		t.Fatalf("encode() error = %v", err)
	}
	raw, _ := io.ReadAll(r)
	s := string(raw)

	if !strings.HasPrefix(contentType, "multipart/form-data; boundary=") {
		t.Errorf("content type = %q", contentType)
	}
	if strings.Index(s, `name="a"`) > strings.Index(s, `name="b"`) {
		t.Error("fields not written in name order")
	}
	if !strings.Contains(s, `filename="talk \"1\".wav"`) {
		t.Errorf("file name not escaped:\n%s", s)
	}
	if !strings.Contains(s, "application/octet-stream") || !strings.Contains(s, "RIFFdata") {
		t.Errorf("file part missing:\n%s", s)
	}

	body.Files[0].Path = dir + "/missing.wav"
	if _, _, err := body.encode(); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestAuthConfig(t *testing.T) {
	tests := []struct {
		name       string
		auth       *AuthConfig
		header     string
		wantValue  string
		wantString string
	}{
		{"bearer", BearerAuth("tok"), "Authorization", "Bearer tok", "Authorization: Bearer [redacted]"},
		{"api key", APIKeyAuthHeader("k", "x-goog-api-key"), "x-goog-api-key", "k", "x-goog-api-key: [redacted]"},
		{"empty secret", BearerAuth(""), "Authorization", "", "none"},
		{"nil", nil, "Authorization", "", "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.auth.apply(req)
			if got := req.Header.Get(tt.header); got != tt.wantValue {
				t.Errorf("%s = %q, want %q", tt.header, got, tt.wantValue)
			}
			if got := tt.auth.String(); got != tt.wantString {
				t.Errorf("String() = %q, want %q", got, tt.wantString)
			}
		})
	}
}
