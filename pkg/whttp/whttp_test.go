package whttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestSendHTTPRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "custom" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	res, err := SendHTTPRequest(context.Background(), &WHTTPReq{
		URL:     srv.URL,
		Headers: []WHTTPHeader{{Name: "User-Agent", Value: "custom"}},
	}, client)
	if err != nil {
		t.Fatalf("SendHTTPRequest: %v", err)
	}
	if res.StatusCode != http.StatusTeapot || res.BodyString != `{"ok":true}` {
		t.Fatalf("unexpected response: %+v", res)
	}
}

func TestSendHTTPRequestNoRetryByDefault(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, _ := NewClient(ClientConfig{})
	if _, err := SendHTTPRequest(context.Background(), &WHTTPReq{URL: srv.URL}, client); err == nil {
		t.Fatal("expected error for 503 once retries are exhausted")
	}
	if hits.Load() != 1 {
		t.Fatalf("expected exactly one attempt, got %d", hits.Load())
	}
}

func TestSendHTTPRequestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := SendHTTPRequest(context.Background(), &WHTTPReq{URL: url}, nil); err == nil {
		t.Fatal("expected error from a closed server")
	}
}

func TestNewClientRejectsBadProxy(t *testing.T) {
	if _, err := NewClient(ClientConfig{Proxy: "://bad"}); err == nil {
		t.Fatal("expected error for malformed proxy")
	}
}
