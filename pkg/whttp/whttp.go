package whttp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/histmap/histmap/internal/utils"
)

// DefaultUserAgent identifies histmap to upstream APIs.
const DefaultUserAgent = "histmap/1.0 (historical map timeline)"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 5 * 1024 * 1024

type WHTTPHeader struct {
	Name  string
	Value string
}

type WHTTPReq struct {
	URL     string
	Method  string
	Headers []WHTTPHeader
}

type WHTTPRes struct {
	StatusCode int
	BodyString string
}

// ClientConfig controls the shared outbound client.
type ClientConfig struct {
	Timeout time.Duration
	// Retries is the number of extra attempts after a failed request. Zero
	// means a single attempt.
	Retries int
	Proxy   string
}

// NewClient builds a retryablehttp client from cfg. Its logging goes through
// utils.Log at debug level.
func NewClient(cfg ClientConfig) (*retryablehttp.Client, error) {
	client := retryablehttp.NewClient()
	client.Logger = leveledLogger{}
	client.RetryMax = cfg.Retries
	if client.RetryMax < 0 {
		client.RetryMax = 0
	}
	if cfg.Timeout > 0 {
		client.HTTPClient.Timeout = cfg.Timeout
	}

	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		// Intercepting proxies present their own certificates.
		client.HTTPClient.Transport = &http.Transport{
			Proxy:           http.ProxyURL(proxyURL),
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return client, nil
}

// SendHTTPRequest performs wReq and reads the whole body. Responses the retry
// policy gives up on (5xx, 429) come back as errors; other status codes are
// left to the caller.
func SendHTTPRequest(ctx context.Context, wReq *WHTTPReq, client *retryablehttp.Client) (*WHTTPRes, error) {
	if client == nil {
		client = retryablehttp.NewClient()
		client.Logger = leveledLogger{}
		client.RetryMax = 0
	}

	method := wReq.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, wReq.URL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json")
	for _, h := range wReq.Headers {
		req.Header.Set(h.Name, h.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &WHTTPRes{StatusCode: resp.StatusCode, BodyString: string(body)}, nil
}

// leveledLogger routes retryablehttp's logging into utils.Log.
type leveledLogger struct{}

func (leveledLogger) Error(msg string, kv ...interface{}) { utils.Log.WithFields(fields(kv)).Debug(msg) }
func (leveledLogger) Info(msg string, kv ...interface{})  { utils.Log.WithFields(fields(kv)).Debug(msg) }
func (leveledLogger) Debug(msg string, kv ...interface{}) { utils.Log.WithFields(fields(kv)).Debug(msg) }
func (leveledLogger) Warn(msg string, kv ...interface{})  { utils.Log.WithFields(fields(kv)).Debug(msg) }

func fields(kv []interface{}) map[string]interface{} {
	f := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
