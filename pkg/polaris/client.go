package polaris

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/shpitdev/polaris-autoingest/internal/version"
)

// Client is a minimal HTTP client for the sampling and jobs endpoints of one project.
type Client struct {
	endpoint   Endpoint
	credential string
	http       *http.Client
	limiter    *rate.Limiter
}

// Options tunes the HTTP behavior of a Client. The zero value applies no
// timeout and no pacing.
type Options struct {
	// Timeout bounds each request. Zero leaves the transport defaults in place.
	Timeout time.Duration
	// RateLimitRPS paces requests issued by this client. Set to <=0 to disable.
	RateLimitRPS float64
	// CAPath is an optional PEM bundle used as the TLS trust store.
	CAPath string
	// HTTPClient overrides the constructed client entirely.
	HTTPClient *http.Client
}

// NewClient constructs a client for the project named by endpoint.
//
// credential is sent as-is in a Basic Authorization header. An empty
// credential is not rejected here; the API will refuse the request.
func NewClient(endpoint Endpoint, credential string, opts Options) (*Client, error) {
	hc := opts.HTTPClient
	if hc == nil {
		var err error
		hc, err = newHTTPClient(opts.CAPath, opts.Timeout)
		if err != nil {
			return nil, err
		}
	}

	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}

	return &Client{
		endpoint:   endpoint,
		credential: strings.TrimSpace(credential),
		http:       hc,
		limiter:    limiter,
	}, nil
}

func newHTTPClient(caPath string, timeout time.Duration) (*http.Client, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if strings.TrimSpace(caPath) != "" {
		b, err := os.ReadFile(strings.TrimSpace(caPath))
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(b); !ok {
			return nil, fmt.Errorf("parse CA file PEM: no certs found")
		}
		tr.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	}
	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// SamplingSource describes the object the sampling API should inspect.
type SamplingSource struct {
	Type           string   `json:"type"`
	ConnectionName string   `json:"connectionName"`
	Objects        []string `json:"objects"`
}

type SamplingRequest struct {
	Source SamplingSource `json:"source"`
}

// SamplingResponse is the subset of the sampling API response this tool reads.
type SamplingResponse struct {
	Schema json.RawMessage `json:"schema"`
}

// SampleRaw asks the sampling API to discover the input schema of one object.
func (c *Client) SampleRaw(ctx context.Context, req SamplingRequest) (SamplingResponse, error) {
	rb, err := c.post(ctx, "sampleRaw", EndpointSamplingRaw, req)
	if err != nil {
		return SamplingResponse{}, err
	}

	var out SamplingResponse
	if err := json.Unmarshal(rb, &out); err != nil {
		return SamplingResponse{}, fmt.Errorf("parse sampling response: %w", err)
	}
	if len(bytes.TrimSpace(out.Schema)) == 0 {
		return SamplingResponse{}, fmt.Errorf("sampling response missing schema")
	}
	return out, nil
}

// CreateJob submits a job definition and returns the raw JSON response.
func (c *Client) CreateJob(ctx context.Context, payload any) (json.RawMessage, error) {
	rb, err := c.post(ctx, "createJob", EndpointJobs, payload)
	if err != nil {
		return nil, err
	}
	if !json.Valid(rb) {
		return nil, fmt.Errorf("parse create job response: invalid JSON")
	}
	return json.RawMessage(rb), nil
}

func (c *Client) post(ctx context.Context, op, endpoint string, body any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", op, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.URL(endpoint), bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Basic "+c.credential)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "polaris-autoingest/"+version.Current)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, newHTTPError(op, resp, rb, c.credential)
	}
	return rb, nil
}
