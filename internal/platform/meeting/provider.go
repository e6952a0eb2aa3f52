// Package meeting provisions video consultation links through an external
// calendar bridge. The bridge is opaque to the rest of the system: callers
// hand it the participants and the slot, and get back a join URL.
package meeting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ErrProvisioningFailed reports that the external provider could not create
// a meeting for the requested slot.
var ErrProvisioningFailed = errors.New("meeting: provisioning failed")

// Request describes the consultation a meeting link is needed for.
type Request struct {
	DoctorName   string    `json:"doctor_name"`
	DoctorEmail  string    `json:"doctor_email"`
	PatientEmail string    `json:"patient_email"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// Meeting is a provisioned video consultation.
type Meeting struct {
	URL     string `json:"meeting_url"`
	EventID string `json:"event_id"`
}

// Provider creates meeting links for video consultations.
type Provider interface {
	Provision(ctx context.Context, req Request) (*Meeting, error)
}

// ---------------------------------------------------------------------------
// HTTPProvider
// ---------------------------------------------------------------------------

// ProviderOption configures an HTTPProvider.
type ProviderOption func(*HTTPProvider)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *HTTPProvider) { p.client = c }
}

// HTTPProvider provisions meetings by calling an external calendar bridge
// over HTTP.
type HTTPProvider struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPProvider creates a provider that POSTs provisioning requests to
// baseURL, authenticated with a bearer token.
func NewHTTPProvider(baseURL, token string, opts ...ProviderOption) *HTTPProvider {
	p := &HTTPProvider{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *HTTPProvider) Provision(ctx context.Context, mreq Request) (*Meeting, error) {
	payload, err := json.Marshal(mreq)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrProvisioningFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/meetings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read at most 1KB of response body for diagnostics.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: provider returned %d: %s", ErrProvisioningFailed, resp.StatusCode, body)
	}

	var meeting Meeting
	if err := json.NewDecoder(resp.Body).Decode(&meeting); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrProvisioningFailed, err)
	}
	if meeting.URL == "" {
		return nil, fmt.Errorf("%w: provider returned empty meeting url", ErrProvisioningFailed)
	}
	return &meeting, nil
}

// ---------------------------------------------------------------------------
// StaticProvider
// ---------------------------------------------------------------------------

// StaticProvider generates local placeholder links. It is used in development
// and whenever no external bridge is configured.
type StaticProvider struct {
	BaseURL string
}

func (p *StaticProvider) Provision(_ context.Context, _ Request) (*Meeting, error) {
	base := p.BaseURL
	if base == "" {
		base = "https://meet.careplus.local"
	}
	id := uuid.NewString()
	return &Meeting{
		URL:     base + "/" + id,
		EventID: id,
	}, nil
}
