package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"server/internal/domain"
)

// UploadOptions mirror the upload service contract: the owning project, the
// processing preset to apply, and whether the service keeps the original file.
type UploadOptions struct {
	ProjectID        string
	Preset           string
	PreserveOriginal bool
}

// Uploader copies a generated image from its temporary source URL into
// durable storage and returns the durable URL.
type Uploader interface {
	Upload(ctx context.Context, sourceURL string, opts UploadOptions) (string, error)
}

// HTTPUploaderOptions configures the upload service client.
type HTTPUploaderOptions struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// HTTPUploader talks to the external upload service.
type HTTPUploader struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewHTTPUploader constructs an upload service client.
func NewHTTPUploader(opts HTTPUploaderOptions) *HTTPUploader {
	base := strings.TrimRight(opts.BaseURL, "/")
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPUploader{httpClient: client, baseURL: base, token: strings.TrimSpace(opts.APIKey)}
}

type uploadRequest struct {
	SourceURL        string `json:"source_url"`
	ProjectID        string `json:"project_id"`
	Preset           string `json:"preset,omitempty"`
	PreserveOriginal bool   `json:"preserve_original"`
}

type uploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Upload submits the source URL to the upload service. Every failure wraps
// domain.ErrUploadFailed so callers can trigger compensation uniformly.
func (u *HTTPUploader) Upload(ctx context.Context, sourceURL string, opts UploadOptions) (string, error) {
	if u == nil || u.baseURL == "" {
		return "", fmt.Errorf("upload service not configured: %w", domain.ErrUploadFailed)
	}
	if strings.TrimSpace(sourceURL) == "" {
		return "", fmt.Errorf("source url required: %w", domain.ErrUploadFailed)
	}

	body, err := json.Marshal(uploadRequest{
		SourceURL:        sourceURL,
		ProjectID:        opts.ProjectID,
		Preset:           opts.Preset,
		PreserveOriginal: opts.PreserveOriginal,
	})
	if err != nil {
		return "", fmt.Errorf("encode upload request: %v: %w", err, domain.ErrUploadFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/v1/uploads", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build upload request: %v: %w", err, domain.ErrUploadFailed)
	}
	req.Header.Set("Content-Type", "application/json")
	if u.token != "" {
		req.Header.Set("Authorization", "Bearer "+u.token)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: %v: %w", err, domain.ErrUploadFailed)
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("upload: decode response (http %d): %w", resp.StatusCode, domain.ErrUploadFailed)
	}
	if resp.StatusCode >= http.StatusBadRequest || !out.Success {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("http %d", resp.StatusCode)
		}
		return "", fmt.Errorf("upload: %s: %w", msg, domain.ErrUploadFailed)
	}
	if strings.TrimSpace(out.URL) == "" {
		return "", fmt.Errorf("upload: missing url in response: %w", domain.ErrUploadFailed)
	}
	return out.URL, nil
}

var (
	_ Uploader = (*HTTPUploader)(nil)

	errNoStore = errors.New("storage: no store configured")
)
