package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"server/internal/domain"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client is a thin facade over the Gemini generateContent endpoint used for
// reference-anchored image edits. It carries no model choice of its own; the
// caller names the model per invocation so the gateway can drive tiering.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with a sensible timeout will be created.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://generativelanguage.googleapis.com/v1beta"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 90 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		apiKey:     strings.TrimSpace(opts.APIKey),
	}
}

// EditRequest names the model and inputs for a single image-edit invocation.
type EditRequest struct {
	Model             string
	Prompt            string
	ReferenceImageURL string
	LogoURL           string
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text     string          `json:"text,omitempty"`
	FileData *geminiFileData `json:"fileData,omitempty"`
}

type geminiFileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates     []geminiCandidate `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Status  string `json:"status,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// EditImage invokes the named model with the composed instruction, the
// reference image and an optional logo image, and returns the generated image
// URL. Errors are classified: content-policy and bad-request failures wrap
// domain.ErrGenerationRejected, everything retryable wraps
// domain.ErrGenerationUnavailable.
func (c *Client) EditImage(ctx context.Context, req EditRequest) (string, error) {
	if c == nil {
		return "", errors.New("gemini client not configured")
	}
	if c.apiKey == "" {
		return "", errors.New("gemini: API key is missing")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return "", errors.New("gemini: model is required")
	}
	if strings.TrimSpace(req.ReferenceImageURL) == "" {
		return "", errors.New("gemini: reference image required")
	}

	parts := []geminiPart{
		{Text: req.Prompt},
		{FileData: &geminiFileData{MimeType: "image/png", FileURI: req.ReferenceImageURL}},
	}
	if logo := strings.TrimSpace(req.LogoURL); logo != "" {
		parts = append(parts, geminiPart{FileData: &geminiFileData{MimeType: "image/png", FileURI: logo}})
	}
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, url.PathEscape(model), url.QueryEscape(c.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini: %v: %w", err, domain.ErrGenerationUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr geminiErrorResponse
		msg := fmt.Sprintf("http %d", resp.StatusCode)
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error.Message != "" {
			msg = fmt.Sprintf("%s (%s)", apiErr.Error.Message, apiErr.Error.Status)
		}
		if isDeterministicStatus(resp.StatusCode) {
			return "", fmt.Errorf("gemini: %s: %w", msg, domain.ErrGenerationRejected)
		}
		return "", fmt.Errorf("gemini: %s: %w", msg, domain.ErrGenerationUnavailable)
	}

	var out geminiGenerateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gemini: decode response: %v: %w", err, domain.ErrGenerationUnavailable)
	}
	if reason := out.PromptFeedback.BlockReason; reason != "" {
		return "", fmt.Errorf("gemini: prompt blocked (%s): %w", reason, domain.ErrGenerationRejected)
	}
	for _, cand := range out.Candidates {
		if isBlockedFinish(cand.FinishReason) {
			return "", fmt.Errorf("gemini: candidate blocked (%s): %w", cand.FinishReason, domain.ErrGenerationRejected)
		}
		for _, part := range cand.Content.Parts {
			if part.FileData != nil && strings.TrimSpace(part.FileData.FileURI) != "" {
				return part.FileData.FileURI, nil
			}
		}
	}
	return "", fmt.Errorf("gemini: empty response: %w", domain.ErrGenerationUnavailable)
}

// isDeterministicStatus reports whether the HTTP status indicates a failure
// that a retry cannot fix.
func isDeterministicStatus(code int) bool {
	switch code {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusNotFound, http.StatusUnprocessableEntity:
		return true
	default:
		return false
	}
}

func isBlockedFinish(reason string) bool {
	switch strings.ToUpper(strings.TrimSpace(reason)) {
	case "SAFETY", "PROHIBITED_CONTENT", "IMAGE_SAFETY", "BLOCKLIST":
		return true
	default:
		return false
	}
}
