package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"server/internal/domain"
)

// FileStore persists assets onto the local filesystem. It is intended for
// development and test environments where the upload service is not available.
type FileStore struct {
	basePath string
}

// NewFileStore initializes a FileStore rooted at basePath.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// Write persists the provided bytes at the given relative key and returns the
// canonicalized storage key. Keys are cleaned to prevent directory traversal.
func (s *FileStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	if s == nil {
		return "", errNoStore
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return cleanKey, nil
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}

// LocalUploader satisfies Uploader by downloading the generated image and
// writing it into a FileStore. It stands in for the upload service in
// development.
type LocalUploader struct {
	store      *FileStore
	baseURL    string
	httpClient *http.Client
}

// NewLocalUploader builds an uploader over the given store. baseURL is the
// public prefix under which stored keys are served.
func NewLocalUploader(store *FileStore, baseURL string, httpClient *http.Client) *LocalUploader {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &LocalUploader{store: store, baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// Upload fetches the source image and persists it locally.
func (u *LocalUploader) Upload(ctx context.Context, sourceURL string, opts UploadOptions) (string, error) {
	if u == nil || u.store == nil {
		return "", fmt.Errorf("%v: %w", errNoStore, domain.ErrUploadFailed)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("storage: build fetch request: %v: %w", err, domain.ErrUploadFailed)
	}
	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage: fetch source: %v: %w", err, domain.ErrUploadFailed)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("storage: fetch source: http %d: %w", resp.StatusCode, domain.ErrUploadFailed)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("storage: read source: %v: %w", err, domain.ErrUploadFailed)
	}

	key := fmt.Sprintf("products/%s/%s.png", opts.ProjectID, uuid.NewString())
	cleanKey, err := u.store.Write(ctx, key, data)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, domain.ErrUploadFailed)
	}
	return u.baseURL + "/" + cleanKey, nil
}

var _ Uploader = (*LocalUploader)(nil)
