package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DefaultHubURL is the public Hugging Face endpoint.
const DefaultHubURL = "https://huggingface.co"

// Hub downloads files from a Hugging Face compatible model hub.
type Hub struct {
	BaseURL    string
	Revision   string
	HTTPClient *http.Client
}

// NewHub returns a Hub for baseURL ("" means DefaultHubURL).
func NewHub(baseURL string) *Hub {
	if baseURL == "" {
		baseURL = DefaultHubURL
	}
	// Timeout=0: downloads are bounded by the caller's context only.
	return &Hub{BaseURL: strings.TrimRight(baseURL, "/"), Revision: "main", HTTPClient: &http.Client{Timeout: 0}}
}

// hubError carries the HTTP status of a failed download.
type hubError struct {
	status int
	repo   string
	file   string
}

func (e hubError) Error() string {
	return fmt.Sprintf("hub: %s/%s: http %d", e.repo, e.file, e.status)
}

// StatusCode exposes the upstream HTTP status.
func (e hubError) StatusCode() int { return e.status }

// Download fetches repo/file into dest atomically (temp file + rename).
func (h *Hub) Download(ctx context.Context, repo, file, token, dest string) error {
	u := fmt.Sprintf("%s/%s/resolve/%s/%s", h.BaseURL, repo, url.PathEscape(h.Revision), file)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("hub: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return hubError{status: resp.StatusCode, repo: repo, file: file}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".part-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("hub: write %s: %w", file, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, dest)
}
