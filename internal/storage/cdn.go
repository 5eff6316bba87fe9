package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// CDNUploader posts images to an unsigned image-CDN upload endpoint
// (multipart form with "file" and "upload_preset", JSON reply with "secure_url").
type CDNUploader struct {
	URL    string
	Preset string
	Client *http.Client
}

// NewCDNUploader creates an uploader for the given endpoint and preset.
func NewCDNUploader(endpoint, preset string) *CDNUploader {
	return &CDNUploader{
		URL:    endpoint,
		Preset: preset,
		Client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (u *CDNUploader) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("upload_preset", u.Preset); err != nil {
		return "", err
	}
	if err := mw.WriteField("public_id", name); err != nil {
		return "", err
	}
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.URL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := u.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cdn upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("cdn upload: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	var out struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("cdn upload: decode response: %w", err)
	}
	if out.SecureURL != "" {
		return out.SecureURL, nil
	}
	if out.URL != "" {
		return out.URL, nil
	}
	return "", fmt.Errorf("cdn upload: response has no url")
}
