package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Remote delegates summarization to an HTTP service that accepts
// {"data": text} and answers {"output": summary}.
type Remote struct {
	url    string
	client *http.Client
}

const maxRemoteResponseBytes = 1 << 20

// NewRemote builds a Remote. A non-positive timeout means 10s.
func NewRemote(url string, timeout time.Duration) (*Remote, error) {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("summary: invalid url %q", url)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Remote{url: url, client: &http.Client{Timeout: timeout}}, nil
}

func (r *Remote) Transform(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyInput
	}

	body, err := json.Marshal(struct {
		Data string `json:"data"`
	}{Data: text})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("summary: remote call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxRemoteResponseBytes))
		return "", fmt.Errorf("summary: remote status %d", resp.StatusCode)
	}

	var out struct {
		Output *string `json:"output"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRemoteResponseBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("summary: decode remote response: %w", err)
	}
	if out.Output == nil {
		return "", errors.New("summary: remote response missing output")
	}
	return *out.Output, nil
}
