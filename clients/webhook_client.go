package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxDrainBytes bounds how much of an error response body is read before the
// connection is released.
const maxDrainBytes = 64 << 10

type WebhookClient struct {
	url        string
	httpClient *http.Client
}

func NewWebhookClient(url string, timeout time.Duration) *WebhookClient {
	return &WebhookClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// PostJSON marshals payload and posts it to the webhook URL. Any status
// outside 2xx is returned as an error.
func (wc *WebhookClient) PostJSON(ctx context.Context, payload any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshalling webhook payload: %w", err)
	}

	res, err := FireRequest(ctx, wc.httpClient, http.MethodPost, wc.url, body)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxDrainBytes))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return res.StatusCode, fmt.Errorf("webhook returned status %d", res.StatusCode)
	}
	return res.StatusCode, nil
}

func FireRequest(ctx context.Context, client *http.Client, method, url string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Add("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	return res, nil
}
