package sentiment

import (
	"context"
	"fmt"
	"time"

	xhttp "AlphaCast/pkg/http"
)

// HTTPClient talks to the sentiment model service. The service owns
// headline collection and classification; this client only moves JSON.
type HTTPClient struct {
	baseURL string
	client  *xhttp.Client
}

// NewHTTPClient builds a client with the given base URL and timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type classifyRequest struct {
	Texts []string `json:"texts"`
}

type classifyResponse struct {
	Labels []string `json:"labels"`
}

// Classify sends texts to the model service and returns one label per text.
func (c *HTTPClient) Classify(ctx context.Context, texts []string) ([]Label, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var resp classifyResponse
	if err := c.postJSON(ctx, "/classify", classifyRequest{Texts: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Labels) != len(texts) {
		return nil, fmt.Errorf("classifier returned %d labels for %d texts", len(resp.Labels), len(texts))
	}
	labels := make([]Label, len(resp.Labels))
	for i, l := range resp.Labels {
		labels[i] = Label(l)
	}
	return labels, nil
}

type headlinesResponse struct {
	Headlines []string `json:"headlines"`
}

// Headlines fetches recent headlines for a symbol from the model service.
func (c *HTTPClient) Headlines(ctx context.Context, symbol string) ([]string, error) {
	var resp headlinesResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/headlines",
		QueryParams: map[string][]string{"symbol": {symbol}},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("get headlines: %w", err)
	}
	return resp.Headlines, nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, payload, dest interface{}) error {
	if c.client == nil || c.baseURL == "" {
		return fmt.Errorf("sentiment http client not initialized")
	}
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + path,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}
