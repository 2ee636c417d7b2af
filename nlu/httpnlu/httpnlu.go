package httpnlu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/malecare/trialmatch/models"
)

// Client calls the BioClinicalBERT inference sidecar over HTTP. The sidecar
// hosts the pretrained intent and NER models; this adapter only speaks its
// request/response contract.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// request is the sidecar's inference payload
type request struct {
	Text    string            `json:"text"`
	Context map[string]string `json:"context,omitempty"`
}

// response mirrors the sidecar's output; slot values may be null for
// entities the model considered and rejected
type response struct {
	Intent string             `json:"intent"`
	Slots  map[string]*string `json:"slots"`
}

// NewClient creates a new HTTP NLU client
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Extract sends one utterance (plus the already-known slots) to the sidecar
// and returns its intent label and candidate slot values. Null and empty
// slot values are dropped so absence always means omission.
func (c *Client) Extract(ctx context.Context, text string, known map[string]string) (models.Extraction, error) {
	body, err := json.Marshal(request{Text: text, Context: known})
	if err != nil {
		return models.Extraction{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return models.Extraction{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Extraction{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Extraction{}, fmt.Errorf("nlu sidecar returned status: %d", resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Extraction{}, fmt.Errorf("failed to parse response: %w", err)
	}

	result := models.Extraction{Intent: out.Intent, Slots: map[string]string{}}
	if result.Intent == "" {
		result.Intent = models.IntentOther
	}
	for k, v := range out.Slots {
		if v == nil || *v == "" {
			continue
		}
		result.Slots[k] = *v
	}
	return result, nil
}
