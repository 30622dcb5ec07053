package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/studypath/studypath/provider"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com"

// Client calls the generative-language generateContent API.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// New creates a Gemini completion client. endpoint may be empty to use the
// public API host; timeout bounds each request end to end.
func New(apiKey, model, endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// request represents a generateContent request body
type request struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// response represents a generateContent reply
type response struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Complete sends the prompt and returns the first candidate's text parsed as
// JSON. Markdown code fences around the reply are stripped before parsing.
func (c *Client) Complete(ctx context.Context, prompt string) (json.RawMessage, error) {
	body, err := json.Marshal(request{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.endpoint, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &provider.Error{Kind: provider.KindRateLimited, Status: resp.StatusCode, Message: "rate limit exceeded"}
	default:
		return nil, &provider.Error{Kind: provider.KindUnavailable, Status: resp.StatusCode, Message: "unexpected status from completion service"}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.Error{Kind: provider.KindUnavailable, Message: fmt.Sprintf("failed to read response body: %v", err)}
	}

	var parsed response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &provider.Error{Kind: provider.KindFormat, Message: "response is not a generateContent payload"}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, &provider.Error{Kind: provider.KindFormat, Message: "no candidates in response"}
	}

	text := parsed.Candidates[0].Content.Parts[0].Text
	cleaned := StripFences(text)
	if !json.Valid([]byte(cleaned)) {
		return nil, &provider.Error{Kind: provider.KindParse, Message: "candidate text is not valid JSON", Raw: text}
	}
	return json.RawMessage(cleaned), nil
}

func classifyTransport(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &provider.Error{Kind: provider.KindTimeout, Message: "request timed out"}
	}
	return &provider.Error{Kind: provider.KindUnavailable, Message: err.Error()}
}

// StripFences removes a leading ```json or ``` marker and a trailing ```
// from a model reply, which Gemini adds even when asked for bare JSON.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
