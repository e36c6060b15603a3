package query

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"evolve/config"
)

const jsonContentType = "application/json"

// ErrTransport marks failures where no HTTP response was received.
var ErrTransport = errors.New("query transport failure")

// StatusError is returned for non-2xx replies from the analysis service.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("query failed: status %d", e.Code)
	}
	return fmt.Sprintf("query failed: status %d: %s", e.Code, e.Message)
}

type Request struct {
	Query string `json:"query"`
}

type Response struct {
	Response []Item `json:"response"`
}

// Item is one element of the service's reply. Any combination of fields may be set.
type Item struct {
	Message  string    `json:"message,omitempty"`
	Chart    string    `json:"chart,omitempty"`
	Mermaid  string    `json:"mermaid,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

type Metadata struct {
	SourceDocuments []SourceDocument `json:"source_documents,omitempty"`
}

type SourceDocument struct {
	Title string `json:"title,omitempty"`
	Pages []int  `json:"pages,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Client talks to the analysis service's /query endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	suffix     string
}

func NewClient(endpoint, suffix string, timeout time.Duration) (*Client, error) {
	if endpoint == "" {
		endpoint = config.DefaultQueryEndpoint
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid query endpoint: %w", err)
	}
	if timeout <= 0 {
		timeout = config.DefaultQueryTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		suffix:     suffix,
	}, nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// WithQuerySuffix returns the query string actually sent for utterance:
// the context suffix is appended only when the utterance lacks it.
func WithQuerySuffix(utterance, suffix string) string {
	if suffix == "" || strings.Contains(utterance, suffix) {
		return utterance
	}
	return utterance + " " + suffix
}

// Query posts the utterance and decodes the reply.
func (c *Client) Query(ctx context.Context, utterance string) (*Response, error) {
	reqBody, err := json.Marshal(Request{Query: WithQuerySuffix(utterance, c.suffix)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build query request: %w", err)
	}
	req.Header.Set("Content-Type", jsonContentType)
	req.Header.Set("Accept", jsonContentType)

	if config.DebugLog != nil {
		config.DebugLog.Debugf("[Query] POST %s body=%s", c.endpoint, reqBody)
	}

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrTransport, err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Debugf("[Query] status=%d bytes=%d elapsed=%v", res.StatusCode, len(body), time.Since(start))
	}

	if err := handleAPIError(res, body); err != nil {
		return nil, err
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}
	return &out, nil
}

func handleAPIError(res *http.Response, body []byte) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	statusErr := &StatusError{Code: res.StatusCode}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		statusErr.Message = eb.Message
		if statusErr.Message == "" {
			statusErr.Message = eb.Error
		}
	}
	return statusErr
}

// Sources returns the citation documents of the first item carrying metadata.
func (r *Response) Sources() []SourceDocument {
	for _, item := range r.Response {
		if item.Metadata != nil {
			return item.Metadata.SourceDocuments
		}
	}
	return nil
}
