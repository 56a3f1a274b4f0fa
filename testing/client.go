package e2etesting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/recipemanager/api/apierror"
)

type RequestOptions struct {
	Method  string
	Path    string
	Body    any
	Headers map[string]string
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) GetJSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

func (r *Response) GetString() string {
	return string(r.Body)
}

func (r *Response) AssertStatus(t *testing.T, expectedStatus int) {
	t.Helper()
	require.Equal(t, expectedStatus, r.StatusCode, "unexpected status code. Response: %s", r.GetString())
}

// AssertError checks the status and the code of the error envelope.
func (r *Response) AssertError(t *testing.T, expectedStatus int, expectedCode string) apierror.Detail {
	t.Helper()
	r.AssertStatus(t, expectedStatus)

	var body apierror.Body
	require.NoError(t, r.GetJSON(&body), "response is not an error envelope: %s", r.GetString())
	require.Equal(t, expectedCode, body.Error.Code, "unexpected error code. Response: %s", r.GetString())
	return body.Error
}

// HTTPClient talks JSON to the API root. A client made by WithToken sends
// the auth token on every request.
type HTTPClient struct {
	Client  *http.Client
	BaseURL string
	token   string
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		Client:  &http.Client{Timeout: 30 * time.Second},
		BaseURL: baseURL,
	}
}

func (c *HTTPClient) WithToken(token string) *HTTPClient {
	return &HTTPClient{
		Client:  c.Client,
		BaseURL: c.BaseURL,
		token:   token,
	}
}

func (c *HTTPClient) Get(path string) (*Response, error) {
	return c.Request(&RequestOptions{Method: http.MethodGet, Path: path})
}

func (c *HTTPClient) Post(path string, body any) (*Response, error) {
	return c.Request(&RequestOptions{Method: http.MethodPost, Path: path, Body: body})
}

func (c *HTTPClient) Put(path string, body any) (*Response, error) {
	return c.Request(&RequestOptions{Method: http.MethodPut, Path: path, Body: body})
}

func (c *HTTPClient) Patch(path string, body any) (*Response, error) {
	return c.Request(&RequestOptions{Method: http.MethodPatch, Path: path, Body: body})
}

func (c *HTTPClient) Delete(path string) (*Response, error) {
	return c.Request(&RequestOptions{Method: http.MethodDelete, Path: path})
}

func (c *HTTPClient) Request(opts *RequestOptions) (*Response, error) {
	var bodyReader io.Reader
	if opts.Body != nil {
		jsonBody, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(opts.Method, c.BaseURL+opts.Path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		Response: resp,
		Body:     body,
	}, nil
}
