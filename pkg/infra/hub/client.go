package hub

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/onnxify/pkg/domain/interfaces"
	"github.com/m-mizutani/onnxify/pkg/domain/types"
)

const (
	// DefaultBaseURL is the public Hugging Face hub
	DefaultBaseURL = "https://huggingface.co"

	defaultRevision = "main"
	defaultSummary  = "Upload folder using onnxify"

	// maxErrorBody bounds how much of an error response is kept for diagnostics
	maxErrorBody = 4096
)

type client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the hub client
type Option func(*client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a hub API client for baseURL, e.g. https://huggingface.co
func NewClient(baseURL string, opts ...Option) interfaces.HubClient {
	c := &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type whoAmIResponse struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// WhoAmI returns the account name the token belongs to
func (c *client) WhoAmI(ctx context.Context, token types.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/whoami-v2", nil)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create whoami request")
	}
	setAuth(req, token)

	var resp whoAmIResponse
	if err := c.doJSON(req, &resp); err != nil {
		return "", goerr.Wrap(err, "failed to query identity")
	}
	if resp.Name == "" {
		return "", goerr.New("identity response has no name", goerr.V("type", resp.Type))
	}

	return resp.Name, nil
}

func (c *client) repoAPIURL(repoID, action, revision string) string {
	return c.baseURL + "/api/models/" + repoID + "/" + action + "/" + url.PathEscape(revision)
}

func setAuth(req *http.Request, token types.Token) {
	if !token.IsEmpty() {
		req.Header.Set("Authorization", "Bearer "+token.String())
	}
}

func newJSONRequest(ctx context.Context, method, u string, body any) (*http.Request, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal request body")
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(raw))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request", goerr.V("url", u))
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// doJSON sends req and decodes a successful JSON response into out (if not nil)
func (c *client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to send request", goerr.V("url", req.URL.String()))
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return err
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(err, "failed to decode response", goerr.V("url", req.URL.String()))
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// checkResponse turns a non-2xx response into an error carrying the server message
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		msg = errResp.Error
	}

	return goerr.New(fmt.Sprintf("hub API error: %d %s", resp.StatusCode, msg),
		goerr.V("url", resp.Request.URL.String()),
		goerr.V("status", resp.StatusCode),
		goerr.V("message", msg),
	)
}
