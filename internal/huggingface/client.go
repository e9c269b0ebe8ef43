// Package huggingface is a small client for the Hugging Face Hub hosted
// Inference API.
package huggingface

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

	"github.com/ashkaaar/griptape/pkg/version"
	"golang.org/x/oauth2"
)

const (
	// DefaultInferenceURL is the base URL of the hosted Inference API.
	DefaultInferenceURL = "https://api-inference.huggingface.co"

	// DefaultHubURL is the base URL of the Hub model metadata API.
	DefaultHubURL = "https://huggingface.co"

	defaultTimeout = 60 * time.Second
)

// Config holds client settings.
type Config struct {
	Token  string
	Model  string
	UseGPU bool

	// Task pins the pipeline task. When empty it is looked up from the Hub.
	Task string

	InferenceURL string
	HubURL       string
	HTTPClient   *http.Client
}

// Generation is one entry of a text generation response.
type Generation struct {
	GeneratedText string `json:"generated_text"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("huggingface api error (status %d): %s", e.StatusCode, e.Message)
}

// Client calls a single model on the Inference API. It is immutable after
// construction and safe for concurrent use.
type Client struct {
	model        string
	task         string
	useGPU       bool
	inferenceURL string
	httpClient   *http.Client
}

// NewClient creates a client for cfg.Model. When cfg.Task is empty the
// model's pipeline task is resolved from the Hub once, here.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("huggingface model is required")
	}

	inferenceURL := cfg.InferenceURL
	if inferenceURL == "" {
		inferenceURL = DefaultInferenceURL
	}
	hubURL := cfg.HubURL
	if hubURL == "" {
		hubURL = DefaultHubURL
	}

	c := &Client{
		model:        cfg.Model,
		task:         cfg.Task,
		useGPU:       cfg.UseGPU,
		inferenceURL: strings.TrimRight(inferenceURL, "/"),
		httpClient:   newHTTPClient(ctx, cfg.Token, cfg.HTTPClient),
	}

	if c.task == "" {
		task, err := c.lookupTask(ctx, strings.TrimRight(hubURL, "/"))
		if err != nil {
			return nil, fmt.Errorf("resolve task for %s: %w", cfg.Model, err)
		}
		c.task = task
	}

	return c, nil
}

// newHTTPClient returns an HTTP client that authenticates with token. The
// base client (if any) supplies the transport and timeout.
func newHTTPClient(ctx context.Context, token string, base *http.Client) *http.Client {
	if base == nil {
		base = &http.Client{Timeout: defaultTimeout}
	}
	if token == "" {
		return base
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	client.Timeout = base.Timeout
	return client
}

// Model returns the model repository id.
func (c *Client) Model() string {
	return c.model
}

// Task returns the model's pipeline task, e.g. "text-generation".
func (c *Client) Task() string {
	return c.task
}

func (c *Client) lookupTask(ctx context.Context, hubURL string) (string, error) {
	endpoint := hubURL + "/api/models/" + escapeRepoID(c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	var info struct {
		PipelineTag string `json:"pipeline_tag"`
	}
	if err := c.do(req, &info); err != nil {
		return "", err
	}
	if info.PipelineTag == "" {
		return "", fmt.Errorf("model %s has no pipeline task", c.model)
	}
	return info.PipelineTag, nil
}

type generateRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    requestOptions `json:"options"`
}

type requestOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseGPU       bool `json:"use_gpu"`
}

// Generate runs inputs through the model's pipeline.
func (c *Client) Generate(ctx context.Context, inputs string, params map[string]any) ([]Generation, error) {
	body, err := json.Marshal(generateRequest{
		Inputs:     inputs,
		Parameters: params,
		Options: requestOptions{
			WaitForModel: true,
			UseGPU:       c.useGPU,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal inference request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/pipeline/%s/%s", c.inferenceURL, url.PathEscape(c.task), escapeRepoID(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var generations []Generation
	if err := c.do(req, &generations); err != nil {
		return nil, err
	}
	return generations, nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("huggingface request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read huggingface response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode huggingface response: %w", err)
	}
	return nil
}

// errorMessage extracts {"error": "..."} from a response body, falling back
// to the raw body.
func errorMessage(data []byte) string {
	var body struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != nil {
		switch v := body.Error.(type) {
		case string:
			return v
		case []any:
			parts := make([]string, 0, len(v))
			for _, p := range v {
				parts = append(parts, fmt.Sprint(p))
			}
			return strings.Join(parts, "; ")
		}
	}
	return strings.TrimSpace(string(data))
}

// escapeRepoID escapes each segment of an "owner/name" repository id.
func escapeRepoID(id string) string {
	parts := strings.Split(id, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
