package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"ragdash/internal/auth"
	"ragdash/internal/metrics"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the RAG backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     auth.TokenStore
	log        *zap.Logger
}

func New(opts Options, tokens auth.TokenStore) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if tokens == nil {
		tokens = auth.NewMemoryStore("")
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		log:        log,
	}
}

type File struct {
	Field   string
	Name    string
	Content []byte
}

// Request describes one backend call. When Multipart is set, Fields and Files
// are sent as multipart/form-data and Body is ignored; otherwise a non-nil
// Body is sent as JSON.
type Request struct {
	Op        string
	Method    string
	Path      string
	Query     url.Values
	Body      any
	Multipart bool
	Fields    map[string]string
	Files     []File
}

type Response struct {
	Status int
	Body   []byte
}

func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	op := r.Op
	if op == "" {
		op = r.Method + " " + r.Path
	}

	body, contentType, err := encodeBody(r)
	if err != nil {
		return nil, requestError(op, fmt.Errorf("encode request body failed: %w", err))
	}

	target := c.baseURL + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, requestError(op, fmt.Errorf("build request failed: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.authorize(ctx, req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(op, "network", start)
		c.log.Debug("api call failed", zap.String("op", op), zap.Error(err))
		return nil, networkError(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(op, "network", start)
		return nil, networkError(op, fmt.Errorf("read response failed: %w", err))
	}

	c.log.Debug("api call",
		zap.String("op", op),
		zap.String("method", r.Method),
		zap.String("path", r.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.observe(op, strconv.Itoa(resp.StatusCode), start)
		return nil, httpError(op, resp.StatusCode, raw)
	}
	c.observe(op, "ok", start)
	return &Response{Status: resp.StatusCode, Body: raw}, nil
}

// DecodeData unwraps the {"data": ...} success envelope into out.
func DecodeData(op string, resp *Response, out any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return malformedError(op, resp.Status, fmt.Errorf("decode envelope failed: %w", err))
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return malformedError(op, resp.Status, fmt.Errorf("response has no data"))
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return malformedError(op, resp.Status, fmt.Errorf("decode data failed: %w", err))
	}
	return nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) {
	token, err := c.tokens.Get(ctx)
	if err != nil {
		c.log.Warn("read token failed, sending unauthenticated", zap.Error(err))
		return
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) observe(op, outcome string, start time.Time) {
	metrics.APICallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.APICallTotal.WithLabelValues(op, outcome).Inc()
}

func encodeBody(r Request) (io.Reader, string, error) {
	if r.Multipart {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for k, v := range r.Fields {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
		for _, f := range r.Files {
			part, err := w.CreateFormFile(f.Field, f.Name)
			if err != nil {
				return nil, "", err
			}
			if _, err := part.Write(f.Content); err != nil {
				return nil, "", err
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return &buf, w.FormDataContentType(), nil
	}
	if r.Body == nil {
		return nil, "", nil
	}
	payload, err := json.Marshal(r.Body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(payload), "application/json", nil
}
