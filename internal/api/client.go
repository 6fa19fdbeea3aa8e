// Package api is the gateway client for the MIRA admin REST API. Every
// response travels in the uniform {success, data|message} envelope; this
// package parses it once and maps failures onto the Network/Auth/Domain
// taxonomy so the stores above never look at HTTP details.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TokenSource supplies the current bearer token, or "" when the operator is
// not logged in. Unauthenticated requests are sent without the header and
// left to fail server-side.
type TokenSource interface {
	Token() string
}

// A Client issues authenticated requests against one MIRA deployment.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	tokens TokenSource
	log    zerolog.Logger
}

// New creates a client for the given base URL. The timeout bounds every
// request end to end; a hung connection surfaces as a network error instead
// of blocking a view forever.
func New(baseURL string, tokens TokenSource, logger zerolog.Logger, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		log:        logger,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// do performs a JSON request and returns the envelope's data payload.
func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.prepare(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.log.Debug().Str("method", method).Str("path", path).Err(err).Msg("request failed")
		return nil, networkErr(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkErr(err)
	}
	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("request")

	env, err := parseEnvelope(resp.StatusCode, respBody)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) prepare(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// parseEnvelope maps one HTTP response onto the error taxonomy. A non-2xx
// status with success:false is an ordinary domain failure; only 401 is
// special-cased for session teardown. A few list endpoints on older backends
// return a bare JSON array instead of the envelope; that is treated as
// success with the array as data.
func parseEnvelope(status int, body []byte) (envelope, error) {
	if status == http.StatusUnauthorized {
		var env envelope
		_ = json.Unmarshal(body, &env)
		return envelope{}, authErr(env.Message)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return envelope{Success: true, Data: json.RawMessage(trimmed)}, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		if status < 200 || status > 299 {
			return envelope{}, domainErr(status, http.StatusText(status))
		}
		return envelope{}, fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		return envelope{}, domainErr(status, env.Message)
	}
	return env, nil
}

// getList fetches path and decodes the envelope data into a slice of T.
// A null or absent data field decodes to an empty list.
func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return out, nil
}

// download streams a binary endpoint (the .xlsx export) into w. Error
// responses still arrive as JSON envelopes and are parsed as such.
func (c *Client) download(ctx context.Context, path string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	c.prepare(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, networkErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if _, envErr := parseEnvelope(resp.StatusCode, body); envErr != nil {
			return 0, envErr
		}
		return 0, domainErr(resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, networkErr(err)
	}
	c.log.Debug().Str("path", path).Int64("bytes", n).Msg("download complete")
	return n, nil
}

// upload sends a file as a multipart form (field name "file") and returns
// the parsed envelope, whose message carries the import result.
func (c *Client) upload(ctx context.Context, path, filename string, r io.Reader) (envelope, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return envelope{}, fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return envelope{}, fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return envelope{}, fmt.Errorf("finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, &buf)
	if err != nil {
		return envelope{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.prepare(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return envelope{}, networkErr(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope{}, networkErr(err)
	}
	return parseEnvelope(resp.StatusCode, respBody)
}
