// Package remote is a client for an HTTP model server that hosts the
// token-classification and dependency-parsing models.
//
// The server exposes two endpoints, both taking {"text": ..., "lang": ...}:
//
//	POST /ner    -> {"entities": [{"word", "entity", "entity_group", "score", "start", "end"}]}
//	POST /parse  -> {"sentences": [{"text", "tokens": [{"text", "lemma", "dep", "head"}]}]}
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/OFFIS-RIT/coursegraph/pkg/nlp"
)

// Client holds the HTTP connection pool shared by every language binding.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClientParams configures the model server connection. ApiKey is sent as
// a bearer token when set.
type NewClientParams struct {
	BaseURL    string
	ApiKey     string
	HTTPClient *http.Client
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

func NewClient(params NewClientParams) (*Client, error) {
	if params.BaseURL == "" {
		return nil, fmt.Errorf("model server url is empty")
	}
	u, err := url.Parse(strings.TrimRight(params.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse model server url: %w", err)
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if params.ApiKey != "" {
		rt := httpClient.Transport
		if rt == nil {
			rt = http.DefaultTransport
		}
		wrapped := *httpClient
		wrapped.Transport = &headerTransport{
			headers: map[string]string{"Authorization": "Bearer " + params.ApiKey},
			rt:      rt,
		}
		httpClient = &wrapped
	}

	return &Client{baseURL: u, httpClient: httpClient}, nil
}

type request struct {
	Text string       `json:"text"`
	Lang nlp.Language `json:"lang"`
}

type nerResponse struct {
	Entities []nlp.RawEntity `json:"entities"`
}

type parseResponse struct {
	Sentences []nlp.Sentence `json:"sentences"`
}

func (c *Client) post(ctx context.Context, path string, body request, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	endpoint := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("model server %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("model server %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Recognize runs the named-entity model for lang.
func (c *Client) Recognize(ctx context.Context, lang nlp.Language, text string) ([]nlp.RawEntity, error) {
	var resp nerResponse
	if err := c.post(ctx, "ner", request{Text: text, Lang: lang}, &resp); err != nil {
		return nil, err
	}
	return resp.Entities, nil
}

// Parse runs sentence segmentation and dependency parsing for lang.
func (c *Client) Parse(ctx context.Context, lang nlp.Language, text string) ([]nlp.Sentence, error) {
	var resp parseResponse
	if err := c.post(ctx, "parse", request{Text: text, Lang: lang}, &resp); err != nil {
		return nil, err
	}
	return resp.Sentences, nil
}

// Close drops idle keep-alive connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Recognizer binds the client to one language.
func (c *Client) Recognizer(lang nlp.Language) nlp.Recognizer {
	return &binding{client: c, lang: lang}
}

// Parser binds the client to one language.
func (c *Client) Parser(lang nlp.Language) nlp.Parser {
	return &binding{client: c, lang: lang}
}

type binding struct {
	client *Client
	lang   nlp.Language
}

func (b *binding) Recognize(ctx context.Context, text string) ([]nlp.RawEntity, error) {
	return b.client.Recognize(ctx, b.lang, text)
}

func (b *binding) Parse(ctx context.Context, text string) ([]nlp.Sentence, error) {
	return b.client.Parse(ctx, b.lang, text)
}

// Close closes the shared client. It is idempotent.
func (b *binding) Close() error {
	return b.client.Close()
}
