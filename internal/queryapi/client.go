// Package queryapi talks to the natural-language query backend.
package queryapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/tinytelemetry/nlconsole/internal/model"
)

// QueryPath is the backend endpoint for questions.
const QueryPath = "/api/llm_query"

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

const unknownServerError = "Unknown server error"

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 32 << 20

// Config configures a Client.
type Config struct {
	// BaseURL is the backend origin, e.g. http://localhost:5020.
	BaseURL string
	// Timeout bounds a whole request. Zero leaves it to the transport.
	Timeout time.Duration
}

// Client posts questions to the backend.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for cfg. httpClient may be nil.
func New(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = model.DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string { return c.baseURL }

// Ask sends question and decodes the answer.
//
// Transport failures and unreadable bodies are *model.NetworkError; a non-2xx
// status is *model.ServerError carrying the backend's answer or error text.
func (c *Client) Ask(ctx context.Context, question string) (model.Answer, error) {
	body, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return model.Answer{}, &model.NetworkError{Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+QueryPath, bytes.NewReader(body))
	if err != nil {
		return model.Answer{}, &model.NetworkError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Answer{}, &model.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return model.Answer{}, &model.NetworkError{Err: fmt.Errorf("read response: %w", err)}
	}
	if !gjson.ValidBytes(raw) {
		return model.Answer{}, &model.NetworkError{Err: fmt.Errorf("invalid JSON in response (status %d)", resp.StatusCode)}
	}
	doc := gjson.ParseBytes(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.Answer{}, &model.ServerError{StatusCode: resp.StatusCode, Message: serverMessage(doc)}
	}

	return model.Answer{
		Answer:   doc.Get("answer").String(),
		Data:     decodeRows(doc.Get("data")),
		Question: doc.Get("question").String(),
	}, nil
}

func serverMessage(doc gjson.Result) string {
	for _, key := range []string{"answer", "error"} {
		if msg := doc.Get(key).String(); msg != "" {
			return msg
		}
	}
	return unknownServerError
}

// decodeRows walks the data array keeping object keys in document order.
// A missing or null data field yields nil.
func decodeRows(data gjson.Result) model.QueryResult {
	if !data.IsArray() {
		return nil
	}
	rows := model.QueryResult{}
	data.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			rows = append(rows, model.Row{{Name: "value", Value: scalar(item)}})
			return true
		}
		var row model.Row
		item.ForEach(func(key, value gjson.Result) bool {
			row = append(row, model.Field{Name: key.String(), Value: scalar(value)})
			return true
		})
		rows = append(rows, row)
		return true
	})
	return rows
}

func scalar(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.String:
		return v.String()
	case gjson.Number:
		return v.Float()
	case gjson.True:
		return true
	case gjson.False:
		return false
	default:
		// nested objects and arrays are kept as raw JSON text
		return v.Raw
	}
}
