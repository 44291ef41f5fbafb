package jules

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// httpClient handles HTTP communication with the Jules API.
type httpClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

func newHTTPClient(cfg *clientConfig) *httpClient {
	return &httpClient{
		client:  cfg.httpClient,
		baseURL: strings.TrimSuffix(cfg.baseURL, "/"),
		apiKey:  cfg.apiKey,
		logger:  cfg.logger,
	}
}

// request performs a single HTTP request. body and result may be nil.
func (h *httpClient) request(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("jules: marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("jules: create request: %w", err)
	}
	h.setHeaders(req)

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("jules: do request: %w", err)
	}
	defer resp.Body.Close()
	h.logger.Debug("jules: request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	return h.handleResponse(resp, result)
}

func (h *httpClient) setHeaders(req *http.Request) {
	req.Header.Set("X-Goog-Api-Key", h.apiKey)
	req.Header.Set("Content-Type", "application/json")
}

func (h *httpClient) handleResponse(resp *http.Response, result any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("jules: read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(body, resp.StatusCode)
	}
	if result == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("jules: unmarshal response: %w", err)
	}
	return nil
}

// parseError takes the message from error.message, then message, then the
// HTTP status text.
func parseError(body []byte, httpStatus int) error {
	e := &Error{HTTPStatus: httpStatus}

	var errBody struct {
		Error *struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errBody); err == nil {
		if errBody.Error != nil {
			e.Message = errBody.Error.Message
			e.Status = errBody.Error.Status
		}
		if e.Message == "" {
			e.Message = errBody.Message
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(httpStatus)
	}
	if e.Message == "" {
		e.Message = "Unknown error"
	}
	return e
}
