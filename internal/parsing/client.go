// Package parsing provides the HTTP client for the remote CV parsing
// service. The service accepts a file upload and answers with an SSE-style
// body of progress/complete/error events; this package only opens the
// stream, decoding belongs to the stream package.
package parsing

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// DefaultTimeout bounds the whole streamed exchange, parsing included.
const DefaultTimeout = 5 * time.Minute

// Client talks to the parsing service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the service at baseURL. httpClient may be
// nil, in which case a client with DefaultTimeout is used.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: baseURL, client: httpClient}
}

// ParseStream uploads the file and returns the live event stream body. The
// caller owns the returned body and must close it. A 401 response yields an
// *AuthError; other non-2xx responses yield a *RequestError.
func (c *Client) ParseStream(ctx context.Context, filename string, file io.Reader, accessToken string) (io.ReadCloser, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err) //nolint:errcheck
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err) //nolint:errcheck
			return
		}
		pw.CloseWithError(mw.Close()) //nolint:errcheck
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/cv/parse", pr)
	if err != nil {
		return nil, &RequestError{Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &RequestError{Message: "HTTP request failed", Cause: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		return nil, &AuthError{Message: "parsing service rejected the credential"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, &RequestError{Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	return resp.Body, nil
}
