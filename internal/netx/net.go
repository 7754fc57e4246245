// Package netx holds low-level HTTP helpers that do not speak JSON, used
// for raw object uploads to the hosted storage service.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// StatusError is a non-2xx response to an upload. It keeps the status and
// raw body so callers can categorize the failure instead of treating every
// rejection as a transport problem.
type StatusError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upload failed: %s; body: %s", e.Status, e.Body)
}

// UploadBytes PUTs or POSTs raw bytes to url with the given headers and
// returns the response body. A non-2xx status is returned as a *StatusError.
func UploadBytes(ctx context.Context, client *http.Client, method, url string, headers map[string]string, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: body}
	}
	return body, nil
}
