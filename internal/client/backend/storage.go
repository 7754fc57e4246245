package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/resqlink/resq-go/internal/netx"
)

// Upload stores data under bucket/path in the hosted object storage and
// returns the public URL for the object. The bucket is expected to be
// public-read; write access rides on the caller's session.
func (c *RESTClient) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	headers := map[string]string{
		"apikey":       c.apiKey,
		"Content-Type": contentType,
	}
	if token := c.accessToken(); token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, bucket, path)
	if _, err := netx.UploadBytes(ctx, c.httpc, http.MethodPost, uploadURL, headers, data); err != nil {
		return "", c.wrapStorageErr(err)
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, bucket, path), nil
}

// wrapStorageErr categorizes an upload failure. HTTP rejections map by
// status like any other backend response, so a deterministic 4xx surfaces
// instead of masquerading as unreachability; only transport-level failures
// count as unavailable.
func (c *RESTClient) wrapStorageErr(err error) error {
	var se *netx.StatusError
	if errors.As(err, &se) {
		var ae apiError
		_ = json.Unmarshal(se.Body, &ae)
		return c.mapStatus(se.StatusCode, &ae)
	}
	return wrapTransport(err)
}
