package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Bucket describes an object-storage bucket.
type Bucket struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Public        bool   `json:"public"`
	FileSizeLimit int64  `json:"file_size_limit"`
}

// ListBuckets lists the project's storage buckets.
func (c *Client) ListBuckets(ctx context.Context) ([]Bucket, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/storage/v1/bucket", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, "")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var buckets []Bucket
	if err := resp.JSON(&buckets); err != nil {
		return nil, fmt.Errorf("unmarshal buckets: %w", err)
	}
	return buckets, nil
}

// CreateBucket creates a bucket. fileSizeLimit caps individual object
// size in bytes; zero means the project default.
func (c *Client) CreateBucket(ctx context.Context, name string, public bool, fileSizeLimit int64) error {
	payload := map[string]any{
		"id":     name,
		"name":   name,
		"public": public,
	}
	if fileSizeLimit > 0 {
		payload["file_size_limit"] = fileSizeLimit
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal bucket: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/storage/v1/bucket", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	return resp.Err()
}

// Upload stores an object. The user's access token is passed so storage
// access policies see the owning identity.
func (c *Client) Upload(ctx context.Context, bucket, path string, data []byte, contentType, accessToken string) error {
	reqURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, bucket, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, accessToken)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	return resp.Err()
}

// PublicURL resolves the public address of an object in a public bucket.
func (c *Client) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, bucket, path)
}
