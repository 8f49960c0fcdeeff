// Package httpstore talks to the blob storage service's REST surface:
// objects are uploaded into a bucket and read back through tokenized
// public download URLs.
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-social-client/blob"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	bucket     string
	logger     zerolog.Logger
}

var _ blob.Store = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL, bucket string, options ...Option) (*Client, error) {
	if bucket == "" {
		return nil, pkgerrors.New("[httpstore.New] bucket is required")
	}
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		bucket:     bucket,
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

type uploadResponse struct {
	Name           string `json:"name"`
	DownloadTokens string `json:"downloadTokens"`
}

// Upload stores the object and resolves its public URL. The download token,
// when issued, is carried as a query parameter the way the storage service's
// own SDKs build download URLs.
func (c *Client) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	endpoint := fmt.Sprintf("%s/v0/b/%s/o?name=%s", c.baseURL, c.bucket, url.QueryEscape(objectPath))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Client.Upload] http.NewRequestWithContext")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Client.Upload] httpClient.Do")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", pkgerrors.Errorf("[Client.Upload] storage rejected upload: status %d", resp.StatusCode)
	}

	var uploaded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", pkgerrors.Wrap(err, "[Client.Upload] decode response")
	}

	name := uploaded.Name
	if name == "" {
		name = objectPath
	}
	downloadURL := fmt.Sprintf("%s/v0/b/%s/o/%s?alt=media", c.baseURL, c.bucket, url.PathEscape(name))
	if uploaded.DownloadTokens != "" {
		downloadURL += "&token=" + url.QueryEscape(uploaded.DownloadTokens)
	}
	return downloadURL, nil
}
