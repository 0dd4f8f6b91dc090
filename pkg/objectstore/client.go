// Package objectstore fetches artefact bytes from an external object store
// through signed HTTP requests. Only descriptors live in the database; this
// client is the sole path to the bytes themselves.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config contains the connection settings for the object store.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

// Object is a fetched artefact stream with its upstream content type.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Client downloads objects via signed GET requests.
type Client struct {
	endpoint string
	bucket   string
	signer   *Signer
	http     *http.Client
	logger   zerolog.Logger
}

// New constructs an object store client.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("object store endpoint must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("object store credentials must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("object store bucket must be provided")
	}

	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		bucket:   cfg.Bucket,
		signer:   NewSigner(Credentials{AccessKey: cfg.AccessKey, SecretKey: cfg.SecretKey}, cfg.Region),
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logger.With().Str("component", "objectstore").Logger(),
	}, nil
}

// Fetch downloads the object stored under key. The caller owns the body and
// must close it.
func (c *Client) Fetch(ctx context.Context, key string) (Object, error) {
	url := fmt.Sprintf("%s/%s/%s", c.endpoint, c.bucket, strings.TrimLeft(key, "/"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Object{}, fmt.Errorf("failed to build request: %w", err)
	}

	c.signer.Sign(req, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return Object{}, fmt.Errorf("object store request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		c.logger.Error().Int("status", resp.StatusCode).Str("key", key).Msg("object store returned error")
		return Object{}, fmt.Errorf("object store returned status %d", resp.StatusCode)
	}

	return Object{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}, nil
}
