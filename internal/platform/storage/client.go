package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const defaultSignedURLExpiry = 15 * time.Minute

var (
	errNoSigner      = errors.New("storage: signer is required")
	errInvalidBucket = errors.New("storage: bucket name is required")
	errInvalidObject = errors.New("storage: object name is required")
)

// Client wraps the GCS client for export uploads and signed download URLs.
type Client struct {
	gcs    *storage.Client
	signer Signer
	scheme storage.SigningScheme
	now    func() time.Time
}

// ClientOption customises client behaviour.
type ClientOption func(*Client)

// WithSigningScheme overrides the signing scheme (defaults to V4).
func WithSigningScheme(scheme storage.SigningScheme) ClientOption {
	return func(c *Client) {
		if scheme != 0 {
			c.scheme = scheme
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) ClientOption {
	return func(c *Client) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewClient constructs a storage client for uploads and signed URLs.
func NewClient(gcs *storage.Client, signer Signer, opts ...ClientOption) (*Client, error) {
	if gcs == nil {
		return nil, errors.New("storage: gcs client is required")
	}
	if signer == nil || strings.TrimSpace(signer.Email()) == "" {
		return nil, errNoSigner
	}

	client := &Client{
		gcs:    gcs,
		signer: signer,
		scheme: storage.SigningSchemeV4,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Upload writes the payload to the bucket object with the given content type.
func (c *Client) Upload(ctx context.Context, bucket, object, contentType string, payload []byte) error {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return errInvalidBucket
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return errInvalidObject
	}

	w := c.gcs.Bucket(bucket).Object(object).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return fmt.Errorf("storage: write object %s/%s: %w", bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage: finalise object %s/%s: %w", bucket, object, err)
	}
	return nil
}

// SignedURLResult describes the generated signed URL details.
type SignedURLResult struct {
	URL       string
	ExpiresAt time.Time
}

// SignedDownloadURL creates a GET signed URL for the object. A non-positive
// expiry selects the default.
func (c *Client) SignedDownloadURL(ctx context.Context, bucket, object string, expiresIn time.Duration) (SignedURLResult, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return SignedURLResult{}, errInvalidBucket
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return SignedURLResult{}, errInvalidObject
	}
	if expiresIn <= 0 {
		expiresIn = defaultSignedURLExpiry
	}

	expires := c.now().UTC().Add(expiresIn)
	url, err := storage.SignedURL(bucket, object, &storage.SignedURLOptions{
		GoogleAccessID: c.signer.Email(),
		SignBytes: func(payload []byte) ([]byte, error) {
			return c.signer.SignBytes(ctx, payload)
		},
		Method:  "GET",
		Expires: expires,
		Scheme:  c.scheme,
	})
	if err != nil {
		return SignedURLResult{}, fmt.Errorf("storage: sign url for %s/%s: %w", bucket, object, err)
	}
	return SignedURLResult{URL: url, ExpiresAt: expires}, nil
}
