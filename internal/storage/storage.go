package storage

import (
	"context"
	"io"
	"strings"

	"momo-vod/internal/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
)

// Client is the bucket-level view the ingester works with: dumps arrive in
// the ingest bucket and leave for the archive bucket.
type Client struct {
	backend       StorageProvider
	bucketIngest  string
	bucketArchive string
}

func New(cfg *config.Config) *Client {
	var backend StorageProvider

	if cfg.Storage.Provider == "s3" {
		s3Config := &aws.Config{
			Credentials:      credentials.NewStaticCredentials(cfg.Storage.KeyID, cfg.Storage.AppKey, ""),
			Endpoint:         aws.String(cfg.Storage.Endpoint),
			Region:           aws.String(cfg.Storage.Region),
			S3ForcePathStyle: aws.Bool(true),
		}
		sess := session.Must(session.NewSession(s3Config))
		backend = NewS3Provider(sess)
	} else {
		backend = NewLocalProvider(cfg.Storage.LocalPath)
	}

	return NewWithProvider(backend, cfg.Storage.BucketIngest, cfg.Storage.BucketArchive)
}

// NewWithProvider wires a Client to an explicit backend.
func NewWithProvider(backend StorageProvider, bucketIngest, bucketArchive string) *Client {
	return &Client{
		backend:       backend,
		bucketIngest:  bucketIngest,
		bucketArchive: bucketArchive,
	}
}

func (c *Client) IngestBucket() string { return c.bucketIngest }

// --- Ingest Queue ---

func (c *Client) UploadIngestFile(ctx context.Context, key string, body io.ReadSeeker, contentType string) error {
	return c.backend.Put(ctx, c.bucketIngest, key, body, contentType, "")
}

// ListIngestFiles returns queued object keys, skipping directory markers.
func (c *Client) ListIngestFiles(ctx context.Context) ([]string, error) {
	keys, err := c.backend.List(ctx, c.bucketIngest, "")
	if err != nil {
		return nil, err
	}
	out := keys[:0]
	for _, key := range keys {
		if strings.HasSuffix(key, "/") {
			continue
		}
		out = append(out, key)
	}
	return out, nil
}

func (c *Client) DownloadIngestFile(ctx context.Context, key string) (*FileObject, error) {
	return c.backend.Get(ctx, c.bucketIngest, key)
}

func (c *Client) DeleteIngestFile(ctx context.Context, key string) error {
	return c.backend.Delete(ctx, c.bucketIngest, key)
}

// --- Archive ---

// ArchiveFile stores a processed dump. Archived dumps never change.
func (c *Client) ArchiveFile(ctx context.Context, key string, body io.ReadSeeker, contentType string) error {
	return c.backend.Put(ctx, c.bucketArchive, key, body, contentType, "public, max-age=31536000, immutable")
}

func (c *Client) DownloadArchiveFile(ctx context.Context, key string) (*FileObject, error) {
	return c.backend.Get(ctx, c.bucketArchive, key)
}

func (c *Client) ListArchive(ctx context.Context, prefix string) ([]string, error) {
	return c.backend.List(ctx, c.bucketArchive, prefix)
}

func (c *Client) IsArchived(ctx context.Context, key string) (bool, error) {
	return c.backend.Exists(ctx, c.bucketArchive, key)
}
