package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"scholarcast/internal/config"
	"scholarcast/internal/logging"
	"scholarcast/internal/services"
)

// Object describes an uploaded artifact.
type Object struct {
	Key string
	URL string
}

// Client uploads pipeline artifacts to an S3-compatible bucket and produces
// shareable URLs for them.
type Client struct {
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	keyPrefix     string
	publicBaseURL string
	presignExpiry time.Duration
	logger        *slog.Logger
}

// NewClient constructs a storage client from configuration. It returns
// (nil, nil) when uploads are disabled so callers can treat the client as
// optional.
func NewClient(cfg config.Storage, logger *slog.Logger) (*Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsconfig.WithRegion(cfg.Region),
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "storage", "configure", "load aws config", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Client{
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		bucket:        cfg.Bucket,
		keyPrefix:     cfg.KeyPrefix,
		publicBaseURL: cfg.PublicBaseURL,
		presignExpiry: time.Duration(cfg.PresignExpiryMinutes) * time.Minute,
		logger:        logging.NewComponentLogger(logger, "storage"),
	}, nil
}

// UploadFile streams the file at path into the bucket under the paper's key
// and returns the stored object with its public or presigned URL.
func (c *Client) UploadFile(ctx context.Context, paperID string, path string) (Object, error) {
	file, err := os.Open(path)
	if err != nil {
		return Object{}, services.Wrap(services.ErrStorage, "storage", "upload", "open artifact", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Object{}, services.Wrap(services.ErrStorage, "storage", "upload", "stat artifact", err)
	}

	key := c.ObjectKey(paperID, filepath.Base(path))
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          file,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return Object{}, services.Wrap(services.ErrStorage, "storage", "upload", fmt.Sprintf("put object %s", key), err)
	}

	url, err := c.objectURL(ctx, key)
	if err != nil {
		return Object{}, err
	}

	c.logger.InfoContext(ctx, "artifact uploaded",
		logging.String("key", key),
		logging.Int64("size_bytes", info.Size()),
		logging.String("content_type", contentType))

	return Object{Key: key, URL: url}, nil
}

// ObjectKey returns the bucket key for an artifact belonging to a paper.
func (c *Client) ObjectKey(paperID string, filename string) string {
	parts := make([]string, 0, 3)
	if c.keyPrefix != "" {
		parts = append(parts, c.keyPrefix)
	}
	parts = append(parts, sanitizeKeySegment(paperID), filename)
	return strings.Join(parts, "/")
}

// PresignedURL returns a time-limited download URL for a previously uploaded
// object.
func (c *Client) PresignedURL(ctx context.Context, key string) (string, error) {
	req, err := c.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = c.presignExpiry
	})
	if err != nil {
		return "", services.Wrap(services.ErrStorage, "storage", "presign", fmt.Sprintf("presign %s", key), err)
	}
	return req.URL, nil
}

// Download streams a stored object into the file at destPath.
func (c *Client) Download(ctx context.Context, key string, destPath string) error {
	result, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return services.Wrap(services.ErrStorage, "storage", "download", fmt.Sprintf("get object %s", key), err)
	}
	defer result.Body.Close()

	file, err := os.Create(destPath)
	if err != nil {
		return services.Wrap(services.ErrStorage, "storage", "download", "create destination", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, result.Body); err != nil {
		return services.Wrap(services.ErrStorage, "storage", "download", fmt.Sprintf("copy object %s", key), err)
	}
	return nil
}

// Exists reports whether an object is present in the bucket.
func (c *Client) Exists(ctx context.Context, key string) bool {
	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	return err == nil
}

// Delete removes an object from the bucket.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return services.Wrap(services.ErrStorage, "storage", "delete", fmt.Sprintf("delete object %s", key), err)
	}
	c.logger.InfoContext(ctx, "artifact deleted", logging.String("key", key))
	return nil
}

func (c *Client) objectURL(ctx context.Context, key string) (string, error) {
	if c.publicBaseURL != "" {
		return c.publicBaseURL + "/" + key, nil
	}
	return c.PresignedURL(ctx, key)
}

// sanitizeKeySegment replaces characters that are awkward in object keys.
// arXiv identifiers contain slashes in the pre-2007 scheme.
func sanitizeKeySegment(value string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_")
	return replacer.Replace(value)
}
