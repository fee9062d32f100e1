package client

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/visionforge/api/internal/config"
)

// artifactPrefix roots every mirrored object; one folder per production.
const artifactPrefix = "productions"

// StorageClient mirrors generated artifacts to object storage
type StorageClient interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// ArtifactKey lays out a mirrored artifact as
// productions/<production>/<artifact>/<filename>. The artifact ID keeps keys
// unique when a scene is rendered more than once.
func ArtifactKey(productionID, artifactID, filename string) string {
	return path.Join(artifactPrefix, productionID, artifactID, path.Base(filename))
}

// R2Client mirrors production artifacts to a Cloudflare R2 bucket
type R2Client struct {
	s3Client *s3.Client
	bucket   string
	baseURL  string
}

// NewR2Client creates a new R2 storage client
func NewR2Client(cfg *config.R2Config) (*R2Client, error) {
	if cfg.AccountID == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("R2 configuration incomplete")
	}
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("R2 bucket not set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	return &R2Client{
		s3Client: s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		}),
		bucket:  cfg.BucketName,
		baseURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}, nil
}

// Upload mirrors one artifact and returns the URL clients download it from
func (c *R2Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if _, err := c.s3Client.PutObject(ctx, c.putInput(key, body, contentType)); err != nil {
		return "", fmt.Errorf("failed to mirror %s to R2: %w", key, err)
	}
	return c.objectURL(key), nil
}

// putInput names the download after the artifact's filename. Keys never
// repeat, so the object can be cached indefinitely.
func (c *R2Client) putInput(key string, body io.Reader, contentType string) *s3.PutObjectInput {
	return &s3.PutObjectInput{
		Bucket:             aws.String(c.bucket),
		Key:                aws.String(key),
		Body:               body,
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String(fmt.Sprintf("inline; filename=%q", path.Base(key))),
		CacheControl:       aws.String("public, max-age=31536000, immutable"),
	}
}

// Delete removes a mirrored artifact
func (c *R2Client) Delete(ctx context.Context, key string) error {
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}
	if _, err := c.s3Client.DeleteObject(ctx, input); err != nil {
		return fmt.Errorf("failed to delete %s from R2: %w", key, err)
	}
	return nil
}

func (c *R2Client) objectURL(key string) string {
	if c.baseURL != "" {
		return c.baseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com/%s", c.bucket, key)
}
