package nekodeps

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// mirrorTransport serves archives from an S3-compatible bucket (R2, MinIO,
// S3) keyed by archive file name, e.g. zlib-ng-2.0.7.tar.gz.
type mirrorTransport struct {
	client *s3.Client
	bucket string
}

// newMirrorTransport builds the S3 client for m.
func newMirrorTransport(ctx context.Context, m MirrorSettings) (*mirrorTransport, error) {
	if m.Bucket == "" {
		return nil, fmt.Errorf("mirror bucket not configured (NEKODEPS_MIRROR_BUCKET)")
	}

	options := []func(*config.LoadOptions) error{
		config.WithRegion(m.Region),
	}
	if m.AccessKeyID != "" && m.SecretAccessKey != "" {
		options = append(options, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(m.AccessKeyID, m.SecretAccessKey, "")))
	}
	if Debug {
		options = append(options, config.WithClientLogMode(aws.LogRetries|aws.LogRequest|aws.LogResponse))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load mirror config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if m.Endpoint != "" {
			o.BaseEndpoint = aws.String(m.Endpoint)
		}
		o.UsePathStyle = true
	})

	return &mirrorTransport{client: client, bucket: m.Bucket}, nil
}

func (t *mirrorTransport) Name() string    { return "s3-mirror" }
func (t *mirrorTransport) Available() bool { return t.client != nil }

// Fetch ignores url and downloads the object named after dest.
func (t *mirrorTransport) Fetch(ctx context.Context, dest, _ string) error {
	key := filepath.Base(dest)
	output, err := t.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("mirror get %s: %w", key, err)
	}
	defer output.Body.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, output.Body); err != nil {
		return fmt.Errorf("failed to write to destination file: %w", err)
	}
	return out.Close()
}
