package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

const s3Scheme = "s3://"

// S3Options configure access to configuration stored in S3.
type S3Options struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
	Region       string
	URL          string
	PathStyle    bool
}

// ParseS3Path splits s3://bucket/key into bucket and key.
func ParseS3Path(path string) (bucket, key string, err error) {
	if !strings.HasPrefix(path, s3Scheme) {
		return "", "", fmt.Errorf("not an s3 path: %s", path)
	}

	parts := strings.SplitN(strings.TrimPrefix(path, s3Scheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("s3 path must be in form s3://bucket/key: %s", path)
	}

	return parts[0], parts[1], nil
}

func newS3Session(o S3Options) (*session.Session, error) {
	if o.URL != "" && !strings.HasPrefix(o.URL, "http://") && !strings.HasPrefix(o.URL, "https://") {
		o.URL = "http://" + o.URL
	}

	if o.Region == "" {
		o.Region = "eu-central-1"
	}

	cfg := &aws.Config{
		Region: aws.String(o.Region),
	}

	if o.AccessKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(
			o.AccessKey,
			o.SecretKey,
			o.SessionToken,
		)
	}

	if o.URL != "" {
		cfg.Endpoint = aws.String(o.URL)
	}

	if o.PathStyle {
		cfg.S3ForcePathStyle = aws.Bool(true)
	}

	return session.NewSession(cfg)
}

func readS3(ctx context.Context, path string, o S3Options) ([]byte, error) {
	bucket, key, err := ParseS3Path(path)
	if err != nil {
		return nil, err
	}

	sess, err := newS3Session(o)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	buf := aws.NewWriteAtBuffer(nil)

	_, err = s3manager.NewDownloader(sess).DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}

	return buf.Bytes(), nil
}
