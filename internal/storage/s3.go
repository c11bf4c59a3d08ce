// Package storage moves rasters and sample outputs between the local disk and
// S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStore is the subset of the S3 API the command line needs.
type ObjectStore interface {
	Download(ctx context.Context, bucket, key, dst string) error
	Upload(ctx context.Context, src, bucket, key string) error
}

type S3Config struct {
	Region   string
	Endpoint string
	// AccessKey and SecretKey override the default credential chain when both are set.
	AccessKey string
	SecretKey string
}

type s3Store struct {
	client *s3.Client
}

func NewS3Store(ctx context.Context, cfg S3Config) (ObjectStore, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "http://" + endpoint
		}
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true // MinIO requires path-style URLs
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}
	return &s3Store{client: client}, nil
}

func (s *s3Store) Download(ctx context.Context, bucket, key, dst string) error {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to download s3://%s/%s: %w", bucket, key, err)
	}
	defer result.Body.Close()

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, result.Body); err != nil {
		f.Close()
		return fmt.Errorf("failed to download s3://%s/%s: %w", bucket, key, err)
	}
	return f.Close()
}

func (s *s3Store) Upload(ctx context.Context, src, bucket, key string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

func IsS3(uri string) bool {
	return strings.HasPrefix(uri, "s3://")
}

// ParseS3 splits s3://bucket/key.
func ParseS3(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid s3 uri %q", uri)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("s3 uri %q has no object key", uri)
	}
	return u.Host, key, nil
}

// Fetch makes uri available on local disk inside dir. Local paths are returned
// unchanged.
func Fetch(ctx context.Context, store ObjectStore, uri, dir string) (string, error) {
	if !IsS3(uri) {
		return uri, nil
	}
	bucket, key, err := ParseS3(uri)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(dir, path.Base(key))
	if err := store.Download(ctx, bucket, key, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// Publish uploads each local file next to the object named by uri, keeping the
// file's own extension so sidecar files land beside the main one.
func Publish(ctx context.Context, store ObjectStore, uri string, files ...string) error {
	bucket, key, err := ParseS3(uri)
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(key, path.Ext(key))
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := store.Upload(ctx, f, bucket, base+filepath.Ext(f)); err != nil {
			return err
		}
	}
	return nil
}
