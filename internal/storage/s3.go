package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/goudatijdmachine/filiatie/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var ErrNotFound = errors.New("object not found")

// S3API is the subset of the S3 client the bucket uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// PresignFunc signs a GET link for key that is valid for expiry.
type PresignFunc func(ctx context.Context, key string, expiry time.Duration) (string, error)

// Bucket stores export bundles.
type Bucket struct {
	client     S3API
	presign    PresignFunc
	name       string
	linkExpiry time.Duration
}

// NewBucketWithClient builds a Bucket on an arbitrary S3 implementation.
func NewBucketWithClient(client S3API, name string, linkExpiry time.Duration, presign PresignFunc) *Bucket {
	return &Bucket{client: client, presign: presign, name: name, linkExpiry: linkExpiry}
}

func NewS3Client(ctx context.Context, cfg config.S3) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithBaseEndpoint(cfg.Endpoint),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return client, nil
}

// NewBucket wraps client for cfg.Bucket. Download links are signed against
// cfg.PublicEndpoint when set, so they resolve from outside the cluster.
func NewBucket(client *s3.Client, cfg config.S3) (*Bucket, error) {
	presigner, prefix, err := newPresigner(client, cfg.PublicEndpoint)
	if err != nil {
		return nil, err
	}
	presign := func(ctx context.Context, key string, expiry time.Duration) (string, error) {
		out, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(cfg.Bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(expiry))
		if err != nil {
			return "", err
		}
		return withPathPrefix(out.URL, prefix)
	}
	return NewBucketWithClient(client, cfg.Bucket, cfg.LinkExpiry, presign), nil
}

func newPresigner(base *s3.Client, publicEndpoint string) (*s3.PresignClient, string, error) {
	if publicEndpoint == "" {
		return s3.NewPresignClient(base), "", nil
	}

	publicURL, err := url.Parse(publicEndpoint)
	if err != nil || publicURL.Scheme == "" || publicURL.Host == "" {
		return nil, "", fmt.Errorf("invalid public S3 endpoint: %s", publicEndpoint)
	}
	prefix := strings.TrimSuffix(publicURL.Path, "/")

	// The signature covers the Host header, so sign against the public host.
	publicClient := s3.NewFromConfig(
		aws.Config{
			Region:      base.Options().Region,
			Credentials: base.Options().Credentials,
			HTTPClient:  base.Options().HTTPClient,
		},
		func(o *s3.Options) {
			o.BaseEndpoint = aws.String(publicURL.Scheme + "://" + publicURL.Host)
			o.UsePathStyle = true
		},
	)
	return s3.NewPresignClient(publicClient), prefix, nil
}

func withPathPrefix(signed, prefix string) (string, error) {
	if prefix == "" {
		return signed, nil
	}
	u, err := url.Parse(signed)
	if err != nil {
		return "", fmt.Errorf("failed to parse presigned url: %w", err)
	}
	u.Path = prefix + u.Path
	return u.String(), nil
}

func (b *Bucket) Name() string {
	return b.name
}

// Put uploads data under key.
func (b *Bucket) Put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.name),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return nil
}

// Get downloads the object at key.
func (b *Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to get %s from S3: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Exists reports whether an object is stored under key.
func (b *Bucket) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", key, err)
}

// DownloadLink returns a presigned GET URL for key.
func (b *Bucket) DownloadLink(ctx context.Context, key string) (string, error) {
	link, err := b.presign(ctx, key, b.linkExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to generate download link: %w", err)
	}
	return link, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}
