package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

const cacheControl = "public, max-age=31536000, immutable"

type S3Config struct {
	Bucket         string
	Region         string
	Endpoint       string // empty for AWS, set for MinIO and friends
	ForcePathStyle bool
	PublicBaseURL  string
}

// NewS3Client builds a client from the default credential chain.
func NewS3Client(cfg S3Config) (*s3.S3, error) {
	awsCfg := aws.NewConfig().
		WithRegion(cfg.Region).
		WithS3ForcePathStyle(cfg.ForcePathStyle)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return s3.New(sess), nil
}

// BaseURL is where stored objects are publicly served from: the configured
// PublicBaseURL, else the bucket's own endpoint URL.
func (c S3Config) BaseURL() string {
	if c.PublicBaseURL != "" {
		return strings.TrimRight(c.PublicBaseURL, "/")
	}
	if c.Endpoint != "" {
		endpoint := strings.TrimRight(c.Endpoint, "/")
		if c.ForcePathStyle {
			return endpoint + "/" + c.Bucket
		}
		if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
			return u.Scheme + "://" + c.Bucket + "." + u.Host
		}
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
}

type S3Store struct {
	client  s3iface.S3API
	bucket  string
	baseURL string
	logger  *log.Logger
}

func NewS3Store(client s3iface.S3API, bucket, publicBaseURL string, logger *log.Logger) *S3Store {
	if logger == nil {
		logger = log.Default()
	}

	return &S3Store{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:  logger,
	}
}

func (s *S3Store) Put(ctx context.Context, objectPath, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(objectPath),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return "", fmt.Errorf("blob: put %s: %w", objectPath, err)
	}

	s.logger.Printf("blob: stored %s (%d bytes)", objectPath, len(data))
	return s.URL(objectPath), nil
}

func (s *S3Store) Delete(ctx context.Context, rawURL string) error {
	key, err := s.Key(rawURL)
	if err != nil {
		return err
	}

	// DeleteObject succeeds for absent keys, so probe first.
	_, err = s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if isNotFound(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("blob: head %s: %w", key, err)
	}

	_, err = s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("blob: delete %s: %w", key, err)
	}

	s.logger.Printf("blob: deleted %s", key)
	return nil
}

// URL is the public address of an object; each path segment is escaped.
func (s *S3Store) URL(objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + strings.Join(segments, "/")
}

// Key recovers the object key from a URL produced by URL.
func (s *S3Store) Key(rawURL string) (string, error) {
	rest, ok := strings.CutPrefix(rawURL, s.baseURL+"/")
	if !ok || rest == "" {
		return "", fmt.Errorf("blob: %q is not served from %s", rawURL, s.baseURL)
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}

	key, err := url.PathUnescape(rest)
	if err != nil {
		return "", fmt.Errorf("blob: bad object url %q: %w", rawURL, err)
	}
	return key, nil
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code() {
	case "NotFound", s3.ErrCodeNoSuchKey:
		return true
	}
	return false
}
