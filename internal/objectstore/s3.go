package objectstore

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/pkg/errors"
)

// Config for an S3-compatible bucket.
type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// PublicURL is the base URL under which objects of Bucket are publicly readable.
	PublicURL  string
	HTTPClient *http.Client
}

// Object is a stored blob opened for reading.
type Object struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// Store keeps video blobs in one bucket.
type Store struct {
	api       s3iface.S3API
	uploader  s3manageriface.UploaderAPI
	bucket    string
	publicURL string
}

// New builds a Store from static credentials with path-style addressing.
func New(c Config) (*Store, error) {
	awsCfg := aws.Config{
		Credentials:      credentials.NewStaticCredentials(c.AccessKeyID, c.SecretAccessKey, ""),
		Region:           aws.String(c.Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if c.Endpoint != "" {
		awsCfg.Endpoint = aws.String(c.Endpoint)
	}
	if c.HTTPClient != nil {
		awsCfg.HTTPClient = c.HTTPClient
	}

	sess, err := session.NewSession(&awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "create storage session")
	}

	api := s3.New(sess)
	return NewWithAPI(api, s3manager.NewUploaderWithClient(api), c.Bucket, c.PublicURL), nil
}

// NewWithAPI builds a Store on top of existing clients.
func NewWithAPI(api s3iface.S3API, uploader s3manageriface.UploaderAPI, bucket, publicURL string) *Store {
	return &Store{
		api:       api,
		uploader:  uploader,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Upload writes body under key.
func (s *Store) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	input := s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if _, err := s.uploader.UploadWithContext(ctx, &input); err != nil {
		return errors.Wrapf(err, "upload %s", key)
	}
	return nil
}

// Remove deletes the object at key.
func (s *Store) Remove(ctx context.Context, key string) error {
	_, err := s.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.Wrapf(err, "remove %s", key)
	}
	return nil
}

// Open streams the object at key.
func (s *Store) Open(ctx context.Context, key string) (*Object, error) {
	out, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", key)
	}
	return &Object{
		Body:          out.Body,
		ContentType:   aws.StringValue(out.ContentType),
		ContentLength: aws.Int64Value(out.ContentLength),
	}, nil
}

// SignedURL returns a time-limited GET URL for key.
func (s *Store) SignedURL(key string, ttl time.Duration) (string, error) {
	req, _ := s.api.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	u, err := req.Presign(ttl)
	if err != nil {
		return "", errors.Wrapf(err, "sign %s", key)
	}
	return u, nil
}

// PublicURL returns the public location of key.
func (s *Store) PublicURL(key string) string {
	return s.publicURL + "/" + key
}

// KeyFromURL recovers the object key from a URL built by PublicURL. URLs
// from elsewhere fall back to their last path segment.
func (s *Store) KeyFromURL(url string) string {
	if s.publicURL != "" && strings.HasPrefix(url, s.publicURL+"/") {
		return strings.TrimPrefix(url, s.publicURL+"/")
	}
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}
