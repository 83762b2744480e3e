package s3

import (
	"context"
	"fmt"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
)

const defaultPreviewTTL = 15 * time.Minute

type ItfS3 interface {
	UploadFile(ctx context.Context, body io.Reader, key string, contentType string) (string, error)
	PresignUrl(ctx context.Context, fileUrl string) (string, error)
}

type s3Client struct {
	client     *s3.S3
	uploader   *s3manager.Uploader
	bucketName string
	previewTTL time.Duration
}

// New reads AWS_REGION, AWS_BUCKET_NAME and static credentials from the
// environment. AWS_S3_ENDPOINT points the client at an S3 compatible store
// such as MinIO, using path-style addressing.
func New() (ItfS3, error) {
	bucket := os.Getenv("AWS_BUCKET_NAME")
	if bucket == "" {
		return nil, fmt.Errorf("AWS_BUCKET_NAME is required")
	}

	sess, err := newSession()
	if err != nil {
		return nil, err
	}

	previewTTL := defaultPreviewTTL
	if ttl, err := time.ParseDuration(os.Getenv("RECEIPT_PREVIEW_TTL")); err == nil && ttl > 0 {
		previewTTL = ttl
	}

	return &s3Client{
		client:     s3.New(sess),
		uploader:   s3manager.NewUploader(sess),
		bucketName: bucket,
		previewTTL: previewTTL,
	}, nil
}

// UploadFile stores body under key and returns the object location.
func (s *s3Client) UploadFile(ctx context.Context, body io.Reader, key string, contentType string) (string, error) {
	input := &s3manager.UploadInput{
		Bucket:               aws.String(s.bucketName),
		Key:                  aws.String(key),
		Body:                 body,
		ServerSideEncryption: aws.String(s3.ServerSideEncryptionAes256),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	uploadOutput, err := s.uploader.UploadWithContext(ctx, input)
	if err != nil {
		return "", err
	}

	return uploadOutput.Location, nil
}

// PresignUrl returns a time-limited GET link for an object previously
// returned by UploadFile.
func (s *s3Client) PresignUrl(ctx context.Context, fileUrl string) (string, error) {
	key, err := objectKey(fileUrl, s.bucketName)
	if err != nil {
		return "", err
	}

	_, err = s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("file does not exist: %w", err)
	}

	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})

	urlStr, err := req.Presign(s.previewTTL)
	if err != nil {
		return "", err
	}

	return urlStr, nil
}

// objectKey accepts virtual-hosted URLs (bucket.s3.region.amazonaws.com/key),
// path-style URLs (host/bucket/key) and bare keys.
func objectKey(fileUrl string, bucket string) (string, error) {
	u, err := url.Parse(fileUrl)
	if err != nil {
		return "", fmt.Errorf("failed to parse S3 url: %w", err)
	}

	if u.Host == "" {
		return strings.TrimPrefix(u.Path, "/"), nil
	}

	key := strings.TrimPrefix(u.Path, "/")
	if !strings.HasPrefix(u.Host, bucket+".") {
		key = strings.TrimPrefix(key, bucket+"/")
	}
	if key == "" {
		return "", fmt.Errorf("no object key in %q", fileUrl)
	}

	return key, nil
}

func newSession() (*session.Session, error) {
	cfg := &aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
		Credentials: credentials.NewStaticCredentials(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		),
	}

	if endpoint := os.Getenv("AWS_S3_ENDPOINT"); endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}

	return sess, nil
}
