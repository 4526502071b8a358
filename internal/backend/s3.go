package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/JOJ0/discodos-sub001/internal/discosync"
)

const defaultS3Region = "us-east-1"

// S3Config holds the settings for an S3 or S3-compatible bucket.
type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // set for MinIO and other S3-compatible services
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

var (
	s3NotFoundCodes = map[string]bool{"NotFound": true, "NoSuchKey": true}
	s3AuthCodes     = map[string]bool{
		"AccessDenied":          true,
		"Forbidden":             true,
		"InvalidAccessKeyId":    true,
		"SignatureDoesNotMatch": true,
		"ExpiredToken":          true,
	}
	s3QuotaCodes = map[string]bool{
		"QuotaExceeded":                  true,
		"XMinioStorageFull":              true,
		"XMinioAdminBucketQuotaExceeded": true,
	}
)

// S3Backend stores versions as objects under a key prefix in one bucket.
type S3Backend struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	logger   discosync.Logger
}

// NewS3Backend builds an S3 client from cfg and checks access to the bucket once.
// Without explicit keys the default AWS credential chain is used.
func NewS3Backend(cfg S3Config, logger discosync.Logger) (*S3Backend, error) {
	if cfg.Bucket == "" {
		return nil, discosync.ConfigErrorf("s3 backend requires s3_bucket to be set")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, discosync.ConfigErrorf("s3 backend requires both s3_access_key_id and s3_secret_access_key")
	}
	if logger == nil {
		logger = discosync.NewNopLogger()
	}

	region := cfg.Region
	if region == "" {
		region = defaultS3Region
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)
		opts = append(opts, config.WithCredentialsProvider(creds))
	}

	ctx := context.Background()
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	b := &S3Backend{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		prefix:   normalizeS3Prefix(cfg.Prefix),
		logger:   logger,
	}

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		if code := s3ErrorCode(err); code == "NotFound" || code == "NoSuchBucket" {
			return nil, discosync.ConfigErrorf("s3 bucket %s does not exist", cfg.Bucket)
		}
		return nil, b.translate(err, "identity check")
	}
	return b, nil
}

// normalizeS3Prefix returns prefix with exactly one trailing slash, or "".
func normalizeS3Prefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

func (b *S3Backend) Name() string { return "s3" }

func (b *S3Backend) key(name string) string {
	return b.prefix + name
}

// Exists issues a HEAD request for name. Not found is false. Other API errors
// are logged and reported as true so the caller does not overwrite.
func (b *S3Backend) Exists(name string) (bool, error) {
	_, err := b.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(name)),
	})
	if err == nil {
		return true, nil
	}
	if cerr := classifyTransport(b.logger, "s3", "exists", err); cerr != nil {
		return false, cerr
	}
	code := s3ErrorCode(err)
	if s3NotFoundCodes[code] {
		return false, nil
	}
	if s3AuthCodes[code] {
		return false, discosync.MarkAuth(err, "s3 exists")
	}
	b.logger.Warn("head object failed, assuming version exists", "version", name, "error", err)
	return true, nil
}

// List returns the objects directly under the prefix in key order.
func (b *S3Backend) List() ([]discosync.RemoteEntry, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(b.bucket),
		Prefix:    aws.String(b.prefix),
		Delimiter: aws.String("/"),
	}

	var entries []discosync.RemoteEntry
	paginator := s3.NewListObjectsV2Paginator(b.client, input)
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(context.Background())
		if err != nil {
			return nil, b.translate(err, "list")
		}
		for _, obj := range output.Contents {
			key := aws.ToString(obj.Key)
			name := strings.TrimPrefix(key, b.prefix)
			if name == "" || strings.HasSuffix(key, "/") {
				continue
			}
			entries = append(entries, discosync.RemoteEntry{
				Name: name,
				Rev:  strings.Trim(aws.ToString(obj.ETag), `"`),
			})
		}
	}
	return entries, nil
}

// Upload puts content under name. PUT replaces an existing object.
func (b *S3Backend) Upload(name string, content []byte) error {
	_, err := b.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(name)),
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return b.translate(err, "upload")
	}
	return nil
}

func (b *S3Backend) Download(name string, w io.Writer) error {
	out, err := b.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(name)),
	})
	if err != nil {
		return b.translate(err, "download")
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		if cerr := classifyTransport(b.logger, "s3", "download", err); cerr != nil {
			return cerr
		}
		return discosync.MarkBackend(err, "s3 download")
	}
	return nil
}

// s3ErrorCode returns the API error code carried by err, or "".
func s3ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// translate maps an AWS SDK error onto the error taxonomy.
func (b *S3Backend) translate(err error, op string) error {
	if cerr := classifyTransport(b.logger, "s3", op, err); cerr != nil {
		return cerr
	}

	msg := "s3 " + op
	code := s3ErrorCode(err)
	switch {
	case s3AuthCodes[code]:
		return discosync.MarkAuth(err, msg)
	case s3QuotaCodes[code]:
		return discosync.MarkQuota(err, msg)
	case s3NotFoundCodes[code]:
		return discosync.MarkNotFound(err, msg)
	default:
		return discosync.MarkBackend(err, msg)
	}
}

// Compile-time check that S3Backend implements discosync.Backend
var _ discosync.Backend = (*S3Backend)(nil)
