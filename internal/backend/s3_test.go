package backend

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/minio"

	"github.com/JOJ0/discodos-sub001/internal/discosync"
)

const (
	s3TestBucket = "discosync-test"
	minioImage   = "minio/minio:RELEASE.2024-01-16T16-07-38Z"
)

// setupMinIO starts a MinIO container with an empty test bucket and returns
// a config pointing at it.
func setupMinIO(t *testing.T) S3Config {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := minio.Run(ctx, minioImage)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate MinIO container: %s", err)
		}
	})

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	if !strings.HasPrefix(endpoint, "http://") {
		endpoint = "http://" + endpoint
	}

	client := s3.New(s3.Options{
		BaseEndpoint: aws.String(endpoint),
		Region:       defaultS3Region,
		Credentials: aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: container.Username, SecretAccessKey: container.Password}, nil
		}),
		UsePathStyle: true,
	})
	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s3TestBucket)})
	require.NoError(t, err)

	return S3Config{
		Bucket:          s3TestBucket,
		Prefix:          "discodos",
		Endpoint:        endpoint,
		AccessKeyID:     container.Username,
		SecretAccessKey: container.Password,
	}
}

func TestNewS3Backend_Config(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
	}{
		{name: "missing bucket", cfg: S3Config{}},
		{name: "key without secret", cfg: S3Config{Bucket: "b", AccessKeyID: "AKIA"}},
		{name: "secret without key", cfg: S3Config{Bucket: "b", SecretAccessKey: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3Backend(tt.cfg, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, discosync.ErrConfig), "got %v", err)
		})
	}
}

func TestNormalizeS3Prefix(t *testing.T) {
	assert.Equal(t, "", normalizeS3Prefix(""))
	assert.Equal(t, "", normalizeS3Prefix("/"))
	assert.Equal(t, "discodos/", normalizeS3Prefix("discodos"))
	assert.Equal(t, "a/b/", normalizeS3Prefix("/a/b/"))
}

func TestS3Backend_MinIO(t *testing.T) {
	cfg := setupMinIO(t)

	b, err := NewS3Backend(cfg, nil)
	require.NoError(t, err)

	name := "discobase.db_2023-11-14_221320"

	exists, err := b.Exists(name)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, b.Upload(name, []byte("first")))
	require.NoError(t, b.Upload(name, []byte("second")), "upload must overwrite")
	require.NoError(t, b.Upload("discobase.db_2023-11-20_080000", []byte("later")))

	exists, err = b.Exists(name)
	require.NoError(t, err)
	assert.True(t, exists)

	entries, err := b.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, name, entries[0].Name)
	assert.NotEmpty(t, entries[0].Rev)

	var buf bytes.Buffer
	require.NoError(t, b.Download(name, &buf))
	assert.Equal(t, "second", buf.String())

	buf.Reset()
	err = b.Download("discobase.db_2000-01-01_000000", &buf)
	assert.True(t, errors.Is(err, discosync.ErrNotFound), "got %v", err)
}

func TestS3Backend_MinIO_WrongCredentials(t *testing.T) {
	cfg := setupMinIO(t)
	cfg.SecretAccessKey = "wrong-secret"

	_, err := NewS3Backend(cfg, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, discosync.ErrAuth), "got %v", err)
}
