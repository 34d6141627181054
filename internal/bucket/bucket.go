package bucket

import (
	"context"
	"fmt"
	"io"

	"github.com/jekabolt/farmgoods-reports/internal/dependency"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	S3AccessKey       string `mapstructure:"s3AccessKey"`
	S3SecretAccessKey string `mapstructure:"s3SecretAccessKey"`
	S3Endpoint        string `mapstructure:"s3Endpoint"`
	S3BucketName      string `mapstructure:"s3BucketName"`
	S3BucketLocation  string `mapstructure:"s3BucketLocation"`
	BaseFolder        string `mapstructure:"baseFolder"`
	SubdomainEndpoint string `mapstructure:"subdomainEndpoint"`
}

// objectPutter is the part of the minio client used for uploads.
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Bucket struct {
	client objectPutter
	*Config
}

var _ dependency.FileStore = (*Bucket)(nil)

// Enabled reports whether an upload target is configured.
func (c *Config) Enabled() bool {
	return c.S3Endpoint != "" && c.S3BucketName != ""
}

func (c *Config) Init() (*Bucket, error) {
	cli, err := minio.New(c.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.S3AccessKey, c.S3SecretAccessKey, ""),
		Secure: true,
		Region: c.S3BucketLocation,
	})
	if err != nil {
		return nil, fmt.Errorf("can't create s3 client: %w", err)
	}
	return &Bucket{
		client: cli,
		Config: c,
	}, nil
}
