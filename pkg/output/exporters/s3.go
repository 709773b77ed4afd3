package exporters

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ajitpratap0/penguin/pkg/errors"
)

// S3Config configures the S3 exporter.
type S3Config struct {
	BucketConfig `mapstructure:",squash" yaml:",inline"`
	Region       string `mapstructure:"region" yaml:"region,omitempty"`
	// Endpoint overrides the S3 endpoint for compatible stores.
	Endpoint       string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	UsePathStyle   bool   `mapstructure:"use_path_style" yaml:"use_path_style,omitempty"`
	UploadPartSize int64  `mapstructure:"upload_part_size" yaml:"upload_part_size,omitempty"`
	Concurrency    int    `mapstructure:"concurrency" yaml:"concurrency,omitempty"`
}

// S3 stores each formatted output as an S3 object through the multipart uploader.
type S3 struct {
	*bucketExporter
}

// NewS3 loads the default AWS configuration and builds an uploader.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "s3 exporter requires a bucket")
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load AWS configuration")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.UploadPartSize > 0 {
			u.PartSize = cfg.UploadPartSize
		}
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
	})
	return NewS3WithUploader(uploader, cfg)
}

// Uploader uploads objects. *manager.Uploader satisfies it.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// NewS3WithUploader builds the exporter over an existing uploader.
func NewS3WithUploader(uploader Uploader, cfg S3Config) (*S3, error) {
	b, err := newBucketExporter(NameS3, &s3Store{uploader: uploader, bucket: cfg.Bucket}, cfg.BucketConfig)
	if err != nil {
		return nil, err
	}
	return &S3{bucketExporter: b}, nil
}

type s3Store struct {
	uploader Uploader
	bucket   string
}

func (s *s3Store) Put(ctx context.Context, obj Object) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(obj.Key),
		Body:        bytes.NewReader(obj.Body),
		ContentType: aws.String(obj.ContentType),
		Metadata:    obj.Metadata,
	}
	if obj.ContentEncoding != "" {
		input.ContentEncoding = aws.String(obj.ContentEncoding)
	}
	_, err := s.uploader.Upload(ctx, input)
	return err
}
