package exporters

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/penguin/pkg/compression"
	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/logger"
	"github.com/ajitpratap0/penguin/pkg/output"
)

// BucketConfig configures object storage exporters.
type BucketConfig struct {
	Bucket          string             `mapstructure:"bucket" yaml:"bucket"`
	Prefix          string             `mapstructure:"prefix" yaml:"prefix,omitempty"`
	CredentialsPath string             `mapstructure:"credentials_path" yaml:"credentials_path,omitempty"`
	Extension       string             `mapstructure:"extension" yaml:"extension,omitempty"`
	ContentType     string             `mapstructure:"content_type" yaml:"content_type,omitempty"`
	Compression     compression.Config `mapstructure:"compression" yaml:"compression,omitempty"`
}

// Object is a payload ready to be stored.
type Object struct {
	Key             string
	Body            []byte
	ContentType     string
	ContentEncoding string
	Metadata        map[string]string
}

// ObjectStore writes objects to a bucket.
type ObjectStore interface {
	Put(ctx context.Context, obj Object) error
}

// bucketExporter stores one object per output, compressing the payload first.
type bucketExporter struct {
	name        string
	store       ObjectStore
	prefix      string
	extension   string
	contentType string
	compressor  compression.Compressor
	logger      *zap.Logger
}

func newBucketExporter(name string, store ObjectStore, cfg BucketConfig) (*bucketExporter, error) {
	compressor, err := compression.NewCompressor(cfg.Compression)
	if err != nil {
		return nil, err
	}
	ext := cfg.Extension
	if ext == "" {
		ext = ".json"
	}
	contentType := cfg.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	return &bucketExporter{
		name:        name,
		store:       store,
		prefix:      cfg.Prefix,
		extension:   ext,
		contentType: contentType,
		compressor:  compressor,
		logger:      logger.Get().With(zap.String("component", "exporter"), zap.String("exporter", name)),
	}, nil
}

func (b *bucketExporter) Name() string { return b.name }

func (b *bucketExporter) Export(ctx context.Context, o *output.PremiseOutput, payload []byte) error {
	body, err := b.compressor.Compress(payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeExport, "failed to compress payload")
	}

	key := objectKey(b.prefix, o, b.extension+b.compressor.Extension())
	obj := Object{
		Key:             key,
		Body:            body,
		ContentType:     b.contentType,
		ContentEncoding: b.compressor.ContentEncoding(),
		Metadata:        objectMetadata(o),
	}
	if err := b.store.Put(ctx, obj); err != nil {
		return errors.Wrap(err, errors.ErrorTypeExport, "failed to store object").
			WithDetail("key", key)
	}
	b.logger.Debug("object stored", zap.String("key", key), zap.Int("bytes", len(body)))
	return nil
}

func objectMetadata(o *output.PremiseOutput) map[string]string {
	md := map[string]string{
		"node":            subjectName(o.Node()),
		"premise":         subjectName(o.Premise()),
		"pass_validation": boolString(o.PassValidation()),
	}
	if o.RunID() != "" {
		md["run_id"] = o.RunID()
	}
	return md
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
