package exporters

import (
	"context"
	"crypto/tls"
	"strings"
	"sync"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/logger"
	"github.com/ajitpratap0/penguin/pkg/output"
)

// KafkaConfig configures the Kafka exporter.
type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers" yaml:"brokers"`
	Topic       string   `mapstructure:"topic" yaml:"topic"`
	ClientID    string   `mapstructure:"client_id" yaml:"client_id,omitempty"`
	Acks        string   `mapstructure:"acks" yaml:"acks,omitempty" validate:"omitempty,oneof=all -1 1 0"`
	Compression string   `mapstructure:"compression" yaml:"compression,omitempty" validate:"omitempty,oneof=none gzip snappy lz4 zstd"`
	Retries     int      `mapstructure:"retries" yaml:"retries,omitempty"`
	Idempotent  bool     `mapstructure:"idempotent" yaml:"idempotent,omitempty"`

	// Security settings
	TLS           bool   `mapstructure:"tls" yaml:"tls,omitempty"`
	SASLMechanism string `mapstructure:"sasl_mechanism" yaml:"sasl_mechanism,omitempty" validate:"omitempty,oneof=PLAIN SCRAM-SHA-256 SCRAM-SHA-512"`
	SASLUsername  string `mapstructure:"sasl_username" yaml:"sasl_username,omitempty"`
	SASLPassword  string `mapstructure:"sasl_password" yaml:"sasl_password,omitempty"`
}

// Kafka publishes each payload to a topic, keyed by node/premise.
type Kafka struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
	once     sync.Once
}

// NewKafka connects a synchronous producer to the configured brokers.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "kafka exporter requires brokers and a topic")
	}
	producer, err := sarama.NewSyncProducer(cfg.Brokers, SaramaConfig(cfg))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create Kafka producer").
			WithDetail("brokers", cfg.Brokers)
	}
	return NewKafkaWithProducer(producer, cfg.Topic), nil
}

// NewKafkaWithProducer builds the exporter over an existing producer.
func NewKafkaWithProducer(producer sarama.SyncProducer, topic string) *Kafka {
	return &Kafka{
		producer: producer,
		topic:    topic,
		logger:   logger.Get().With(zap.String("component", "exporter"), zap.String("exporter", NameKafka)),
	}
}

// SaramaConfig builds the producer configuration from cfg.
func SaramaConfig(cfg KafkaConfig) *sarama.Config {
	config := sarama.NewConfig()
	if cfg.ClientID != "" {
		config.ClientID = cfg.ClientID
	}

	switch cfg.Acks {
	case "1":
		config.Producer.RequiredAcks = sarama.WaitForLocal
	case "0":
		config.Producer.RequiredAcks = sarama.NoResponse
	default:
		config.Producer.RequiredAcks = sarama.WaitForAll
	}

	if cfg.Retries > 0 {
		config.Producer.Retry.Max = cfg.Retries
	}
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	switch strings.ToLower(cfg.Compression) {
	case "gzip":
		config.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		config.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		config.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		config.Producer.Compression = sarama.CompressionZSTD
		config.Version = sarama.V2_1_0_0
	default:
		config.Producer.Compression = sarama.CompressionNone
	}

	if cfg.Idempotent {
		config.Producer.Idempotent = true
		config.Producer.RequiredAcks = sarama.WaitForAll
		config.Net.MaxOpenRequests = 1
		if !config.Version.IsAtLeast(sarama.V0_11_0_0) {
			config.Version = sarama.V0_11_0_0
		}
	}

	if cfg.TLS {
		config.Net.TLS.Enable = true
		config.Net.TLS.Config = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if cfg.SASLMechanism != "" {
		config.Net.SASL.Enable = true
		config.Net.SASL.User = cfg.SASLUsername
		config.Net.SASL.Password = cfg.SASLPassword

		switch cfg.SASLMechanism {
		case "SCRAM-SHA-256":
			config.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
		case "SCRAM-SHA-512":
			config.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
		default:
			config.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		}
	}
	return config
}

// Name implements output.Exporter.
func (k *Kafka) Name() string { return NameKafka }

// Export implements output.Exporter.
func (k *Kafka) Export(ctx context.Context, o *output.PremiseOutput, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeTimeout, "export cancelled")
	}

	node, premise := subjectName(o.Node()), subjectName(o.Premise())
	headers := []sarama.RecordHeader{
		{Key: []byte("node"), Value: []byte(node)},
		{Key: []byte("premise"), Value: []byte(premise)},
		{Key: []byte("pass_validation"), Value: []byte(boolString(o.PassValidation()))},
	}
	if o.RunID() != "" {
		headers = append(headers, sarama.RecordHeader{Key: []byte("run_id"), Value: []byte(o.RunID())})
	}

	msg := &sarama.ProducerMessage{
		Topic:     k.topic,
		Key:       sarama.StringEncoder(node + "/" + premise),
		Value:     sarama.ByteEncoder(payload),
		Headers:   headers,
		Timestamp: o.ValidatedAt(),
	}
	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeExport, "failed to publish output").
			WithDetail("topic", k.topic)
	}
	k.logger.Debug("output published",
		zap.String("topic", k.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

// Close closes the producer. Subsequent calls are no-ops.
func (k *Kafka) Close() error {
	var err error
	k.once.Do(func() { err = k.producer.Close() })
	return err
}
